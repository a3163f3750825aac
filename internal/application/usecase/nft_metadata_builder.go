// internal/application/usecase/nft_metadata_builder.go
package usecase

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// MetadataInput は off-chain metadata JSON（Metaplex Token Standard）の材料。
type MetadataInput struct {
	Name                 string
	Symbol               string
	Description          string
	Image                string
	ExternalURL          string
	SellerFeeBasisPoints uint16
	Attributes           map[string]string
}

// NFTMetadataBuilder は Metadata Record の uri が指す JSON を生成します。
type NFTMetadataBuilder struct{}

func NewNFTMetadataBuilder() *NFTMetadataBuilder {
	return &NFTMetadataBuilder{}
}

// Build は name / symbol を必須として JSON を返します。空の任意項目は出力しない。
func (b *NFTMetadataBuilder) Build(in MetadataInput) ([]byte, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("metadata name is empty")
	}

	metadata := map[string]interface{}{
		"name":                    name,
		"symbol":                  strings.TrimSpace(in.Symbol),
		"seller_fee_basis_points": in.SellerFeeBasisPoints,
	}

	if desc := strings.TrimSpace(in.Description); desc != "" {
		metadata["description"] = desc
	}
	if img := strings.TrimSpace(in.Image); img != "" {
		metadata["image"] = img
		metadata["properties"] = map[string]interface{}{
			"category": "image",
			"files": []map[string]string{
				{"uri": img, "type": guessImageType(img)},
			},
		}
	}
	if u := strings.TrimSpace(in.ExternalURL); u != "" {
		metadata["external_url"] = u
	}
	if len(in.Attributes) > 0 {
		attrs := make([]map[string]string, 0, len(in.Attributes))
		for _, k := range sortedKeys(in.Attributes) {
			attrs = append(attrs, map[string]string{"trait_type": k, "value": in.Attributes[k]})
		}
		metadata["attributes"] = attrs
	}

	return json.Marshal(metadata)
}

func guessImageType(uri string) string {
	u := strings.ToLower(uri)
	switch {
	case strings.HasSuffix(u, ".jpg"), strings.HasSuffix(u, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(u, ".gif"):
		return "image/gif"
	case strings.HasSuffix(u, ".webp"):
		return "image/webp"
	case strings.HasSuffix(u, ".svg"):
		return "image/svg+xml"
	default:
		return "image/png"
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
