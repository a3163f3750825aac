// internal/adapters/out/gcs/metadata_store_gcs.go
package gcs

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"cloud.google.com/go/storage"

	nftdom "narratives-nft/internal/domain/nft"
)

// MetadataStoreGCS は off-chain metadata JSON を GCS に置き、公開 URL を返します。
// - 1 オブジェクト = 1 NFT の metadata.json
// - object name = "nft-metadata/<key>.json"
type MetadataStoreGCS struct {
	Client     *storage.Client
	Bucket     string
	PublicBase string // 例: "https://storage.googleapis.com"
}

const metadataPrefix = "nft-metadata/"

var _ nftdom.MetadataStore = (*MetadataStoreGCS)(nil)

func NewMetadataStoreGCS(client *storage.Client, bucket, publicBase string) *MetadataStoreGCS {
	pb := strings.TrimRight(strings.TrimSpace(publicBase), "/")
	if pb == "" {
		pb = "https://storage.googleapis.com"
	}
	return &MetadataStoreGCS{
		Client:     client,
		Bucket:     strings.TrimSpace(bucket),
		PublicBase: pb,
	}
}

// PutMetadata は body を application/json で保存します。
func (s *MetadataStoreGCS) PutMetadata(ctx context.Context, key string, body []byte) (string, error) {
	if s.Client == nil {
		return "", errors.New("MetadataStoreGCS: nil storage client")
	}
	if s.Bucket == "" {
		return "", errors.New("MetadataStoreGCS: bucket is empty")
	}
	objectPath := ObjectPath(key)
	if objectPath == "" {
		return "", errors.New("MetadataStoreGCS: key is empty")
	}

	w := s.Client.Bucket(s.Bucket).Object(objectPath).NewWriter(ctx)
	w.ContentType = "application/json"
	w.CacheControl = "public, max-age=31536000, immutable"
	if _, err := w.Write(body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("gcs write %s: %w", objectPath, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s: %w", objectPath, err)
	}

	url := fmt.Sprintf("%s/%s/%s", s.PublicBase, s.Bucket, objectPath)
	log.Printf("[gcs] metadata stored bucket=%s object=%s", s.Bucket, objectPath)
	return url, nil
}

// ObjectPath は key から object name を作ります。
func ObjectPath(key string) string {
	k := strings.Trim(strings.TrimSpace(key), "/")
	if k == "" {
		return ""
	}
	k = strings.TrimSuffix(k, ".json")
	return metadataPrefix + k + ".json"
}
