// internal/infra/arweave/uploader.go
package arweave

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	nftdom "narratives-nft/internal/domain/nft"
)

var (
	ErrEmptyBody        = errors.New("arweave: metadata json is empty")
	ErrNotConfigured    = errors.New("arweave: base url is empty; endpoint not configured")
	ErrEmptyUploadedURI = errors.New("arweave: upload response has empty uri")
)

// HTTPUploader は Irys Uploader (Cloud Run) などの HTTP API を叩いて
// metadata JSON を Arweave に置きます。
type HTTPUploader struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

var _ nftdom.MetadataStore = (*HTTPUploader)(nil)

// NewHTTPUploader は Arweave/Irys 用の HTTP uploader を生成します。
func NewHTTPUploader(baseURL, apiKey string) *HTTPUploader {
	return &HTTPUploader{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:  strings.TrimSpace(apiKey),
	}
}

// PutMetadata は MetadataStore の実装。key は Arweave 側ではタグとして送るだけ。
func (u *HTTPUploader) PutMetadata(ctx context.Context, key string, body []byte) (string, error) {
	if len(body) == 0 {
		return "", ErrEmptyBody
	}
	if u.baseURL == "" {
		return "", ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.baseURL+"/upload/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("X-Upload-Key", key)
	}
	if u.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+u.apiKey)
	}

	resp, err := u.client.Do(req)
	if err != nil {
		log.Printf("[arweave] http request FAILED err=%v", err)
		return "", fmt.Errorf("upload metadata to arweave: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[arweave] upload metadata FAILED status=%d body=%s", resp.StatusCode, string(bodyBytes))
		return "", fmt.Errorf("upload metadata failed: status=%d body=%s", resp.StatusCode, string(bodyBytes))
	}

	var res struct {
		URI string `json:"uri"` // 例: "https://gateway.irys.xyz/xxxx"
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if res.URI == "" {
		return "", ErrEmptyUploadedURI
	}

	log.Printf("[arweave] upload OK key=%s uri=%s", key, res.URI)
	return res.URI, nil
}
