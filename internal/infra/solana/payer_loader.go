// internal/infra/solana/payer_loader.go
package solana

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	secretspb "cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/blocto/solana-go-sdk/types"
)

var ErrPayerNotConfigured = errors.New("solana: payer keypair not configured (SOLANA_PAYER_KEY_SECRET / SOLANA_PAYER_KEY_FILE)")

// LoadPayer は mint_nft の手数料・rent を払う payer keypair を復元します。
//
// 優先順:
//  1. secretName（"projects/<PROJECT_ID>/secrets/<SECRET_ID>/versions/latest"）を Secret Manager から
//  2. keyFile（solana-keygen の id.json）
//
// どちらも中身は keypair JSON（[u8;64]）。
func LoadPayer(ctx context.Context, secretName, keyFile string) (types.Account, error) {
	secretName = strings.TrimSpace(secretName)
	keyFile = strings.TrimSpace(keyFile)

	switch {
	case secretName != "":
		return loadPayerFromSecret(ctx, secretName)
	case keyFile != "":
		return loadPayerFromFile(keyFile)
	default:
		return types.Account{}, ErrPayerNotConfigured
	}
}

func loadPayerFromSecret(ctx context.Context, secretName string) (types.Account, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return types.Account{}, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	defer client.Close()

	resp, err := client.AccessSecretVersion(ctx, &secretspb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return types.Account{}, fmt.Errorf("AccessSecretVersion: %w", err)
	}

	acc, err := AccountFromKeypairJSON(resp.Payload.Data)
	if err != nil {
		return types.Account{}, err
	}

	// ★ payer 復元ログ（公開鍵のみ）
	log.Printf("[narratives-nft] loaded payer from Secret Manager: secret=%s pubkey=%s", secretName, acc.PublicKey.ToBase58())
	return acc, nil
}

func loadPayerFromFile(path string) (types.Account, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.Account{}, fmt.Errorf("read keypair file: %w", err)
	}
	acc, err := AccountFromKeypairJSON(raw)
	if err != nil {
		return types.Account{}, err
	}
	log.Printf("[narratives-nft] loaded payer from file: path=%s pubkey=%s", path, acc.PublicKey.ToBase58())
	return acc, nil
}

// AccountFromKeypairJSON は keypair JSON から types.Account を復元します。
func AccountFromKeypairJSON(data []byte) (types.Account, error) {
	keyBytes, err := decodeKeypairJSON(data)
	if err != nil {
		return types.Account{}, err
	}
	acc, err := types.AccountFromBytes(keyBytes)
	if err != nil {
		return types.Account{}, fmt.Errorf("AccountFromBytes: %w", err)
	}
	return acc, nil
}

// EncodeKeypairJSON は solana-keygen 互換の [u8;64]（数値配列）にします。
func EncodeKeypairJSON(acc types.Account) ([]byte, error) {
	ints := make([]int, len(acc.PrivateKey))
	for i, b := range acc.PrivateKey {
		ints[i] = int(b)
	}
	return json.Marshal(ints)
}

// decodeKeypairJSON は keypair JSON から 64 バイトの鍵配列を復元します。
// - 正: [int,...]（solana-keygen 形式）
// - 互換: base64 文字列（[]byte の JSON 表現）
func decodeKeypairJSON(data []byte) ([]byte, error) {
	var ints []int
	if err := json.Unmarshal(data, &ints); err == nil {
		if len(ints) != ed25519.PrivateKeySize {
			return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(ints), ed25519.PrivateKeySize)
		}
		keyBytes := make([]byte, len(ints))
		for i, v := range ints {
			if v < 0 || v > 255 {
				return nil, fmt.Errorf("keypair byte out of range at %d: %d", i, v)
			}
			keyBytes[i] = byte(v)
		}
		return keyBytes, nil
	}

	var keyBytes []byte
	if err := json.Unmarshal(data, &keyBytes); err != nil {
		return nil, fmt.Errorf("unmarshal keypair json: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("unexpected secret key length: got %d, want %d", len(keyBytes), ed25519.PrivateKeySize)
	}
	return keyBytes, nil
}
