// internal/infra/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
)

// SOLANA_MODE
const (
	SolanaModeLocal = "local" // プロセス内 ledger（localnet）
	SolanaModeRPC   = "rpc"   // devnet / mainnet の RPC
)

// Config はアプリケーション全体の環境変数設定を保持します。
type Config struct {
	Port string

	// ★ Solana
	SolanaMode           string
	SolanaRPCURL         string
	ProgramID            string
	PayerKeySecret       string // Secret Manager の secret version フルパス
	PayerKeyFile         string // solana-keygen の id.json
	CreatorPolicy        string // "authority" | "payer"
	DefaultRoyaltyPoints uint16

	// ★ 永続化（どちらも空ならメモリのみ）
	FirestoreProjectID       string
	FirestoreCredentialsFile string
	DatabaseURL              string

	// ★ off-chain metadata JSON の保存先
	GCSBucket      string
	GCSPublicBase  string
	ArweaveBaseURL string
	ArweaveAPIKey  string

	// ★ Firebase Auth（空なら POST /nfts は認証なし）
	FirebaseProjectID string

	// ★ SendGrid（API キーが空なら通知しない）
	SendGridAPIKey    string
	SendGridFromEmail string
	SendGridFromName  string
	NotifyEmail       string

	AllowedOrigins []string
}

// Load は環境変数を読み込み Config を返します。
func Load() *Config {
	cfg := &Config{
		Port: getenvDefault("PORT", "8080"),

		SolanaMode:           strings.ToLower(getenvDefault("SOLANA_MODE", SolanaModeLocal)),
		SolanaRPCURL:         os.Getenv("SOLANA_RPC_URL"),
		ProgramID:            getenvDefault("NFT_PROGRAM_ID", "FHPZSYygxX52f3op5TndwoN5Cadyixu4zTc2g13HAasP"),
		PayerKeySecret:       os.Getenv("SOLANA_PAYER_KEY_SECRET"),
		PayerKeyFile:         os.Getenv("SOLANA_PAYER_KEY_FILE"),
		CreatorPolicy:        getenvDefault("NFT_CREATOR_POLICY", "authority"),
		DefaultRoyaltyPoints: getenvUint16("NFT_DEFAULT_ROYALTY_BPS", 500),

		FirestoreProjectID:       os.Getenv("FIRESTORE_PROJECT_ID"),
		FirestoreCredentialsFile: os.Getenv("FIRESTORE_CREDENTIALS_FILE"),
		DatabaseURL:              os.Getenv("DATABASE_URL"),

		GCSBucket:      os.Getenv("NFT_METADATA_BUCKET"),
		GCSPublicBase:  getenvDefault("NFT_METADATA_PUBLIC_BASE", "https://storage.googleapis.com"),
		ArweaveBaseURL: os.Getenv("ARWEAVE_BASE_URL"),
		ArweaveAPIKey:  os.Getenv("ARWEAVE_API_KEY"),

		FirebaseProjectID: os.Getenv("FIREBASE_PROJECT_ID"),

		SendGridAPIKey:    os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail: getenvDefault("SENDGRID_FROM_EMAIL", "no-reply@narratives.jp"),
		SendGridFromName:  getenvDefault("SENDGRID_FROM_NAME", "Narratives"),
		NotifyEmail:       os.Getenv("NFT_NOTIFY_EMAIL"),

		AllowedOrigins: splitCSV(getenvDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")),
	}
	return cfg
}

// UseLocalChain は SOLANA_MODE=local か。
func (c *Config) UseLocalChain() bool {
	return c.SolanaMode != SolanaModeRPC
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvUint16(key string, def uint16) uint16 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return def
	}
	return uint16(n)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
