package nft

import "context"

// ========================================
// Ports（契約のみ）
// ========================================

// Issuer は mint_nft 命令をチェーン（devnet / ローカル ledger）に送るポート。
// 新しい Mint アカウントは実装側で毎回生成する。
type Issuer interface {
	IssueNFT(ctx context.Context, p IssueParams) (Receipt, error)
}

// StateReader は発行済み NFT のオンチェーン状態を読むポート。
type StateReader interface {
	ReadAsset(ctx context.Context, mintAddress string) (Asset, error)
}

// AddressResolver は mint から PDA / ATA を事前計算するポート。
type AddressResolver interface {
	ResolveAddresses(mintAddress string) (Addresses, error)
}

// MetadataStore は off-chain metadata JSON の保存先（GCS / Arweave）。
// 戻り値は Metadata Record の uri にそのまま入る URL。
type MetadataStore interface {
	PutMetadata(ctx context.Context, key string, body []byte) (string, error)
}

// Notifier は発行完了の通知（メールなど）。best-effort。
type Notifier interface {
	NotifyIssued(ctx context.Context, in Issuance) error
}

// Repository は Issuance 記録の永続化ポート。
type Repository interface {
	Save(ctx context.Context, in Issuance) error
	GetByID(ctx context.Context, id string) (Issuance, error)
	GetByMintAddress(ctx context.Context, mintAddress string) (Issuance, error)
	List(ctx context.Context, limit int) ([]Issuance, error)
}
