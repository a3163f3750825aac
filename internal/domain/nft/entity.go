// internal/domain/nft/entity.go
package nft

import (
	"errors"
	"strings"
	"time"
)

// Metaplex Token Metadata の上限値（オンチェーン側と揃える）
const (
	MaxNameLength           = 32
	MaxSymbolLength         = 10
	MaxURILength            = 200
	MaxSellerFeeBasisPoints = 10000
	MaxCreators             = 5
)

// 1 NFT = 1 mint / supply 1 / decimals 0
const (
	Decimals    uint8  = 0
	TotalSupply uint64 = 1
)

// Errors
var (
	ErrInvalidName       = errors.New("nft: invalid name")
	ErrInvalidSymbol     = errors.New("nft: invalid symbol")
	ErrInvalidURI        = errors.New("nft: invalid uri")
	ErrRoyaltyOutOfRange = errors.New("nft: seller fee basis points out of range (0-10000)")
	ErrInvalidMint       = errors.New("nft: invalid mint address")
	ErrNotFound          = errors.New("nft: not found")
)

// IssueParams は mint_nft 命令の引数そのもの。
type IssueParams struct {
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16 // 例: 500 = 5%
}

// Normalize は前後の空白を取り除いたコピーを返します。
func (p IssueParams) Normalize() IssueParams {
	return IssueParams{
		Name:                 strings.TrimSpace(p.Name),
		Symbol:               strings.TrimSpace(p.Symbol),
		URI:                  strings.TrimSpace(p.URI),
		SellerFeeBasisPoints: p.SellerFeeBasisPoints,
	}
}

// Validate はチェーンへ送る前の事前チェック。
// 同じ上限はプログラム側の Validator でも再検証される。
func (p IssueParams) Validate() error {
	if err := p.ValidateFields(); err != nil {
		return err
	}
	if p.URI == "" || len(p.URI) > MaxURILength {
		return ErrInvalidURI
	}
	return nil
}

// ValidateFields は uri 以外（name / symbol / royalty）だけを確認します。
// metadata JSON をアップロードして uri を決める前に使う。
func (p IssueParams) ValidateFields() error {
	if p.Name == "" || len(p.Name) > MaxNameLength {
		return ErrInvalidName
	}
	if len(p.Symbol) > MaxSymbolLength {
		return ErrInvalidSymbol
	}
	if p.SellerFeeBasisPoints > MaxSellerFeeBasisPoints {
		return ErrRoyaltyOutOfRange
	}
	return nil
}

// Creator は Metadata Record の creators 1 件。
type Creator struct {
	Address  string `json:"address"`
	Verified bool   `json:"verified"`
	Share    uint8  `json:"share"`
}

// Metadata は Metadata Record（オンチェーン）の読み取り結果。
type Metadata struct {
	Address              string    `json:"address"`
	UpdateAuthority      string    `json:"updateAuthority"`
	Name                 string    `json:"name"`
	Symbol               string    `json:"symbol"`
	URI                  string    `json:"uri"`
	SellerFeeBasisPoints uint16    `json:"sellerFeeBasisPoints"`
	Creators             []Creator `json:"creators"`
	IsMutable            bool      `json:"isMutable"`
}

// Asset は発行済み NFT のオンチェーン状態（Mint + Metadata + Holding Account）。
type Asset struct {
	MintAddress     string   `json:"mintAddress"`
	Decimals        uint8    `json:"decimals"`
	Supply          uint64   `json:"supply"`
	MintAuthority   string   `json:"mintAuthority"`
	FreezeAuthority string   `json:"freezeAuthority"`
	Metadata        Metadata `json:"metadata"`
	HolderAddress   string   `json:"holderAddress"`
	HoldingAccount  string   `json:"holdingAccount"`
	HoldingBalance  uint64   `json:"holdingBalance"`
}

// Addresses は mint から決定的に導出されるアドレス一式。
// クライアント側で事前計算するときと同じ結果になる。
type Addresses struct {
	ProgramID        string `json:"programId"`
	MintAddress      string `json:"mintAddress"`
	AuthorityAddress string `json:"authorityAddress"`
	AuthorityBump    uint8  `json:"authorityBump"`
	MetadataAddress  string `json:"metadataAddress"`
	HolderAddress    string `json:"holderAddress"`
	HoldingAccount   string `json:"holdingAccount"`
}

// Receipt はチェーンへの送信結果。
type Receipt struct {
	Addresses
	Signature string   `json:"signature"`
	Logs      []string `json:"logs,omitempty"`
}

// IssuanceStatus は発行記録の状態。
type IssuanceStatus string

const (
	StatusPending IssuanceStatus = "pending"
	StatusMinted  IssuanceStatus = "minted"
	StatusFailed  IssuanceStatus = "failed"
)

// Issuance は 1 回の発行リクエストの記録（Firestore / PostgreSQL に保存）。
type Issuance struct {
	ID                   string         `json:"id"`
	Name                 string         `json:"name"`
	Symbol               string         `json:"symbol"`
	URI                  string         `json:"uri"`
	SellerFeeBasisPoints uint16         `json:"sellerFeeBasisPoints"`
	RequestedBy          string         `json:"requestedBy,omitempty"`
	Status               IssuanceStatus `json:"status"`
	MintAddress          string         `json:"mintAddress,omitempty"`
	MetadataAddress      string         `json:"metadataAddress,omitempty"`
	HoldingAccount       string         `json:"holdingAccount,omitempty"`
	Signature            string         `json:"signature,omitempty"`
	Error                string         `json:"error,omitempty"`
	CreatedAt            time.Time      `json:"createdAt"`
	MintedAt             *time.Time     `json:"mintedAt,omitempty"`
}

// NewIssuance は pending 状態の記録を作ります。
func NewIssuance(id string, p IssueParams, requestedBy string, now time.Time) Issuance {
	return Issuance{
		ID:                   strings.TrimSpace(id),
		Name:                 p.Name,
		Symbol:               p.Symbol,
		URI:                  p.URI,
		SellerFeeBasisPoints: p.SellerFeeBasisPoints,
		RequestedBy:          strings.TrimSpace(requestedBy),
		Status:               StatusPending,
		CreatedAt:            now.UTC(),
	}
}

// MarkMinted はチェーン上の発行成功を反映します。
func (i *Issuance) MarkMinted(r Receipt, at time.Time) {
	t := at.UTC()
	i.Status = StatusMinted
	i.MintAddress = r.MintAddress
	i.MetadataAddress = r.MetadataAddress
	i.HoldingAccount = r.HoldingAccount
	i.Signature = r.Signature
	i.Error = ""
	i.MintedAt = &t
}

// MarkFailed は失敗を反映します。チェーン上には何も残っていない前提。
func (i *Issuance) MarkFailed(reason string) {
	i.Status = StatusFailed
	i.Error = strings.TrimSpace(reason)
	i.MintedAt = nil
}

// IssuancesTableDDL は PostgreSQL 用の nft_issuances テーブル定義。
const IssuancesTableDDL = `
CREATE TABLE IF NOT EXISTS nft_issuances (
  id                      TEXT        PRIMARY KEY,
  name                    TEXT        NOT NULL,
  symbol                  TEXT        NOT NULL,
  uri                     TEXT        NOT NULL,
  seller_fee_basis_points INTEGER     NOT NULL CHECK (seller_fee_basis_points BETWEEN 0 AND 10000),
  requested_by            TEXT        NOT NULL DEFAULT '',
  status                  TEXT        NOT NULL,
  mint_address            TEXT,
  metadata_address        TEXT,
  holding_account         TEXT,
  signature               TEXT,
  error                   TEXT        NOT NULL DEFAULT '',
  created_at              TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  minted_at               TIMESTAMPTZ
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_nft_issuances_mint_address ON nft_issuances(mint_address) WHERE mint_address IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_nft_issuances_created_at ON nft_issuances(created_at);
`
