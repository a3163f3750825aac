// Package chain は Solana 上の定数・PDA 導出・アカウントレイアウト・命令ビルダーをまとめたものです。
// プログラム本体（internal/program）、ローカル ledger（internal/localnet）、RPC クライアント
// （internal/infra/solana）のすべてが同じ定義を使います。
package chain

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/mr-tron/base58"
)

// well-known program/sysvar ids
var (
	SystemProgramID          = common.PublicKeyFromString("11111111111111111111111111111111")
	TokenProgramID           = common.PublicKeyFromString("TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA")
	AssociatedTokenProgramID = common.PublicKeyFromString("ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL")
	TokenMetadataProgramID   = common.PublicKeyFromString("metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s")
	RentSysvarID             = common.PublicKeyFromString("SysvarRent111111111111111111111111111111111")
)

// DefaultProgramID は devnet にデプロイ済みの nft_minting_project。
const DefaultProgramID = "FHPZSYygxX52f3op5TndwoN5Cadyixu4zTc2g13HAasP"

// Seeds
const (
	MintAuthoritySeed = "mint-authority"
	MetadataSeed      = "metadata"
)

// FindMetadataAddress は Metadata Record の PDA を返します。
// seeds = ["metadata", metadata program, mint], program = metadata program
func FindMetadataAddress(mint common.PublicKey) (common.PublicKey, uint8, error) {
	return common.FindProgramAddress(
		[][]byte{
			[]byte(MetadataSeed),
			TokenMetadataProgramID.Bytes(),
			mint.Bytes(),
		},
		TokenMetadataProgramID,
	)
}

// FindHoldingAccount は (owner, mint) の Associated Token Account を返します。
func FindHoldingAccount(owner, mint common.PublicKey) (common.PublicKey, uint8, error) {
	return common.FindAssociatedTokenAddress(owner, mint)
}

const publicKeyLength = 32

// ParsePublicKey は base58 文字列を検証付きで PublicKey に変換します。
// common.PublicKeyFromString は不正値でもゼロ値を返すため、ここでは長さまで確認する。
func ParsePublicKey(s string) (common.PublicKey, bool) {
	b, err := base58.Decode(s)
	if err != nil || len(b) != publicKeyLength {
		return common.PublicKey{}, false
	}
	return common.PublicKeyFromBytes(b), true
}
