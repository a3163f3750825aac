package program

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	"narratives-nft/internal/chain"
	nftdom "narratives-nft/internal/domain/nft"
)

// Authority はプログラムが署名できる鍵なしアドレス（PDA）とその bump。
type Authority struct {
	Address common.PublicKey
	Bump    uint8
}

// DeriveAuthority は seed = "mint-authority" と programID から mint authority の PDA を求めます。
// 純粋関数なので、クライアントも同じ計算で事前にアドレスを得られる。
func DeriveAuthority(programID common.PublicKey) (Authority, error) {
	addr, bump, err := common.FindProgramAddress([][]byte{[]byte(chain.MintAuthoritySeed)}, programID)
	if err != nil {
		return Authority{}, fmt.Errorf("%w: seed=%q program=%s: %v", ErrDerivationFailed, chain.MintAuthoritySeed, programID.ToBase58(), err)
	}
	return Authority{Address: addr, Bump: bump}, nil
}

// SignerSeeds は CPI に添える署名証明（seed + bump）。秘密鍵は存在しない。
func (a Authority) SignerSeeds() [][]byte {
	return [][]byte{[]byte(chain.MintAuthoritySeed), {a.Bump}}
}

// VerifyAuthority は (seed, bump, programID) から同じアドレスが再現できるか確認します。
func VerifyAuthority(programID common.PublicKey, a Authority) bool {
	addr, err := common.CreateProgramAddress(a.SignerSeeds(), programID)
	if err != nil {
		return false
	}
	return addr == a.Address
}

// ResolveAccounts は payer と新しい mint から mint_nft の全アカウントを導出します。
// クライアント（RPC / ローカル）はこれで命令を組み立てる。
func ResolveAccounts(programID, payer, mint common.PublicKey) (chain.MintNFTAccounts, Authority, error) {
	auth, err := DeriveAuthority(programID)
	if err != nil {
		return chain.MintNFTAccounts{}, Authority{}, err
	}
	metadata, _, err := chain.FindMetadataAddress(mint)
	if err != nil {
		return chain.MintNFTAccounts{}, Authority{}, fmt.Errorf("derive metadata address: %w", err)
	}
	ata, _, err := chain.FindHoldingAccount(payer, mint)
	if err != nil {
		return chain.MintNFTAccounts{}, Authority{}, fmt.Errorf("derive associated token account: %w", err)
	}

	return chain.MintNFTAccounts{
		Payer:                  payer,
		Mint:                   mint,
		Metadata:               metadata,
		MintAuthority:          auth.Address,
		TokenAccount:           ata,
		SystemProgram:          chain.SystemProgramID,
		TokenProgram:           chain.TokenProgramID,
		AssociatedTokenProgram: chain.AssociatedTokenProgramID,
		Rent:                   chain.RentSysvarID,
		TokenMetadataProgram:   chain.TokenMetadataProgramID,
	}, auth, nil
}

// AddressesFor は payer / mint に対して導出されるアドレス一式をドメイン型で返します。
func AddressesFor(programID, payer, mint common.PublicKey) (nftdom.Addresses, error) {
	accounts, auth, err := ResolveAccounts(programID, payer, mint)
	if err != nil {
		return nftdom.Addresses{}, err
	}
	return nftdom.Addresses{
		ProgramID:        programID.ToBase58(),
		MintAddress:      mint.ToBase58(),
		AuthorityAddress: auth.Address.ToBase58(),
		AuthorityBump:    auth.Bump,
		MetadataAddress:  accounts.Metadata.ToBase58(),
		HolderAddress:    payer.ToBase58(),
		HoldingAccount:   accounts.TokenAccount.ToBase58(),
	}, nil
}
