package program

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"narratives-nft/internal/chain"
	nftdom "narratives-nft/internal/domain/nft"
)

// ValidatedAccounts は検証を通過したアカウント一式。
type ValidatedAccounts struct {
	chain.MintNFTAccounts
	HoldingExists bool
}

// Validator は外部呼び出しの前に、渡された全アカウントが役割どおりか確認します。
// ここで 1 つでも不一致があれば状態は一切変わらない。
type Validator struct {
	authority Authority
}

func NewValidator(authority Authority) *Validator {
	return &Validator{authority: authority}
}

// ValidateArgs は命令引数（royalty / 文字列長）の範囲チェック。
func ValidateArgs(args chain.MintNFTArgs) error {
	if args.SellerFeeBasisPoints > nftdom.MaxSellerFeeBasisPoints {
		return ErrRoyaltyOutOfRange
	}
	if args.Name == "" || len(args.Name) > nftdom.MaxNameLength {
		return ErrNameTooLong
	}
	if len(args.Symbol) > nftdom.MaxSymbolLength {
		return ErrSymbolTooLong
	}
	if args.Uri == "" || len(args.Uri) > nftdom.MaxURILength {
		return ErrURITooLong
	}
	return nil
}

// Validate は mint_nft のアカウント制約をすべて確認します。
func (v *Validator) Validate(rt Runtime, metas []types.AccountMeta, args chain.MintNFTArgs) (ValidatedAccounts, error) {
	if len(metas) < chain.MintNFTAccountCount {
		return ValidatedAccounts{}, ErrNotEnoughAccounts
	}
	if err := ValidateArgs(args); err != nil {
		return ValidatedAccounts{}, err
	}

	payer := metas[chain.IdxPayer]
	mint := metas[chain.IdxMint]
	metadata := metas[chain.IdxMetadata]
	authority := metas[chain.IdxMintAuthority]
	holding := metas[chain.IdxTokenAccount]

	// 1) payer は本物の署名者
	if !payer.IsSigner {
		return ValidatedAccounts{}, ErrPayerNotSigner.with("payer")
	}

	// 2) 外部プログラム参照は正規の ID と一致
	programs := []struct {
		name string
		got  common.PublicKey
		want common.PublicKey
	}{
		{"system_program", metas[chain.IdxSystemProgram].PubKey, chain.SystemProgramID},
		{"token_program", metas[chain.IdxTokenProgram].PubKey, chain.TokenProgramID},
		{"associated_token_program", metas[chain.IdxAssociatedTokenProgram].PubKey, chain.AssociatedTokenProgramID},
		{"token_metadata_program", metas[chain.IdxTokenMetadataProgram].PubKey, chain.TokenMetadataProgramID},
	}
	for _, p := range programs {
		if p.got != p.want {
			return ValidatedAccounts{}, ErrProgramIDMismatch.with(p.name)
		}
	}
	if metas[chain.IdxRent].PubKey != chain.RentSysvarID {
		return ValidatedAccounts{}, ErrRentSysvarMismatch.with("rent")
	}

	// 3) mint は新規（init）かつ writable + 署名者
	if !mint.IsWritable {
		return ValidatedAccounts{}, ErrMintNotWritable.with("mint")
	}
	if !mint.IsSigner {
		return ValidatedAccounts{}, ErrMintNotSigner.with("mint")
	}
	if rt.Account(mint.PubKey).Exists() {
		return ValidatedAccounts{}, ErrAccountAlreadyInUse.with("mint")
	}

	// 4) mint authority は自プログラムの PDA
	if authority.PubKey != v.authority.Address {
		return ValidatedAccounts{}, ErrAuthorityAddressMismatch.with("mint_authority")
	}

	// 5) metadata は ("metadata", metadata program, mint) の PDA
	wantMetadata, _, err := chain.FindMetadataAddress(mint.PubKey)
	if err != nil || metadata.PubKey != wantMetadata {
		return ValidatedAccounts{}, ErrMetadataAddressMismatch.with("metadata")
	}
	if !metadata.IsWritable {
		return ValidatedAccounts{}, ErrMetadataNotWritable.with("metadata")
	}

	// 6) holding account は ATA(mint, payer)。存在すれば中身も確認する
	wantHolding, _, err := chain.FindHoldingAccount(payer.PubKey, mint.PubKey)
	if err != nil || holding.PubKey != wantHolding || !holding.IsWritable {
		return ValidatedAccounts{}, ErrHoldingAccountMismatch.with("token_account")
	}
	holdingInfo := rt.Account(holding.PubKey)
	exists := holdingInfo.Exists()
	if exists {
		if holdingInfo.Owner != chain.TokenProgramID {
			return ValidatedAccounts{}, ErrHoldingAccountInvalid.with("token_account")
		}
		ta, err := chain.DecodeTokenAccount(holdingInfo.Data)
		if err != nil || ta.Mint != mint.PubKey || ta.Owner != payer.PubKey {
			return ValidatedAccounts{}, ErrHoldingAccountInvalid.with("token_account")
		}
	}

	return ValidatedAccounts{
		MintNFTAccounts: chain.MintNFTAccounts{
			Payer:                  payer.PubKey,
			Mint:                   mint.PubKey,
			Metadata:               metadata.PubKey,
			MintAuthority:          authority.PubKey,
			TokenAccount:           holding.PubKey,
			SystemProgram:          chain.SystemProgramID,
			TokenProgram:           chain.TokenProgramID,
			AssociatedTokenProgram: chain.AssociatedTokenProgramID,
			Rent:                   chain.RentSysvarID,
			TokenMetadataProgram:   chain.TokenMetadataProgramID,
		},
		HoldingExists: exists,
	}, nil
}
