package localnet

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"narratives-nft/internal/chain"
	nftdom "narratives-nft/internal/domain/nft"
)

func processTokenMetadata(ic *InvokeContext, metas []types.AccountMeta, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidInstruction
	}
	switch data[0] {
	case chain.MetadataIxCreateMetadataAccountV3:
		args, err := chain.DecodeCreateMetadataV3(data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		return metadataCreate(ic, metas, args)
	case chain.MetadataIxUpdateMetadataAccountV2:
		args, err := chain.DecodeUpdateMetadataV2(data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidInstruction, err)
		}
		return metadataUpdate(ic, metas, args)
	default:
		return fmt.Errorf("%w: token metadata instruction %d", ErrInvalidInstruction, data[0])
	}
}

// metadataCreate は CreateMetadataAccountV3。
// Accounts: 0. [writable] metadata  1. [] mint  2. [signer] mint authority
// 3. [writable,signer] payer  4. [] update authority (signer if verified creators)
func metadataCreate(ic *InvokeContext, metas []types.AccountMeta, args chain.CreateMetadataV3Args) error {
	if err := requireAccounts(metas, 5); err != nil {
		return err
	}
	metadataKey, mintKey := metas[0].PubKey, metas[1].PubKey
	mintAuthority, payer, updateAuthority := metas[2].PubKey, metas[3].PubKey, metas[4].PubKey

	want, _, err := chain.FindMetadataAddress(mintKey)
	if err != nil || want != metadataKey {
		return ErrInvalidMetadataKey
	}
	if ic.get(metadataKey).exists() {
		return fmt.Errorf("%w: %s", ErrAlreadyInitialized, metadataKey.ToBase58())
	}

	mintAcc := ic.get(mintKey)
	if mintAcc.Owner != chain.TokenProgramID {
		return fmt.Errorf("%w: mint owner=%s", ErrInvalidAccountOwner, mintAcc.Owner.ToBase58())
	}
	m, err := chain.DecodeMint(mintAcc.Data)
	if err != nil || !m.IsInitialized {
		return fmt.Errorf("%w: mint is not initialized", ErrInvalidAccountData)
	}
	if auth, ok := m.Authority(); !ok || auth != mintAuthority {
		return ErrMintAuthority
	}
	if !ic.IsSigner(mintAuthority) {
		return fmt.Errorf("%w: mint authority %s", ErrMissingSignature, mintAuthority.ToBase58())
	}
	if !ic.IsSigner(payer) {
		return fmt.Errorf("%w: payer %s", ErrMissingSignature, payer.ToBase58())
	}

	if err := checkData(args.Data); err != nil {
		return err
	}
	if err := checkCreators(ic, args.Data.Creators, updateAuthority); err != nil {
		return err
	}

	rent, err := ic.payRent(payer, chain.MetadataAccountSize)
	if err != nil {
		return err
	}
	body, err := chain.EncodeMetadata(chain.MetadataLayout{
		Key:             chain.MetadataKeyV1,
		UpdateAuthority: updateAuthority,
		Mint:            mintKey,
		Data: chain.DataLayout{
			Name:                 args.Data.Name,
			Symbol:               args.Data.Symbol,
			Uri:                  args.Data.Uri,
			SellerFeeBasisPoints: args.Data.SellerFeeBasisPoints,
			Creators:             args.Data.Creators,
		},
		IsMutable:  args.IsMutable,
		Collection: args.Data.Collection,
		Uses:       args.Data.Uses,
	})
	if err != nil {
		return err
	}
	return ic.set(metadataKey, Account{
		Lamports: rent,
		Owner:    chain.TokenMetadataProgramID,
		Data:     body,
	})
}

// metadataUpdate は UpdateMetadataAccountV2。immutable になった後はどんな更新も拒否する。
// Accounts: 0. [writable] metadata  1. [signer] update authority
func metadataUpdate(ic *InvokeContext, metas []types.AccountMeta, args chain.UpdateMetadataV2Args) error {
	if err := requireAccounts(metas, 2); err != nil {
		return err
	}
	metadataKey, authority := metas[0].PubKey, metas[1].PubKey

	acc := ic.get(metadataKey)
	if acc.Owner != chain.TokenMetadataProgramID || !acc.exists() {
		return fmt.Errorf("%w: metadata %s", ErrInvalidAccountOwner, metadataKey.ToBase58())
	}
	md, err := chain.DecodeMetadata(acc.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	if md.UpdateAuthority != authority {
		return ErrUpdateAuthority
	}
	if !ic.IsSigner(authority) {
		return fmt.Errorf("%w: update authority %s", ErrMissingSignature, authority.ToBase58())
	}
	if !md.IsMutable {
		return ErrDataIsImmutable
	}

	if args.Data != nil {
		if err := checkData(*args.Data); err != nil {
			return err
		}
		if err := checkCreators(ic, args.Data.Creators, authority); err != nil {
			return err
		}
		md.Data = chain.DataLayout{
			Name:                 args.Data.Name,
			Symbol:               args.Data.Symbol,
			Uri:                  args.Data.Uri,
			SellerFeeBasisPoints: args.Data.SellerFeeBasisPoints,
			Creators:             args.Data.Creators,
		}
		md.Collection = args.Data.Collection
		md.Uses = args.Data.Uses
	}
	if args.UpdateAuthority != nil {
		md.UpdateAuthority = *args.UpdateAuthority
	}
	if args.PrimarySaleHappened != nil && *args.PrimarySaleHappened {
		md.PrimarySaleHappened = true
	}
	if args.IsMutable != nil {
		md.IsMutable = *args.IsMutable
	}

	body, err := chain.EncodeMetadata(md)
	if err != nil {
		return err
	}
	acc.Data = body
	return ic.set(metadataKey, acc)
}

func checkData(d chain.DataV2Args) error {
	switch {
	case len(d.Name) > nftdom.MaxNameLength:
		return fmt.Errorf("%w: name", ErrMetadataLimit)
	case len(d.Symbol) > nftdom.MaxSymbolLength:
		return fmt.Errorf("%w: symbol", ErrMetadataLimit)
	case len(d.Uri) > nftdom.MaxURILength:
		return fmt.Errorf("%w: uri", ErrMetadataLimit)
	case d.SellerFeeBasisPoints > nftdom.MaxSellerFeeBasisPoints:
		return fmt.Errorf("%w: seller_fee_basis_points", ErrMetadataLimit)
	}
	return nil
}

// checkCreators は creators の上限・重複・share 合計・verified の条件を確認します。
// verified にできるのは署名済みの update authority 自身だけ。
func checkCreators(ic *InvokeContext, creators *[]chain.CreatorLayout, updateAuthority common.PublicKey) error {
	if creators == nil {
		return nil
	}
	list := *creators
	if len(list) > nftdom.MaxCreators {
		return ErrTooManyCreators
	}
	if len(list) == 0 {
		return nil
	}
	seen := make(map[common.PublicKey]bool, len(list))
	total := 0
	for _, c := range list {
		if seen[c.Address] {
			return fmt.Errorf("%w: duplicate creator %s", ErrInvalidCreatorShares, c.Address.ToBase58())
		}
		seen[c.Address] = true
		total += int(c.Share)
		if c.Verified && (c.Address != updateAuthority || !ic.IsSigner(updateAuthority)) {
			return fmt.Errorf("%w: %s", ErrCannotVerifyCreator, c.Address.ToBase58())
		}
	}
	if total != 100 {
		return ErrInvalidCreatorShares
	}
	return nil
}
