package chain

import (
	"context"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"

	nftdom "narratives-nft/internal/domain/nft"
)

// AccountFetcher は 1 アカウント分の生データを返す関数（RPC / ローカル ledger 共通）。
// 存在しない場合は found=false, err=nil。
type AccountFetcher func(ctx context.Context, key common.PublicKey) (data []byte, owner common.PublicKey, found bool, err error)

// LoadAsset は mint / metadata / holding account を読み出してドメインの Asset に変換します。
func LoadAsset(ctx context.Context, fetch AccountFetcher, mint, holder common.PublicKey) (nftdom.Asset, error) {
	metadataKey, _, err := FindMetadataAddress(mint)
	if err != nil {
		return nftdom.Asset{}, fmt.Errorf("derive metadata address: %w", err)
	}
	holdingKey, _, err := FindHoldingAccount(holder, mint)
	if err != nil {
		return nftdom.Asset{}, fmt.Errorf("derive holding account: %w", err)
	}

	// 1) Mint
	data, owner, found, err := fetch(ctx, mint)
	if err != nil {
		return nftdom.Asset{}, fmt.Errorf("fetch mint: %w", err)
	}
	if !found || owner != TokenProgramID {
		return nftdom.Asset{}, nftdom.ErrNotFound
	}
	m, err := DecodeMint(data)
	if err != nil {
		return nftdom.Asset{}, err
	}

	asset := nftdom.Asset{
		MintAddress:    mint.ToBase58(),
		Decimals:       m.Decimals,
		Supply:         m.Supply,
		HolderAddress:  holder.ToBase58(),
		HoldingAccount: holdingKey.ToBase58(),
	}
	if a, ok := m.Authority(); ok {
		asset.MintAuthority = a.ToBase58()
	}
	if f, ok := m.Freeze(); ok {
		asset.FreezeAuthority = f.ToBase58()
	}

	// 2) Metadata（無い場合は空のまま返す）
	data, owner, found, err = fetch(ctx, metadataKey)
	if err != nil {
		return nftdom.Asset{}, fmt.Errorf("fetch metadata: %w", err)
	}
	if found && owner == TokenMetadataProgramID {
		md, err := DecodeMetadata(data)
		if err != nil {
			return nftdom.Asset{}, err
		}
		asset.Metadata = MetadataToDomain(metadataKey, md)
	}

	// 3) Holding account
	data, owner, found, err = fetch(ctx, holdingKey)
	if err != nil {
		return nftdom.Asset{}, fmt.Errorf("fetch holding account: %w", err)
	}
	if found && owner == TokenProgramID {
		ta, err := DecodeTokenAccount(data)
		if err != nil {
			return nftdom.Asset{}, err
		}
		if ta.Mint == mint {
			asset.HoldingBalance = ta.Amount
		}
	}

	return asset, nil
}

// MetadataToDomain は MetadataLayout をドメインの Metadata に詰め替えます。
func MetadataToDomain(address common.PublicKey, md MetadataLayout) nftdom.Metadata {
	creators := make([]nftdom.Creator, 0, len(md.Data.CreatorList()))
	for _, c := range md.Data.CreatorList() {
		creators = append(creators, nftdom.Creator{
			Address:  c.Address.ToBase58(),
			Verified: c.Verified,
			Share:    c.Share,
		})
	}
	return nftdom.Metadata{
		Address:              address.ToBase58(),
		UpdateAuthority:      md.UpdateAuthority.ToBase58(),
		Name:                 md.Data.Name,
		Symbol:               md.Data.Symbol,
		URI:                  md.Data.Uri,
		SellerFeeBasisPoints: md.Data.SellerFeeBasisPoints,
		Creators:             creators,
		IsMutable:            md.IsMutable,
	}
}
