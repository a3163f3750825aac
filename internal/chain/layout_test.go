package chain

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountLayoutSizes(t *testing.T) {
	key := types.NewAccount().PublicKey

	mint, err := EncodeMint(MintLayout{MintAuthorityOption: 1, MintAuthority: key, Supply: 1, IsInitialized: true})
	require.NoError(t, err)
	assert.Len(t, mint, int(MintAccountSize))

	ta, err := EncodeTokenAccount(TokenAccountLayout{Mint: key, Owner: key, Amount: 1, State: TokenAccountInitialized})
	require.NoError(t, err)
	assert.Len(t, ta, int(TokenAccountSize))

	md, err := EncodeMetadata(MetadataLayout{
		Key:             MetadataKeyV1,
		UpdateAuthority: key,
		Mint:            key,
		Data: DataLayout{
			Name:                 strings.Repeat("n", 32),
			Symbol:               strings.Repeat("s", 10),
			Uri:                  strings.Repeat("u", 200),
			SellerFeeBasisPoints: 10000,
			Creators: &[]CreatorLayout{
				{Address: key, Verified: true, Share: 20},
				{Address: types.NewAccount().PublicKey, Share: 20},
				{Address: types.NewAccount().PublicKey, Share: 20},
				{Address: types.NewAccount().PublicKey, Share: 20},
				{Address: types.NewAccount().PublicKey, Share: 20},
			},
		},
	})
	require.NoError(t, err)
	assert.Len(t, md, int(MetadataAccountSize), "five creators and max-length fields still fit")
}

func TestDecodeMetadataStripsPadding(t *testing.T) {
	key := types.NewAccount().PublicKey
	body, err := EncodeMetadata(MetadataLayout{
		Key:             MetadataKeyV1,
		UpdateAuthority: key,
		Mint:            key,
		Data:            DataLayout{Name: "Narratives #1", Symbol: "NARR", Uri: "https://example.com/1.json", SellerFeeBasisPoints: 500},
		IsMutable:       true,
	})
	require.NoError(t, err)

	md, err := DecodeMetadata(body)
	require.NoError(t, err)
	assert.Equal(t, "Narratives #1", md.Data.Name)
	assert.Equal(t, "NARR", md.Data.Symbol)
	assert.Equal(t, "https://example.com/1.json", md.Data.Uri)
	assert.Equal(t, uint16(500), md.Data.SellerFeeBasisPoints)
	assert.True(t, md.IsMutable)
	assert.Nil(t, md.Data.CreatorList())
	assert.Nil(t, md.EditionNonce)
}

func TestDecodeMetadataRejectsWrongKey(t *testing.T) {
	_, err := DecodeMetadata(make([]byte, MetadataAccountSize))
	assert.Error(t, err)

	_, err = DecodeMetadata(nil)
	assert.ErrorIs(t, err, ErrShortAccountData)
}

func TestDecodeTokenAccount(t *testing.T) {
	_, err := DecodeTokenAccount(make([]byte, TokenAccountSize))
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = DecodeTokenAccount(make([]byte, 10))
	assert.ErrorIs(t, err, ErrShortAccountData)

	_, err = DecodeMint(make([]byte, 10))
	assert.ErrorIs(t, err, ErrShortAccountData)
}

func TestMintNFTDiscriminator(t *testing.T) {
	sum := sha256.Sum256([]byte("global:mint_nft"))
	assert.Equal(t, sum[:8], MintNFTDiscriminator[:])
}

func TestMintNFTInstructionData(t *testing.T) {
	programID := common.PublicKeyFromString(DefaultProgramID)
	args := MintNFTArgs{Name: "Narratives #1", Symbol: "NARR", Uri: "https://example.com/1.json", SellerFeeBasisPoints: 500}

	ix, err := NewMintNFTInstruction(programID, MintNFTAccounts{}, args)
	require.NoError(t, err)
	assert.Equal(t, programID, ix.ProgramID)
	assert.Len(t, ix.Accounts, MintNFTAccountCount)
	assert.True(t, ix.Accounts[IdxPayer].IsSigner)
	assert.True(t, ix.Accounts[IdxMint].IsSigner)
	assert.False(t, ix.Accounts[IdxMintAuthority].IsSigner)
	assert.True(t, ix.Accounts[IdxTokenAccount].IsWritable)

	got, err := DecodeMintNFTArgs(ix.Data)
	require.NoError(t, err)
	assert.Equal(t, args, got)

	_, err = DecodeMintNFTArgs(ix.Data[:4])
	assert.ErrorIs(t, err, ErrInvalidInstructionData)

	bad := append([]byte{}, ix.Data...)
	bad[0] ^= 0xff
	_, err = DecodeMintNFTArgs(bad)
	assert.ErrorIs(t, err, ErrUnknownDiscriminator)

	_, err = DecodeMintNFTArgs(ix.Data[:10])
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
}

// blocto の CreateMetadataAccountV3 が作る命令データをそのまま読めること
func TestDecodeCreateMetadataV3FromSDK(t *testing.T) {
	mint := types.NewAccount().PublicKey
	authority := types.NewAccount().PublicKey
	payer := types.NewAccount().PublicKey
	metadata, _, err := FindMetadataAddress(mint)
	require.NoError(t, err)

	ix := token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
		Metadata:                metadata,
		Mint:                    mint,
		MintAuthority:           authority,
		Payer:                   payer,
		UpdateAuthority:         authority,
		UpdateAuthorityIsSigner: true,
		IsMutable:               true,
		Data: token_metadata.DataV2{
			Name:                 "Narratives #1",
			Symbol:               "NARR",
			Uri:                  "https://example.com/1.json",
			SellerFeeBasisPoints: 750,
			Creators:             &[]token_metadata.Creator{{Address: authority, Verified: true, Share: 100}},
		},
	})
	assert.Equal(t, TokenMetadataProgramID, ix.ProgramID)

	args, err := DecodeCreateMetadataV3(ix.Data)
	require.NoError(t, err)
	assert.Equal(t, MetadataIxCreateMetadataAccountV3, args.Instruction)
	assert.Equal(t, "Narratives #1", args.Data.Name)
	assert.Equal(t, uint16(750), args.Data.SellerFeeBasisPoints)
	assert.True(t, args.IsMutable)
	require.NotNil(t, args.Data.Creators)
	assert.Equal(t, []CreatorLayout{{Address: authority, Verified: true, Share: 100}}, *args.Data.Creators)
	assert.Nil(t, args.CollectionDetails)

	_, err = DecodeUpdateMetadataV2(ix.Data)
	assert.ErrorIs(t, err, ErrUnknownDiscriminator)
}

func TestUpdateMetadataAccountV2(t *testing.T) {
	metadata := types.NewAccount().PublicKey
	authority := types.NewAccount().PublicKey
	immutable := false

	ix, err := UpdateMetadataAccountV2(UpdateMetadataV2Param{Metadata: metadata, UpdateAuthority: authority, IsMutable: &immutable})
	require.NoError(t, err)
	require.Len(t, ix.Accounts, 2)
	assert.True(t, ix.Accounts[0].IsWritable)
	assert.True(t, ix.Accounts[1].IsSigner)

	args, err := DecodeUpdateMetadataV2(ix.Data)
	require.NoError(t, err)
	assert.Nil(t, args.Data)
	assert.Nil(t, args.UpdateAuthority)
	assert.Nil(t, args.PrimarySaleHappened)
	require.NotNil(t, args.IsMutable)
	assert.False(t, *args.IsMutable)
}

func TestParsePublicKey(t *testing.T) {
	k, ok := ParsePublicKey(DefaultProgramID)
	assert.True(t, ok)
	assert.Equal(t, DefaultProgramID, k.ToBase58())

	for _, s := range []string{"", "not-base58-0OIl", "abc"} {
		_, ok := ParsePublicKey(s)
		assert.False(t, ok, s)
	}
}

func TestFindMetadataAddressIsDeterministic(t *testing.T) {
	mint := types.NewAccount().PublicKey
	a, bumpA, err := FindMetadataAddress(mint)
	require.NoError(t, err)
	b, bumpB, err := FindMetadataAddress(mint)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, bumpA, bumpB)
	assert.NotEqual(t, mint, a)
}
