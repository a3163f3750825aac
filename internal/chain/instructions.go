package chain

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/near/borsh-go"
)

var (
	ErrInvalidInstructionData = errors.New("chain: invalid instruction data")
	ErrUnknownDiscriminator   = errors.New("chain: unknown instruction discriminator")
)

// ============================================================
// mint_nft（Anchor 命令）
// ============================================================

// MintNFTDiscriminator は Anchor の sighash("global:mint_nft") の先頭 8 bytes。
var MintNFTDiscriminator = anchorDiscriminator("mint_nft")

func anchorDiscriminator(name string) [8]byte {
	var d [8]byte
	sum := sha256.Sum256([]byte("global:" + name))
	copy(d[:], sum[:8])
	return d
}

// MintNFTArgs は mint_nft の引数（borsh）。
type MintNFTArgs struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
}

// MintNFTAccounts は mint_nft のアカウント一覧。並び順は IDL と同じ。
type MintNFTAccounts struct {
	Payer                  common.PublicKey
	Mint                   common.PublicKey
	Metadata               common.PublicKey
	MintAuthority          common.PublicKey
	TokenAccount           common.PublicKey
	SystemProgram          common.PublicKey
	TokenProgram           common.PublicKey
	AssociatedTokenProgram common.PublicKey
	Rent                   common.PublicKey
	TokenMetadataProgram   common.PublicKey
}

// MintNFTAccountCount は mint_nft が要求するアカウント数。
const MintNFTAccountCount = 10

// Account indexes
const (
	IdxPayer = iota
	IdxMint
	IdxMetadata
	IdxMintAuthority
	IdxTokenAccount
	IdxSystemProgram
	IdxTokenProgram
	IdxAssociatedTokenProgram
	IdxRent
	IdxTokenMetadataProgram
)

// Metas は mint_nft の AccountMeta を IDL の順番で返します。
// Accounts:
// 0. [writable,signer] payer
// 1. [writable,signer] mint (新規 keypair)
// 2. [writable] metadata PDA
// 3. [] mint authority PDA
// 4. [writable] associated token account
// 5..9. programs / rent sysvar
func (a MintNFTAccounts) Metas() []types.AccountMeta {
	return []types.AccountMeta{
		{PubKey: a.Payer, IsSigner: true, IsWritable: true},
		{PubKey: a.Mint, IsSigner: true, IsWritable: true},
		{PubKey: a.Metadata, IsSigner: false, IsWritable: true},
		{PubKey: a.MintAuthority, IsSigner: false, IsWritable: false},
		{PubKey: a.TokenAccount, IsSigner: false, IsWritable: true},
		{PubKey: a.SystemProgram, IsSigner: false, IsWritable: false},
		{PubKey: a.TokenProgram, IsSigner: false, IsWritable: false},
		{PubKey: a.AssociatedTokenProgram, IsSigner: false, IsWritable: false},
		{PubKey: a.Rent, IsSigner: false, IsWritable: false},
		{PubKey: a.TokenMetadataProgram, IsSigner: false, IsWritable: false},
	}
}

// NewMintNFTInstruction は mint_nft 命令を組み立てます。
func NewMintNFTInstruction(programID common.PublicKey, accounts MintNFTAccounts, args MintNFTArgs) (types.Instruction, error) {
	body, err := borsh.Serialize(args)
	if err != nil {
		return types.Instruction{}, fmt.Errorf("chain: encode mint_nft args: %w", err)
	}
	data := make([]byte, 0, 8+len(body))
	data = append(data, MintNFTDiscriminator[:]...)
	data = append(data, body...)

	return types.Instruction{
		ProgramID: programID,
		Accounts:  accounts.Metas(),
		Data:      data,
	}, nil
}

// DecodeMintNFTArgs は discriminator を確認して引数を取り出します。
func DecodeMintNFTArgs(data []byte) (MintNFTArgs, error) {
	var args MintNFTArgs
	if len(data) < 8 {
		return args, ErrInvalidInstructionData
	}
	if !bytes.Equal(data[:8], MintNFTDiscriminator[:]) {
		return args, ErrUnknownDiscriminator
	}
	if err := borsh.Deserialize(&args, data[8:]); err != nil {
		return MintNFTArgs{}, fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	return args, nil
}

// ============================================================
// Token Metadata program (CPI 用)
// ============================================================

// Metaplex instruction discriminators
const (
	MetadataIxUpdateMetadataAccountV2 uint8 = 15
	MetadataIxCreateMetadataAccountV3 uint8 = 33
)

// DataV2Args は CreateMetadataAccountV3 / UpdateMetadataAccountV2 の DataV2。
type DataV2Args struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]CreatorLayout
	Collection           *CollectionLayout
	Uses                 *UsesLayout
}

// CollectionDetailsArgs は V1 { size } のみ（enum tag + u64）。
type CollectionDetailsArgs struct {
	Kind uint8
	Size uint64
}

// CreateMetadataV3Args は CreateMetadataAccountV3 の命令データ。
type CreateMetadataV3Args struct {
	Instruction       uint8
	Data              DataV2Args
	IsMutable         bool
	CollectionDetails *CollectionDetailsArgs
}

// UpdateMetadataV2Args は UpdateMetadataAccountV2 の命令データ。
type UpdateMetadataV2Args struct {
	Instruction         uint8
	Data                *DataV2Args
	UpdateAuthority     *common.PublicKey
	PrimarySaleHappened *bool
	IsMutable           *bool
}

// UpdateMetadataV2Param は UpdateMetadataAccountV2 の入力。nil は「変更しない」。
type UpdateMetadataV2Param struct {
	Metadata           common.PublicKey
	UpdateAuthority    common.PublicKey
	Data               *DataV2Args
	NewUpdateAuthority *common.PublicKey
	IsMutable          *bool
}

// UpdateMetadataAccountV2 は UpdateMetadataAccountV2 命令を組み立てます。
// Accounts:
// 0. [writable] metadata
// 1. [signer] update authority
func UpdateMetadataAccountV2(p UpdateMetadataV2Param) (types.Instruction, error) {
	data, err := borsh.Serialize(UpdateMetadataV2Args{
		Instruction:     MetadataIxUpdateMetadataAccountV2,
		Data:            p.Data,
		UpdateAuthority: p.NewUpdateAuthority,
		IsMutable:       p.IsMutable,
	})
	if err != nil {
		return types.Instruction{}, fmt.Errorf("chain: encode update_metadata_accounts_v2: %w", err)
	}
	return types.Instruction{
		ProgramID: TokenMetadataProgramID,
		Accounts: []types.AccountMeta{
			{PubKey: p.Metadata, IsSigner: false, IsWritable: true},
			{PubKey: p.UpdateAuthority, IsSigner: true, IsWritable: false},
		},
		Data: data,
	}, nil
}

// DecodeCreateMetadataV3 は CreateMetadataAccountV3 の命令データを decode します。
func DecodeCreateMetadataV3(data []byte) (CreateMetadataV3Args, error) {
	var a CreateMetadataV3Args
	if len(data) == 0 || data[0] != MetadataIxCreateMetadataAccountV3 {
		return a, ErrUnknownDiscriminator
	}
	if err := borsh.Deserialize(&a, data); err != nil {
		return CreateMetadataV3Args{}, fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	return a, nil
}

// DecodeUpdateMetadataV2 は UpdateMetadataAccountV2 の命令データを decode します。
func DecodeUpdateMetadataV2(data []byte) (UpdateMetadataV2Args, error) {
	var a UpdateMetadataV2Args
	if len(data) == 0 || data[0] != MetadataIxUpdateMetadataAccountV2 {
		return a, ErrUnknownDiscriminator
	}
	if err := borsh.Deserialize(&a, data); err != nil {
		return UpdateMetadataV2Args{}, fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}
	return a, nil
}
