package chain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/near/borsh-go"
)

// Account sizes
const (
	MintAccountSize     uint64 = 82
	TokenAccountSize    uint64 = 165
	MetadataAccountSize uint64 = 679
)

// Metaplex の Key enum
const MetadataKeyV1 uint8 = 4

// token account state
const (
	TokenAccountUninitialized uint8 = 0
	TokenAccountInitialized   uint8 = 1
)

var (
	ErrShortAccountData = errors.New("chain: account data too short")
	ErrNotInitialized   = errors.New("chain: account not initialized")
)

// MintLayout は SPL Token の Mint アカウント（82 bytes）。
// COption は u32 タグ + 値で並ぶので、borsh の固定長エンコードと一致する。
type MintLayout struct {
	MintAuthorityOption   uint32
	MintAuthority         common.PublicKey
	Supply                uint64
	Decimals              uint8
	IsInitialized         bool
	FreezeAuthorityOption uint32
	FreezeAuthority       common.PublicKey
}

// TokenAccountLayout は SPL Token の Token アカウント（165 bytes）。
type TokenAccountLayout struct {
	Mint                 common.PublicKey
	Owner                common.PublicKey
	Amount               uint64
	DelegateOption       uint32
	Delegate             common.PublicKey
	State                uint8
	IsNativeOption       uint32
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption uint32
	CloseAuthority       common.PublicKey
}

// CreatorLayout / DataLayout / MetadataLayout は Metaplex Token Metadata の borsh レイアウト。
type CreatorLayout struct {
	Address  common.PublicKey
	Verified bool
	Share    uint8
}

type DataLayout struct {
	Name                 string
	Symbol               string
	Uri                  string
	SellerFeeBasisPoints uint16
	Creators             *[]CreatorLayout
}

type CollectionLayout struct {
	Verified bool
	Key      common.PublicKey
}

type UsesLayout struct {
	UseMethod uint8
	Remaining uint64
	Total     uint64
}

type MetadataLayout struct {
	Key                 uint8
	UpdateAuthority     common.PublicKey
	Mint                common.PublicKey
	Data                DataLayout
	PrimarySaleHappened bool
	IsMutable           bool
	EditionNonce        *uint8
	TokenStandard       *uint8
	Collection          *CollectionLayout
	Uses                *UsesLayout
}

// ------------------------------------------------------------
// Mint
// ------------------------------------------------------------

func DecodeMint(data []byte) (MintLayout, error) {
	var m MintLayout
	if uint64(len(data)) < MintAccountSize {
		return m, fmt.Errorf("%w: mint len=%d", ErrShortAccountData, len(data))
	}
	if err := borsh.Deserialize(&m, data[:MintAccountSize]); err != nil {
		return MintLayout{}, fmt.Errorf("chain: decode mint: %w", err)
	}
	return m, nil
}

func EncodeMint(m MintLayout) ([]byte, error) {
	b, err := borsh.Serialize(m)
	if err != nil {
		return nil, fmt.Errorf("chain: encode mint: %w", err)
	}
	return b, nil
}

// Authority は MintAuthority（未設定なら ok=false）。
func (m MintLayout) Authority() (common.PublicKey, bool) {
	return m.MintAuthority, m.MintAuthorityOption == 1
}

func (m MintLayout) Freeze() (common.PublicKey, bool) {
	return m.FreezeAuthority, m.FreezeAuthorityOption == 1
}

// ------------------------------------------------------------
// Token account
// ------------------------------------------------------------

func DecodeTokenAccount(data []byte) (TokenAccountLayout, error) {
	var t TokenAccountLayout
	if uint64(len(data)) < TokenAccountSize {
		return t, fmt.Errorf("%w: token account len=%d", ErrShortAccountData, len(data))
	}
	if err := borsh.Deserialize(&t, data[:TokenAccountSize]); err != nil {
		return TokenAccountLayout{}, fmt.Errorf("chain: decode token account: %w", err)
	}
	if t.State == TokenAccountUninitialized {
		return TokenAccountLayout{}, ErrNotInitialized
	}
	return t, nil
}

func EncodeTokenAccount(t TokenAccountLayout) ([]byte, error) {
	b, err := borsh.Serialize(t)
	if err != nil {
		return nil, fmt.Errorf("chain: encode token account: %w", err)
	}
	return b, nil
}

// ------------------------------------------------------------
// Metadata
// ------------------------------------------------------------

// EncodeMetadata は Metaplex と同じく name/symbol/uri を最大長まで NUL で埋め、
// アカウントサイズ（679 bytes）にパディングして返します。
func EncodeMetadata(m MetadataLayout) ([]byte, error) {
	m.Data.Name = puff(m.Data.Name, 32)
	m.Data.Symbol = puff(m.Data.Symbol, 10)
	m.Data.Uri = puff(m.Data.Uri, 200)

	b, err := borsh.Serialize(m)
	if err != nil {
		return nil, fmt.Errorf("chain: encode metadata: %w", err)
	}
	if uint64(len(b)) > MetadataAccountSize {
		return nil, fmt.Errorf("chain: metadata too large: %d bytes", len(b))
	}
	out := make([]byte, MetadataAccountSize)
	copy(out, b)
	return out, nil
}

// DecodeMetadata は末尾のゼロ埋めを許容して decode し、NUL を取り除きます。
func DecodeMetadata(data []byte) (MetadataLayout, error) {
	var m MetadataLayout
	if len(data) == 0 {
		return m, fmt.Errorf("%w: metadata is empty", ErrShortAccountData)
	}
	if err := borsh.Deserialize(&m, data); err != nil {
		return MetadataLayout{}, fmt.Errorf("chain: decode metadata: %w", err)
	}
	if m.Key != MetadataKeyV1 {
		return MetadataLayout{}, fmt.Errorf("chain: unexpected metadata key=%d", m.Key)
	}
	m.Data.Name = unpuff(m.Data.Name)
	m.Data.Symbol = unpuff(m.Data.Symbol)
	m.Data.Uri = unpuff(m.Data.Uri)
	return m, nil
}

// CreatorList は nil 安全に creators を返します。
func (d DataLayout) CreatorList() []CreatorLayout {
	if d.Creators == nil {
		return nil
	}
	return *d.Creators
}

func puff(s string, size int) string {
	if len(s) >= size {
		return s
	}
	return s + strings.Repeat("\x00", size-len(s))
}

func unpuff(s string) string {
	return strings.TrimRight(s, "\x00")
}
