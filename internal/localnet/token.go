package localnet

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"narratives-nft/internal/chain"
)

// SPL token の命令番号
const (
	tokenIxInitializeMint  uint8 = 0
	tokenIxMintTo          uint8 = 7
	tokenIxInitializeMint2 uint8 = 20
)

func processToken(ic *InvokeContext, metas []types.AccountMeta, data []byte) error {
	if len(data) == 0 {
		return ErrInvalidInstruction
	}
	switch data[0] {
	case tokenIxInitializeMint, tokenIxInitializeMint2:
		return tokenInitializeMint(ic, metas, data[1:])
	case tokenIxMintTo:
		return tokenMintTo(ic, metas, data[1:])
	default:
		return fmt.Errorf("%w: token instruction %d", ErrInvalidInstruction, data[0])
	}
}

// tokenInitializeMint: decimals u8, mint_authority pubkey, freeze COption(u8 tag + pubkey)
// Accounts: 0. [writable] mint  (1. [] rent sysvar : InitializeMint のみ)
func tokenInitializeMint(ic *InvokeContext, metas []types.AccountMeta, body []byte) error {
	if err := requireAccounts(metas, 1); err != nil {
		return err
	}
	if len(body) < 1+32+1 {
		return ErrInvalidInstruction
	}
	decimals := body[0]
	authority := common.PublicKeyFromBytes(body[1:33])
	var freeze *common.PublicKey
	if body[33] == 1 {
		if len(body) < 1+32+1+32 {
			return ErrInvalidInstruction
		}
		f := common.PublicKeyFromBytes(body[34:66])
		freeze = &f
	}

	key := metas[0].PubKey
	acc := ic.get(key)
	if acc.Owner != chain.TokenProgramID {
		return fmt.Errorf("%w: mint owner=%s", ErrInvalidAccountOwner, acc.Owner.ToBase58())
	}
	if uint64(len(acc.Data)) != chain.MintAccountSize {
		return fmt.Errorf("%w: mint len=%d", ErrInvalidAccountData, len(acc.Data))
	}
	if cur, err := chain.DecodeMint(acc.Data); err == nil && cur.IsInitialized {
		return ErrAlreadyInitialized
	}

	m := chain.MintLayout{
		MintAuthorityOption: 1,
		MintAuthority:       authority,
		Decimals:            decimals,
		IsInitialized:       true,
	}
	if freeze != nil {
		m.FreezeAuthorityOption = 1
		m.FreezeAuthority = *freeze
	}
	data, err := chain.EncodeMint(m)
	if err != nil {
		return err
	}
	acc.Data = data
	return ic.set(key, acc)
}

// tokenMintTo: amount u64
// Accounts: 0. [writable] mint  1. [writable] destination  2. [signer] mint authority
func tokenMintTo(ic *InvokeContext, metas []types.AccountMeta, body []byte) error {
	if err := requireAccounts(metas, 3); err != nil {
		return err
	}
	if len(body) < 8 {
		return ErrInvalidInstruction
	}
	amount := binary.LittleEndian.Uint64(body[:8])
	mintKey, destKey, authKey := metas[0].PubKey, metas[1].PubKey, metas[2].PubKey

	mintAcc := ic.get(mintKey)
	if mintAcc.Owner != chain.TokenProgramID {
		return fmt.Errorf("%w: mint owner=%s", ErrInvalidAccountOwner, mintAcc.Owner.ToBase58())
	}
	m, err := chain.DecodeMint(mintAcc.Data)
	if err != nil || !m.IsInitialized {
		return fmt.Errorf("%w: mint is not initialized", ErrInvalidAccountData)
	}
	auth, ok := m.Authority()
	if !ok || auth != authKey {
		return ErrMintAuthority
	}
	if !ic.IsSigner(authKey) {
		return fmt.Errorf("%w: mint authority %s", ErrMissingSignature, authKey.ToBase58())
	}

	destAcc := ic.get(destKey)
	if destAcc.Owner != chain.TokenProgramID {
		return fmt.Errorf("%w: token account owner=%s", ErrInvalidAccountOwner, destAcc.Owner.ToBase58())
	}
	ta, err := chain.DecodeTokenAccount(destAcc.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	if ta.Mint != mintKey {
		return ErrMintMismatch
	}
	if m.Supply+amount < m.Supply || ta.Amount+amount < ta.Amount {
		return ErrSupplyOverflow
	}

	m.Supply += amount
	ta.Amount += amount

	mintData, err := chain.EncodeMint(m)
	if err != nil {
		return err
	}
	taData, err := chain.EncodeTokenAccount(ta)
	if err != nil {
		return err
	}
	mintAcc.Data = mintData
	destAcc.Data = taData
	if err := ic.set(mintKey, mintAcc); err != nil {
		return err
	}
	return ic.set(destKey, destAcc)
}

// newTokenAccountData は初期化済み・残高 0 の token account データ。
func newTokenAccountData(mint, owner common.PublicKey) ([]byte, error) {
	return chain.EncodeTokenAccount(chain.TokenAccountLayout{
		Mint:  mint,
		Owner: owner,
		State: chain.TokenAccountInitialized,
	})
}
