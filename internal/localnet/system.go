package localnet

import (
	"encoding/binary"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

// system program の命令番号（u32 LE）
const (
	systemIxCreateAccount uint32 = 0
	systemIxTransfer      uint32 = 2
)

func processSystem(ic *InvokeContext, metas []types.AccountMeta, data []byte) error {
	if len(data) < 4 {
		return ErrInvalidInstruction
	}
	switch binary.LittleEndian.Uint32(data[:4]) {
	case systemIxCreateAccount:
		return systemCreateAccount(ic, metas, data[4:])
	case systemIxTransfer:
		return systemTransfer(ic, metas, data[4:])
	default:
		return fmt.Errorf("%w: system instruction %d", ErrInvalidInstruction, binary.LittleEndian.Uint32(data[:4]))
	}
}

// systemCreateAccount: lamports u64, space u64, owner pubkey
// Accounts: 0. [writable,signer] from  1. [writable,signer] new
func systemCreateAccount(ic *InvokeContext, metas []types.AccountMeta, body []byte) error {
	if err := requireAccounts(metas, 2); err != nil {
		return err
	}
	if len(body) < 8+8+32 {
		return ErrInvalidInstruction
	}
	lamports := binary.LittleEndian.Uint64(body[0:8])
	space := binary.LittleEndian.Uint64(body[8:16])
	owner := common.PublicKeyFromBytes(body[16:48])

	from, to := metas[0].PubKey, metas[1].PubKey
	if !ic.IsSigner(from) || !ic.IsSigner(to) {
		return ErrMissingSignature
	}

	newAcc := ic.get(to)
	if newAcc.exists() {
		return fmt.Errorf("%w: %s", ErrAccountAlreadyInUse, to.ToBase58())
	}
	if lamports < MinimumBalance(space) {
		return fmt.Errorf("%w: %d < %d", ErrNotRentExempt, lamports, MinimumBalance(space))
	}

	src := ic.get(from)
	if len(src.Data) > 0 {
		return fmt.Errorf("%w: from must not carry data", ErrInvalidAccountData)
	}
	if src.Lamports < lamports {
		return fmt.Errorf("%w: need %d lamports, have %d", ErrInsufficientFunds, lamports, src.Lamports)
	}
	src.Lamports -= lamports
	if err := ic.set(from, src); err != nil {
		return err
	}
	return ic.set(to, Account{
		Lamports: lamports,
		Owner:    owner,
		Data:     make([]byte, space),
	})
}

// systemTransfer: lamports u64
// Accounts: 0. [writable,signer] from  1. [writable] to
func systemTransfer(ic *InvokeContext, metas []types.AccountMeta, body []byte) error {
	if err := requireAccounts(metas, 2); err != nil {
		return err
	}
	if len(body) < 8 {
		return ErrInvalidInstruction
	}
	lamports := binary.LittleEndian.Uint64(body[0:8])
	from, to := metas[0].PubKey, metas[1].PubKey
	if !ic.IsSigner(from) {
		return ErrMissingSignature
	}

	src := ic.get(from)
	if src.Lamports < lamports {
		return fmt.Errorf("%w: need %d lamports, have %d", ErrInsufficientFunds, lamports, src.Lamports)
	}
	src.Lamports -= lamports
	if err := ic.set(from, src); err != nil {
		return err
	}
	dst := ic.get(to)
	dst.Lamports += lamports
	return ic.set(to, dst)
}
