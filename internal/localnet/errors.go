package localnet

import (
	"errors"
	"fmt"
	"strings"
)

// ホスト ledger / 組み込みプログラムのエラー
var (
	ErrAccountAlreadyInUse  = errors.New("localnet: account already in use")
	ErrAccountNotFound      = errors.New("localnet: account not found")
	ErrInsufficientFunds    = errors.New("localnet: insufficient funds")
	ErrNotRentExempt        = errors.New("localnet: lamports below rent-exempt minimum")
	ErrMissingSignature     = errors.New("localnet: missing required signature")
	ErrPrivilegeEscalation  = errors.New("localnet: writable privilege escalated")
	ErrUnknownProgram       = errors.New("localnet: program is not deployed")
	ErrCallDepthExceeded    = errors.New("localnet: cross-program invocation depth exceeded")
	ErrInvalidInstruction   = errors.New("localnet: invalid instruction data")
	ErrNotEnoughAccounts    = errors.New("localnet: not enough account keys")
	ErrInvalidAccountData   = errors.New("localnet: invalid account data")
	ErrInvalidAccountOwner  = errors.New("localnet: invalid account owner")
	ErrInvalidSeeds         = errors.New("localnet: invalid seeds for program address")
	ErrAlreadyInitialized   = errors.New("localnet: account already initialized")
	ErrMintAuthority        = errors.New("localnet: mint authority mismatch")
	ErrMintMismatch         = errors.New("localnet: token account mint mismatch")
	ErrSupplyOverflow       = errors.New("localnet: supply overflow")
	ErrInvalidMetadataKey   = errors.New("localnet: metadata address is not derived from mint")
	ErrUpdateAuthority      = errors.New("localnet: update authority mismatch")
	ErrDataIsImmutable      = errors.New("localnet: metadata is immutable")
	ErrCannotVerifyCreator  = errors.New("localnet: creator cannot be verified")
	ErrInvalidCreatorShares = errors.New("localnet: creator shares must sum to 100")
	ErrTooManyCreators      = errors.New("localnet: too many creators")
	ErrMetadataLimit        = errors.New("localnet: metadata field exceeds limit")
	ErrEmptyTransaction     = errors.New("localnet: transaction has no instructions")
)

// TxError はトランザクション失敗。Index は失敗した命令（0 始まり）。
// 失敗時は一切の状態変更が破棄される。
type TxError struct {
	Signature string
	Index     int
	Err       error
	Logs      []string
}

func (e *TxError) Error() string {
	return fmt.Sprintf("localnet: transaction failed at instruction %d: %v", e.Index, e.Err)
}

func (e *TxError) Unwrap() error { return e.Err }

// LogsContain は失敗ログに substr を含む行があるか。
func (e *TxError) LogsContain(substr string) bool {
	for _, l := range e.Logs {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}
