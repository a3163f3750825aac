package program

import (
	"errors"
	"fmt"
)

// ErrorCode は mint_nft の拒否理由コード（Anchor と同じく 6000 始まり）。
type ErrorCode uint32

const (
	CodePayerNotSigner ErrorCode = 6000 + iota
	CodeMintNotSigner
	CodeMintNotWritable
	CodeAccountAlreadyInUse
	CodeMetadataAddressMismatch
	CodeMetadataNotWritable
	CodeAuthorityAddressMismatch
	CodeHoldingAccountMismatch
	CodeHoldingAccountInvalid
	CodeProgramIDMismatch
	CodeRentSysvarMismatch
	CodeRoyaltyOutOfRange
	CodeNameTooLong
	CodeSymbolTooLong
	CodeURITooLong
	CodeNotEnoughAccounts
	CodeInvalidInstructionData
)

var codeNames = map[ErrorCode]string{
	CodePayerNotSigner:           "PayerNotSigner",
	CodeMintNotSigner:            "MintNotSigner",
	CodeMintNotWritable:          "MintNotWritable",
	CodeAccountAlreadyInUse:      "AccountAlreadyInUse",
	CodeMetadataAddressMismatch:  "MetadataAddressMismatch",
	CodeMetadataNotWritable:      "MetadataNotWritable",
	CodeAuthorityAddressMismatch: "AuthorityAddressMismatch",
	CodeHoldingAccountMismatch:   "HoldingAccountMismatch",
	CodeHoldingAccountInvalid:    "HoldingAccountInvalid",
	CodeProgramIDMismatch:        "ProgramIDMismatch",
	CodeRentSysvarMismatch:       "RentSysvarMismatch",
	CodeRoyaltyOutOfRange:        "RoyaltyOutOfRange",
	CodeNameTooLong:              "NameTooLong",
	CodeSymbolTooLong:            "SymbolTooLong",
	CodeURITooLong:               "UriTooLong",
	CodeNotEnoughAccounts:        "NotEnoughAccounts",
	CodeInvalidInstructionData:   "InvalidInstructionData",
}

func (c ErrorCode) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("ErrorCode(%d)", uint32(c))
}

// Error は検証エラー。効果が出る前に返るので、呼び出し側は入力を直せば再実行できる。
type Error struct {
	Code    ErrorCode
	Message string
	Account string // 対象アカウント名（任意）
}

func (e *Error) Error() string {
	if e.Account != "" {
		return fmt.Sprintf("program: %s (%d): %s [account=%s]", e.Code, uint32(e.Code), e.Message, e.Account)
	}
	return fmt.Sprintf("program: %s (%d): %s", e.Code, uint32(e.Code), e.Message)
}

// Is はコードが同じなら一致とみなす（errors.Is(err, ErrAccountAlreadyInUse) 用）。
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// with は対象アカウント名付きのコピーを返す。
func (e *Error) with(account string) *Error {
	cp := *e
	cp.Account = account
	return &cp
}

// Validation errors
var (
	ErrPayerNotSigner           = newError(CodePayerNotSigner, "payer must sign the transaction")
	ErrMintNotSigner            = newError(CodeMintNotSigner, "mint must be a fresh keypair that signs the transaction")
	ErrMintNotWritable          = newError(CodeMintNotWritable, "mint must be writable")
	ErrAccountAlreadyInUse      = newError(CodeAccountAlreadyInUse, "account already in use")
	ErrMetadataAddressMismatch  = newError(CodeMetadataAddressMismatch, "metadata account does not match the derived address")
	ErrMetadataNotWritable      = newError(CodeMetadataNotWritable, "metadata account must be writable")
	ErrAuthorityAddressMismatch = newError(CodeAuthorityAddressMismatch, "mint authority does not match the derived authority")
	ErrHoldingAccountMismatch   = newError(CodeHoldingAccountMismatch, "token account is not the associated token account of (mint, payer)")
	ErrHoldingAccountInvalid    = newError(CodeHoldingAccountInvalid, "existing token account has unexpected owner or state")
	ErrProgramIDMismatch        = newError(CodeProgramIDMismatch, "program account does not match the canonical program id")
	ErrRentSysvarMismatch       = newError(CodeRentSysvarMismatch, "rent account is not the rent sysvar")
	ErrRoyaltyOutOfRange        = newError(CodeRoyaltyOutOfRange, "seller fee basis points must be within 0..10000")
	ErrNameTooLong              = newError(CodeNameTooLong, "name is empty or longer than 32 bytes")
	ErrSymbolTooLong            = newError(CodeSymbolTooLong, "symbol is longer than 10 bytes")
	ErrURITooLong               = newError(CodeURITooLong, "uri is empty or longer than 200 bytes")
	ErrNotEnoughAccounts        = newError(CodeNotEnoughAccounts, "not enough account keys given to the instruction")
	ErrInvalidInstructionData   = newError(CodeInvalidInstructionData, "instruction data could not be decoded")
)

// ErrDerivationFailed はデプロイ時の設定不備（seed から PDA が作れない）。リトライ不可。
var ErrDerivationFailed = errors.New("program: authority derivation failed")

// CallError は外部プログラム呼び出しの失敗。呼び出し先のエラーをそのまま包む。
type CallError struct {
	Stage   Stage
	Step    string
	Program string
	Err     error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("program: %s failed at stage %s (program=%s): %v", e.Step, e.Stage, e.Program, e.Err)
}

func (e *CallError) Unwrap() error { return e.Err }
