package program

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

// AccountInfo はプログラムから見たアカウントの読み取り専用ビュー。
type AccountInfo struct {
	Key        common.PublicKey
	Owner      common.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// Exists は lamports かデータを持っていれば true（= 初期化済み扱い）。
func (a AccountInfo) Exists() bool {
	return a.Lamports > 0 || len(a.Data) > 0
}

// Runtime はホスト ledger がプログラムに提供する機能。
// 1 つの Runtime は 1 トランザクション内でだけ有効で、Invoke の結果は
// トランザクション全体が成功したときにだけ確定する。
type Runtime interface {
	// ProgramID は実行中プログラム自身のアドレス。
	ProgramID() common.PublicKey
	// Account は現在のトランザクション状態でのアカウント（存在しなければゼロ値）。
	Account(key common.PublicKey) AccountInfo
	// MinimumBalance は space bytes を rent-exempt にする lamports。
	MinimumBalance(space uint64) uint64
	// Invoke は外部プログラムを呼び出す。signerSeeds は PDA の署名証明。
	Invoke(ix types.Instruction, signerSeeds ...[][]byte) error
	// Log はプログラムログ（msg!）に 1 行追加する。
	Log(format string, args ...any)
}
