// Package localnet はプロセス内で動くホスト ledger です。
// アカウントの保存、トランザクションの原子的適用（全部成功か全部破棄か）、
// PDA 署名付きのプログラム間呼び出し、system / SPL token / associated token /
// token metadata プログラムのエミュレーションを提供します。
// テストと SOLANA_MODE=local で使われます。
package localnet

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/mr-tron/base58"

	"narratives-nft/internal/chain"
)

// rent パラメータ（mainnet と同じ値）
const (
	LamportsPerByteYear    uint64  = 3480
	ExemptionThreshold     float64 = 2.0
	AccountStorageOverhead uint64  = 128
	maxCallDepth                   = 4
)

// LoaderID は組み込みプログラムアカウントの owner。
var (
	LoaderID      = common.PublicKeyFromString("BPFLoader2111111111111111111111111111111111")
	SysvarOwnerID = common.PublicKeyFromString("Sysvar1111111111111111111111111111111111111")
)

// MinimumBalance は space bytes のアカウントを rent-exempt にする lamports。
func MinimumBalance(space uint64) uint64 {
	return uint64(float64((AccountStorageOverhead+space)*LamportsPerByteYear) * ExemptionThreshold)
}

// Account は ledger 上の 1 アカウント。
type Account struct {
	Lamports   uint64
	Owner      common.PublicKey
	Data       []byte
	Executable bool
}

func (a Account) clone() Account {
	cp := a
	if a.Data != nil {
		cp.Data = append([]byte(nil), a.Data...)
	}
	return cp
}

func (a Account) exists() bool {
	return a.Lamports > 0 || len(a.Data) > 0
}

// Processor はプログラムの実行本体。
type Processor interface {
	Process(ic *InvokeContext, metas []types.AccountMeta, data []byte) error
}

// ProcessorFunc は関数を Processor として使うためのアダプタ。
type ProcessorFunc func(ic *InvokeContext, metas []types.AccountMeta, data []byte) error

func (f ProcessorFunc) Process(ic *InvokeContext, metas []types.AccountMeta, data []byte) error {
	return f(ic, metas, data)
}

// Transaction は Submit の入力。Signers は署名済みとみなす公開鍵。
type Transaction struct {
	FeePayer     common.PublicKey
	Instructions []types.Instruction
	Signers      []common.PublicKey
}

// TxRecord は処理済みトランザクションの記録。
type TxRecord struct {
	Signature string
	Slot      uint64
	Logs      []string
	Err       error
	At        time.Time
}

// Bank はアカウント集合と登録済みプログラム。
// Submit はミューテックスで直列化されるので、異なる mint への並行 Submit は安全。
type Bank struct {
	mu       sync.Mutex
	accounts map[common.PublicKey]*Account
	programs map[common.PublicKey]Processor
	history  map[string]TxRecord
	slot     uint64
	now      func() time.Time
}

// NewBank は組み込みプログラムと rent sysvar を登録した空の ledger を作ります。
func NewBank() *Bank {
	b := &Bank{
		accounts: make(map[common.PublicKey]*Account),
		programs: make(map[common.PublicKey]Processor),
		history:  make(map[string]TxRecord),
		now:      time.Now,
	}
	b.Deploy(chain.SystemProgramID, ProcessorFunc(processSystem))
	b.Deploy(chain.TokenProgramID, ProcessorFunc(processToken))
	b.Deploy(chain.AssociatedTokenProgramID, ProcessorFunc(processAssociatedToken))
	b.Deploy(chain.TokenMetadataProgramID, ProcessorFunc(processTokenMetadata))

	b.accounts[chain.RentSysvarID] = &Account{
		Lamports: 1,
		Owner:    SysvarOwnerID,
		Data:     rentSysvarData(),
	}
	return b
}

// rentSysvarData は Rent sysvar（lamports_per_byte_year u64, exemption_threshold f64, burn_percent u8）。
func rentSysvarData() []byte {
	out := make([]byte, 17)
	binary.LittleEndian.PutUint64(out[0:8], LamportsPerByteYear)
	binary.LittleEndian.PutUint64(out[8:16], math.Float64bits(ExemptionThreshold))
	out[16] = 50
	return out
}

// Deploy はプログラムを登録します（既存なら置き換え）。
func (b *Bank) Deploy(programID common.PublicKey, p Processor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.programs[programID] = p
	b.accounts[programID] = &Account{Lamports: 1, Owner: LoaderID, Executable: true}
}

// Airdrop は key に lamports を加算します（無ければ system 所有で作成）。
func (b *Bank) Airdrop(key common.PublicKey, lamports uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[key]
	if !ok {
		a = &Account{Owner: chain.SystemProgramID}
		b.accounts[key] = a
	}
	a.Lamports += lamports
}

// Account は確定済み状態のアカウントのコピーを返します。
func (b *Bank) Account(key common.PublicKey) (Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[key]
	if !ok {
		return Account{}, false
	}
	return a.clone(), true
}

// Balance は lamports（無ければ 0）。
func (b *Bank) Balance(key common.PublicKey) uint64 {
	a, _ := b.Account(key)
	return a.Lamports
}

// Logs はトランザクションのプログラムログ。
func (b *Bank) Logs(signature string) []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.history[signature]
	if !ok {
		return nil
	}
	return append([]string(nil), rec.Logs...)
}

// Transaction は処理済みトランザクションの記録。
func (b *Bank) Transaction(signature string) (TxRecord, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.history[signature]
	return rec, ok
}

// Slot は確定済みトランザクション数。
func (b *Bank) Slot() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.slot
}

// MinimumBalance は rent-exempt 最小残高。
func (b *Bank) MinimumBalance(space uint64) uint64 { return MinimumBalance(space) }

// Submit はトランザクションを原子的に適用します。
// どれか 1 命令でも失敗したら何も書き込まず *TxError を返す。
func (b *Bank) Submit(ctx context.Context, tx Transaction) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(tx.Instructions) == 0 {
		return "", ErrEmptyTransaction
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.slot++
	sig := b.signature(tx)
	st := newTxState(b)

	signers := make(map[common.PublicKey]bool, len(tx.Signers))
	for _, s := range tx.Signers {
		signers[s] = true
	}
	if (tx.FeePayer != common.PublicKey{}) && !signers[tx.FeePayer] {
		return "", b.fail(sig, st, 0, fmt.Errorf("%w: fee payer %s", ErrMissingSignature, tx.FeePayer.ToBase58()))
	}

	for i, ix := range tx.Instructions {
		// 署名者として宣言されたアカウントは tx の署名集合に含まれていなければならない
		for _, m := range ix.Accounts {
			if m.IsSigner && !signers[m.PubKey] {
				return "", b.fail(sig, st, i, fmt.Errorf("%w: %s", ErrMissingSignature, m.PubKey.ToBase58()))
			}
		}
		ixSigners := make(map[common.PublicKey]bool, len(ix.Accounts))
		writable := make(map[common.PublicKey]bool, len(ix.Accounts))
		for _, m := range ix.Accounts {
			if m.IsSigner {
				ixSigners[m.PubKey] = true
			}
			if m.IsWritable {
				writable[m.PubKey] = true
			}
		}
		root := &InvokeContext{
			state:     st,
			programID: ix.ProgramID,
			signers:   ixSigners,
			writable:  writable,
			depth:     1,
		}
		if err := root.execute(ix); err != nil {
			return "", b.fail(sig, st, i, err)
		}
	}

	st.commit()
	b.history[sig] = TxRecord{Signature: sig, Slot: b.slot, Logs: st.logs, At: b.now()}
	log.Printf("[localnet] commit sig=%s slot=%d ixs=%d accounts=%d", maskShort(sig), b.slot, len(tx.Instructions), len(st.dirty))
	return sig, nil
}

func (b *Bank) fail(sig string, st *txState, index int, err error) error {
	b.history[sig] = TxRecord{Signature: sig, Slot: b.slot, Logs: st.logs, Err: err, At: b.now()}
	log.Printf("[localnet] rollback sig=%s ix=%d err=%v", maskShort(sig), index, err)
	return &TxError{Signature: sig, Index: index, Err: err, Logs: append([]string(nil), st.logs...)}
}

// signature は tx 内容 + slot から決まる疑似シグネチャ（base58, 64 bytes）。
func (b *Bank) signature(tx Transaction) string {
	h := sha256.New()
	var slot [8]byte
	binary.LittleEndian.PutUint64(slot[:], b.slot)
	h.Write(slot[:])
	for _, s := range tx.Signers {
		h.Write(s.Bytes())
	}
	for _, ix := range tx.Instructions {
		h.Write(ix.ProgramID.Bytes())
		h.Write(ix.Data)
	}
	first := h.Sum(nil)
	second := sha256.Sum256(first)
	return base58.Encode(append(first, second[:]...))
}

// ------------------------------------------------------------
// copy-on-write overlay
// ------------------------------------------------------------

type txState struct {
	bank  *Bank
	dirty map[common.PublicKey]*Account
	logs  []string
}

func newTxState(b *Bank) *txState {
	return &txState{bank: b, dirty: make(map[common.PublicKey]*Account)}
}

func (s *txState) get(key common.PublicKey) Account {
	if a, ok := s.dirty[key]; ok {
		return a.clone()
	}
	if a, ok := s.bank.accounts[key]; ok {
		return a.clone()
	}
	return Account{Owner: chain.SystemProgramID}
}

func (s *txState) set(key common.PublicKey, a Account) {
	cp := a.clone()
	s.dirty[key] = &cp
}

func (s *txState) commit() {
	for k, a := range s.dirty {
		if !a.exists() && !a.Executable {
			delete(s.bank.accounts, k)
			continue
		}
		s.bank.accounts[k] = a
	}
}

func maskShort(s string) string {
	if len(s) <= 10 {
		return s
	}
	return s[:4] + "***" + s[len(s)-4:]
}
