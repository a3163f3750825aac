package localnet

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"narratives-nft/internal/program"
)

// InvokeContext は 1 回のプログラム実行に渡される実行環境です。
// signers / writable はこの呼び出しで与えられた権限で、CPI で拡大することはできない
// （PDA は seeds を提示した呼び出し元プログラムの分だけ署名扱いになる）。
type InvokeContext struct {
	state     *txState
	programID common.PublicKey
	signers   map[common.PublicKey]bool
	writable  map[common.PublicKey]bool
	depth     int
}

var _ program.Runtime = (*InvokeContext)(nil)

func (ic *InvokeContext) ProgramID() common.PublicKey { return ic.programID }

func (ic *InvokeContext) Account(key common.PublicKey) program.AccountInfo {
	a := ic.state.get(key)
	return program.AccountInfo{
		Key:        key,
		Owner:      a.Owner,
		Lamports:   a.Lamports,
		Data:       a.Data,
		Executable: a.Executable,
	}
}

func (ic *InvokeContext) MinimumBalance(space uint64) uint64 { return MinimumBalance(space) }

func (ic *InvokeContext) Log(format string, args ...any) {
	ic.state.logs = append(ic.state.logs, "Program log: "+fmt.Sprintf(format, args...))
}

// IsSigner はこの呼び出しで key が署名者扱いか。
func (ic *InvokeContext) IsSigner(key common.PublicKey) bool { return ic.signers[key] }

// IsWritable はこの呼び出しで key が書き込み可能か。
func (ic *InvokeContext) IsWritable(key common.PublicKey) bool { return ic.writable[key] }

// Depth は呼び出しの深さ（トップレベル命令 = 1）。
func (ic *InvokeContext) Depth() int { return ic.depth }

// Invoke は別プログラムを呼び出します。signerSeeds ごとに
// CreateProgramAddress(seeds, 呼び出し元) を計算し、そのアドレスを署名者として扱う。
func (ic *InvokeContext) Invoke(ix types.Instruction, signerSeeds ...[][]byte) error {
	if ic.depth >= maxCallDepth {
		return fmt.Errorf("%w: depth=%d", ErrCallDepthExceeded, ic.depth)
	}

	pdas := make(map[common.PublicKey]bool, len(signerSeeds))
	for _, seeds := range signerSeeds {
		addr, err := common.CreateProgramAddress(seeds, ic.programID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSeeds, err)
		}
		pdas[addr] = true
	}

	signers := make(map[common.PublicKey]bool, len(ix.Accounts))
	writable := make(map[common.PublicKey]bool, len(ix.Accounts))
	for _, m := range ix.Accounts {
		if m.IsSigner {
			if !ic.signers[m.PubKey] && !pdas[m.PubKey] {
				return fmt.Errorf("%w: %s", ErrMissingSignature, m.PubKey.ToBase58())
			}
			signers[m.PubKey] = true
		}
		if m.IsWritable {
			if !ic.writable[m.PubKey] && !pdas[m.PubKey] {
				return fmt.Errorf("%w: %s", ErrPrivilegeEscalation, m.PubKey.ToBase58())
			}
			writable[m.PubKey] = true
		}
	}

	child := &InvokeContext{
		state:     ic.state,
		programID: ix.ProgramID,
		signers:   signers,
		writable:  writable,
		depth:     ic.depth + 1,
	}
	return child.execute(ix)
}

func (ic *InvokeContext) execute(ix types.Instruction) error {
	p, ok := ic.state.bank.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID.ToBase58())
	}
	id := ix.ProgramID.ToBase58()
	ic.state.logs = append(ic.state.logs, fmt.Sprintf("Program %s invoke [%d]", id, ic.depth))
	if err := p.Process(ic, ix.Accounts, ix.Data); err != nil {
		ic.state.logs = append(ic.state.logs, fmt.Sprintf("Program %s failed: %v", id, err))
		return err
	}
	ic.state.logs = append(ic.state.logs, fmt.Sprintf("Program %s success", id))
	return nil
}

// get / set は組み込みプログラム用。書き込みは writable なアカウントにだけ許す。
func (ic *InvokeContext) get(key common.PublicKey) Account { return ic.state.get(key) }

func (ic *InvokeContext) set(key common.PublicKey, a Account) error {
	if !ic.writable[key] {
		return fmt.Errorf("%w: %s is not writable", ErrPrivilegeEscalation, key.ToBase58())
	}
	ic.state.set(key, a)
	return nil
}

// payRent は space bytes 分の rent-exempt lamports を from から引いて返します。
func (ic *InvokeContext) payRent(from common.PublicKey, space uint64) (uint64, error) {
	rent := MinimumBalance(space)
	payer := ic.get(from)
	if payer.Lamports < rent {
		return 0, fmt.Errorf("%w: need %d lamports, have %d", ErrInsufficientFunds, rent, payer.Lamports)
	}
	payer.Lamports -= rent
	if err := ic.set(from, payer); err != nil {
		return 0, err
	}
	return rent, nil
}

// ProgramProcessor は NFT 発行プログラムを ledger に載せるためのアダプタ。
func ProgramProcessor(p *program.Program) Processor {
	return ProcessorFunc(func(ic *InvokeContext, metas []types.AccountMeta, data []byte) error {
		res, err := p.Process(ic, metas, data)
		ic.Log("stage=%s", res.Stage)
		return err
	})
}

func requireAccounts(metas []types.AccountMeta, n int) error {
	if len(metas) < n {
		return fmt.Errorf("%w: got %d want %d", ErrNotEnoughAccounts, len(metas), n)
	}
	return nil
}
