package program

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

// fakeRuntime は Invoke を記録するだけの Runtime。
type fakeRuntime struct {
	programID common.PublicKey
	accounts  map[common.PublicKey]AccountInfo
	invoked   []types.Instruction
	seeds     [][][]byte
	failAt    int // 1 始まり。0 なら失敗しない
	failErr   error
	logs      []string
}

var _ Runtime = (*fakeRuntime)(nil)

func newFakeRuntime(programID common.PublicKey) *fakeRuntime {
	return &fakeRuntime{programID: programID, accounts: make(map[common.PublicKey]AccountInfo)}
}

func (f *fakeRuntime) ProgramID() common.PublicKey { return f.programID }

func (f *fakeRuntime) Account(key common.PublicKey) AccountInfo {
	a := f.accounts[key]
	a.Key = key
	return a
}

func (f *fakeRuntime) MinimumBalance(space uint64) uint64 { return space * 10 }

func (f *fakeRuntime) Invoke(ix types.Instruction, signerSeeds ...[][]byte) error {
	f.invoked = append(f.invoked, ix)
	var seeds [][]byte
	if len(signerSeeds) > 0 {
		seeds = signerSeeds[0]
	}
	f.seeds = append(f.seeds, seeds)
	if f.failAt > 0 && len(f.invoked) == f.failAt {
		return f.failErr
	}
	return nil
}

func (f *fakeRuntime) Log(format string, args ...any) {
	f.logs = append(f.logs, fmt.Sprintf(format, args...))
}

func (f *fakeRuntime) programs() []common.PublicKey {
	out := make([]common.PublicKey, 0, len(f.invoked))
	for _, ix := range f.invoked {
		out = append(out, ix.ProgramID)
	}
	return out
}
