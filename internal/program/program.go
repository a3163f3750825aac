// Package program は NFT 発行プログラム本体です。
// mint authority の PDA 導出、アカウント検証、外部プログラム呼び出しの順序制御を持ち、
// ホスト ledger（internal/localnet）から Runtime 経由で実行されます。
package program

import (
	"errors"
	"fmt"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"narratives-nft/internal/chain"
)

// Result は 1 回の mint_nft の結果。
type Result struct {
	Stage          Stage
	Authority      Authority
	Accounts       chain.MintNFTAccounts
	HoldingCreated bool
}

// Program は mint_nft を処理するプログラム。状態を持たないので並行実行して問題ない。
type Program struct {
	id       common.PublicKey
	creators CreatorPolicy
}

// Option は Program の設定。
type Option func(*Program)

// WithCreatorPolicy は metadata の creators 方針を変更します。
func WithCreatorPolicy(p CreatorPolicy) Option {
	return func(pg *Program) { pg.creators = p }
}

func New(id common.PublicKey, opts ...Option) *Program {
	p := &Program{id: id, creators: CreatorAuthority}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ID はプログラムアドレス。
func (p *Program) ID() common.PublicKey { return p.id }

// CreatorPolicy は現在の creators 方針。
func (p *Program) CreatorPolicy() CreatorPolicy { return p.creators }

// Process は mint_nft 命令 1 件を処理します。
//
// 検証エラー（*Error）の場合は一切の呼び出し前に返り、Stage は Rejected。
// 外部呼び出しエラー（*CallError）の場合は Stage が Aborted になり、
// それまでの効果はホスト側のトランザクション巻き戻しで消える。
func (p *Program) Process(rt Runtime, metas []types.AccountMeta, data []byte) (Result, error) {
	res := Result{Stage: StagePending}

	if rt.ProgramID() != p.id {
		res.Stage = StageRejected
		return res, ErrProgramIDMismatch.with("program")
	}

	args, err := chain.DecodeMintNFTArgs(data)
	if err != nil {
		res.Stage = StageRejected
		return res, fmt.Errorf("%w: %v", ErrInvalidInstructionData, err)
	}

	auth, err := DeriveAuthority(p.id)
	if err != nil {
		res.Stage = StageRejected
		return res, err
	}
	res.Authority = auth

	acc, err := NewValidator(auth).Validate(rt, metas, args)
	if err != nil {
		res.Stage = StageRejected
		rt.Log("NFT Minting: rejected: %v", err)
		return res, err
	}
	res.Stage = StageValidated
	res.Accounts = acc.MintNFTAccounts
	res.HoldingCreated = !acc.HoldingExists

	seq := newSequencer(rt, auth, p.creators)
	err = seq.Run(acc, args)
	res.Stage = seq.Stage()
	if err != nil {
		var ce *CallError
		if errors.As(err, &ce) {
			rt.Log("NFT Minting: aborted at %s: %v", ce.Step, ce.Err)
		}
		return res, err
	}
	return res, nil
}

// BuildMintInstruction は payer と新しい mint から mint_nft 命令を組み立てます。
func BuildMintInstruction(programID, payer, mint common.PublicKey, args chain.MintNFTArgs) (types.Instruction, chain.MintNFTAccounts, error) {
	if err := ValidateArgs(args); err != nil {
		return types.Instruction{}, chain.MintNFTAccounts{}, err
	}
	accounts, _, err := ResolveAccounts(programID, payer, mint)
	if err != nil {
		return types.Instruction{}, chain.MintNFTAccounts{}, err
	}
	ix, err := chain.NewMintNFTInstruction(programID, accounts, args)
	if err != nil {
		return types.Instruction{}, chain.MintNFTAccounts{}, err
	}
	return ix, accounts, nil
}
