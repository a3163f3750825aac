package localnet_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narratives-nft/internal/chain"
	"narratives-nft/internal/localnet"
	"narratives-nft/internal/program"
)

var programID = common.PublicKeyFromString(chain.DefaultProgramID)

const airdrop uint64 = 1_000_000_000

// 1 回の mint_nft で payer が払う rent（mint + ATA + metadata）
var mintCost = localnet.MinimumBalance(chain.MintAccountSize) +
	localnet.MinimumBalance(chain.TokenAccountSize) +
	localnet.MinimumBalance(chain.MetadataAccountSize)

type fixture struct {
	bank      *localnet.Bank
	payer     types.Account
	authority program.Authority
}

func newFixture(t *testing.T, lamports uint64, opts ...program.Option) *fixture {
	t.Helper()
	bank := localnet.NewBank()
	bank.Deploy(programID, localnet.ProgramProcessor(program.New(programID, opts...)))
	payer := types.NewAccount()
	bank.Airdrop(payer.PublicKey, lamports)

	auth, err := program.DeriveAuthority(programID)
	require.NoError(t, err)
	return &fixture{bank: bank, payer: payer, authority: auth}
}

func testArgs() chain.MintNFTArgs {
	return chain.MintNFTArgs{
		Name:                 "Narratives #1",
		Symbol:               "NARR",
		Uri:                  "https://example.com/1.json",
		SellerFeeBasisPoints: 500,
	}
}

// instruction は引数チェックを通さずに mint_nft を組み立てる（プログラム側の検証を見るため）。
func (f *fixture) instruction(t *testing.T, mint common.PublicKey, args chain.MintNFTArgs) (types.Instruction, chain.MintNFTAccounts) {
	t.Helper()
	acc, _, err := program.ResolveAccounts(programID, f.payer.PublicKey, mint)
	require.NoError(t, err)
	ix, err := chain.NewMintNFTInstruction(programID, acc, args)
	require.NoError(t, err)
	return ix, acc
}

func (f *fixture) submit(ix types.Instruction, signers ...common.PublicKey) (string, error) {
	return f.bank.Submit(context.Background(), localnet.Transaction{
		FeePayer:     f.payer.PublicKey,
		Instructions: []types.Instruction{ix},
		Signers:      append([]common.PublicKey{f.payer.PublicKey}, signers...),
	})
}

func TestMintNFT(t *testing.T) {
	f := newFixture(t, airdrop)
	mint := types.NewAccount()
	ix, acc := f.instruction(t, mint.PublicKey, testArgs())

	sig, err := f.submit(ix, mint.PublicKey)
	require.NoError(t, err)
	require.NotEmpty(t, sig)

	// Mint: supply 1 / decimals 0 / authority = freeze = PDA
	mintAcc, ok := f.bank.Account(mint.PublicKey)
	require.True(t, ok)
	assert.Equal(t, chain.TokenProgramID, mintAcc.Owner)
	assert.Equal(t, localnet.MinimumBalance(chain.MintAccountSize), mintAcc.Lamports)
	m, err := chain.DecodeMint(mintAcc.Data)
	require.NoError(t, err)
	assert.True(t, m.IsInitialized)
	assert.Equal(t, uint64(1), m.Supply)
	assert.Equal(t, uint8(0), m.Decimals)
	authKey, ok := m.Authority()
	require.True(t, ok)
	assert.Equal(t, f.authority.Address, authKey)
	freezeKey, ok := m.Freeze()
	require.True(t, ok)
	assert.Equal(t, f.authority.Address, freezeKey)

	// Metadata: 引数どおり、immutable、authority PDA が verified creator
	mdAcc, ok := f.bank.Account(acc.Metadata)
	require.True(t, ok)
	assert.Equal(t, chain.TokenMetadataProgramID, mdAcc.Owner)
	md, err := chain.DecodeMetadata(mdAcc.Data)
	require.NoError(t, err)
	assert.Equal(t, mint.PublicKey, md.Mint)
	assert.Equal(t, f.authority.Address, md.UpdateAuthority)
	assert.Equal(t, testArgs().Name, md.Data.Name)
	assert.Equal(t, testArgs().Symbol, md.Data.Symbol)
	assert.Equal(t, testArgs().Uri, md.Data.Uri)
	assert.Equal(t, testArgs().SellerFeeBasisPoints, md.Data.SellerFeeBasisPoints)
	assert.False(t, md.IsMutable)
	assert.Equal(t, []chain.CreatorLayout{{Address: f.authority.Address, Verified: true, Share: 100}}, md.Data.CreatorList())

	// Holding account: payer が 1 枚保有
	taAcc, ok := f.bank.Account(acc.TokenAccount)
	require.True(t, ok)
	assert.Equal(t, chain.TokenProgramID, taAcc.Owner)
	ta, err := chain.DecodeTokenAccount(taAcc.Data)
	require.NoError(t, err)
	assert.Equal(t, mint.PublicKey, ta.Mint)
	assert.Equal(t, f.payer.PublicKey, ta.Owner)
	assert.Equal(t, uint64(1), ta.Amount)

	assert.Equal(t, airdrop-mintCost, f.bank.Balance(f.payer.PublicKey))

	logs := f.bank.Logs(sig)
	joined := strings.Join(logs, "\n")
	assert.Contains(t, joined, "Program "+programID.ToBase58()+" invoke [1]")
	assert.Contains(t, joined, "Program "+chain.TokenMetadataProgramID.ToBase58()+" invoke [2]")
	assert.Contains(t, joined, "Program log: NFT Minting: Creating metadata account...")
	assert.Contains(t, joined, "Program log: NFT Minting: Minting one token to token account...")
	assert.Contains(t, joined, "Program log: NFT Minting: Making metadata immutable...")
	assert.Contains(t, joined, "Program log: NFT Minting: NFT created successfully!")
	assert.Contains(t, joined, "Program log: stage=Done")
	assert.Equal(t, "Program "+programID.ToBase58()+" success", logs[len(logs)-1])

	rec, ok := f.bank.Transaction(sig)
	require.True(t, ok)
	assert.NoError(t, rec.Err)
	assert.Equal(t, uint64(1), f.bank.Slot())
}

func TestMintNFTCreatorPayer(t *testing.T) {
	f := newFixture(t, airdrop, program.WithCreatorPolicy(program.CreatorPayer))
	mint := types.NewAccount()
	ix, acc := f.instruction(t, mint.PublicKey, testArgs())

	_, err := f.submit(ix, mint.PublicKey)
	require.NoError(t, err)

	mdAcc, _ := f.bank.Account(acc.Metadata)
	md, err := chain.DecodeMetadata(mdAcc.Data)
	require.NoError(t, err)
	assert.Equal(t, []chain.CreatorLayout{{Address: f.payer.PublicKey, Verified: false, Share: 100}}, md.Data.CreatorList())
}

func TestMintNFTReusedMintIsRejected(t *testing.T) {
	f := newFixture(t, airdrop)
	mint := types.NewAccount()
	ix, acc := f.instruction(t, mint.PublicKey, testArgs())

	_, err := f.submit(ix, mint.PublicKey)
	require.NoError(t, err)
	balance := f.bank.Balance(f.payer.PublicKey)
	mdBefore, _ := f.bank.Account(acc.Metadata)

	// 2 回目は同じ mint keypair
	_, err = f.submit(ix, mint.PublicKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, program.ErrAccountAlreadyInUse)

	var txErr *localnet.TxError
	require.True(t, errors.As(err, &txErr))
	assert.True(t, txErr.LogsContain("stage=Rejected"))

	assert.Equal(t, balance, f.bank.Balance(f.payer.PublicKey))
	mdAfter, _ := f.bank.Account(acc.Metadata)
	assert.Equal(t, mdBefore, mdAfter)

	mintAcc, _ := f.bank.Account(mint.PublicKey)
	m, err := chain.DecodeMint(mintAcc.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.Supply)
}

func TestMintNFTValidationLeavesNoTrace(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ix *types.Instruction, args *chain.MintNFTArgs)
		want   error
	}{
		{
			name:   "royalty over 10000",
			mutate: func(_ *types.Instruction, args *chain.MintNFTArgs) { args.SellerFeeBasisPoints = 10001 },
			want:   program.ErrRoyaltyOutOfRange,
		},
		{
			name:   "name over 32 bytes",
			mutate: func(_ *types.Instruction, args *chain.MintNFTArgs) { args.Name = strings.Repeat("x", 33) },
			want:   program.ErrNameTooLong,
		},
		{
			name: "metadata not derived from mint",
			mutate: func(ix *types.Instruction, _ *chain.MintNFTArgs) {
				ix.Accounts[chain.IdxMetadata].PubKey = types.NewAccount().PublicKey
			},
			want: program.ErrMetadataAddressMismatch,
		},
		{
			name: "authority is not the program PDA",
			mutate: func(ix *types.Instruction, _ *chain.MintNFTArgs) {
				ix.Accounts[chain.IdxMintAuthority].PubKey = types.NewAccount().PublicKey
			},
			want: program.ErrAuthorityAddressMismatch,
		},
		{
			name: "token account is not the ATA",
			mutate: func(ix *types.Instruction, _ *chain.MintNFTArgs) {
				ix.Accounts[chain.IdxTokenAccount].PubKey = types.NewAccount().PublicKey
			},
			want: program.ErrHoldingAccountMismatch,
		},
		{
			name: "fake token metadata program",
			mutate: func(ix *types.Instruction, _ *chain.MintNFTArgs) {
				ix.Accounts[chain.IdxTokenMetadataProgram].PubKey = types.NewAccount().PublicKey
			},
			want: program.ErrProgramIDMismatch,
		},
		{
			name: "payer not marked as signer",
			mutate: func(ix *types.Instruction, _ *chain.MintNFTArgs) {
				ix.Accounts[chain.IdxPayer].IsSigner = false
			},
			want: program.ErrPayerNotSigner,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, airdrop)
			mint := types.NewAccount()
			args := testArgs()
			ix, acc := f.instruction(t, mint.PublicKey, args)
			tt.mutate(&ix, &args)
			rebuilt, err := chain.NewMintNFTInstruction(programID, chain.MintNFTAccounts{}, args)
			require.NoError(t, err)
			ix.Data = rebuilt.Data

			_, err = f.submit(ix, mint.PublicKey)
			assert.ErrorIs(t, err, tt.want)

			assert.Equal(t, airdrop, f.bank.Balance(f.payer.PublicKey))
			for _, k := range []common.PublicKey{mint.PublicKey, acc.Metadata, acc.TokenAccount} {
				_, ok := f.bank.Account(k)
				assert.False(t, ok, k.ToBase58())
			}
		})
	}
}

func TestMintNFTRoyaltyBoundary(t *testing.T) {
	f := newFixture(t, airdrop)
	mint := types.NewAccount()
	args := testArgs()
	args.SellerFeeBasisPoints = 10000
	ix, _ := f.instruction(t, mint.PublicKey, args)

	_, err := f.submit(ix, mint.PublicKey)
	assert.NoError(t, err)
}

func TestMintNFTInsufficientFundsRollsBack(t *testing.T) {
	// mint と ATA は払えるが metadata の rent が足りない
	lamports := localnet.MinimumBalance(chain.MintAccountSize) + localnet.MinimumBalance(chain.TokenAccountSize) + 1
	f := newFixture(t, lamports)
	mint := types.NewAccount()
	ix, acc := f.instruction(t, mint.PublicKey, testArgs())

	_, err := f.submit(ix, mint.PublicKey)
	require.Error(t, err)
	assert.ErrorIs(t, err, localnet.ErrInsufficientFunds)

	var ce *program.CallError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "create_metadata_accounts_v3", ce.Step)
	assert.Equal(t, program.StageValidated, ce.Stage)

	var txErr *localnet.TxError
	require.True(t, errors.As(err, &txErr))
	assert.True(t, txErr.LogsContain("stage=Aborted"))
	assert.True(t, txErr.LogsContain("aborted at create_metadata_accounts_v3"))

	// 途中まで作った mint / ATA も残らない
	assert.Equal(t, lamports, f.bank.Balance(f.payer.PublicKey))
	for _, k := range []common.PublicKey{mint.PublicKey, acc.Metadata, acc.TokenAccount} {
		_, ok := f.bank.Account(k)
		assert.False(t, ok, k.ToBase58())
	}

	rec, ok := f.bank.Transaction(txErr.Signature)
	require.True(t, ok)
	assert.Error(t, rec.Err)
}

func TestMintNFTRequiresMintSignature(t *testing.T) {
	f := newFixture(t, airdrop)
	mint := types.NewAccount()
	ix, _ := f.instruction(t, mint.PublicKey, testArgs())

	_, err := f.submit(ix) // mint の署名なし
	assert.ErrorIs(t, err, localnet.ErrMissingSignature)
	assert.Equal(t, airdrop, f.bank.Balance(f.payer.PublicKey))
}

func TestMintNFTOnWrongProgramAddress(t *testing.T) {
	f := newFixture(t, airdrop)
	other := types.NewAccount().PublicKey
	f.bank.Deploy(other, localnet.ProgramProcessor(program.New(programID)))

	mint := types.NewAccount()
	ix, _ := f.instruction(t, mint.PublicKey, testArgs())
	ix.ProgramID = other

	_, err := f.submit(ix, mint.PublicKey)
	assert.ErrorIs(t, err, program.ErrProgramIDMismatch)
}

func TestMetadataCannotChangeAfterMint(t *testing.T) {
	f := newFixture(t, airdrop)
	mint := types.NewAccount()
	ix, acc := f.instruction(t, mint.PublicKey, testArgs())
	_, err := f.submit(ix, mint.PublicKey)
	require.NoError(t, err)
	before, _ := f.bank.Account(acc.Metadata)

	// 同じプログラムアドレスに、PDA で metadata を書き換えようとする処理を載せ替える
	f.bank.Deploy(programID, localnet.ProcessorFunc(func(ic *localnet.InvokeContext, metas []types.AccountMeta, _ []byte) error {
		update, err := chain.UpdateMetadataAccountV2(chain.UpdateMetadataV2Param{
			Metadata:        metas[0].PubKey,
			UpdateAuthority: metas[1].PubKey,
			Data: &chain.DataV2Args{
				Name: "Renamed",
				Uri:  "https://example.com/evil.json",
			},
		})
		if err != nil {
			return err
		}
		return ic.Invoke(update, f.authority.SignerSeeds())
	}))

	_, err = f.submit(types.Instruction{
		ProgramID: programID,
		Accounts: []types.AccountMeta{
			{PubKey: acc.Metadata, IsWritable: true},
			{PubKey: f.authority.Address},
		},
	})
	assert.ErrorIs(t, err, localnet.ErrDataIsImmutable)

	after, _ := f.bank.Account(acc.Metadata)
	assert.Equal(t, before, after)
}

func TestForeignProgramCannotSignForAuthority(t *testing.T) {
	f := newFixture(t, airdrop)
	mint := types.NewAccount()
	ix, acc := f.instruction(t, mint.PublicKey, testArgs())
	_, err := f.submit(ix, mint.PublicKey)
	require.NoError(t, err)

	// 別プログラムが同じ seeds を提示しても、導出先は自分の PDA になる
	// （bump が合わず曲線上に落ちれば seeds 自体が無効）
	rogue := types.NewAccount().PublicKey
	f.bank.Deploy(rogue, localnet.ProcessorFunc(func(ic *localnet.InvokeContext, metas []types.AccountMeta, _ []byte) error {
		return ic.Invoke(token.MintTo(token.MintToParam{
			Mint:   metas[0].PubKey,
			To:     metas[1].PubKey,
			Auth:   metas[2].PubKey,
			Amount: 1,
		}), f.authority.SignerSeeds())
	}))

	_, err = f.submit(types.Instruction{
		ProgramID: rogue,
		Accounts: []types.AccountMeta{
			{PubKey: mint.PublicKey, IsWritable: true},
			{PubKey: acc.TokenAccount, IsWritable: true},
			{PubKey: f.authority.Address},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, localnet.ErrMissingSignature) || errors.Is(err, localnet.ErrInvalidSeeds), err.Error())

	mintAcc, _ := f.bank.Account(mint.PublicKey)
	m, err := chain.DecodeMint(mintAcc.Data)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), m.Supply)
}

func TestInvokeRejectsInvalidSeeds(t *testing.T) {
	f := newFixture(t, airdrop)
	caller := types.NewAccount().PublicKey
	f.bank.Deploy(caller, localnet.ProcessorFunc(func(ic *localnet.InvokeContext, _ []types.AccountMeta, _ []byte) error {
		tooLong := [][]byte{[]byte(strings.Repeat("s", 33))}
		return ic.Invoke(types.Instruction{ProgramID: chain.SystemProgramID}, tooLong)
	}))

	_, err := f.submit(types.Instruction{ProgramID: caller})
	assert.ErrorIs(t, err, localnet.ErrInvalidSeeds)
}

func TestInvokeDepthIsLimited(t *testing.T) {
	f := newFixture(t, airdrop)
	recursive := types.NewAccount().PublicKey
	depth := 0
	f.bank.Deploy(recursive, localnet.ProcessorFunc(func(ic *localnet.InvokeContext, _ []types.AccountMeta, _ []byte) error {
		depth = ic.Depth()
		return ic.Invoke(types.Instruction{ProgramID: recursive})
	}))

	_, err := f.submit(types.Instruction{ProgramID: recursive})
	assert.ErrorIs(t, err, localnet.ErrCallDepthExceeded)
	assert.Equal(t, 4, depth)
}

func TestInvokeCannotEscalateWritable(t *testing.T) {
	f := newFixture(t, airdrop)
	victim := types.NewAccount().PublicKey
	f.bank.Airdrop(victim, 1000)
	caller := types.NewAccount().PublicKey
	f.bank.Deploy(caller, localnet.ProcessorFunc(func(ic *localnet.InvokeContext, metas []types.AccountMeta, _ []byte) error {
		return ic.Invoke(types.Instruction{
			ProgramID: chain.SystemProgramID,
			Accounts: []types.AccountMeta{
				{PubKey: metas[0].PubKey, IsSigner: true, IsWritable: true},
				{PubKey: metas[1].PubKey, IsWritable: true},
			},
			Data: []byte{2, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0},
		})
	}))

	_, err := f.submit(types.Instruction{
		ProgramID: caller,
		Accounts: []types.AccountMeta{
			{PubKey: f.payer.PublicKey, IsSigner: true, IsWritable: true},
			{PubKey: victim}, // read-only
		},
	})
	assert.ErrorIs(t, err, localnet.ErrPrivilegeEscalation)
	assert.Equal(t, uint64(1000), f.bank.Balance(victim))
}

func TestSubmitRequiresFeePayerSignature(t *testing.T) {
	f := newFixture(t, airdrop)
	_, err := f.bank.Submit(context.Background(), localnet.Transaction{
		FeePayer:     f.payer.PublicKey,
		Instructions: []types.Instruction{{ProgramID: chain.SystemProgramID}},
	})
	assert.ErrorIs(t, err, localnet.ErrMissingSignature)

	_, err = f.bank.Submit(context.Background(), localnet.Transaction{FeePayer: f.payer.PublicKey})
	assert.ErrorIs(t, err, localnet.ErrEmptyTransaction)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.bank.Submit(ctx, localnet.Transaction{
		FeePayer:     f.payer.PublicKey,
		Instructions: []types.Instruction{{ProgramID: chain.SystemProgramID}},
		Signers:      []common.PublicKey{f.payer.PublicKey},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMinimumBalance(t *testing.T) {
	assert.Equal(t, uint64(890_880), localnet.MinimumBalance(0))
	assert.Equal(t, uint64(1_461_600), localnet.MinimumBalance(chain.MintAccountSize))
	assert.Equal(t, uint64(2_039_280), localnet.MinimumBalance(chain.TokenAccountSize))
}
