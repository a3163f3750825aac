package program

import (
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/associated_token_account"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/system"
	"github.com/blocto/solana-go-sdk/program/token"

	"narratives-nft/internal/chain"
)

// CreatorPolicy は metadata の creators に誰を載せるか。
type CreatorPolicy int

const (
	// CreatorAuthority は mint authority PDA を verified creator (share 100) にする。
	CreatorAuthority CreatorPolicy = iota
	// CreatorPayer は payer を unverified creator (share 100) にする。
	// verified にできるのは update authority だけなので payer は未検証のまま。
	CreatorPayer
)

func (p CreatorPolicy) String() string {
	if p == CreatorPayer {
		return "payer"
	}
	return "authority"
}

// ParseCreatorPolicy は設定値（"authority" / "payer"）を解釈します。不明値は authority。
func ParseCreatorPolicy(s string) CreatorPolicy {
	if s == "payer" {
		return CreatorPayer
	}
	return CreatorAuthority
}

// Sequencer は検証済みアカウントに対して外部呼び出しを決まった順番で実行します。
//
//	0) mint 作成 + 初期化、ATA が無ければ作成
//	1) metadata 作成（authority PDA が署名）
//	2) 1 枚 mint（authority PDA が署名）
//	3) metadata を immutable に更新（authority PDA が署名）
//
// どこかで失敗したら残りは実行せず、ホスト側がトランザクション全体を巻き戻す。
type Sequencer struct {
	rt        Runtime
	authority Authority
	creators  CreatorPolicy
	stage     Stage
}

func newSequencer(rt Runtime, authority Authority, creators CreatorPolicy) *Sequencer {
	return &Sequencer{rt: rt, authority: authority, creators: creators, stage: StageValidated}
}

// Stage は現在の進行状態。
func (s *Sequencer) Stage() Stage { return s.stage }

// Run は 4 ステップを実行します。戻り値の error は *CallError。
func (s *Sequencer) Run(acc ValidatedAccounts, args chain.MintNFTArgs) error {
	if err := s.initAccounts(acc); err != nil {
		return err
	}

	s.rt.Log("NFT Minting: Creating metadata account...")
	if err := s.createMetadata(acc, args); err != nil {
		return err
	}
	s.stage = StageMetadataCreated

	s.rt.Log("NFT Minting: Minting one token to token account...")
	if err := s.mintOne(acc); err != nil {
		return err
	}
	s.stage = StageTokenMinted

	s.rt.Log("NFT Minting: Making metadata immutable...")
	if err := s.lockMetadata(acc); err != nil {
		return err
	}
	s.stage = StageMetadataLocked

	s.rt.Log("NFT Minting: NFT created successfully!")
	s.stage = StageDone
	return nil
}

func (s *Sequencer) fail(step, prog string, err error) error {
	stage := s.stage
	s.stage = StageAborted
	return &CallError{Stage: stage, Step: step, Program: prog, Err: err}
}

// initAccounts は mint と (必要なら) ATA を作る。payer / mint は tx 署名者なので seeds は不要。
func (s *Sequencer) initAccounts(acc ValidatedAccounts) error {
	if err := s.rt.Invoke(system.CreateAccount(system.CreateAccountParam{
		From:     acc.Payer,
		New:      acc.Mint,
		Owner:    chain.TokenProgramID,
		Lamports: s.rt.MinimumBalance(chain.MintAccountSize),
		Space:    chain.MintAccountSize,
	})); err != nil {
		return s.fail("create_mint_account", "system", err)
	}

	freeze := s.authority.Address
	if err := s.rt.Invoke(token.InitializeMint(token.InitializeMintParam{
		Decimals:   0,
		Mint:       acc.Mint,
		MintAuth:   s.authority.Address,
		FreezeAuth: &freeze,
	})); err != nil {
		return s.fail("initialize_mint", "token", err)
	}

	if acc.HoldingExists {
		return nil
	}
	if err := s.rt.Invoke(associated_token_account.CreateAssociatedTokenAccount(
		associated_token_account.CreateAssociatedTokenAccountParam{
			Funder:                 acc.Payer,
			Owner:                  acc.Payer,
			Mint:                   acc.Mint,
			AssociatedTokenAccount: acc.TokenAccount,
		},
	)); err != nil {
		return s.fail("create_token_account", "associated_token", err)
	}
	return nil
}

func (s *Sequencer) creatorList(payer common.PublicKey) []token_metadata.Creator {
	if s.creators == CreatorPayer {
		return []token_metadata.Creator{{Address: payer, Verified: false, Share: 100}}
	}
	return []token_metadata.Creator{{Address: s.authority.Address, Verified: true, Share: 100}}
}

func (s *Sequencer) createMetadata(acc ValidatedAccounts, args chain.MintNFTArgs) error {
	creators := s.creatorList(acc.Payer)
	ix := token_metadata.CreateMetadataAccountV3(token_metadata.CreateMetadataAccountV3Param{
		Metadata:                acc.Metadata,
		Mint:                    acc.Mint,
		MintAuthority:           s.authority.Address,
		Payer:                   acc.Payer,
		UpdateAuthority:         s.authority.Address,
		UpdateAuthorityIsSigner: true,
		IsMutable:               true,
		Data: token_metadata.DataV2{
			Name:                 args.Name,
			Symbol:               args.Symbol,
			Uri:                  args.Uri,
			SellerFeeBasisPoints: args.SellerFeeBasisPoints,
			Creators:             &creators,
		},
		CollectionDetails: nil,
	})
	if err := s.rt.Invoke(ix, s.authority.SignerSeeds()); err != nil {
		return s.fail("create_metadata_accounts_v3", "token_metadata", err)
	}
	return nil
}

func (s *Sequencer) mintOne(acc ValidatedAccounts) error {
	ix := token.MintTo(token.MintToParam{
		Mint:   acc.Mint,
		To:     acc.TokenAccount,
		Auth:   s.authority.Address,
		Amount: 1,
	})
	if err := s.rt.Invoke(ix, s.authority.SignerSeeds()); err != nil {
		return s.fail("mint_to", "token", err)
	}
	return nil
}

func (s *Sequencer) lockMetadata(acc ValidatedAccounts) error {
	immutable := false
	ix, err := chain.UpdateMetadataAccountV2(chain.UpdateMetadataV2Param{
		Metadata:        acc.Metadata,
		UpdateAuthority: s.authority.Address,
		IsMutable:       &immutable,
	})
	if err != nil {
		return s.fail("update_metadata_accounts_v2", "token_metadata", err)
	}
	if err := s.rt.Invoke(ix, s.authority.SignerSeeds()); err != nil {
		return s.fail("update_metadata_accounts_v2", "token_metadata", err)
	}
	return nil
}
