// Package localchain は localnet.Bank を NFT 発行のポート（Issuer / StateReader / AddressResolver）
// として公開するアダプタです。SOLANA_MODE=local とテストで使います。
package localchain

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"

	"narratives-nft/internal/chain"
	nftdom "narratives-nft/internal/domain/nft"
	"narratives-nft/internal/localnet"
	"narratives-nft/internal/program"
)

// DefaultAirdrop は New 時に payer へ入れる lamports（10 SOL）。
const DefaultAirdrop uint64 = 10_000_000_000

// Chain はローカル ledger 上で mint_nft を実行します。
type Chain struct {
	bank    *localnet.Bank
	program *program.Program
	payer   types.Account
}

var (
	_ nftdom.Issuer          = (*Chain)(nil)
	_ nftdom.StateReader     = (*Chain)(nil)
	_ nftdom.AddressResolver = (*Chain)(nil)
)

// New はプログラムを bank にデプロイし、payer に DefaultAirdrop を入れた Chain を返します。
func New(bank *localnet.Bank, prog *program.Program, payer types.Account) *Chain {
	bank.Deploy(prog.ID(), localnet.ProgramProcessor(prog))
	bank.Airdrop(payer.PublicKey, DefaultAirdrop)
	log.Printf("[localchain] program=%s payer=%s creators=%s",
		maskShort(prog.ID().ToBase58()), maskShort(payer.PublicKey.ToBase58()), prog.CreatorPolicy())
	return &Chain{bank: bank, program: prog, payer: payer}
}

// Bank はテスト用に ledger を返します。
func (c *Chain) Bank() *localnet.Bank { return c.bank }

// Payer は署名に使う payer の公開鍵。
func (c *Chain) Payer() common.PublicKey { return c.payer.PublicKey }

// IssueNFT は新しい mint keypair を作り、mint_nft を 1 トランザクションで実行します。
func (c *Chain) IssueNFT(ctx context.Context, p nftdom.IssueParams) (nftdom.Receipt, error) {
	mint := types.NewAccount()
	return c.IssueWithMint(ctx, mint, p)
}

// IssueWithMint は指定した mint keypair で発行します（再利用時の拒否を確認するテスト用）。
func (c *Chain) IssueWithMint(ctx context.Context, mint types.Account, p nftdom.IssueParams) (nftdom.Receipt, error) {
	args := chain.MintNFTArgs{
		Name:                 p.Name,
		Symbol:               p.Symbol,
		Uri:                  p.URI,
		SellerFeeBasisPoints: p.SellerFeeBasisPoints,
	}
	ix, _, err := program.BuildMintInstruction(c.program.ID(), c.payer.PublicKey, mint.PublicKey, args)
	if err != nil {
		return nftdom.Receipt{}, err
	}
	addrs, err := program.AddressesFor(c.program.ID(), c.payer.PublicKey, mint.PublicKey)
	if err != nil {
		return nftdom.Receipt{}, err
	}

	sig, err := c.bank.Submit(ctx, localnet.Transaction{
		FeePayer:     c.payer.PublicKey,
		Instructions: []types.Instruction{ix},
		Signers:      []common.PublicKey{c.payer.PublicKey, mint.PublicKey},
	})
	if err != nil {
		return nftdom.Receipt{}, err
	}

	log.Printf("[localchain] minted mint=%s sig=%s", maskShort(addrs.MintAddress), maskShort(sig))
	return nftdom.Receipt{
		Addresses: addrs,
		Signature: sig,
		Logs:      c.bank.Logs(sig),
	}, nil
}

// ReadAsset は ledger 上の mint / metadata / holding account を読み出します。
func (c *Chain) ReadAsset(ctx context.Context, mintAddress string) (nftdom.Asset, error) {
	mint, ok := chain.ParsePublicKey(strings.TrimSpace(mintAddress))
	if !ok {
		return nftdom.Asset{}, nftdom.ErrInvalidMint
	}
	return chain.LoadAsset(ctx, c.fetch, mint, c.payer.PublicKey)
}

// ResolveAddresses は mint に対する PDA / ATA を返します。
func (c *Chain) ResolveAddresses(mintAddress string) (nftdom.Addresses, error) {
	mint, ok := chain.ParsePublicKey(strings.TrimSpace(mintAddress))
	if !ok {
		return nftdom.Addresses{}, nftdom.ErrInvalidMint
	}
	return program.AddressesFor(c.program.ID(), c.payer.PublicKey, mint)
}

func (c *Chain) fetch(_ context.Context, key common.PublicKey) ([]byte, common.PublicKey, bool, error) {
	acc, ok := c.bank.Account(key)
	if !ok {
		return nil, common.PublicKey{}, false, nil
	}
	return acc.Data, acc.Owner, true, nil
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}

// String はデバッグ用。
func (c *Chain) String() string {
	return fmt.Sprintf("localchain(program=%s)", c.program.ID().ToBase58())
}
