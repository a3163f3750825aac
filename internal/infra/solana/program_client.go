// internal/infra/solana/program_client.go
package solana

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"
	"github.com/blocto/solana-go-sdk/types"

	"narratives-nft/internal/chain"
	nftdom "narratives-nft/internal/domain/nft"
	"narratives-nft/internal/program"
)

var ErrProgramClientNotConfigured = errors.New("solana: program client not configured")

// ProgramClient はデプロイ済みの NFT 発行プログラムに mint_nft を送るクライアントです。
// 1 回の送信 = 1 トランザクション（payer と新しい mint が署名）。
type ProgramClient struct {
	RPC       *client.Client
	Payer     types.Account
	ProgramID common.PublicKey
}

var (
	_ nftdom.Issuer          = (*ProgramClient)(nil)
	_ nftdom.AddressResolver = (*ProgramClient)(nil)
)

// NewProgramClient は rpcURL（空なら devnet）に接続するクライアントを返します。
func NewProgramClient(rpcURL string, payer types.Account, programID common.PublicKey) *ProgramClient {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = rpc.DevnetRPCEndpoint
	}
	return &ProgramClient{
		RPC:       client.NewClient(u),
		Payer:     payer,
		ProgramID: programID,
	}
}

// IssueNFT は新しい mint keypair を作り、mint_nft を送信します。
func (c *ProgramClient) IssueNFT(ctx context.Context, p nftdom.IssueParams) (nftdom.Receipt, error) {
	if c == nil || c.RPC == nil {
		return nftdom.Receipt{}, ErrProgramClientNotConfigured
	}

	mint := types.NewAccount()
	args := chain.MintNFTArgs{
		Name:                 p.Name,
		Symbol:               p.Symbol,
		Uri:                  p.URI,
		SellerFeeBasisPoints: p.SellerFeeBasisPoints,
	}
	ix, _, err := program.BuildMintInstruction(c.ProgramID, c.Payer.PublicKey, mint.PublicKey, args)
	if err != nil {
		return nftdom.Receipt{}, err
	}
	addrs, err := program.AddressesFor(c.ProgramID, c.Payer.PublicKey, mint.PublicKey)
	if err != nil {
		return nftdom.Receipt{}, err
	}

	recent, err := c.RPC.GetLatestBlockhash(ctx)
	if err != nil {
		return nftdom.Receipt{}, fmt.Errorf("GetLatestBlockhash: %w", err)
	}

	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: []types.Account{c.Payer, mint},
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        c.Payer.PublicKey,
			RecentBlockhash: recent.Blockhash,
			Instructions:    []types.Instruction{ix},
		}),
	})
	if err != nil {
		return nftdom.Receipt{}, fmt.Errorf("NewTransaction: %w", err)
	}

	sig, err := c.RPC.SendTransaction(ctx, tx)
	if err != nil {
		return nftdom.Receipt{}, fmt.Errorf("SendTransaction: %w", err)
	}

	log.Printf(
		"[program_client] mint_nft sent sig=%s mint=%s metadata=%s holder=%s",
		maskShort(sig),
		maskShort(addrs.MintAddress),
		maskShort(addrs.MetadataAddress),
		maskShort(addrs.HolderAddress),
	)

	return nftdom.Receipt{Addresses: addrs, Signature: sig}, nil
}

// ResolveAddresses は mint に対する PDA / ATA を返します（RPC 呼び出しなし）。
func (c *ProgramClient) ResolveAddresses(mintAddress string) (nftdom.Addresses, error) {
	mint, ok := chain.ParsePublicKey(strings.TrimSpace(mintAddress))
	if !ok {
		return nftdom.Addresses{}, nftdom.ErrInvalidMint
	}
	return program.AddressesFor(c.ProgramID, c.Payer.PublicKey, mint)
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if t == "" {
		return ""
	}
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
