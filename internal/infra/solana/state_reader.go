// internal/infra/solana/state_reader.go
package solana

import (
	"context"
	"strings"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/rpc"

	"narratives-nft/internal/chain"
	nftdom "narratives-nft/internal/domain/nft"
)

// StateReader は RPC 経由で mint / metadata / holding account を読み出します。
type StateReader struct {
	RPC    *client.Client
	Holder common.PublicKey
}

var _ nftdom.StateReader = (*StateReader)(nil)

func NewStateReader(rpcURL string, holder common.PublicKey) *StateReader {
	u := strings.TrimSpace(rpcURL)
	if u == "" {
		u = rpc.DevnetRPCEndpoint
	}
	return &StateReader{RPC: client.NewClient(u), Holder: holder}
}

func (r *StateReader) ReadAsset(ctx context.Context, mintAddress string) (nftdom.Asset, error) {
	mint, ok := chain.ParsePublicKey(strings.TrimSpace(mintAddress))
	if !ok {
		return nftdom.Asset{}, nftdom.ErrInvalidMint
	}
	return chain.LoadAsset(ctx, r.fetch, mint, r.Holder)
}

func (r *StateReader) fetch(ctx context.Context, key common.PublicKey) ([]byte, common.PublicKey, bool, error) {
	info, err := r.RPC.GetAccountInfo(ctx, key.ToBase58())
	if err != nil {
		if isAccountNotFound(err) {
			return nil, common.PublicKey{}, false, nil
		}
		return nil, common.PublicKey{}, false, err
	}
	// 存在しないアカウントは value=null → ゼロ値で返る
	if info.Lamports == 0 && len(info.Data) == 0 {
		return nil, common.PublicKey{}, false, nil
	}
	return info.Data, info.Owner, true, nil
}

func isAccountNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") ||
		strings.Contains(msg, "could not find account") ||
		strings.Contains(msg, "account does not exist")
}
