// internal/adapters/out/memory/issuance_repository_mem.go
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	nftdom "narratives-nft/internal/domain/nft"
)

// IssuanceRepositoryMem は Firestore / PostgreSQL を使わないとき（SOLANA_MODE=local など）の保存先。
type IssuanceRepositoryMem struct {
	mu   sync.RWMutex
	byID map[string]nftdom.Issuance
}

var _ nftdom.Repository = (*IssuanceRepositoryMem)(nil)

func NewIssuanceRepositoryMem() *IssuanceRepositoryMem {
	return &IssuanceRepositoryMem{byID: make(map[string]nftdom.Issuance)}
}

func (r *IssuanceRepositoryMem) Save(_ context.Context, in nftdom.Issuance) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[strings.TrimSpace(in.ID)] = in
	return nil
}

func (r *IssuanceRepositoryMem) GetByID(_ context.Context, id string) (nftdom.Issuance, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return nftdom.Issuance{}, nftdom.ErrNotFound
	}
	return in, nil
}

func (r *IssuanceRepositoryMem) GetByMintAddress(_ context.Context, mintAddress string) (nftdom.Issuance, error) {
	mint := strings.TrimSpace(mintAddress)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, in := range r.byID {
		if mint != "" && in.MintAddress == mint {
			return in, nil
		}
	}
	return nftdom.Issuance{}, nftdom.ErrNotFound
}

func (r *IssuanceRepositoryMem) List(_ context.Context, limit int) ([]nftdom.Issuance, error) {
	r.mu.RLock()
	out := make([]nftdom.Issuance, 0, len(r.byID))
	for _, in := range r.byID {
		out = append(out, in)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
