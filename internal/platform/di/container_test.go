package di

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpin "narratives-nft/internal/adapters/in/http"
	usecase "narratives-nft/internal/application/usecase"
	appcfg "narratives-nft/internal/infra/config"
	solanainfra "narratives-nft/internal/infra/solana"
)

func localConfig() *appcfg.Config {
	return &appcfg.Config{
		SolanaMode:           appcfg.SolanaModeLocal,
		ProgramID:            "FHPZSYygxX52f3op5TndwoN5Cadyixu4zTc2g13HAasP",
		CreatorPolicy:        "authority",
		DefaultRoyaltyPoints: 500,
		AllowedOrigins:       []string{"http://localhost:5173"},
	}
}

func TestBuildLocal(t *testing.T) {
	c, err := Build(context.Background(), localConfig())
	require.NoError(t, err)
	defer c.Close()

	require.NotNil(t, c.LocalChain)
	require.NotNil(t, c.NFTUC)
	assert.Nil(t, c.FirebaseAuth)

	deps := c.RouterDeps()
	assert.Nil(t, deps.TokenVerifier)

	res, err := c.NFTUC.Issue(context.Background(), usecase.IssueInput{Name: "a", URI: "https://example.com/a.json"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Receipt.Signature)

	// 認証なしで POST /nfts が通る
	h := httpin.NewRouter(deps)
	req := httptest.NewRequest(http.MethodPost, "/nfts", strings.NewReader(`{"name":"b","uri":"https://example.com/b.json"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
}

func TestBuildLocalWithPayerFile(t *testing.T) {
	payer := types.NewAccount()
	raw, err := solanainfra.EncodeKeypairJSON(payer)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "payer.json")
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	cfg := localConfig()
	cfg.PayerKeyFile = path
	cfg.CreatorPolicy = "payer"
	c, err := Build(context.Background(), cfg)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, payer.PublicKey, c.LocalChain.Payer())

	res, err := c.NFTUC.Issue(context.Background(), usecase.IssueInput{Name: "a", URI: "https://example.com/a.json"})
	require.NoError(t, err)
	asset, err := c.LocalChain.ReadAsset(context.Background(), res.Receipt.MintAddress)
	require.NoError(t, err)
	require.Len(t, asset.Metadata.Creators, 1)
	assert.Equal(t, payer.PublicKey.ToBase58(), asset.Metadata.Creators[0].Address)
	assert.False(t, asset.Metadata.Creators[0].Verified)
}

func TestBuildRejectsBadConfig(t *testing.T) {
	cfg := localConfig()
	cfg.ProgramID = "not-a-key"
	_, err := Build(context.Background(), cfg)
	assert.Error(t, err)

	cfg = localConfig()
	cfg.SolanaMode = appcfg.SolanaModeRPC
	_, err = Build(context.Background(), cfg)
	assert.ErrorIs(t, err, solanainfra.ErrPayerNotConfigured)

	cfg = localConfig()
	cfg.PayerKeyFile = filepath.Join(t.TempDir(), "missing.json")
	_, err = Build(context.Background(), cfg)
	assert.Error(t, err)
}
