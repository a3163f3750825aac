package program

import (
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"narratives-nft/internal/chain"
)

var testProgramID = common.PublicKeyFromString(chain.DefaultProgramID)

func TestDeriveAuthorityIsDeterministic(t *testing.T) {
	a, err := DeriveAuthority(testProgramID)
	require.NoError(t, err)
	b, err := DeriveAuthority(testProgramID)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, VerifyAuthority(testProgramID, a))

	want, bump, err := common.FindProgramAddress([][]byte{[]byte("mint-authority")}, testProgramID)
	require.NoError(t, err)
	assert.Equal(t, want, a.Address)
	assert.Equal(t, bump, a.Bump)
}

func TestDeriveAuthorityDiffersPerProgram(t *testing.T) {
	other := types.NewAccount().PublicKey
	a, err := DeriveAuthority(testProgramID)
	require.NoError(t, err)
	b, err := DeriveAuthority(other)
	require.NoError(t, err)

	assert.NotEqual(t, a.Address, b.Address)
	assert.False(t, VerifyAuthority(other, a))
}

func TestVerifyAuthorityRejectsTamperedBump(t *testing.T) {
	a, err := DeriveAuthority(testProgramID)
	require.NoError(t, err)

	tampered := a
	tampered.Bump = a.Bump - 1
	assert.False(t, VerifyAuthority(testProgramID, tampered))

	tampered = a
	tampered.Address = types.NewAccount().PublicKey
	assert.False(t, VerifyAuthority(testProgramID, tampered))
}

func TestResolveAccounts(t *testing.T) {
	payer := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey

	acc, auth, err := ResolveAccounts(testProgramID, payer, mint)
	require.NoError(t, err)

	metadata, _, err := chain.FindMetadataAddress(mint)
	require.NoError(t, err)
	ata, _, err := common.FindAssociatedTokenAddress(payer, mint)
	require.NoError(t, err)

	assert.Equal(t, payer, acc.Payer)
	assert.Equal(t, mint, acc.Mint)
	assert.Equal(t, metadata, acc.Metadata)
	assert.Equal(t, auth.Address, acc.MintAuthority)
	assert.Equal(t, ata, acc.TokenAccount)
	assert.Equal(t, chain.RentSysvarID, acc.Rent)

	addrs, err := AddressesFor(testProgramID, payer, mint)
	require.NoError(t, err)
	assert.Equal(t, auth.Address.ToBase58(), addrs.AuthorityAddress)
	assert.Equal(t, auth.Bump, addrs.AuthorityBump)
	assert.Equal(t, metadata.ToBase58(), addrs.MetadataAddress)
	assert.Equal(t, ata.ToBase58(), addrs.HoldingAccount)
	assert.Equal(t, payer.ToBase58(), addrs.HolderAddress)
}
