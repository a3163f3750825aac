package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	usecase "narratives-nft/internal/application/usecase"
	nftdom "narratives-nft/internal/domain/nft"
	"narratives-nft/internal/localnet"
	"narratives-nft/internal/program"
)

func TestMapError(t *testing.T) {
	callErr := &program.CallError{
		Stage:   program.StageMetadataCreated,
		Step:    "mint_to",
		Program: "token",
		Err:     localnet.ErrMintAuthority,
	}
	tests := []struct {
		name   string
		err    error
		status int
		want   map[string]any
	}{
		{
			name:   "domain validation",
			err:    nftdom.ErrInvalidName,
			status: http.StatusBadRequest,
			want:   map[string]any{"code": "NameTooLong"},
		},
		{
			name:   "royalty",
			err:    fmt.Errorf("wrap: %w", nftdom.ErrRoyaltyOutOfRange),
			status: http.StatusBadRequest,
			want:   map[string]any{"code": "RoyaltyOutOfRange"},
		},
		{
			name:   "program validation",
			err:    &localnet.TxError{Err: program.ErrMetadataAddressMismatch},
			status: http.StatusBadRequest,
			want:   map[string]any{"code": "MetadataAddressMismatch", "errorCode": uint32(6004)},
		},
		{
			name:   "account in use",
			err:    fmt.Errorf("%w: %w", usecase.ErrIssueOnChain, program.ErrAccountAlreadyInUse),
			status: http.StatusConflict,
			want:   map[string]any{"code": "AccountAlreadyInUse"},
		},
		{
			name:   "not found",
			err:    nftdom.ErrNotFound,
			status: http.StatusNotFound,
			want:   map[string]any{"error": "not_found"},
		},
		{
			name:   "not configured",
			err:    usecase.ErrNFTUsecaseNotConfigured,
			status: http.StatusServiceUnavailable,
		},
		{
			name:   "call failure",
			err:    fmt.Errorf("%w: %w", usecase.ErrIssueOnChain, &localnet.TxError{Err: callErr}),
			status: http.StatusBadGateway,
			want:   map[string]any{"stage": "MetadataCreated", "step": "mint_to", "program": "token"},
		},
		{
			name:   "submit failure",
			err:    fmt.Errorf("%w: %w", usecase.ErrIssueOnChain, localnet.ErrMissingSignature),
			status: http.StatusBadGateway,
		},
		{
			name:   "unknown",
			err:    errors.New("disk full"),
			status: http.StatusInternalServerError,
			want:   map[string]any{"error": "disk full"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := mapError(tt.err)
			assert.Equal(t, tt.status, status)
			assert.NotEmpty(t, body["error"])
			for k, v := range tt.want {
				assert.Equal(t, v, body[k], k)
			}
		})
	}
}
