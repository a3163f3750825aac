package arweave

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPutMetadata(t *testing.T) {
	var gotBody, gotKey, gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Upload-Key")
		gotAuth = r.Header.Get("Authorization")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"uri":"https://gateway.irys.xyz/abc"}`))
	}))
	defer srv.Close()

	u := NewHTTPUploader(srv.URL+"/", " secret ")
	uri, err := u.PutMetadata(context.Background(), "id-1", []byte(`{"name":"a"}`))
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.irys.xyz/abc", uri)
	assert.Equal(t, "/upload/json", gotPath)
	assert.Equal(t, "id-1", gotKey)
	assert.Equal(t, "Bearer secret", gotAuth)
	assert.Equal(t, `{"name":"a"}`, gotBody)
}

func TestPutMetadataErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusInternalServerError, "boom", nil},
		{"empty uri", http.StatusOK, `{"uri":""}`, ErrEmptyUploadedURI},
		{"bad json", http.StatusOK, `not json`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewHTTPUploader(srv.URL, "").PutMetadata(context.Background(), "k", []byte("{}"))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPutMetadataPreconditions(t *testing.T) {
	_, err := NewHTTPUploader("http://localhost", "").PutMetadata(context.Background(), "k", nil)
	assert.ErrorIs(t, err, ErrEmptyBody)

	_, err = NewHTTPUploader(" ", "").PutMetadata(context.Background(), "k", []byte("{}"))
	assert.ErrorIs(t, err, ErrNotConfigured)
}
