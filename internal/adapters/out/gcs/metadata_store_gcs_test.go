package gcs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectPath(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"abc", "nft-metadata/abc.json"},
		{" /abc/ ", "nft-metadata/abc.json"},
		{"abc.json", "nft-metadata/abc.json"},
		{"", ""},
		{"//", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ObjectPath(tt.key), tt.key)
	}
}

func TestNewMetadataStoreGCSDefaults(t *testing.T) {
	s := NewMetadataStoreGCS(nil, " bucket ", "")
	assert.Equal(t, "bucket", s.Bucket)
	assert.Equal(t, "https://storage.googleapis.com", s.PublicBase)

	_, err := s.PutMetadata(context.Background(), "k", []byte("{}"))
	assert.Error(t, err)
}
