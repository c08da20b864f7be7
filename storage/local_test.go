package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"animeHub/domain"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	dir := t.TempDir()
	s := NewLocalStore(dir, "/uploads/")
	ctx := context.Background()

	url, err := s.Put(ctx, &domain.Avatar{
		File:     strings.NewReader("image bytes"),
		Filename: "abc.png",
		OwnerID:  7,
	})
	require.NoError(t, err)
	require.Equal(t, "/uploads/avatars/7/abc.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "avatars", "7", "abc.png"))
	require.NoError(t, err)
	require.Equal(t, "image bytes", string(data))

	require.NoError(t, s.Delete(ctx, url))
	require.NoFileExists(t, filepath.Join(dir, "avatars", "7", "abc.png"))

	// Deleting twice is fine.
	require.NoError(t, s.Delete(ctx, url))
}

func TestLocalStoreIgnoresForeignURLs(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0644))
	s := NewLocalStore(filepath.Join(dir, "uploads"), "/uploads")
	ctx := context.Background()

	require.NoError(t, s.Delete(ctx, "https://api.dicebear.com/7.x/avataaars/svg?seed=alice"))
	require.NoError(t, s.Delete(ctx, "/uploads/../keep.txt"))
	require.FileExists(t, outside)
}

func TestPublicURL(t *testing.T) {
	require.Equal(t, "http://localhost:9000/avatars", publicURL(S3Config{Endpoint: "localhost:9000", Bucket: "avatars"}))
	require.Equal(t, "https://s3.example.com/avatars", publicURL(S3Config{Endpoint: "s3.example.com", Bucket: "avatars", UseSSL: true}))
	require.Equal(t, "https://cdn.example.com", publicURL(S3Config{PublicURL: "https://cdn.example.com/"}))
}
