package objectstore

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFSStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(t.TempDir(), "http://localhost:8080/files/")
	require.NoError(t, err)
	return store
}

func TestFSStore_PutAndRemove(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	err := store.Put(ctx, "profile/photo.pdf", strings.NewReader("data"), 4, "application/pdf")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(store.root, "profile", "photo.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "data", string(content))

	require.NoError(t, store.Remove(ctx, "profile/photo.pdf"))
	_, err = os.Stat(filepath.Join(store.root, "profile", "photo.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestFSStore_PutOverwritesExisting(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	require.NoError(t, store.Put(ctx, "risk/evidence.pdf", strings.NewReader("old"), 3, "application/pdf"))
	require.NoError(t, store.Put(ctx, "risk/evidence.pdf", strings.NewReader("new"), 3, "application/pdf"))

	content, err := os.ReadFile(filepath.Join(store.root, "risk", "evidence.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "new", string(content))
}

func TestFSStore_RejectsEscapingPaths(t *testing.T) {
	ctx := context.Background()
	store := newFSStore(t)

	for _, p := range []string{"../outside.txt", "a/../../outside.txt", "/etc/passwd", "."} {
		err := store.Put(ctx, p, strings.NewReader("x"), 1, "text/plain")
		assert.Error(t, err, "path %q must be rejected", p)
	}
}

func TestFSStore_RemoveMissingIsNoError(t *testing.T) {
	store := newFSStore(t)
	assert.NoError(t, store.Remove(context.Background(), "profile/never-uploaded.pdf"))
}

func TestFSStore_PublicURL(t *testing.T) {
	store := newFSStore(t)
	assert.Equal(t, "http://localhost:8080/files/profile/photo.pdf",
		store.PublicURL("profile/photo.pdf"))
}
