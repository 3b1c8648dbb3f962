package badger

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/resumatch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := t.TempDir() + "/cache"
	backend, err := OpenBackend(tmpDir, false)
	require.NoError(t, err)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestNewBlobStore_EmptyPathIsInMemory(t *testing.T) {
	store, err := NewBlobStore("")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.Put(ctx, []byte("k"), []byte("v")))
	v, err := store.Get(ctx, []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	_, err = backend.Get(context.Background(), []byte("k"))
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestGet_NotFound(t *testing.T) {
	backend := NewTestBackend(t)

	_, err := backend.Get(context.Background(), []byte("missing"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPut_Overwrites(t *testing.T) {
	backend := NewTestBackend(t)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, []byte("res:a"), []byte("one")))
	require.NoError(t, backend.Put(ctx, []byte("res:a"), []byte("two")))

	v, err := backend.Get(ctx, []byte("res:a"))
	require.NoError(t, err)
	assert.Equal(t, "two", string(v))
}

func TestStatAndDeleteAll(t *testing.T) {
	backend := NewTestBackend(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, backend.Put(ctx, []byte(fmt.Sprintf("emb:%d", i)), []byte("vector")))
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, backend.Put(ctx, []byte(fmt.Sprintf("res:%d", i)), []byte("result")))
	}

	stats, err := backend.Stat(ctx, []byte("emb:"))
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Count)
	assert.Equal(t, int64(5*(len("emb:0")+len("vector"))), stats.Bytes)

	require.NoError(t, backend.DeleteAll(ctx, []byte("emb:")))

	stats, err = backend.Stat(ctx, []byte("emb:"))
	require.NoError(t, err)
	assert.Zero(t, stats.Count)

	stats, err = backend.Stat(ctx, []byte("res:"))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
}

func TestDeleteAll_EmptyPrefix(t *testing.T) {
	backend := NewTestBackend(t)
	require.NoError(t, backend.DeleteAll(context.Background(), []byte("nothing:")))
}

func TestGet_CanceledContext(t *testing.T) {
	backend := NewTestBackend(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := backend.Get(ctx, []byte("k"))
	assert.ErrorIs(t, err, context.Canceled)
}
