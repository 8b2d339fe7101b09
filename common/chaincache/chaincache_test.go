package chaincache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/cache"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/kvstore"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/models"
)

var key = models.QueueKey{Jurisdiction: "MG", Resource: "rim"}

func newTestCache(t *testing.T, dir string) *ChainCache {
	t.Helper()
	log := logger.New("error", "text")
	store, err := kvstore.Open(dir, log)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return New(store, cache.NewMemoryCache(log), time.Hour, log)
}

func TestAssetIdentity(t *testing.T) {
	c := newTestCache(t, t.TempDir())

	_, found, err := c.Asset(key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.PutAsset(key, "asset-1"))

	assetID, found, err := c.Asset(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "asset-1", assetID)
}

func TestAssetIdentity_SurvivesRestart(t *testing.T) {
	dir := t.TempDir()
	log := logger.New("error", "text")

	store, err := kvstore.Open(dir, log)
	require.NoError(t, err)
	c := New(store, cache.NewMemoryCache(log), time.Hour, log)
	require.NoError(t, c.PutAsset(key, "asset-1"))
	require.NoError(t, store.Close())

	reopened, err := kvstore.Open(dir, log)
	require.NoError(t, err)
	defer reopened.Close()

	c2 := New(reopened, cache.NewMemoryCache(log), time.Hour, log)
	assetID, found, err := c2.Asset(key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "asset-1", assetID)
}

func TestHeadPointer(t *testing.T) {
	c := newTestCache(t, t.TempDir())
	ctx := context.Background()

	_, found, err := c.Head(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, c.SetHead(ctx, key, Head{TxID: "tx-2", Version: 2}))

	head, found, err := c.Head(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "tx-2", head.TxID)
	assert.Equal(t, int64(2), head.Version)

	require.NoError(t, c.InvalidateHead(ctx, key))
	_, found, err = c.Head(ctx, key)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestHeadPointer_IndependentPerQueue(t *testing.T) {
	c := newTestCache(t, t.TempDir())
	ctx := context.Background()

	other := models.QueueKey{Jurisdiction: "RJ", Resource: "rim"}
	require.NoError(t, c.SetHead(ctx, key, Head{TxID: "tx-mg", Version: 3}))
	require.NoError(t, c.SetHead(ctx, other, Head{TxID: "tx-rj", Version: 7}))

	head, found, err := c.Head(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "tx-mg", head.TxID)

	head, found, err = c.Head(ctx, other)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "tx-rj", head.TxID)
}
