// Package chaincache keeps two derived, non-authoritative mappings per
// (jurisdiction, resource) queue: the durable asset identity and the
// best-effort head pointer. Either may be absent; callers must fall back to
// the ledger and repopulate on a miss.
package chaincache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/viniciusmaculo/filaTransplantesBackend/common/cache"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/kvstore"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/logger"
	"github.com/viniciusmaculo/filaTransplantesBackend/common/models"
)

const assetPrefix = "queue-asset/"

// Head is the cached head pointer of a chain
type Head struct {
	TxID    string `json:"txId"`
	Version int64  `json:"version"`
}

// ChainCache resolves queue keys to asset ids and head pointers
type ChainCache struct {
	assets *kvstore.Store
	heads  cache.Cache
	ttl    time.Duration
	log    *logger.Logger
}

// New creates a chain cache over the given durable store and head cache
func New(assets *kvstore.Store, heads cache.Cache, ttl time.Duration, log *logger.Logger) *ChainCache {
	return &ChainCache{
		assets: assets,
		heads:  heads,
		ttl:    ttl,
		log:    log,
	}
}

// Asset returns the cached asset id for a queue, if known
func (c *ChainCache) Asset(key models.QueueKey) (string, bool, error) {
	data, found, err := c.assets.Get(assetPrefix + key.String())
	if err != nil {
		return "", false, fmt.Errorf("asset cache get %s: %w", key, err)
	}
	if !found {
		return "", false, nil
	}
	return string(data), true, nil
}

// PutAsset durably records a queue's asset id. Asset identity is write-once;
// overwriting with the same id is harmless.
func (c *ChainCache) PutAsset(key models.QueueKey, assetID string) error {
	if err := c.assets.Put(assetPrefix+key.String(), []byte(assetID)); err != nil {
		return fmt.Errorf("asset cache put %s: %w", key, err)
	}
	return nil
}

// Head returns the cached head pointer for a queue, if present
func (c *ChainCache) Head(ctx context.Context, key models.QueueKey) (Head, bool, error) {
	data, found, err := c.heads.Get(ctx, headKey(key))
	if err != nil {
		// A broken head cache must not break correctness; treat as a miss
		c.log.Warn("head cache get failed, treating as miss", "queue", key.String(), "error", err)
		return Head{}, false, nil
	}
	if !found {
		return Head{}, false, nil
	}

	var head Head
	if err := json.Unmarshal(data, &head); err != nil {
		c.log.Warn("head cache entry corrupt, treating as miss", "queue", key.String(), "error", err)
		return Head{}, false, nil
	}
	return head, true, nil
}

// SetHead records the head pointer observed after a successful commit
func (c *ChainCache) SetHead(ctx context.Context, key models.QueueKey, head Head) error {
	data, err := json.Marshal(head)
	if err != nil {
		return fmt.Errorf("encode head for %s: %w", key, err)
	}
	if err := c.heads.Set(ctx, headKey(key), data, c.ttl); err != nil {
		// Best effort: a lost head hint only costs a ledger lookup later
		c.log.Warn("head cache set failed", "queue", key.String(), "error", err)
	}
	return nil
}

// InvalidateHead drops the cached head pointer for a queue
func (c *ChainCache) InvalidateHead(ctx context.Context, key models.QueueKey) error {
	return c.heads.Delete(ctx, headKey(key))
}

func headKey(key models.QueueKey) string {
	return "queue-head/" + key.String()
}
