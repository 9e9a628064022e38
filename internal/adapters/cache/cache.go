// Package cache provides the read-through feature cache: game identifier
// to extracted feature vector and attributes, with at-most-one extraction
// per key under concurrent access.
package cache

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/okian/gameselect/internal/domain/model"
	"github.com/okian/gameselect/pkg/logger"
	"github.com/okian/gameselect/pkg/metrics"
)

// Loader computes a game's features from source events. Implementations
// must be pure with respect to the game identifier: concurrent losers of
// the computation race receive the winner's result.
type Loader interface {
	Load(ctx context.Context, gameID string) (model.FeatureVector, model.GameAttributes, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, gameID string) (model.FeatureVector, model.GameAttributes, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, gameID string) (model.FeatureVector, model.GameAttributes, error) {
	return f(ctx, gameID)
}

// PersistentStore is the durable tier behind the in-memory map. Entries
// carry their extraction version; a stale or missing entry reports
// found=false.
type PersistentStore interface {
	Features(ctx context.Context, gameID string, version int) (entry model.CacheEntry, found bool, err error)
	PutFeatures(ctx context.Context, gameID string, entry model.CacheEntry) error
	DeleteFeatures(ctx context.Context, gameID string) error
}

// Option applies a configuration option to the FeatureCache.
type Option func(*FeatureCache)

// WithPersistentStore attaches a durable tier consulted on memory misses
// and written through on computation.
func WithPersistentStore(store PersistentStore) Option {
	return func(c *FeatureCache) {
		c.store = store
	}
}

// WithLogger sets a custom logger for the cache.
func WithLogger(l logger.Logger) Option {
	return func(c *FeatureCache) {
		c.logger = l
	}
}

// FeatureCache is the process-wide feature cache. State is written only
// through the read-through accessor; the per-key singleflight group
// guarantees at most one extraction computation per game identifier
// completes and is stored.
type FeatureCache struct {
	mu    sync.RWMutex
	mem   map[string]model.CacheEntry
	group singleflight.Group

	loader  Loader
	store   PersistentStore
	version int
	logger  logger.Logger
}

// New creates a feature cache over the given loader. version tags every
// entry written; entries found with a different version are recomputed.
func New(loader Loader, version int, opts ...Option) *FeatureCache {
	c := &FeatureCache{
		mem:     make(map[string]model.CacheEntry),
		loader:  loader,
		version: version,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrCompute returns the cached features for gameID, computing and
// storing them on a miss. Failed extractions are never stored, so a later
// call retries the computation.
func (c *FeatureCache) GetOrCompute(ctx context.Context, gameID string) (model.FeatureVector, model.GameAttributes, error) {
	c.mu.RLock()
	entry, ok := c.mem[gameID]
	c.mu.RUnlock()
	if ok && entry.Version == c.version {
		metrics.RecordCacheHit()
		return entry.Vector, entry.Attributes, nil
	}

	v, err, shared := c.group.Do(gameID, func() (any, error) {
		return c.load(ctx, gameID)
	})
	if err != nil {
		return model.FeatureVector{}, model.GameAttributes{}, err
	}
	if shared {
		metrics.RecordCacheSharedLoad()
	}
	entry = v.(model.CacheEntry)
	return entry.Vector, entry.Attributes, nil
}

// load runs inside the singleflight group: only one goroutine per gameID
// executes it at a time.
func (c *FeatureCache) load(ctx context.Context, gameID string) (model.CacheEntry, error) {
	// A racing caller may have stored the entry between the fast-path
	// check and the group call.
	c.mu.RLock()
	entry, ok := c.mem[gameID]
	c.mu.RUnlock()
	if ok && entry.Version == c.version {
		metrics.RecordCacheHit()
		return entry, nil
	}
	metrics.RecordCacheMiss()

	if c.store != nil {
		stored, found, err := c.store.Features(ctx, gameID, c.version)
		if err != nil {
			c.warn(ctx, "persistent cache read failed", gameID, err)
		} else if found {
			c.put(gameID, stored)
			metrics.RecordCachePersistedLoad()
			return stored, nil
		}
	}

	vec, attrs, err := c.loader.Load(ctx, gameID)
	if err != nil {
		metrics.RecordExtractionFailure()
		return model.CacheEntry{}, err
	}
	metrics.RecordExtraction()

	entry = model.CacheEntry{Vector: vec, Attributes: attrs, Version: c.version}
	c.put(gameID, entry)
	if c.store != nil {
		if err := c.store.PutFeatures(ctx, gameID, entry); err != nil {
			// Memory tier already holds the entry; durability is best effort.
			c.warn(ctx, "persistent cache write failed", gameID, err)
		}
	}
	return entry, nil
}

// Invalidate drops the entry for gameID from both tiers.
func (c *FeatureCache) Invalidate(ctx context.Context, gameID string) error {
	c.mu.Lock()
	delete(c.mem, gameID)
	c.mu.Unlock()
	if c.store != nil {
		if err := c.store.DeleteFeatures(ctx, gameID); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of entries in the memory tier.
func (c *FeatureCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mem)
}

func (c *FeatureCache) put(gameID string, entry model.CacheEntry) {
	c.mu.Lock()
	c.mem[gameID] = entry
	c.mu.Unlock()
}

func (c *FeatureCache) warn(ctx context.Context, msg, gameID string, err error) {
	if c.logger != nil {
		c.logger.Warn(ctx, msg, logger.String("gameID", gameID), logger.Error(err))
	}
}
