// Package treecache caches repository snapshots per source and coalesces
// concurrent fetches for the same source into one network call.
package treecache

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/starford/lumen/internal/models"
)

// RemoteLister fetches a recursive repository listing. Implemented by
// github.Client; tests substitute fakes.
type RemoteLister interface {
	FetchTree(ctx context.Context, owner, repo, ref string) ([]models.TreeEntry, bool, error)
}

// Cache holds at most one RepositorySnapshot per source id.
//
// Per source id the lifecycle is empty → fetching → cached on success, or
// back to empty on failure, so a later call can retry. While a fetch is in
// flight, further calls for the same id share its result instead of
// issuing a second request; different ids fetch independently. A snapshot
// is trusted for the whole session: there is no TTL, only explicit
// eviction.
type Cache struct {
	lister RemoteLister
	logger *slog.Logger
	group  singleflight.Group

	mu        sync.RWMutex
	snapshots map[string]*models.RepositorySnapshot
	pending   map[string]struct{}
}

// New creates an empty cache backed by lister.
func New(lister RemoteLister, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		lister:    lister,
		logger:    logger,
		snapshots: make(map[string]*models.RepositorySnapshot),
		pending:   make(map[string]struct{}),
	}
}

// Snapshot returns the listing for source, fetching it at most once.
// A cached snapshot is returned without any network activity; otherwise
// callers for the same source id share a single fetch. Failed fetches are
// not cached.
func (c *Cache) Snapshot(ctx context.Context, source models.Source) (*models.RepositorySnapshot, error) {
	c.mu.RLock()
	snap, ok := c.snapshots[source.ID]
	c.mu.RUnlock()
	if ok {
		return snap, nil
	}

	v, err, shared := c.group.Do(source.ID, func() (any, error) {
		// A fetch that lost the race may find the snapshot already stored.
		c.mu.Lock()
		if snap, ok := c.snapshots[source.ID]; ok {
			c.mu.Unlock()
			return snap, nil
		}
		c.pending[source.ID] = struct{}{}
		c.mu.Unlock()

		defer func() {
			c.mu.Lock()
			delete(c.pending, source.ID)
			c.mu.Unlock()
		}()

		// The fetch runs to completion even if the caller goes away;
		// the result stays useful for whoever asks next.
		entries, truncated, err := c.lister.FetchTree(
			context.WithoutCancel(ctx), source.Owner, source.Repo, source.TreeRef)
		if err != nil {
			return nil, err
		}

		snap := &models.RepositorySnapshot{
			SourceID:  source.ID,
			Ref:       source.TreeRef,
			Entries:   entries,
			Truncated: truncated,
		}
		c.mu.Lock()
		c.snapshots[source.ID] = snap
		c.mu.Unlock()

		c.logger.Info("repository listing cached",
			slog.String("source", source.ID),
			slog.Int("entries", len(entries)),
			slog.Bool("truncated", truncated))
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.Debug("coalesced concurrent fetch", slog.String("source", source.ID))
	}
	return v.(*models.RepositorySnapshot), nil
}

// Cached returns the snapshot for sourceID without fetching.
func (c *Cache) Cached(sourceID string) (*models.RepositorySnapshot, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	snap, ok := c.snapshots[sourceID]
	return snap, ok
}

// Evict removes any cached snapshot and pending-fetch marker for
// sourceID. Idempotent.
func (c *Cache) Evict(sourceID string) {
	c.group.Forget(sourceID)
	c.mu.Lock()
	delete(c.snapshots, sourceID)
	delete(c.pending, sourceID)
	c.mu.Unlock()
}

// EvictAll clears the entire cache. Idempotent.
func (c *Cache) EvictAll() {
	c.mu.Lock()
	for id := range c.pending {
		c.group.Forget(id)
	}
	c.snapshots = make(map[string]*models.RepositorySnapshot)
	c.pending = make(map[string]struct{})
	c.mu.Unlock()
}
