// Package loader provides version aware access to content snapshots with a
// shared read-through cache.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quillcms/quill/internal/contents"
)

// VersionLatest requests the newest stored version of a content item.
const VersionLatest int64 = -1

// ErrCacheMiss is returned by a Cache when the key is not present.
var ErrCacheMiss = errors.New("snapshot not cached")

// Store is the storage backend the loader reads through to.
type Store interface {
	Get(ctx context.Context, app, contentID string, version int64) (*contents.Snapshot, error)
}

// Cache stores immutable snapshots under their (app, content, version) key.
// A cache failure is never fatal to a load; the loader falls back to the
// store.
type Cache interface {
	Get(ctx context.Context, key string) (*contents.Snapshot, error)
	Set(ctx context.Context, key string, snap *contents.Snapshot) error
}

// Loader loads content snapshots at specific versions. Snapshots at a fixed
// version never change, so positive versions are cached; latest lookups have
// no stable key and always hit the store.
type Loader struct {
	store Store
	cache Cache
}

// New creates a Loader. The cache may be nil to disable caching.
func New(store Store, cache Cache) *Loader {
	return &Loader{store: store, cache: cache}
}

// Get returns the snapshot of one content item at the given version, or the
// newest version when version is negative. Returns contents.ErrNotFound when
// the content (or the version) does not exist.
func (l *Loader) Get(ctx context.Context, app, contentID string, version int64) (*contents.Snapshot, error) {
	if version < 0 {
		return l.store.Get(ctx, app, contentID, version)
	}

	key := cacheKey(app, contentID, version)

	if l.cache != nil {
		snap, err := l.cache.Get(ctx, key)
		if err == nil {
			return snap, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			slog.Debug("Snapshot cache read failed", "key", key, "error", err)
		}
	}

	snap, err := l.store.Get(ctx, app, contentID, version)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, key, snap); err != nil {
			slog.Debug("Snapshot cache write failed", "key", key, "error", err)
		}
	}

	return snap, nil
}

func cacheKey(app, contentID string, version int64) string {
	return fmt.Sprintf("%s:%s:%d", app, contentID, version)
}
