package articles

import (
	"context"
	"sync"
)

// ListController decides when the shared cache refreshes for a list view.
type ListController struct {
	cache *Cache

	mu      sync.Mutex
	mounted bool
}

func NewListController(cache *Cache) *ListController {
	return &ListController{cache: cache}
}

// Mount is the list's first observation of the cache. It refreshes only if
// the cache is empty and idle, and only on the first call.
func (l *ListController) Mount(ctx context.Context) error {
	l.mu.Lock()
	if l.mounted {
		l.mu.Unlock()
		return nil
	}
	l.mounted = true
	l.mu.Unlock()

	snap := l.cache.Snapshot()
	if len(snap.Articles) > 0 || snap.Loading {
		return nil
	}
	return l.cache.FetchAll(ctx)
}

// Refetch clears the error and refreshes unconditionally.
func (l *ListController) Refetch(ctx context.Context) error {
	l.cache.ClearError()
	return l.cache.FetchAll(ctx)
}

func (l *ListController) View() Snapshot {
	return l.cache.Snapshot()
}
