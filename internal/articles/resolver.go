package articles

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/matheuskafuri/newsdesk/internal/news"
)

var (
	// ErrSuperseded is returned to a caller whose response arrived after a
	// newer request was started; the response was discarded.
	ErrSuperseded = errors.New("request superseded by a newer one")
	// ErrResolverClosed is returned after Close.
	ErrResolverClosed = errors.New("resolver closed")
)

// Detail is the resolver's view of the current article.
type Detail struct {
	ID      string
	Article news.Article
	// Found reports whether Article holds a resolved article.
	Found   bool
	Loading bool
	Err     string
}

// Resolver looks up one article at a time, cache first. Articles fetched
// over the network are returned to the caller only and never written into
// the cache.
type Resolver struct {
	cache  *Cache
	client news.Client
	logger *slog.Logger

	mu     sync.Mutex
	token  uint64
	cancel context.CancelFunc
	state  Detail
	closed bool
}

func NewResolver(cache *Cache, client news.Client, opts ...Option) *Resolver {
	o := buildOptions(opts)
	return &Resolver{cache: cache, client: client, logger: o.logger}
}

// Resolve switches the resolver to id. A cache hit is served without a
// network call. An empty id leaves the state untouched.
func (r *Resolver) Resolve(ctx context.Context, id string) (Detail, error) {
	if id == "" {
		return r.State(), nil
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Detail{}, ErrResolverClosed
	}
	token := r.next()
	if a, ok := r.cache.Find(id); ok {
		r.state = Detail{ID: id, Article: a, Found: true}
		state := r.state
		r.mu.Unlock()
		return state, nil
	}
	r.state = Detail{ID: id, Loading: true}
	reqCtx := r.track(ctx)
	r.mu.Unlock()

	return r.fetch(reqCtx, token, id)
}

// Refetch re-issues the network lookup for the current id, bypassing the cache.
func (r *Resolver) Refetch(ctx context.Context) (Detail, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return Detail{}, ErrResolverClosed
	}
	id := r.state.ID
	if id == "" {
		state := r.state
		r.mu.Unlock()
		return state, nil
	}
	token := r.next()
	r.state.Loading = true
	r.state.Err = ""
	reqCtx := r.track(ctx)
	r.mu.Unlock()

	return r.fetch(reqCtx, token, id)
}

func (r *Resolver) State() Detail {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Close cancels any outstanding request and discards its response.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.next()
}

// next starts a new request generation and cancels the previous one.
// Callers hold r.mu.
func (r *Resolver) next() uint64 {
	r.token++
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return r.token
}

func (r *Resolver) track(ctx context.Context) context.Context {
	reqCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	return reqCtx
}

func (r *Resolver) fetch(ctx context.Context, token uint64, id string) (Detail, error) {
	article, found, err := r.client.FetchByID(ctx, id)

	r.mu.Lock()
	defer r.mu.Unlock()
	if token != r.token {
		r.logger.Debug("discarding stale article response", "id", id)
		return r.state, ErrSuperseded
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	r.state.Loading = false
	switch {
	case err != nil:
		r.state.Err = news.Message(err)
		r.logger.Warn("article lookup failed", "id", id, "error", err)
		return r.state, err
	case !found:
		r.state.Err = news.NotFoundMessage
		return r.state, news.ErrNotFound
	}
	r.state.Article = article
	r.state.Found = true
	r.state.Err = ""
	return r.state, nil
}
