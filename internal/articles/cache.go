package articles

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/matheuskafuri/newsdesk/internal/news"
)

// Option mutates cache or resolver configuration.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	pageSize int
}

// WithLogger injects a logger; slog.Default is used otherwise.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithPageSize sets how many articles a full refresh requests.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.Default(), pageSize: news.DefaultPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Snapshot is a read-only view of the cache.
type Snapshot struct {
	Articles []news.Article
	Loading  bool
	// Err is the last refresh failure message, empty when none.
	Err string
}

// Cache owns the ordered article collection and its refresh status.
type Cache struct {
	client   news.Client
	logger   *slog.Logger
	pageSize int

	mu       sync.RWMutex
	articles []news.Article
	loading  bool
	err      string
}

func NewCache(client news.Client, opts ...Option) *Cache {
	o := buildOptions(opts)
	return &Cache{
		client:   client,
		logger:   o.logger,
		pageSize: o.pageSize,
	}
}

// FetchAll replaces the collection with the first page from the client.
// On failure the previous collection is kept and Err is set.
func (c *Cache) FetchAll(ctx context.Context) error {
	c.mu.Lock()
	c.loading = true
	c.err = ""
	c.mu.Unlock()

	articles, err := c.client.FetchList(ctx, news.DefaultPage, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
	if err != nil {
		c.err = news.Message(err)
		c.logger.Warn("article refresh failed", "error", err)
		return err
	}
	c.articles = news.Dedupe(articles)
	if n := len(articles) - len(c.articles); n > 0 {
		c.logger.Debug("dropped duplicate articles", "count", n)
	}
	c.logger.Debug("article cache refreshed", "count", len(c.articles))
	return nil
}

func (c *Cache) ClearError() {
	c.mu.Lock()
	c.err = ""
	c.mu.Unlock()
}

// ReplaceAll assigns the collection directly. Later duplicates of an ID are
// dropped.
func (c *Cache) ReplaceAll(articles []news.Article) {
	c.mu.Lock()
	c.articles = news.Dedupe(articles)
	c.mu.Unlock()
}

func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Snapshot{
		Articles: slices.Clone(c.articles),
		Loading:  c.loading,
		Err:      c.err,
	}
}

// Find scans the collection for id.
func (c *Cache) Find(id string) (news.Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, a := range c.articles {
		if a.ID == id {
			return a, true
		}
	}
	return news.Article{}, false
}

func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.articles)
}
