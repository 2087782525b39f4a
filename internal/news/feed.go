package news

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/matheuskafuri/newsdesk/internal/config"
	"github.com/mmcdole/gofeed"
	"golang.org/x/text/unicode/norm"
)

// FeedParser parses one RSS or Atom feed.
type FeedParser interface {
	ParseURLWithContext(feedURL string, ctx context.Context) (*gofeed.Feed, error)
}

// FeedClient serves articles aggregated from RSS/Atom sources. The list is
// ordered by source, then by item order within each feed.
type FeedClient struct {
	sources []config.Source
	parser  FeedParser
	logger  *slog.Logger
	now     func() time.Time
}

func NewFeedClient(sources []config.Source, logger *slog.Logger) *FeedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedClient{
		sources: sources,
		parser:  gofeed.NewParser(),
		logger:  logger,
		now:     time.Now,
	}
}

func (c *FeedClient) FetchList(ctx context.Context, page, pageSize int) ([]Article, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	all, err := c.fetchAll(ctx)
	if err != nil {
		return nil, err
	}
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []Article{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (c *FeedClient) FetchByID(ctx context.Context, id string) (Article, bool, error) {
	all, err := c.fetchAll(ctx)
	if err != nil {
		return Article{}, false, fmt.Errorf("fetching article %s: %w", id, err)
	}
	for _, a := range all {
		if a.ID == id {
			return a, true, nil
		}
	}
	return Article{}, false, nil
}

func (c *FeedClient) fetchAll(ctx context.Context) ([]Article, error) {
	var (
		wg      sync.WaitGroup
		results = make([][]Article, len(c.sources))
		errs    = make([]error, len(c.sources))
	)
	for i, src := range c.sources {
		wg.Add(1)
		go func(i int, s config.Source) {
			defer wg.Done()
			results[i], errs[i] = c.fetch(ctx, s)
		}(i, src)
	}
	wg.Wait()

	var (
		articles []Article
		failed   []error
	)
	for i := range c.sources {
		if errs[i] != nil {
			c.logger.Warn("feed fetch failed", "source", c.sources[i].Name, "error", errs[i])
			failed = append(failed, errs[i])
			continue
		}
		articles = append(articles, results[i]...)
	}
	if len(c.sources) > 0 && len(failed) == len(c.sources) {
		return nil, &NetworkError{Op: "fetch feeds", Message: "Failed to fetch news", Err: errors.Join(failed...)}
	}
	return Dedupe(articles), nil
}

func (c *FeedClient) fetch(ctx context.Context, source config.Source) ([]Article, error) {
	feed, err := c.parser.ParseURLWithContext(source.URL, ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", source.Name, err)
	}

	now := c.now()
	articles := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		pub := now
		if item.PublishedParsed != nil {
			pub = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			pub = *item.UpdatedParsed
		}

		desc := item.Description
		if desc == "" {
			desc = item.Content
		}

		var author string
		if item.Author != nil {
			author = item.Author.Name
		}
		var image string
		if item.Image != nil {
			image = item.Image.URL
		}

		articles = append(articles, Article{
			ID:          articleID(item.Link),
			Title:       norm.NFC.String(item.Title),
			Description: clip(stripHTML(desc), 300),
			Content:     stripHTML(item.Content),
			ImageURL:    image,
			PublishedAt: pub.UTC().Format(time.RFC3339),
			Source:      source.Name,
			Author:      author,
			URL:         item.Link,
		})
	}
	return articles, nil
}

// articleID derives a stable id from the item link.
func articleID(link string) string {
	h := sha256.Sum256([]byte(link))
	return hex.EncodeToString(h[:16])
}

// clip shortens s to at most n runes, cutting at the last space when one
// falls in the second half.
func clip(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	cut := string(runes[:n-3])
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return cut + "..."
}

// stripHTML drops tags, decodes entities and collapses whitespace.
func stripHTML(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '<':
			depth++
		case r == '>' && depth > 0:
			depth--
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(html.UnescapeString(b.String())), " ")
}
