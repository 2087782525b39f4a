// Package news defines the article model and the clients that fetch
// articles from a remote news source.
package news

import "context"

// Article is an immutable news item. Optional fields are empty when the
// source did not provide them.
type Article struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
	PublishedAt string `json:"publishedAt"`
	Source      string `json:"source,omitempty"`
	Author      string `json:"author,omitempty"`
	URL         string `json:"url,omitempty"`
}

// Client fetches articles from a remote news source.
type Client interface {
	// FetchList returns one page of articles in server order.
	FetchList(ctx context.Context, page, pageSize int) ([]Article, error)
	// FetchByID looks up a single article. found is false when the source
	// has no article with that id.
	FetchByID(ctx context.Context, id string) (article Article, found bool, err error)
}

const (
	DefaultPage     = 1
	DefaultPageSize = 20
)

// Dedupe returns a new slice holding the first article for each ID, in
// input order.
func Dedupe(articles []Article) []Article {
	seen := make(map[string]struct{}, len(articles))
	out := make([]Article, 0, len(articles))
	for _, a := range articles {
		if _, ok := seen[a.ID]; ok {
			continue
		}
		seen[a.ID] = struct{}{}
		out = append(out, a)
	}
	return out
}
