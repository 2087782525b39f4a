package news

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
)

const (
	DefaultNewsAPIBaseURL = "https://newsapi.org/v2"
	defaultQuery          = "technology"
	defaultSortBy         = "publishedAt"
	defaultTimeout        = 10 * time.Second
	maxErrorBody          = 64 << 10
)

// NewsAPIConfig configures a NewsAPIClient.
type NewsAPIConfig struct {
	BaseURL string
	APIKey  string
	Query   string
	SortBy  string
	Timeout time.Duration
	// Transport is the underlying round tripper; http.DefaultTransport when nil.
	Transport http.RoundTripper
	Logger    *slog.Logger
}

// NewsAPIClient talks to a newsapi.org compatible /everything endpoint.
type NewsAPIClient struct {
	baseURL string
	query   string
	sortBy  string
	client  *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

// NewNewsAPIClient builds a client. The API key is added to every request
// by the client's transport.
func NewNewsAPIClient(cfg NewsAPIConfig) *NewsAPIClient {
	base := cfg.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &NewsAPIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		query:   cfg.Query,
		sortBy:  cfg.SortBy,
		client: &http.Client{
			Timeout:   timeout,
			Transport: &apiKeyTransport{key: cfg.APIKey, base: base},
		},
		logger: cfg.Logger,
		now:    time.Now,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultNewsAPIBaseURL
	}
	if c.query == "" {
		c.query = defaultQuery
	}
	if c.sortBy == "" {
		c.sortBy = defaultSortBy
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// apiKeyTransport injects the apiKey query parameter.
type apiKeyTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.key == "" {
		return t.base.RoundTrip(req)
	}
	r := req.Clone(req.Context())
	q := r.URL.Query()
	q.Set("apiKey", t.key)
	r.URL.RawQuery = q.Encode()
	return t.base.RoundTrip(r)
}

type apiSource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type apiArticle struct {
	ID          string     `json:"id"`
	Source      *apiSource `json:"source"`
	Author      string     `json:"author"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	URLToImage  string     `json:"urlToImage"`
	PublishedAt string     `json:"publishedAt"`
	Content     string     `json:"content"`
}

type apiResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []apiArticle `json:"articles"`
	Code         string       `json:"code"`
	Message      string       `json:"message"`
}

func (c *NewsAPIClient) FetchList(ctx context.Context, page, pageSize int) ([]Article, error) {
	if page <= 0 {
		page = DefaultPage
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	params := url.Values{}
	params.Set("q", c.query)
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("sortBy", c.sortBy)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/everything?"+params.Encode(), nil)
	if err != nil {
		return nil, &NetworkError{Op: "fetch list", Message: "Failed to fetch news", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: "fetch list", Message: "Failed to fetch news", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		var apiErr apiResponse
		msg := "Failed to fetch news"
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			msg = apiErr.Message
		}
		c.logger.Warn("news list request failed", "status", resp.StatusCode, "code", apiErr.Code)
		return nil, &NetworkError{
			Op:      "fetch list",
			Status:  resp.StatusCode,
			Message: msg,
			Err:     fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &NetworkError{Op: "fetch list", Status: resp.StatusCode, Message: "Failed to fetch news", Err: fmt.Errorf("decoding response: %w", err)}
	}

	articles := make([]Article, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		articles = append(articles, c.transform(a))
	}
	c.logger.Debug("fetched news list", "page", page, "page_size", pageSize, "count", len(articles))
	return articles, nil
}

// FetchByID scans the first page; the API has no lookup by id.
func (c *NewsAPIClient) FetchByID(ctx context.Context, id string) (Article, bool, error) {
	articles, err := c.FetchList(ctx, DefaultPage, DefaultPageSize)
	if err != nil {
		return Article{}, false, fmt.Errorf("fetching article %s: %w", id, err)
	}
	for _, a := range articles {
		if a.ID == id {
			return a, true, nil
		}
	}
	return Article{}, false, nil
}

func (c *NewsAPIClient) transform(a apiArticle) Article {
	id := a.ID
	if id == "" {
		id = a.URL
	}
	if id == "" {
		id = uuid.NewString()
	}
	published := a.PublishedAt
	if published == "" {
		published = c.now().UTC().Format(time.RFC3339)
	}
	var source string
	if a.Source != nil {
		source = a.Source.Name
	}
	return Article{
		ID:          id,
		Title:       norm.NFC.String(a.Title),
		Description: norm.NFC.String(a.Description),
		Content:     a.Content,
		ImageURL:    a.URLToImage,
		PublishedAt: published,
		Source:      source,
		Author:      a.Author,
		URL:         a.URL,
	}
}
