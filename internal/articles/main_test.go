package articles

import (
	"context"
	"sync/atomic"
	"testing"

	"go.uber.org/goleak"

	"github.com/matheuskafuri/newsdesk/internal/news"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubClient answers immediately and counts calls.
type stubClient struct {
	list     []news.Article
	listErr  error
	byID     map[string]news.Article
	byIDErr  error
	pageSize atomic.Int32

	listCalls atomic.Int32
	byIDCalls atomic.Int32
}

func (s *stubClient) FetchList(_ context.Context, _, pageSize int) ([]news.Article, error) {
	s.listCalls.Add(1)
	s.pageSize.Store(int32(pageSize))
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.list, nil
}

func (s *stubClient) FetchByID(_ context.Context, id string) (news.Article, bool, error) {
	s.byIDCalls.Add(1)
	if s.byIDErr != nil {
		return news.Article{}, false, s.byIDErr
	}
	a, ok := s.byID[id]
	return a, ok, nil
}

type listReply struct {
	articles []news.Article
	err      error
}

type listRequest struct {
	reply chan listReply
}

type byIDReply struct {
	article news.Article
	found   bool
	err     error
}

type byIDRequest struct {
	id    string
	reply chan byIDReply
}

// gatedClient hands every call to the test, which decides when and how it
// completes.
type gatedClient struct {
	lists chan listRequest
	byIDs chan byIDRequest
}

func newGatedClient() *gatedClient {
	return &gatedClient{lists: make(chan listRequest), byIDs: make(chan byIDRequest)}
}

func (g *gatedClient) FetchList(ctx context.Context, _, _ int) ([]news.Article, error) {
	req := listRequest{reply: make(chan listReply, 1)}
	g.lists <- req
	select {
	case r := <-req.reply:
		return r.articles, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (g *gatedClient) FetchByID(ctx context.Context, id string) (news.Article, bool, error) {
	req := byIDRequest{id: id, reply: make(chan byIDReply, 1)}
	g.byIDs <- req
	select {
	case r := <-req.reply:
		return r.article, r.found, r.err
	case <-ctx.Done():
		return news.Article{}, false, ctx.Err()
	}
}

func sampleArticles() []news.Article {
	return []news.Article{
		{ID: "aaa", Title: "Post A", Description: "Desc A", PublishedAt: "2026-10-01T10:00:00Z", Source: "Wired", URL: "https://a.example"},
		{ID: "bbb", Title: "Post B", Description: "Desc B", PublishedAt: "2026-10-01T09:00:00Z", Source: "Verge", URL: "https://b.example"},
		{ID: "ccc", Title: "Post C", Description: "Desc C", PublishedAt: "2026-10-01T08:00:00Z"},
	}
}
