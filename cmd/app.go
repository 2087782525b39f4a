package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/matheuskafuri/newsdesk/internal/articles"
	"github.com/matheuskafuri/newsdesk/internal/browser"
	"github.com/matheuskafuri/newsdesk/internal/config"
	"github.com/matheuskafuri/newsdesk/internal/kv"
	"github.com/matheuskafuri/newsdesk/internal/news"
	"github.com/matheuskafuri/newsdesk/internal/session"
)

var errNotLoggedIn = errors.New("not logged in (run `newsdesk login`)")

type urlOpener interface {
	Open(rawURL string) error
}

// app holds the per-process containers. The article cache is shared by the
// list controller and the resolver.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *kv.SQLite
	client   news.Client
	cache    *articles.Cache
	list     *articles.ListController
	resolver *articles.Resolver
	session  *session.Store
	opener   urlOpener
}

func openApp(opts *rootOptions, logOut io.Writer) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	logger := slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	store, err := kv.Open(cfg.SessionDBPath())
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	client := newClient(cfg, logger)
	cache := articles.NewCache(client, articles.WithLogger(logger), articles.WithPageSize(cfg.GetPageSize()))

	a := &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		client:   client,
		cache:    cache,
		list:     articles.NewListController(cache),
		resolver: articles.NewResolver(cache, client, articles.WithLogger(logger)),
		session:  session.NewStore(store, session.WithLogger(logger)),
		opener:   opts.opener,
	}
	if a.opener == nil {
		a.opener = browser.New()
	}
	return a, nil
}

func newClient(cfg *config.Config, logger *slog.Logger) news.Client {
	if cfg.Provider == config.ProviderRSS {
		return news.NewFeedClient(cfg.EnabledSources(), logger)
	}
	return news.NewNewsAPIClient(news.NewsAPIConfig{
		BaseURL: cfg.NewsAPI.BaseURL,
		APIKey:  cfg.APIKey(),
		Query:   cfg.NewsAPI.Query,
		SortBy:  cfg.NewsAPI.SortBy,
		Timeout: cfg.TimeoutDuration(),
		Logger:  logger,
	})
}

func (a *app) Close() error {
	a.resolver.Close()
	return a.store.Close()
}

// requireAuth restores the session and fails unless it is authenticated.
func (a *app) requireAuth(ctx context.Context) error {
	if !a.session.CheckAuth(ctx).Authenticated() {
		return errNotLoggedIn
	}
	return nil
}
