package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matheuskafuri/newsdesk/internal/articles"
	"github.com/matheuskafuri/newsdesk/internal/render"
)

func newListCommand(opts *rootOptions) *cobra.Command {
	var refresh bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the latest articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			if err := a.requireAuth(ctx); err != nil {
				return err
			}

			var fetchErr error
			if refresh {
				fetchErr = a.list.Refetch(ctx)
			} else {
				fetchErr = a.list.Mount(ctx)
			}
			fmt.Fprint(cmd.OutOrStdout(), render.List(a.list.View(), opts.width, time.Now()))
			if fetchErr != nil {
				return fmt.Errorf("fetching articles: %w", fetchErr)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch even if articles are cached")
	return cmd
}

func newShowCommand(opts *rootOptions) *cobra.Command {
	var (
		refetch bool
		direct  bool
	)

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one article",
		Long: `Resolve an article by id. The article list is loaded first and the
article is served from it when present; otherwise it is fetched directly.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := resolve(cmd.Context(), a, args[0], direct, refetch)
			fmt.Fprint(cmd.OutOrStdout(), render.Article(d, opts.width))
			return err
		},
	}
	cmd.Flags().BoolVar(&refetch, "refetch", false, "bypass the cache and fetch the article again")
	cmd.Flags().BoolVar(&direct, "direct", false, "skip loading the article list")
	return cmd
}

func newOpenCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "open <id>",
		Short: "Open an article in the browser",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			d, err := resolve(cmd.Context(), a, args[0], false, false)
			if err != nil {
				return err
			}
			if d.Article.URL == "" {
				return fmt.Errorf("article %s has no url", d.ID)
			}
			if err := a.opener.Open(d.Article.URL); err != nil {
				return fmt.Errorf("opening browser: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s\n", d.Article.URL)
			return nil
		},
	}
}

func resolve(ctx context.Context, a *app, id string, direct, refetch bool) (articles.Detail, error) {
	if err := a.requireAuth(ctx); err != nil {
		return articles.Detail{}, err
	}
	if !direct {
		if err := a.list.Mount(ctx); err != nil {
			a.logger.Warn("article list unavailable, resolving directly", "error", err)
		}
	}

	d, err := a.resolver.Resolve(ctx, id)
	if err != nil {
		return d, fmt.Errorf("resolving %s: %w", id, err)
	}
	if refetch {
		d, err = a.resolver.Refetch(ctx)
		if err != nil && !errors.Is(err, articles.ErrSuperseded) {
			return d, fmt.Errorf("refetching %s: %w", id, err)
		}
	}
	return d, nil
}
