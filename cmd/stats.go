package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show session storage statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			count, size, err := a.store.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading stats: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Session store: %s\n", a.store.Path())
			fmt.Fprintf(out, "Keys: %d\n", count)
			fmt.Fprintf(out, "Size: %s\n", formatBytes(size))
			fmt.Fprintf(out, "Provider: %s\n", a.cfg.Provider)
			return nil
		},
	}
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
