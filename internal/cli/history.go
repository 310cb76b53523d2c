package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"llmbench/internal/config"
	"llmbench/internal/history"
	"llmbench/internal/model"
	"llmbench/internal/ui/plain"
)

func newHistoryCommand(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs, newest first",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return usageErrorf("--limit must not be negative")
			}
			cfg, store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			runs := store.LoadAll(cmd.Context())
			if limit > 0 && len(runs) > limit {
				runs = runs[:limit]
			}
			fmt.Fprintln(a.stdout, plain.HistoryTable(runs, cfg.Scoring.PassThreshold))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most N runs (0 for all)")
	return cmd
}

func newShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id|index>",
		Short: "Show the items of one run",
		Long:  "Show one run by id, or by its 1-based position in the history listing.",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, store, err := a.openHistory()
			if err != nil {
				return err
			}
			defer store.Close()
			run, ok := lookupRun(cmd.Context(), store, args[0])
			if !ok {
				return fmt.Errorf("run %q not found", args[0])
			}
			fmt.Fprintln(a.stdout, plain.RunDetail(run, cfg.Scoring.PassThreshold))
			return nil
		},
	}
}

func (a *app) openHistory() (config.Config, *history.Store, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return config.Config{}, nil, err
	}
	store, err := history.Open(history.Options{
		Backend: cfg.History.Backend,
		Path:    cfg.HistoryPath(),
		Logger:  a.logger,
	})
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, store, nil
}

// lookupRun matches a run id first, then a 1-based history position.
func lookupRun(ctx context.Context, store *history.Store, ref string) (model.RunRecord, bool) {
	ref = strings.TrimSpace(ref)
	if run, ok := store.Get(ctx, ref); ok {
		return run, true
	}
	index, err := strconv.Atoi(ref)
	if err != nil {
		return model.RunRecord{}, false
	}
	return store.At(ctx, index-1)
}
