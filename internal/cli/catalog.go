package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"llmbench/internal/adapter"
	"llmbench/internal/dataset"
	"llmbench/internal/ui/plain"
)

func newDatasetsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List dataset files in the datasets directory",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			summaries, err := dataset.List(cfg.DatasetsDir())
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "Datasets in %s\n", cfg.DatasetsDir())
			fmt.Fprintln(a.stdout, plain.DatasetTable(summaries))
			return nil
		},
	}
}

func newModelsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models installed in Ollama",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			client := adapter.NewClient(ollamaOptions(cfg, a.logger))
			models, err := client.ListModels(cmd.Context())
			if err != nil {
				return fmt.Errorf("list models from %s: %w", client.Host(), err)
			}
			rows := make([]plain.ModelRow, 0, len(models))
			for _, info := range models {
				row := plain.ModelRow{Info: info}
				if meta, ok := cfg.ModelMetadata(info.Name); ok {
					row.Family = meta.Family
					row.Parameters = meta.Parameters
				}
				rows = append(rows, row)
			}
			fmt.Fprintln(a.stdout, plain.ModelTable(rows))
			return nil
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether Ollama is reachable",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			return a.checkStatus(cmd.Context(), adapter.NewClient(ollamaOptions(cfg, a.logger)))
		},
	}
}

func (a *app) checkStatus(ctx context.Context, client *adapter.Client) error {
	if err := client.Ping(ctx); err != nil {
		fmt.Fprintf(a.stdout, "Ollama: offline (%s)\n", client.Host())
		a.logger.Debug().Err(err).Str("host", client.Host()).Msg("ping failed")
		return reportedError{err: err}
	}
	fmt.Fprintf(a.stdout, "Ollama: online (%s)\n", client.Host())
	return nil
}
