package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"llmbench/internal/config"
)

func newInitCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter config and sample dataset",
		Args:  usageArgs(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			abs, err := filepath.Abs(root)
			if err != nil {
				return fmt.Errorf("resolve %s: %w", root, err)
			}
			if err := os.MkdirAll(abs, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", abs, err)
			}
			path, err := config.Scaffold(abs)
			if err != nil {
				return fmt.Errorf("init failed: %w", err)
			}
			fmt.Fprintf(a.stdout, "Wrote %s\n", path)
			fmt.Fprintf(a.stdout, "Sample dataset: %s\n", filepath.Join(abs, config.DefaultDatasetsDir, config.SampleDatasetName))
			fmt.Fprintf(a.stdout, "Next: llmbench run --model <name> --dataset %s\n", config.SampleDatasetName)
			return nil
		},
	}
}
