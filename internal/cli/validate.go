package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"llmbench/internal/config"
)

func newValidateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, path, found, err := config.Discover(a.opts.configPath, "")
			if err != nil {
				fmt.Fprintf(a.stderr, "Validation failed:\n%s\n", err.Error())
				return reportedError{err: err}
			}
			if !found {
				fmt.Fprintln(a.stdout, "No config file found; defaults are valid")
				return nil
			}
			fmt.Fprintf(a.stdout, "Config OK: %s\n", path)
			return nil
		},
	}
}
