package cli

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"llmbench/internal/adapter"
	"llmbench/internal/config"
	"llmbench/internal/dataset"
	"llmbench/internal/history"
	"llmbench/internal/runner"
	"llmbench/internal/ui/live"
	"llmbench/internal/ui/plain"
)

type runOptions struct {
	model    string
	datasets []string
	uiMode   string
}

func newRunCommand(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run --model <name> --dataset <file> [--dataset <file>...]",
		Short: "Benchmark a model against one or more datasets",
		Example: `  llmbench run --model llama3.1:8b --dataset sample.json
  llmbench run -m qwen2.5:7b -d math.json -d geo.json --ui plain`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runBenchmark(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVarP(&opts.model, "model", "m", "", "model to benchmark")
	cmd.Flags().StringArrayVarP(&opts.datasets, "dataset", "d", nil, "dataset file name or path (repeatable)")
	cmd.Flags().StringVar(&opts.uiMode, "ui", "", "output mode: auto|live|plain (default from config)")
	return cmd
}

func (a *app) runBenchmark(ctx context.Context, opts runOptions) error {
	req := runner.Request{Model: strings.TrimSpace(opts.model)}
	for _, name := range opts.datasets {
		if name = strings.TrimSpace(name); name != "" {
			req.Datasets = append(req.Datasets, name)
		}
	}
	if req.Model == "" {
		return usageErrorf("--model is required")
	}
	if len(req.Datasets) == 0 {
		return usageErrorf("at least one --dataset is required")
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	mode := opts.uiMode
	if mode == "" {
		mode = cfg.UI.Mode
	}
	decision, err := resolveUIMode(mode, a.opts.verbose, a.stdout)
	if err != nil {
		return usageError{err: err}
	}
	if decision.warning != "" {
		a.logger.Warn().Msg(decision.warning)
	}

	logger := a.logger
	if decision.useLive {
		// Anything below error would tear the full-screen view.
		logger = logger.Level(zerolog.ErrorLevel)
	}

	store, err := history.Open(history.Options{
		Backend: cfg.History.Backend,
		Path:    cfg.HistoryPath(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("close history store")
		}
	}()

	orchestrator, err := runner.New(runner.Config{
		Adapters:      adapter.OllamaFactory(ollamaOptions(cfg, logger)),
		Datasets:      dataset.Loader{Dir: cfg.DatasetsDir()},
		History:       store,
		Logger:        logger,
		PassThreshold: cfg.Scoring.PassThreshold,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	printer := plain.NewPrinter(a.stdout, cfg.Scoring.PassThreshold)
	if !decision.useLive {
		if _, err := orchestrator.Execute(ctx, req, printer); err != nil {
			return reportedError{err: err}
		}
		return nil
	}

	ui := live.Start(a.stdout, live.Options{NoColor: cfg.UI.NoColor, OnInterrupt: cancel})
	_, runErr := orchestrator.Execute(ctx, req, ui)
	if _, err := ui.Wait(); err != nil {
		a.logger.Error().Err(err).Msg("live view failed")
	}
	done := runner.Completion{Err: runErr}
	if last, ok := orchestrator.LastRun(); ok {
		done.Record = &last
	}
	printer.OnCompleted(done)
	if runErr != nil {
		return reportedError{err: runErr}
	}
	return nil
}

func ollamaOptions(cfg config.Config, logger zerolog.Logger) adapter.OllamaOptions {
	return adapter.OllamaOptions{
		Host:    cfg.Providers.Ollama.Host,
		Timeout: cfg.Providers.Ollama.Timeout,
		Logger:  logger,
	}
}
