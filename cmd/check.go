package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/regcheck/internal/app"
	"github.com/zjrosen/regcheck/internal/config"
	"github.com/zjrosen/regcheck/internal/domain/history"
	"github.com/zjrosen/regcheck/internal/flags"
	"github.com/zjrosen/regcheck/internal/infrastructure/sqlite"
	"github.com/zjrosen/regcheck/internal/log"
	"github.com/zjrosen/regcheck/internal/presentation"
	"github.com/zjrosen/regcheck/internal/tracing"
	"github.com/zjrosen/regcheck/internal/watcher"
)

var (
	checkOnly    []string
	checkHistory string
	checkNewOnly bool
	checkWatch   bool
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the consistency checks over a registry directory",
	Long: `Run every consistency check (or the ones named by --only) over the registry
and print the violations grouped by kind.

The exit code is 1 when a violation at or above --fail-on is found, 2 on any
other error, and 0 otherwise.

Examples:
  # Check the registry in the current directory
  regcheck check

  # Check another directory and print JSON
  regcheck check --registry ./data --format json

  # Fail CI on advisory (soft) violations too
  regcheck check --fail-on soft

  # Only a few checks
  regcheck check --only unique-names,parents-exist

  # Record runs and report only what is new since the last one
  regcheck check --history ~/.config/regcheck/history.db --new-only

  # Re-run on every change
  regcheck check --watch`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runCheck(ctx, cmd.OutOrStdout(), cfg, featureFlags(), checkOptions{
			only:        checkOnly,
			historyPath: checkHistory,
			newOnly:     checkNewOnly,
			watch:       checkWatch,
		})
	},
}

func init() {
	checkCmd.Flags().String("registry", "", "registry directory (default: current directory)")
	checkCmd.Flags().String("format", "", "output format: text or json")
	checkCmd.Flags().String("fail-on", "", "exit non-zero on violations of this severity or worse: hard or soft")
	checkCmd.Flags().Bool("strict", false, "fail on the first duplicate key instead of reporting all")
	checkCmd.Flags().StringSliceVar(&checkOnly, "only", nil, "run only these checks (comma separated, see checks:list)")
	checkCmd.Flags().StringVar(&checkHistory, "history", "", "record the run in this SQLite database")
	checkCmd.Flags().BoolVar(&checkNewOnly, "new-only", false, "report only violations absent from the previous recorded run")
	checkCmd.Flags().BoolVarP(&checkWatch, "watch", "w", false, "re-run the checks whenever registry files change")

	_ = viper.BindPFlag("registry.path", checkCmd.Flags().Lookup("registry"))
	_ = viper.BindPFlag("output.format", checkCmd.Flags().Lookup("format"))
	_ = viper.BindPFlag("output.fail_on", checkCmd.Flags().Lookup("fail-on"))
	_ = viper.BindPFlag("registry.strict", checkCmd.Flags().Lookup("strict"))

	rootCmd.AddCommand(checkCmd)
}

type checkOptions struct {
	only        []string
	historyPath string
	newOnly     bool
	watch       bool
}

// historyDB returns the database to record runs in, or "" when history is off.
func (o checkOptions) historyDB(c config.Config, f *flags.Registry) string {
	if o.historyPath != "" {
		return o.historyPath
	}
	if c.History.Enabled || f.Enabled(flags.FlagHistory) || o.newOnly {
		return c.History.Path
	}
	return ""
}

func runCheck(ctx context.Context, out io.Writer, c config.Config, f *flags.Registry, opts checkOptions) error {
	provider, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.ErrorErr(log.CatConfig, "Failed to flush traces", err)
		}
	}()

	runnerOpts := []app.Option{
		app.WithFlags(f),
		app.WithTracer(provider.Tracer()),
		app.WithChecks(opts.only...),
		app.WithNewOnly(opts.newOnly),
	}
	if path := opts.historyDB(c, f); path != "" {
		repo, closeDB, err := openHistory(path)
		if err != nil {
			return err
		}
		defer closeDB()
		runnerOpts = append(runnerOpts, app.WithHistory(repo))
	}
	runner := app.New(c, runnerOpts...)

	formatter := presentation.NewFormatter(out,
		presentation.WithFormat(c.Output.Format),
		presentation.WithColor(c.Output.Color && c.Output.Format != presentation.FormatJSON),
		presentation.WithGate(runner.Gate()),
	)

	if opts.watch {
		return watchLoop(ctx, c, runner, formatter)
	}
	return checkOnce(ctx, runner, formatter)
}

func checkOnce(ctx context.Context, runner *app.Runner, formatter *presentation.Formatter) error {
	res, err := runner.Run(ctx)
	if err != nil {
		return err
	}
	if err := formatter.FormatReport(res.Report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if res.Failed() {
		return fmt.Errorf("%w: %d hard, %d soft", ErrViolations, res.Report.Hard(), res.Report.Soft())
	}
	return nil
}

// watchLoop runs the checks once, then again after every debounced change
// until ctx is cancelled. Violations never stop the loop.
func watchLoop(ctx context.Context, c config.Config, runner *app.Runner, formatter *presentation.Formatter) error {
	w, err := watcher.New(watcher.Config{Root: c.Registry.Path, Debounce: c.Watch.Debounce})
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	changes, err := w.Start()
	if err != nil {
		return err
	}

	for {
		if err := checkOnce(ctx, runner, formatter); err != nil && !errors.Is(err, ErrViolations) {
			if ctx.Err() != nil {
				return nil
			}
			log.ErrorErr(log.CatWatcher, "Check run failed", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			log.Info(log.CatWatcher, "Registry changed, re-running checks", "root", c.Registry.Path)
			runner.Invalidate(ctx)
		}
	}
}

func openHistory(path string) (history.RunRepository, func(), error) {
	db, err := sqlite.NewDB(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history database: %w", err)
	}
	return db.RunRepository(), func() { _ = db.Close() }, nil
}
