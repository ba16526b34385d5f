package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zjrosen/regcheck/internal/domain/history"
	"github.com/zjrosen/regcheck/internal/presentation"
)

var historyListCmd = &cobra.Command{
	Use:   "history:list",
	Short: "List recorded check runs, newest first",
	Long: `List the check runs recorded in the history database.

Examples:
  regcheck history:list
  regcheck history:list --limit 5 --registry ./data
  regcheck history:list --all --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openHistory(historyPathFlag(cmd))
		if err != nil {
			return err
		}
		defer closeDB()

		limit, _ := cmd.Flags().GetInt("limit")
		all, _ := cmd.Flags().GetBool("all")
		filter := history.ListFilter{Limit: limit}
		if !all {
			filter.Registry = registryKeyFlag(cmd)
		}

		runs, err := repo.List(filter)
		if err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")
		return presentation.NewFormatter(cmd.OutOrStdout(), presentation.WithFormat(format)).FormatRuns(runs)
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "history:show [RUN_ID]",
	Short: "Print the report of a recorded run (default: the latest)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, closeDB, err := openHistory(historyPathFlag(cmd))
		if err != nil {
			return err
		}
		defer closeDB()

		var run *history.Run
		if len(args) == 1 {
			run, err = repo.FindByID(args[0])
		} else {
			run, err = repo.Latest(registryKeyFlag(cmd))
		}
		if err != nil {
			return err
		}

		format, _ := cmd.Flags().GetString("format")
		formatter := presentation.NewFormatter(cmd.OutOrStdout(),
			presentation.WithFormat(format),
			presentation.WithColor(cfg.Output.Color && format != presentation.FormatJSON),
		)
		return formatter.FormatReport(run.Report())
	},
}

func init() {
	for _, c := range []*cobra.Command{historyListCmd, historyShowCmd} {
		c.Flags().String("history", "", "history database (default: history.path)")
		c.Flags().String("registry", "", "registry directory the runs belong to (default: registry.path)")
		c.Flags().String("format", presentation.FormatText, "output format: text or json")
		rootCmd.AddCommand(c)
	}
	historyListCmd.Flags().Int("limit", 20, "maximum number of runs (0 for all)")
	historyListCmd.Flags().Bool("all", false, "list runs of every registry")
}

func historyPathFlag(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("history"); p != "" {
		return p
	}
	return cfg.History.Path
}

// registryKeyFlag returns the absolute registry path runs are keyed by.
func registryKeyFlag(cmd *cobra.Command) string {
	path := cfg.Registry.Path
	if p, _ := cmd.Flags().GetString("registry"); p != "" {
		path = p
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
