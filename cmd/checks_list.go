package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/zjrosen/regcheck/internal/app"
	"github.com/zjrosen/regcheck/internal/presentation"
)

// CheckDTO describes one available check.
type CheckDTO struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	Kinds       []string `json:"kinds"`
}

var checksListCmd = &cobra.Command{
	Use:   "checks:list",
	Short: "List the available consistency checks",
	Long: `List every check that regcheck check runs, with the violation kinds it reports.

Examples:
  regcheck checks:list
  regcheck checks:list --format json | jq '.[].name'`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return listChecks(cmd.OutOrStdout(), format)
	},
}

func init() {
	checksListCmd.Flags().String("format", presentation.FormatText, "output format: text or json")
	rootCmd.AddCommand(checksListCmd)
}

func listChecks(out io.Writer, format string) error {
	checks := app.CheckCatalog()
	dtos := make([]CheckDTO, len(checks))
	for i, ch := range checks {
		kinds := make([]string, len(ch.Kinds))
		for j, k := range ch.Kinds {
			kinds[j] = string(k)
		}
		dtos[i] = CheckDTO{
			Name:        ch.Name,
			Description: ch.Description,
			Severity:    ch.Severity().String(),
			Kinds:       kinds,
		}
	}

	if format == presentation.FormatJSON {
		return presentation.NewFormatter(out).FormatValue(dtos)
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSEVERITY\tKINDS\tDESCRIPTION")
	for _, d := range dtos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", d.Name, d.Severity, strings.Join(d.Kinds, ","), d.Description)
	}
	return tw.Flush()
}
