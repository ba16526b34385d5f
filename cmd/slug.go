package cmd

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/zjrosen/regcheck/internal/domain/slug"
	"github.com/zjrosen/regcheck/internal/presentation"
)

// SlugDTO is the slug of one name.
type SlugDTO struct {
	Name      string `json:"name"`
	Slug      string `json:"slug"`
	Collision bool   `json:"collision,omitempty"`
}

var slugCmd = &cobra.Command{
	Use:   "slug NAME...",
	Short: "Print the slug generated for each name",
	Long: `Print the URL slug regcheck derives from each name, flagging names whose
slugs collide with another argument or come out empty.

Examples:
  regcheck slug "Aave V3" "Curve DEX"
  regcheck slug --format json "SushiSwap" "Sushi Swap"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return printSlugs(cmd.OutOrStdout(), format, args)
	},
}

func init() {
	slugCmd.Flags().String("format", presentation.FormatText, "output format: text or json")
	rootCmd.AddCommand(slugCmd)
}

func printSlugs(out io.Writer, format string, names []string) error {
	byIndex := make(map[string]string, len(names))
	for i, n := range names {
		byIndex[strconv.Itoa(i)] = n
	}
	collided := make(map[int]bool)
	for _, ids := range slug.Collisions(byIndex) {
		for _, id := range ids {
			i, _ := strconv.Atoi(id)
			collided[i] = true
		}
	}

	dtos := make([]SlugDTO, len(names))
	for i, n := range names {
		dtos[i] = SlugDTO{Name: n, Slug: slug.Slugify(n), Collision: collided[i]}
	}

	if format == presentation.FormatJSON {
		return presentation.NewFormatter(out).FormatValue(dtos)
	}

	for _, d := range dtos {
		var notes []string
		if d.Slug == "" {
			notes = append(notes, "empty slug")
		}
		if d.Collision {
			notes = append(notes, "collides")
		}
		sort.Strings(notes)
		line := fmt.Sprintf("%s\t%s", d.Name, d.Slug)
		if len(notes) > 0 {
			line += "\t(" + strings.Join(notes, ", ") + ")"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
