package cmd

import (
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/zjrosen/regcheck/internal/application/loader"
	"github.com/zjrosen/regcheck/internal/domain/chain"
	"github.com/zjrosen/regcheck/internal/presentation"
)

// ChainDTO is one resolved chain name.
type ChainDTO struct {
	Input    string `json:"input"`
	Name     string `json:"name,omitempty"`
	Key      string `json:"key,omitempty"`
	StableID string `json:"stableId,omitempty"`
	Ignored  bool   `json:"ignored,omitempty"`
	Error    string `json:"error,omitempty"`
}

var chainsResolveCmd = &cobra.Command{
	Use:   "chains:resolve NAME...",
	Short: "Resolve raw chain names to their canonical chains",
	Long: `Resolve raw chain names (display names, adapter keys, aliases) through the
registry's chain table and print the canonical name, adapter key and stable id.

Exits non-zero when any name is unknown.

Examples:
  regcheck chains:resolve avax "BNB Chain" eth
  regcheck chains:resolve --registry ./data --format json Polygon`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		path := cfg.Registry.Path
		if p, _ := cmd.Flags().GetString("registry"); p != "" {
			path = p
		}
		return resolveChains(cmd.OutOrStdout(), os.DirFS(path), format, args)
	},
}

func init() {
	chainsResolveCmd.Flags().String("registry", "", "registry directory (default: registry.path)")
	chainsResolveCmd.Flags().String("format", presentation.FormatText, "output format: text or json")
	rootCmd.AddCommand(chainsResolveCmd)
}

func resolveChains(out io.Writer, fsys fs.FS, format string, names []string) error {
	table, err := loader.LoadChains(fsys)
	if err != nil {
		return err
	}
	canon, err := chain.NewCanonicalizer(table)
	if err != nil {
		return fmt.Errorf("building chain table: %w", err)
	}

	var unknown int
	dtos := make([]ChainDTO, len(names))
	for i, raw := range names {
		dto := ChainDTO{Input: raw}
		switch c, err := canon.Canonicalize(raw); {
		case err == nil:
			dto.Name, dto.Key, dto.StableID = c.Name, c.Key, c.StableID()
		case canon.Ignored(raw):
			dto.Ignored = true
		default:
			dto.Error = err.Error()
			unknown++
		}
		dtos[i] = dto
	}

	if format == presentation.FormatJSON {
		if err := presentation.NewFormatter(out).FormatValue(dtos); err != nil {
			return err
		}
	} else {
		for _, d := range dtos {
			switch {
			case d.Error != "":
				fmt.Fprintf(out, "%s\t%s\n", d.Input, d.Error)
			case d.Ignored:
				fmt.Fprintf(out, "%s\t(ignored)\n", d.Input)
			default:
				fmt.Fprintf(out, "%s\t%s\tkey=%s\tid=%s\n", d.Input, d.Name, d.Key, d.StableID)
			}
		}
	}

	if unknown > 0 {
		return fmt.Errorf("%w: %d of %d chain names are unknown: %w", ErrViolations, unknown, len(names), chain.ErrUnknownChain)
	}
	return nil
}

