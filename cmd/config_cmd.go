package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/regcheck/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a commented default config to .regcheck/config.yaml",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("path")
		force, _ := cmd.Flags().GetBool("force")
		if fileExists(path) && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "config:set KEY VALUE...",
	Short: "Set a config value, keeping the file's comments",
	Long: `Set one dotted config key in the active config file. Passing more than one
value (or --list) stores a list.

Examples:
  regcheck config:set output.fail_on soft
  regcheck config:set policy.extra_categories "Brand New" "Another"
  regcheck config:set flags.history true`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.ConfigFileUsed()
		if path == "" {
			path = LocalConfigPath
		}
		key, values := args[0], args[1:]

		asList, _ := cmd.Flags().GetBool("list")
		var err error
		if asList || len(values) > 1 {
			err = config.SaveList(path, key, values)
		} else {
			err = config.SaveValue(path, key, values[0])
		}
		if err != nil {
			return err
		}

		// Re-read so a bad value is reported now rather than on the next run.
		updated, err := loadConfig(viper.New(), path)
		if err != nil {
			return err
		}
		if err := updated.Validate(); err != nil {
			return fmt.Errorf("%s now holds an invalid configuration: %w", path, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s in %s\n", key, path)
		return nil
	},
}

func init() {
	initCmd.Flags().String("path", LocalConfigPath, "where to write the config")
	initCmd.Flags().Bool("force", false, "overwrite an existing config")
	configSetCmd.Flags().Bool("list", false, "store a single value as a one-element list")
	rootCmd.AddCommand(initCmd, configSetCmd)
}
