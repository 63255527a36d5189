package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/alh2phoebus/internal/config"
)

// overwriteConfig allows init-config to replace an existing file.
//
//nolint:gochecknoglobals // Cobra binds flags to package-level variables.
var overwriteConfig bool

// errConfigExists is returned when init-config would overwrite a file.
var errConfigExists = errors.New("settings file already exists, use --force to overwrite")

// initConfigCmd writes default settings.
//
//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var initConfigCmd = &cobra.Command{
	Use:   "init-config [path]",
	Short: "Write a settings file with default values",
	Long:  "Write a settings file with default values. The format follows the extension: .toml writes TOML, anything else YAML. The default path is " + config.DefaultConfigFilename + ".",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.DefaultConfigFilename
		if len(args) == 1 {
			path = args[0]
		}

		if _, err := os.Stat(path); err == nil && !overwriteConfig {
			return fmt.Errorf("%s: %w", path, errConfigExists)
		}

		if err := config.Save(path, config.Default()); err != nil {
			return err
		}

		_, err := fmt.Fprintln(cmd.OutOrStdout(), "Wrote", path)

		return err
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initConfigCmd.Flags().BoolVarP(&overwriteConfig, "force", "f", false, "overwrite an existing file")

	rootCmd.AddCommand(initConfigCmd)
}
