package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/alh2phoebus/internal/parser"
	"github.com/oshokin/alh2phoebus/internal/service/inspector"
)

// inspectBaseDir overrides the include base directory of the inspect command.
//
//nolint:gochecknoglobals // Cobra binds flags to package-level variables.
var inspectBaseDir string

// inspectCmd prints the parsed hierarchy.
//
//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var inspectCmd = &cobra.Command{
	Use:   "inspect [config-name] [input]",
	Short: "Print the hierarchy parsed from an ALH file as YAML",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		var opts []parser.Option
		if inspectBaseDir != "" {
			opts = append(opts, parser.WithBaseDir(inspectBaseDir))
		}

		return inspector.Run(cmd.Context(), cmd.OutOrStdout(), args[0], args[1], opts...)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	inspectCmd.Flags().StringVar(&inspectBaseDir, "base-dir", "", "directory relative INCLUDE paths are resolved against")

	rootCmd.AddCommand(inspectCmd)
}
