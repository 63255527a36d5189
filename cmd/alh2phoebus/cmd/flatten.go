package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/alh2phoebus/internal/xinclude"
)

// flattenCmd splices included documents into one.
//
//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var flattenCmd = &cobra.Command{
	Use:   "flatten [document] [output]",
	Short: "Replace xi:include references of a Phoebus document with the referenced content",
	Long:  "Write a copy of a produced Phoebus document with every xi:include element replaced by the children of the referenced document. Without an output path the result goes to standard output.",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return xinclude.FlattenFile(cmd.Context(), args[0], args[1])
		}

		return xinclude.Flatten(cmd.Context(), cmd.OutOrStdout(), args[0])
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(flattenCmd)
}
