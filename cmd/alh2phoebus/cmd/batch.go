package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/alh2phoebus/internal/service/batch"
)

// batchOptions holds the flags of the batch command.
//
//nolint:gochecknoglobals // Cobra binds flags to package-level variables.
var batchOptions batch.Options

// batchCmd converts many files at once.
//
//nolint:gochecknoglobals // Cobra commands are package-level by convention.
var batchCmd = &cobra.Command{
	Use:   "batch [path]...",
	Short: "Convert every ALH file found in the given files and directories",
	Long: "Convert many ALH files concurrently. Directories are scanned recursively for " + batch.InputExtension +
		" files and each file is named after its stem. A manifest of checksums lets later runs skip unchanged files.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		options := batchOptions
		options.ConfigPath = configPath
		options.LogLevel = logLevel
		options.Inputs = args

		return batch.Run(cmd.Context(), &options)
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	batchCmd.Flags().StringVarP(&batchOptions.OutputDir, "output-dir", "o", "", "directory for all documents instead of next to each input")
	batchCmd.Flags().BoolVarP(&batchOptions.Force, "force", "f", false, "convert files even when unchanged")
	batchCmd.Flags().IntVarP(&batchOptions.Jobs, "jobs", "j", 0, "number of files converted concurrently")
	batchCmd.Flags().BoolVarP(&batchOptions.ResolveIncludes, "resolve-includes", "r", false, "convert included files as well")
	batchCmd.Flags().StringVar(&batchOptions.BaseDir, "base-dir", "", "directory relative INCLUDE paths are resolved against")
	batchCmd.Flags().StringVar(&batchOptions.ManifestFile, "manifest", "", "path to the checksum manifest")

	rootCmd.AddCommand(batchCmd)
}
