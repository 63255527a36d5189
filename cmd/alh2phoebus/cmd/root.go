package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/alh2phoebus/internal/logger"
	"github.com/oshokin/alh2phoebus/internal/service/converter"
	"github.com/oshokin/alh2phoebus/internal/version"
)

var (
	// configPath to the settings file.
	configPath string
	// logLevel overrides the configured log level.
	logLevel string
	// baseDir overrides the directory relative INCLUDE paths are resolved against.
	baseDir string
	// outputDir receives documents converted from included files.
	outputDir string
	// resolveIncludes converts included files too.
	resolveIncludes bool
	// flattenPath receives a copy of the output with inclusions spliced in.
	flattenPath string

	// rootCmd converts a single file.
	rootCmd = &cobra.Command{
		Use:   "alh2phoebus [config-name] [input] [output]",
		Short: "Convert an ALH alarm configuration into Phoebus alarm XML",
		Long: "Convert a legacy ALH (.alhConfig) alarm handler configuration into a Phoebus alarm server XML document. " +
			"The config name becomes the name of the document root. INCLUDE directives become xi:include references; " +
			"with --resolve-includes every included file is converted as well.",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return logger.SetLevelString(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			options := &converter.Options{
				ConfigPath:      configPath,
				ConfigName:      args[0],
				InputPath:       args[1],
				OutputPath:      args[2],
				BaseDir:         baseDir,
				OutputDir:       outputDir,
				ResolveIncludes: resolveIncludes,
				LogLevel:        logLevel,
				FlattenPath:     flattenPath,
			}

			return converter.Run(cmd.Context(), options)
		},
	}
)

// Execute runs the alh2phoebus CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error(ctx, err)
		stop()
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to settings file (YAML, or TOML with a .toml extension)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")

	rootCmd.Flags().StringVar(&baseDir, "base-dir", "", "directory relative INCLUDE paths are resolved against")
	rootCmd.Flags().StringVar(&outputDir, "output-dir", "", "directory for documents converted from included files")
	rootCmd.Flags().BoolVarP(&resolveIncludes, "resolve-includes", "r", false, "convert included files as well")
	rootCmd.Flags().StringVar(&flattenPath, "flatten", "", "also write a copy with every inclusion spliced in (implies --resolve-includes)")
}
