package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/plugin-packager/internal/config"
	"github.com/oshokin/plugin-packager/internal/logger"
	"github.com/oshokin/plugin-packager/internal/service/packager"
	"github.com/oshokin/plugin-packager/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// logLevel overrides the level from the configuration file.
	logLevel string
	// plugins are ad-hoc plugin names used instead of the configuration file.
	plugins []string
	// buildConfiguration is the build configuration used with --plugin and init.
	buildConfiguration string
	// dryRun merges manifests in memory and writes nothing.
	dryRun bool

	// rootCmd represents the base command that merges manifests and builds archives.
	rootCmd = &cobra.Command{
		Use:   "plugin-packager [target...]",
		Short: "Merge download links into plugin manifests and package build outputs",
		Long: "For every configured target, copy DownloadLinkInstall, DownloadLinkTesting and " +
			"DownloadLinkUpdate from the source manifest into the build output manifest, rewrite " +
			"it as a JSON array and zip the build output folder next to it.",
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if !cmd.Flags().Changed("log-level") {
				return nil
			}

			return logger.Configure(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			options := &packager.Options{
				ConfigPath:    configPath,
				Plugins:       plugins,
				Configuration: buildConfiguration,
				Targets:       args,
				DryRun:        dryRun,
			}

			if cmd.Flags().Changed("log-level") {
				options.LogLevel = logLevel
			}

			_, err := packager.Run(ctx, options)

			return err
		},
	}
)

// Execute runs the plugin-packager CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	ctx := context.Background()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.ErrorKV(ctx, "Build process failed", "error", err)
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigFilename, "path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.Flags().StringSliceVarP(&plugins, "plugin", "p", nil, "plugin names to package without a configuration file")
	rootCmd.Flags().StringVar(&buildConfiguration, "configuration", config.DefaultConfiguration, "build configuration folder for --plugin")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "merge manifests in memory, log the changes and write nothing")

	rootCmd.AddCommand(inspectCmd, initCmd)
}
