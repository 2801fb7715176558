package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/oshokin/plugin-packager/internal/config"
	"github.com/oshokin/plugin-packager/internal/logger"
)

// errConfigExists is returned when init would overwrite a configuration file.
var errConfigExists = errors.New("configuration file already exists, use --force to overwrite")

var (
	// force allows init to overwrite an existing configuration file.
	force bool

	// initCmd writes a starter configuration for the given plugins.
	initCmd = &cobra.Command{
		Use:   "init <plugin>...",
		Short: "Write a configuration file for the given plugins",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s: %w", configPath, errConfigExists)
			}

			cfg := config.ForPlugins(buildConfiguration, args...)
			if err := config.Save(configPath, cfg); err != nil {
				return err
			}

			logger.InfoKV(cmd.Context(), "Configuration written", "path", configPath, "targets", len(cfg.Targets))

			return nil
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	initCmd.Flags().StringVar(&buildConfiguration, "configuration", config.DefaultConfiguration, "build configuration folder")
	initCmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing configuration file")
}
