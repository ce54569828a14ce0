package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"becoconfig/internal/config"
	"becoconfig/internal/logging"
)

var (
	// Global flags
	verbose    bool
	projectDir string
	configPath string

	// Set up by PersistentPreRunE
	cfg    *config.Config
	logger *logging.Logger
)

// version is overridden at link time.
var version = "dev"

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "becogen",
	Short: "Generate beco-services resource values for build variants",
	Long: `becogen resolves the source directories of a build variant, finds the
nearest beco-services.json, validates it and writes a values resource file
with the API key and environment ID into a generated output directory.

Variants are given in the camel form used by build tools (freeDebug,
freeArmDebug) or as flavor/buildType.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(resolveConfigPath())
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger, err = logging.New(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the becogen version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "becogen %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&projectDir, "project", "p", "", "Project root directory (default: current)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Tool configuration file (default: <project>/beco.yaml)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(generateAllCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// projectRoot returns the --project directory, or the working directory.
func projectRoot() string {
	if projectDir != "" {
		return projectDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return filepath.Join(projectRoot(), config.DefaultFileName)
}

// resolvePath makes p absolute against the project root.
func resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(projectRoot(), p)
}

// currentConfig returns the loaded configuration, or the defaults when the
// command runs without the root pre-run hook.
func currentConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
