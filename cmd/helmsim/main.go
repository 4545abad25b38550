// cmd/helmsim/main.go
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/opd-ai/go-helm/pkg/config"
	"github.com/opd-ai/go-helm/pkg/logging"
)

var (
	logger zerolog.Logger
	cfg    *config.SimConfig

	configPath string
	logLevel   string
	logFormat  string
)

var rootCmd = &cobra.Command{
	Use:   "helmsim",
	Short: "Remote-control vessel navigation simulator",
	Long: `helmsim runs the helm simulation headless. Orders are queued, wait out a
preparation delay, then take effect on the vessel until they expire.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a JSON or YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: json or console (overrides config)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads configuration and sets up logging for commands that need it
func loadConfig() error {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return logging.WrapError(err, "load config %q", configPath)
	}

	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if logFormat != "" {
		cfg.Log.Format = logFormat
	}

	logger = logging.Setup(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	return nil
}
