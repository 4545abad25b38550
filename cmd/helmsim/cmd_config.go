// cmd/helmsim/cmd_config.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-helm/pkg/config"
	"github.com/opd-ai/go-helm/pkg/logging"
)

var (
	configOut   string
	configForce bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage simulator configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration to a file",
	Long: `Write the default configuration as JSON.

Every key can also be overridden from the environment with the HELM_ prefix,
for example HELM_VESSEL_MAXSPEED=120 or HELM_ORDERS_PREPARATIONMS=500.`,
	RunE: runConfigInit,
}

func init() {
	configInitCmd.Flags().StringVarP(&configOut, "out", "o", "helm.json", "Where to write the configuration")
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "Overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	if !configForce {
		if _, err := os.Stat(configOut); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configOut)
		}
	}

	if err := config.SaveConfig(config.DefaultConfig(), configOut); err != nil {
		return logging.WrapError(err, "write default config")
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote default configuration to %s\n", configOut)
	return nil
}
