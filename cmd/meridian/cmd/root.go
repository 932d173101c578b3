// Package cmd provides the CLI commands for meridian.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-mcp/meridian/internal/config"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "meridian",
	Short: "Meridian - MCP routing and dispatch engine",
	Long: `Meridian routes natural-language queries to the best MCP tool server.

It classifies each query into an intent, retrieves candidate servers from a
registry with three concurrent strategies, ranks them deterministically, and
dispatches the chosen tool over MCP Streamable HTTP. Routing decisions are
cached by request fingerprint.

Quick start:
  1. Create a config file: meridian.yaml
  2. Point registry.catalog_path at a server catalog
  3. Run: meridian serve

Configuration:
  Config is loaded from meridian.yaml in the current directory,
  $HOME/.meridian/, or /etc/meridian/.

  Environment variables can override config values with the MERIDIAN_ prefix.
  Example: MERIDIAN_SERVER_HTTP_ADDR=:9090`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./meridian.yaml)")
}

func initConfig() {
	config.InitViper(cfgFile)
}
