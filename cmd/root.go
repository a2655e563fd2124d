// Package cmd implements the neuroweave CLI commands.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"neuroweave/orchestrator/pkg/logger"
)

const (
	// Version is the current release version.
	Version = "0.1.0"
	// Banner is shown at startup.
	Banner = `
          /\      |‾‾| Neuroweave Orchestrator %s
     /\  /  \     |  |
    /  \/    \    |  |
   /          \   |  |
  / __________ \  |__|
`
)

var (
	cfgFile string
	debug   bool
	quiet   bool
)

var rootCmd = &cobra.Command{
	Use:   "neuroweave",
	Short: "Distributed neural simulation task orchestrator",
	Long: `neuroweave coordinates a fleet of pull-based workers over HTTP.
It decomposes submitted tasks into work units, leases them to workers,
reclaims units whose leases expire, and aggregates results in order.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			logger.SetLevel(logger.LevelDebug)
		}
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress startup output")

	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(fmt.Sprintf(Banner, Version) + "\n")
}

// GetRootCmd returns the root command, for tests.
func GetRootCmd() *cobra.Command {
	return rootCmd
}
