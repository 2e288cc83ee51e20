package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hakim/surfacerecon/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "surfacerecon",
	Short: "External attack-surface reconnaissance for a single domain",
	Long: `surfacerecon maps the external attack surface of a domain.

It enumerates candidate hostnames from a wordlist and passive sources, resolves
them, probes the live ones over HTTPS and HTTP, harvests archived URLs, scans
content and sensitive paths for exposed secrets, and checks common ports.

Every network call is bounded in time and volume, and a failing source never
fails the scan.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init writes the config file; it must not require one
		if cmd.Name() == "init" || cmd.Name() == "help" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file path (default: search for surfacerecon.yaml)")
	rootCmd.Version = "0.1.0-dev"
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
