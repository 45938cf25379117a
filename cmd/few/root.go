package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/few/internal/cli"
	"github.com/aretw0/few/internal/logging"
	"github.com/aretw0/few/pkg/config"
)

var rootCmd = &cobra.Command{
	Use:   "few",
	Short: "few binds component data to views through declarative actions",
	Long: `few evaluates expressions and data definitions, and runs components (data, actions
and a view) interactively, over HTTP or as MCP tools.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().String("dir", "", "Directory containing component definitions")
}

// loadConfig reads --config over the defaults and applies the flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		cfg.Components = dir
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = lvl
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(level), nil
}

// newHost builds the host every component command runs on.
func newHost(cmd *cobra.Command, opts ...cli.HostOption) (*cli.Host, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return cli.NewHost(cfg, logger, opts...)
}
