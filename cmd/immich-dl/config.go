package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"immich-dl/pkg/config"
	"immich-dl/pkg/ui"
)

const defaultConfigPath = ".immich-dl.yaml"

// newConfigCmd builds the config command and its subcommands
func newConfigCmd(opts *rootOptions, stdout io.Writer) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage immich-dl configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - A .env file
  - Configuration file
  - Default values (lowest priority)`,
	}

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file with default values",
		Long: `Create a configuration file holding every available option.

The file is written to ./.immich-dl.yaml unless a different path is given
with the --config flag. An existing file is never overwritten.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(opts.configFile, stdout)
		},
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after merging every source.

The API token is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(opts, stdout)
		},
	}

	configCmd.AddCommand(initCmd, showCmd)
	return configCmd
}

func runConfigInit(path string, stdout io.Writer) error {
	if path == "" {
		path = defaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file already exists: %s", path)
	}

	cfg := config.DefaultConfig()
	cfg.Immich.URL = "https://immich.example.com"
	cfg.Immich.Token = "YOUR_API_TOKEN"
	cfg.Albums = []string{}

	if err := cfg.Save(path); err != nil {
		return err
	}

	p := ui.NewPrinter(stdout)
	p.PrintSuccess("Configuration file created")
	p.PrintInfo("Path", path)
	return nil
}

func runConfigShow(opts *rootOptions, stdout io.Writer) error {
	cfg, err := config.Load(opts.configFile, opts.flags())
	if err != nil {
		return err
	}

	display := *cfg
	display.Immich.Token = maskSecret(cfg.Immich.Token)

	data, err := yaml.Marshal(&display)
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	_, err = stdout.Write(data)
	return err
}

// maskSecret keeps only the ends of a secret readable
func maskSecret(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return "***"
	}
	return secret[:4] + "..." + secret[len(secret)-4:]
}
