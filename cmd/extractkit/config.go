package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/extractkit/internal/config"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration file",
	Long: `Init writes the default configuration to path (default: ./config.yaml).
Existing files are left alone unless --force is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "config.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if _, err := os.Stat(path); err == nil && !forceInit {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		if err := config.WriteDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := parseOutputFormat(outputFormat)
		if err != nil {
			return err
		}
		return OutputTo(cmd.OutOrStdout(), format, redacted(cfgManager.Get()))
	},
}

// redacted copies cfg with literal API keys masked; ${ENV} references are
// kept since they carry no secret.
func redacted(cfg *config.Config) *config.Config {
	out := *cfg
	out.Providers = make(map[string]config.ProviderCfg, len(cfg.Providers))
	for name, p := range cfg.Providers {
		if p.APIKey != "" && !strings.HasPrefix(p.APIKey, "${") {
			p.APIKey = "****"
		}
		out.Providers[name] = p
	}
	return &out
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
