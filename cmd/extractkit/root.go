package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/vivaneiona/extractkit/internal/config"
)

var (
	cfgFile      string
	logLevel     string
	outputFormat string
	noColor      bool

	cfgManager *config.Manager
)

var rootCmd = &cobra.Command{
	Use:   "extractkit",
	Short: "Schema-driven field extraction from unstructured text",
	Long: `extractkit turns free-form text into a typed record.

A schema declares the fields to extract, each with a type (string, integer
or list-of-string) and optional validation rules. A language model proposes
the values; every declared field is present in the result, missing ones are
filled with a sentinel ("unknown", 0 or an empty list), and rule violations
are reported with the field and rule named.

Examples:
  extractkit run --schema vacation.yaml notes.txt
  cat notes.txt | extractkit run --schema vacation.yaml -o json
  extractkit explain --schema vacation.yaml notes.txt
  extractkit mcp`,
	SilenceUsage: true,
	Version:      version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("failed to load .env: %w", err)
		}

		mgr, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cfgManager = mgr

		level := logLevel
		if level == "" {
			level = mgr.Get().LogLevel
		}
		logger, err := newLogger(level, noColor)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)

		if f := mgr.ConfigFile(); f != "" {
			slog.Debug("Loaded configuration", "file", f)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.extractkit/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel, "log-level", "", "log level: debug, info, warn or error (default from config)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)
	rootCmd.PersistentFlags().BoolVar(
		&noColor, "no-color", false, "disable colored log output",
	)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)
}

// newLogger builds the stderr logger. Logs never go to stdout, which carries
// command output (and the MCP protocol).
func newLogger(level string, noColor bool) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", level)
	}
	return slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:   lvl,
			NoColor: noColor,
		}),
	), nil
}
