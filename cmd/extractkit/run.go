package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/extractkit"
)

var (
	schemaPath string
	runFlags   = defaultOverrides()
	paramFlags []string
)

var runCmd = &cobra.Command{
	Use:   "run [file|-]",
	Short: "Extract the schema's fields from one document",
	Long: `Run reads a document (a file, or stdin when the argument is "-" or
omitted), extracts the fields declared in the schema file and prints the
completed record.

The command fails when a field violates one of its rules; the error names the
field and the rule.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		format, err := parseOutputFormat(outputFormat)
		if err != nil {
			return err
		}
		s, err := extractkit.LoadSchemaFile(schemaPath)
		if err != nil {
			return err
		}
		if len(args) == 0 && stdinIsTerminal() {
			return errors.New("no document given; pass a file or pipe text on stdin")
		}
		doc, err := readDocument(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		x, err := commandExtractor(ctx)
		if err != nil {
			return err
		}

		res, err := x.Extract(ctx, doc.Text, s)
		if err != nil {
			var ve *extractkit.ValidationError
			if errors.As(err, &ve) {
				slog.Error("Extraction rejected", "field", ve.Field, "rule", ve.Rule, "value", ve.Value)
			}
			return err
		}
		return outputResult(cmd.OutOrStdout(), format, res)
	},
}

func init() {
	addExtractionFlags(runCmd)
}

// addExtractionFlags registers the flags shared by run, batch and explain.
func addExtractionFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&schemaPath, "schema", "s", "", "schema file (YAML)")
	cmd.Flags().StringVar(&runFlags.Provider, "provider", "", "provider name from the config (default: extraction.provider)")
	cmd.Flags().StringVarP(&runFlags.Model, "model", "m", "", "model override")
	cmd.Flags().StringVar(&runFlags.Prompt, "prompt", "", "prompt template tag")
	cmd.Flags().DurationVar(&runFlags.Timeout, "timeout", 0, "per-document timeout (default: extraction.timeout)")
	cmd.Flags().IntVar(&runFlags.Retries, "retries", -1, "retry attempts after a failed call (default: provider max_retries)")
	cmd.Flags().StringVar(&runFlags.Cache, "cache", "", "reply cache: none, memory or redis (default: cache.type)")
	cmd.Flags().StringArrayVarP(&paramFlags, "param", "p", nil, "generation parameter key=value (repeatable)")
	_ = cmd.MarkFlagRequired("schema")
}

// commandExtractor builds the extractor from the loaded configuration and
// the command-line overrides.
func commandExtractor(ctx context.Context) (*extractkit.Extractor, error) {
	ov := runFlags
	params, err := parseParams(paramFlags)
	if err != nil {
		return nil, err
	}
	ov.Params = params
	return buildExtractor(ctx, cfgManager.Get(), ov, slog.Default())
}

func parseParams(list []string) (map[string]string, error) {
	if len(list) == 0 {
		return nil, nil
	}
	params := make(map[string]string, len(list))
	for _, kv := range list {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid parameter %q (want key=value)", kv)
		}
		params[k] = strings.TrimSpace(v)
	}
	return params, nil
}

// readDocument loads the single positional argument, or stdin.
func readDocument(stdin io.Reader, args []string) (*extractkit.Document, error) {
	if len(args) == 0 || args[0] == "-" {
		doc, err := extractkit.ReadDocument(stdin)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		doc.Path = "-"
		return doc, nil
	}
	return extractkit.LoadDocument(args[0])
}

// stdinIsTerminal reports whether stdin is an interactive terminal.
func stdinIsTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
