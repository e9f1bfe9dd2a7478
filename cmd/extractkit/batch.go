package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/extractkit"
)

// batchEntry is one document's outcome as printed by the batch command.
type batchEntry struct {
	File   string `json:"file" yaml:"file"`
	Values any    `json:"values,omitempty" yaml:"values,omitempty"`
	Error  string `json:"error,omitempty" yaml:"error,omitempty"`
}

var batchCmd = &cobra.Command{
	Use:   "batch file...",
	Short: "Extract the schema's fields from many documents concurrently",
	Long: `Batch runs the extraction over every file with bounded concurrency
(extraction.concurrency). A document that fails does not stop the others;
its error is reported in place of its values. The command exits non-zero when
any document failed.`,
	Args: cobra.MinimumNArgs(1),
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

		entries := make([]batchEntry, len(args))
		texts := make([]string, 0, len(args))
		index := make([]int, 0, len(args))
		for i, path := range args {
			entries[i].File = path
			doc, err := extractkit.LoadDocument(path)
			if err != nil {
				entries[i].Error = err.Error()
				continue
			}
			texts = append(texts, doc.Text)
			index = append(index, i)
		}

		if len(texts) > 0 {
			x, err := commandExtractor(ctx)
			if err != nil {
				return err
			}
			items, err := x.ExtractBatch(ctx, texts, s)
			if err != nil {
				return err
			}
			for _, it := range items {
				e := &entries[index[it.Index]]
				if it.Err != nil {
					e.Error = it.Err.Error()
					continue
				}
				v, err := resultValue(format, it.Result)
				if err != nil {
					return err
				}
				e.Values = v
			}
		}

		if err := OutputTo(cmd.OutOrStdout(), format, entries); err != nil {
			return err
		}
		failed := 0
		for _, e := range entries {
			if e.Error != "" {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d documents failed", failed, len(entries))
		}
		return nil
	},
}

func init() {
	addExtractionFlags(batchCmd)
}
