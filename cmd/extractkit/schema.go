package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/extractkit"
)

var jsonSchemaOut bool

var schemaCmd = &cobra.Command{
	Use:   "schema file",
	Short: "Validate a schema file and print its format instructions",
	Long: `Schema parses a schema file and reports declaration errors (bad names,
duplicate fields, unknown types or rules). On success it prints the format
instructions sent to the model, or with --json-schema the JSON Schema the
completed records conform to.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := extractkit.LoadSchemaFile(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if jsonSchemaOut {
			b, err := s.JSONSchemaBytes()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, string(b))
			return err
		}
		_, err = fmt.Fprintln(out, s.FormatInstructions())
		return err
	},
}

func init() {
	schemaCmd.Flags().BoolVar(&jsonSchemaOut, "json-schema", false, "print the JSON Schema of the result record")
}
