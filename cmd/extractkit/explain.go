package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vivaneiona/extractkit"
)

var showPrompt bool

var explainCmd = &cobra.Command{
	Use:   "explain [file|-]",
	Short: "Show the extraction plan without calling a model",
	Long: `Explain renders the prompt run would send and prints the plan with
estimated token counts and cost. No request is made to the provider.

With -o json the plan is printed as JSON; otherwise as a tree.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		s, err := extractkit.LoadSchemaFile(schemaPath)
		if err != nil {
			return err
		}
		doc, err := readDocument(cmd.InOrStdin(), args)
		if err != nil {
			return err
		}
		x, err := commandExtractor(ctx)
		if err != nil {
			return err
		}

		plan, err := x.Explain(doc.Text, s)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if outputFormat == string(OutputFormatJSON) {
			j, err := plan.JSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, j)
			return err
		}
		fmt.Fprint(out, plan.String())
		if showPrompt {
			fmt.Fprintf(out, "\nPrompt:\n%s\n", plan.Prompt)
		}
		return nil
	},
}

func init() {
	addExtractionFlags(explainCmd)
	explainCmd.Flags().BoolVar(&showPrompt, "show-prompt", false, "print the rendered prompt after the plan")
}
