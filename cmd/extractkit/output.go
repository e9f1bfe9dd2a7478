package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/vivaneiona/extractkit"
)

// OutputFormat defines the output format for CLI commands.
type OutputFormat string

const (
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatJSON OutputFormat = "json"
)

func parseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatYAML, "":
		return OutputFormatYAML, nil
	case OutputFormatJSON:
		return OutputFormatJSON, nil
	}
	return "", fmt.Errorf("unsupported output format %q (use yaml or json)", s)
}

// OutputTo writes data to the given writer in the specified format.
func OutputTo(w io.Writer, format OutputFormat, data any) error {
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// resultValue renders a Result in schema order for either format.
func resultValue(format OutputFormat, res *extractkit.Result) (any, error) {
	if format == OutputFormatJSON {
		return res, nil
	}
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, name := range res.Names() {
		v, _ := res.Get(name)
		var val yaml.Node
		if err := val.Encode(v); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: name},
			&val,
		)
	}
	return node, nil
}

func outputResult(w io.Writer, format OutputFormat, res *extractkit.Result) error {
	v, err := resultValue(format, res)
	if err != nil {
		return err
	}
	return OutputTo(w, format, v)
}
