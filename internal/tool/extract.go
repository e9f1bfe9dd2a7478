package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vivaneiona/extractkit"
)

var fieldsProperty = map[string]interface{}{
	"type":        "array",
	"description": "Fields to extract, in output order",
	"items": map[string]interface{}{
		"type":     "object",
		"required": []string{"name", "type"},
		"properties": map[string]interface{}{
			"name": map[string]interface{}{
				"type":        "string",
				"description": "Output key",
			},
			"description": map[string]interface{}{
				"type":        "string",
				"description": "What the field means, shown to the model",
			},
			"type": map[string]interface{}{
				"type": "string",
				"enum": []string{"string", "integer", "list-of-string"},
			},
			"rules": map[string]interface{}{
				"type":        "array",
				"description": "Validation rules such as positive, required, max=10, oneof=a|b",
				"items":       map[string]interface{}{"type": "string"},
			},
		},
	},
}

// MetadataExtractFields describes the extract_fields tool.
var MetadataExtractFields = &mcp.Tool{
	Name: "extract_fields",
	Description: "Extract typed fields from free-form text. " +
		"Every declared field is present in the result: fields the text does not mention are filled with " +
		"a sentinel (\"unknown\", 0 or an empty list) and listed under missing. " +
		"A value that breaks one of the field's rules fails the call with the field and rule named.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"text", "fields"},
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Document text to extract from",
			},
			"fields": fieldsProperty,
			"model": map[string]interface{}{
				"type":        "string",
				"description": "Optional model override",
			},
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "Optional prompt template tag",
			},
		},
	},
}

// MetadataExplainExtraction describes the explain_extraction tool.
var MetadataExplainExtraction = &mcp.Tool{
	Name: "explain_extraction",
	Description: "Describe how extract_fields would run without calling a model: " +
		"the prompt that would be sent, the model, estimated token counts and cost.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"text", "fields"},
		"properties": map[string]interface{}{
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Document text to extract from",
			},
			"fields": fieldsProperty,
			"model": map[string]interface{}{
				"type":        "string",
				"description": "Optional model override",
			},
			"prompt": map[string]interface{}{
				"type":        "string",
				"description": "Optional prompt template tag",
			},
		},
	},
}

// FieldInput declares one field of the requested schema.
type FieldInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Type        string   `json:"type"`
	Rules       []string `json:"rules,omitempty"`
}

// InputExtractFields is the input for the ExtractFields and ExplainExtraction tools.
type InputExtractFields struct {
	Text   string       `json:"text"`
	Fields []FieldInput `json:"fields"`
	Model  string       `json:"model"`
	Prompt string       `json:"prompt"`
}

// OutputExtractFields is the output for the ExtractFields tool.
type OutputExtractFields struct {
	// Values holds one entry per declared field.
	Values map[string]any `json:"values"`
	// Missing lists the fields filled with their sentinel.
	Missing []string `json:"missing"`
	// RequestID correlates the call with server logs.
	RequestID string `json:"request_id"`
}

// OutputExplainExtraction is the output for the ExplainExtraction tool.
type OutputExplainExtraction struct {
	Model        string   `json:"model"`
	PromptName   string   `json:"prompt_name"`
	Prompt       string   `json:"prompt"`
	InputTokens  int      `json:"input_tokens"`
	OutputTokens int      `json:"output_tokens"`
	EstCostUSD   *float64 `json:"est_cost_usd,omitempty"`
	Rules        []string `json:"rules"`
	// Text is the rendered plan tree.
	Text string `json:"text"`
}

// ExtractorSource returns the extractor to use for a call. The server swaps
// it when the configuration is reloaded.
type ExtractorSource func() *extractkit.Extractor

// Static returns a source that always yields x.
func Static(x *extractkit.Extractor) ExtractorSource {
	return func() *extractkit.Extractor { return x }
}

func (in InputExtractFields) schema() (*extractkit.Schema, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("text is required")
	}
	if len(in.Fields) == 0 {
		return nil, fmt.Errorf("at least one field is required")
	}
	specs := make([]extractkit.FieldSpec, 0, len(in.Fields))
	for _, f := range in.Fields {
		specs = append(specs, extractkit.FieldSpec{
			Name:        f.Name,
			Description: f.Description,
			Type:        f.Type,
			Rules:       f.Rules,
		})
	}
	return extractkit.SchemaFromSpecs(specs)
}

func (in InputExtractFields) options() []func(*extractkit.Options) {
	var opts []func(*extractkit.Options)
	if in.Model != "" {
		opts = append(opts, extractkit.WithModel(in.Model))
	}
	if in.Prompt != "" {
		opts = append(opts, extractkit.WithPrompt(in.Prompt))
	}
	return opts
}

// NewExtractFields returns the extract_fields handler.
func NewExtractFields(src ExtractorSource) func(context.Context, *mcp.CallToolRequest, InputExtractFields) (*mcp.CallToolResult, OutputExtractFields, error) {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InputExtractFields) (*mcp.CallToolResult, OutputExtractFields, error) {
		s, err := input.schema()
		if err != nil {
			return nil, OutputExtractFields{}, err
		}

		res, err := src().Extract(ctx, input.Text, s, input.options()...)
		if err != nil {
			return nil, OutputExtractFields{}, err
		}

		missing := res.Missing()
		if missing == nil {
			missing = []string{}
		}
		return nil, OutputExtractFields{
			Values:    res.Map(),
			Missing:   missing,
			RequestID: res.RequestID,
		}, nil
	}
}

// NewExplainExtraction returns the explain_extraction handler.
func NewExplainExtraction(src ExtractorSource) func(context.Context, *mcp.CallToolRequest, InputExtractFields) (*mcp.CallToolResult, OutputExplainExtraction, error) {
	return func(_ context.Context, _ *mcp.CallToolRequest, input InputExtractFields) (*mcp.CallToolResult, OutputExplainExtraction, error) {
		s, err := input.schema()
		if err != nil {
			return nil, OutputExplainExtraction{}, err
		}

		plan, err := src().Explain(input.Text, s, input.options()...)
		if err != nil {
			return nil, OutputExplainExtraction{}, err
		}

		out := OutputExplainExtraction{
			Prompt:       plan.Prompt,
			InputTokens:  plan.Root.InputTokens,
			OutputTokens: plan.Root.OutputTokens,
			EstCostUSD:   plan.Root.EstCostUSD,
			Rules:        []string{},
			Text:         plan.String(),
		}
		for _, child := range plan.Root.Children {
			switch child.Type {
			case extractkit.PromptCallType:
				out.Model = child.Model
				out.PromptName = child.PromptName
			case extractkit.ValidateType:
				out.Rules = append(out.Rules, child.Rules...)
			}
		}
		return nil, out, nil
	}
}

// Register adds every extractkit tool to server.
func Register(server *mcp.Server, src ExtractorSource) {
	mcp.AddTool(server, MetadataExtractFields, NewExtractFields(src))
	mcp.AddTool(server, MetadataExplainExtraction, NewExplainExtraction(src))
}
