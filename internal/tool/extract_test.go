package tool

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vivaneiona/extractkit"
)

var vacationFields = []FieldInput{
	{Name: "leave_time", Description: "When they are leaving", Type: "string"},
	{Name: "num_people", Description: "The number of people on the vacation", Type: "integer", Rules: []string{"positive"}},
	{Name: "cities_to_visit", Description: "Cities they will visit", Type: "list-of-string"},
}

func TestExtractFields(t *testing.T) {
	ctx := context.Background()
	req := &mcp.CallToolRequest{}

	tests := []struct {
		name           string
		candidate      map[string]any
		input          InputExtractFields
		wantErr        bool
		errContains    string
		validateOutput func(t *testing.T, output OutputExtractFields)
	}{
		{
			name:        "empty text returns error",
			input:       InputExtractFields{Text: "  ", Fields: vacationFields},
			wantErr:     true,
			errContains: "text is required",
		},
		{
			name:        "no fields returns error",
			input:       InputExtractFields{Text: "We leave tomorrow."},
			wantErr:     true,
			errContains: "at least one field",
		},
		{
			name: "unknown field type returns error",
			input: InputExtractFields{
				Text:   "We leave tomorrow.",
				Fields: []FieldInput{{Name: "when", Type: "date"}},
			},
			wantErr:     true,
			errContains: "unknown type",
		},
		{
			name: "found and missing fields",
			candidate: map[string]any{
				"num_people":      float64(4),
				"cities_to_visit": []any{"Amsterdam", "Brussels"},
			},
			input: InputExtractFields{Text: "Four of us are going to Amsterdam and Brussels.", Fields: vacationFields},
			validateOutput: func(t *testing.T, output OutputExtractFields) {
				assert.Equal(t, "unknown", output.Values["leave_time"])
				assert.Equal(t, 4, output.Values["num_people"])
				assert.Equal(t, []string{"Amsterdam", "Brussels"}, output.Values["cities_to_visit"])
				assert.Equal(t, []string{"leave_time"}, output.Missing)
				assert.NotEmpty(t, output.RequestID)
			},
		},
		{
			name: "nothing missing yields empty list",
			candidate: map[string]any{
				"leave_time":      "June 6th",
				"num_people":      2,
				"cities_to_visit": []any{"Paris"},
			},
			input: InputExtractFields{Text: "Two of us leave for Paris on June 6th.", Fields: vacationFields},
			validateOutput: func(t *testing.T, output OutputExtractFields) {
				assert.NotNil(t, output.Missing)
				assert.Empty(t, output.Missing)
			},
		},
		{
			name:        "rule violation names the field",
			candidate:   map[string]any{"num_people": 0},
			input:       InputExtractFields{Text: "Nobody is going.", Fields: vacationFields},
			wantErr:     true,
			errContains: "num_people",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewExtractFields(Static(extractkit.NewForTesting(tt.candidate)))
			result, output, err := handler(ctx, req, tt.input)

			if tt.wantErr {
				require.Error(t, err)
				if tt.errContains != "" {
					assert.Contains(t, err.Error(), tt.errContains)
				}
				return
			}

			require.NoError(t, err)
			assert.Nil(t, result)
			if tt.validateOutput != nil {
				tt.validateOutput(t, output)
			}
		})
	}
}

func TestExtractFields_ValidationErrorIsTyped(t *testing.T) {
	handler := NewExtractFields(Static(extractkit.NewForTesting(map[string]any{"num_people": -1})))
	_, _, err := handler(context.Background(), &mcp.CallToolRequest{}, InputExtractFields{
		Text:   "Minus one person.",
		Fields: vacationFields,
	})

	var ve *extractkit.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "num_people", ve.Field)
	assert.Equal(t, "positive", ve.Rule)
}

func TestExtractFields_SourceConsultedPerCall(t *testing.T) {
	current := extractkit.NewForTesting(map[string]any{"leave_time": "today"})
	handler := NewExtractFields(func() *extractkit.Extractor { return current })
	input := InputExtractFields{Text: "We leave today.", Fields: vacationFields[:1]}

	_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.Equal(t, "today", out.Values["leave_time"])

	current = extractkit.NewForTesting(map[string]any{"leave_time": "tomorrow"})
	_, out, err = handler(context.Background(), &mcp.CallToolRequest{}, input)
	require.NoError(t, err)
	assert.Equal(t, "tomorrow", out.Values["leave_time"])
}

func TestExplainExtraction(t *testing.T) {
	x := extractkit.NewPromptForTesting(extractkit.DefaultPrompts(), map[string]any{})
	handler := NewExplainExtraction(Static(x))

	_, out, err := handler(context.Background(), &mcp.CallToolRequest{}, InputExtractFields{
		Text:   "Four of us are going to Amsterdam.",
		Fields: vacationFields,
		Model:  "gpt-4o-mini",
	})
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", out.Model)
	assert.Equal(t, extractkit.DefaultPromptTag, out.PromptName)
	assert.Contains(t, out.Prompt, "Four of us are going to Amsterdam.")
	assert.Contains(t, out.Prompt, "num_people")
	assert.Greater(t, out.InputTokens, 0)
	assert.Greater(t, out.OutputTokens, 0)
	require.NotNil(t, out.EstCostUSD)
	assert.Equal(t, []string{"num_people:positive"}, out.Rules)
	assert.Contains(t, out.Text, "Extraction Plan (estimated)")
}

func TestExplainExtraction_InputErrors(t *testing.T) {
	handler := NewExplainExtraction(Static(extractkit.NewForTesting(nil)))
	_, _, err := handler(context.Background(), &mcp.CallToolRequest{}, InputExtractFields{Fields: vacationFields})
	assert.ErrorContains(t, err, "text is required")
}

func TestRegister(t *testing.T) {
	server := mcp.NewServer(&mcp.Implementation{Name: "extractkit-test", Version: "v0.0.0"}, nil)
	assert.NotPanics(t, func() {
		Register(server, Static(extractkit.NewForTesting(nil)))
	})
}
