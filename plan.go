package extractkit

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PlanNodeType defines the type of operation a node represents.
type PlanNodeType string

const (
	ExtractionType PlanNodeType = "Extraction"
	PromptCallType PlanNodeType = "PromptCall"
	CompleteType   PlanNodeType = "CompleteFields"
	ValidateType   PlanNodeType = "ValidateRules"
)

// PlanNode represents a node in the extraction plan.
type PlanNode struct {
	Type         PlanNodeType `json:"type"`
	PromptName   string       `json:"promptName,omitempty"`
	Model        string       `json:"model,omitempty"`
	Fields       []string     `json:"fields,omitempty"`
	Rules        []string     `json:"rules,omitempty"`
	InputTokens  int          `json:"inputTokens,omitempty"`
	OutputTokens int          `json:"outputTokens,omitempty"`
	EstCostUSD   *float64     `json:"estCostUSD,omitempty"`
	Children     []*PlanNode  `json:"children,omitempty"`
}

// Plan is the result of a dry run: what Extract would send and check.
type Plan struct {
	Root   *PlanNode `json:"plan"`
	Prompt string    `json:"prompt"`
}

// ModelPrice represents the pricing for a specific model.
type ModelPrice struct {
	PromptTokCost     float64 // Cost per 1000 input tokens
	CompletionTokCost float64 // Cost per 1000 output tokens
}

// DefaultModelPricing returns current input/output token costs (USD per 1 K tokens).
func DefaultModelPricing() map[string]ModelPrice {
	return map[string]ModelPrice{
		"gpt-4o":        {PromptTokCost: 0.0050, CompletionTokCost: 0.0200},
		"gpt-4o-mini":   {PromptTokCost: 0.0006, CompletionTokCost: 0.0024},
		"gpt-4.1":       {PromptTokCost: 0.0020, CompletionTokCost: 0.0080},
		"gpt-4.1-mini":  {PromptTokCost: 0.0004, CompletionTokCost: 0.0016},
		"gpt-4.1-nano":  {PromptTokCost: 0.0001, CompletionTokCost: 0.0004},
		"gpt-3.5-turbo": {PromptTokCost: 0.0005, CompletionTokCost: 0.0015},

		"gemini-2.5-pro":   {PromptTokCost: 0.00125, CompletionTokCost: 0.0100},
		"gemini-2.5-flash": {PromptTokCost: 0.00030, CompletionTokCost: 0.0025},
		"gemini-2.0-flash": {PromptTokCost: 0.00015, CompletionTokCost: 0.0006},
		"gemini-1.5-pro":   {PromptTokCost: 0.00125, CompletionTokCost: 0.0050},
		"gemini-1.5-flash": {PromptTokCost: 0.000075, CompletionTokCost: 0.00030},
	}
}

// EstimateTokensFromText provides a rough token estimate from text length.
func EstimateTokensFromText(text string) int {
	// Rough heuristic: ~4 characters per token for English text
	return (len(text) + 3) / 4
}

// estimateOutputTokens estimates the reply size from the declared types.
func estimateOutputTokens(s *Schema) int {
	tokens := 10 + s.Len()*2 // {"field": ..., }
	for _, f := range s.Fields() {
		switch f.Type {
		case Integer:
			tokens += 5
		case StringList:
			tokens += 30
		default:
			tokens += 15
		}
	}
	return tokens
}

// promptRenderer is implemented by inferrers that can show their prompt
// without calling the backend.
type promptRenderer interface {
	RenderPrompt(req Request) (string, error)
	ModelFor(req Request) string
}

// Explain performs a dry run: it renders the prompt Extract would send and
// estimates tokens and cost without calling the backend.
func (x *Extractor) Explain(text string, s *Schema, optFns ...func(*Options)) (*Plan, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("explain: %w", ErrEmptyDocument)
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("explain: %w", ErrMissingSchema)
	}

	opts := x.options(optFns)
	req := Request{Text: text, Schema: s, Model: opts.Model, Prompt: opts.Prompt, Parameters: opts.Parameters}

	prompt := s.FormatInstructions() + "\n\n" + text
	model := opts.Model
	if pr, ok := x.inferrer.(promptRenderer); ok {
		rendered, err := pr.RenderPrompt(req)
		if err != nil {
			return nil, fmt.Errorf("explain: %w", err)
		}
		prompt = rendered
		model = pr.ModelFor(req)
	}

	promptName := opts.Prompt
	if promptName == "" {
		promptName = DefaultPromptTag
	}

	var rules []string
	for _, f := range s.Fields() {
		for _, r := range f.Rules {
			rules = append(rules, f.Name+":"+r.Name())
		}
	}

	call := &PlanNode{
		Type:         PromptCallType,
		PromptName:   promptName,
		Model:        model,
		Fields:       s.Names(),
		InputTokens:  EstimateTokensFromText(prompt),
		OutputTokens: estimateOutputTokens(s),
	}
	if price, ok := DefaultModelPricing()[model]; ok {
		cost := float64(call.InputTokens)/1000*price.PromptTokCost +
			float64(call.OutputTokens)/1000*price.CompletionTokCost
		call.EstCostUSD = &cost
	}

	root := &PlanNode{
		Type:         ExtractionType,
		Fields:       s.Names(),
		InputTokens:  call.InputTokens,
		OutputTokens: call.OutputTokens,
		EstCostUSD:   call.EstCostUSD,
		Children: []*PlanNode{
			call,
			{Type: CompleteType, Fields: s.Names()},
			{Type: ValidateType, Rules: rules},
		},
	}
	return &Plan{Root: root, Prompt: prompt}, nil
}

// JSON formats the plan as indented JSON.
func (p *Plan) JSON() (string, error) {
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// String formats the plan as an ASCII tree.
func (p *Plan) String() string {
	var sb strings.Builder
	sb.WriteString("Extraction Plan (estimated)\n")
	formatNodeAsText(p.Root, "", true, &sb)
	return sb.String()
}

// formatNodeAsText recursively formats a node and its children as text.
func formatNodeAsText(node *PlanNode, prefix string, isLast bool, sb *strings.Builder) {
	connector := "├─ "
	if isLast {
		connector = "└─ "
	}
	if prefix == "" {
		connector = ""
	}
	fmt.Fprintf(sb, "%s%s%s\n", prefix, connector, formatNodeInfo(node))

	childPrefix := prefix
	switch {
	case prefix == "":
		childPrefix = "  "
	case isLast:
		childPrefix += "   "
	default:
		childPrefix += "│  "
	}
	for i, child := range node.Children {
		formatNodeAsText(child, childPrefix, i == len(node.Children)-1, sb)
	}
}

// formatNodeInfo formats information for a single node.
func formatNodeInfo(node *PlanNode) string {
	parts := []string{string(node.Type)}
	if node.PromptName != "" {
		parts = append(parts, fmt.Sprintf("%q", node.PromptName))
	}

	var details []string
	if node.Model != "" {
		details = append(details, "model="+node.Model)
	}
	if node.InputTokens > 0 || node.OutputTokens > 0 {
		details = append(details, fmt.Sprintf("tokens(in=%d,out=%d)", node.InputTokens, node.OutputTokens))
	}
	if len(node.Fields) > 0 {
		details = append(details, fmt.Sprintf("fields=%v", node.Fields))
	}
	if len(node.Rules) > 0 {
		details = append(details, fmt.Sprintf("rules=%v", node.Rules))
	}
	if node.EstCostUSD != nil {
		details = append(details, fmt.Sprintf("$%.6f", *node.EstCostUSD))
	}
	if len(details) > 0 {
		parts = append(parts, "("+strings.Join(details, ", ")+")")
	}
	return strings.Join(parts, " ")
}
