package extractkit

import (
	"context"
	"fmt"
	"log/slog"
)

// PromptInferrer turns a Request into a rendered prompt, sends it to an
// Invoker and decodes the JSON reply into a candidate mapping.
type PromptInferrer struct {
	invoker Invoker
	prompts PromptProvider
	model   string
	log     *slog.Logger
}

// NewPromptInferrer wires an invoker and prompt provider. A nil provider
// means DefaultPrompts(); model is used when the request names none.
func NewPromptInferrer(inv Invoker, p PromptProvider, model string, log *slog.Logger) *PromptInferrer {
	if p == nil {
		p = DefaultPrompts()
	}
	if log == nil {
		log = slog.Default()
	}
	return &PromptInferrer{invoker: inv, prompts: p, model: model, log: log}
}

// RenderPrompt returns the exact prompt Infer would send.
func (pi *PromptInferrer) RenderPrompt(req Request) (string, error) {
	label := req.Prompt
	if label == "" {
		label = DefaultPromptTag
	}
	pc := newPromptContext(req.Text, req.Schema)

	if contextProvider, ok := pi.prompts.(ContextualPromptProvider); ok {
		pi.log.Debug("Using ContextualPromptProvider", "provider_type", fmt.Sprintf("%T", contextProvider), "label", label)
		return contextProvider.GetPromptWithContext(label, 1, pc)
	}

	pi.log.Debug("Using basic PromptProvider", "provider_type", fmt.Sprintf("%T", pi.prompts), "label", label)
	tpl, err := pi.prompts.GetPrompt(label, 1)
	if err != nil {
		return "", err
	}
	return buildPrompt(tpl, pc), nil
}

// ModelFor resolves the model a request will run against.
func (pi *PromptInferrer) ModelFor(req Request) string {
	if req.Model != "" {
		return req.Model
	}
	return pi.model
}

// Infer implements Inferrer.
func (pi *PromptInferrer) Infer(ctx context.Context, req Request) (map[string]any, error) {
	model := pi.ModelFor(req)
	if model == "" {
		return nil, fmt.Errorf("infer: %w", ErrModelMissing)
	}
	prompt, err := pi.RenderPrompt(req)
	if err != nil {
		pi.log.Debug("Failed to get prompt template", "label", req.Prompt, "error", err)
		return nil, err
	}
	pi.log.Debug("Final prompt constructed",
		"final_prompt_length", len(prompt),
		"final_prompt_preview", prompt[:min(300, len(prompt))])

	raw, err := pi.invoker.Generate(ctx, Model(model), prompt, req.Parameters)
	if err != nil {
		pi.log.Debug("Generate failed", "model", model, "error", err)
		return nil, err
	}
	pi.log.Debug("Raw response content", "content", string(raw))

	return ParseCandidate(raw)
}

// StaticInferrer always returns a copy of the same mapping. It is the
// deterministic collaborator used by tests and dry runs.
type StaticInferrer map[string]any

func (s StaticInferrer) Infer(ctx context.Context, _ Request) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m := make(map[string]any, len(s))
	for k, v := range s {
		m[k] = v
	}
	return m, nil
}
