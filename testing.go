package extractkit

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"
)

// testInvoker is a mock invoker that answers every prompt with a fixed reply.
type testInvoker struct {
	reply []byte
	calls atomic.Int32
}

func (t *testInvoker) Generate(
	ctx context.Context,
	model Model,
	prompt string,
	params map[string]string,
) ([]byte, error) {
	t.calls.Add(1)
	return t.reply, ctx.Err()
}

// NewForTesting creates an Extractor whose inferrer always proposes
// candidate, so no real client is required.
func NewForTesting(candidate map[string]any) *Extractor {
	return &Extractor{
		inferrer: StaticInferrer(candidate),
		log:      slog.Default(),
	}
}

// NewPromptForTesting creates an Extractor backed by a PromptInferrer whose
// invoker replies with the JSON encoding of reply.
func NewPromptForTesting(p PromptProvider, reply map[string]any) *Extractor {
	raw, _ := json.Marshal(reply)
	inf := NewPromptInferrer(&testInvoker{reply: raw}, p, "test-model", slog.Default())
	return NewWithLogger(inf, slog.Default())
}
