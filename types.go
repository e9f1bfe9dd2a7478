package extractkit

import (
	"context"
	"time"
)

// Model represents a model identifier
type Model string

// Runner lets the extractor schedule batch work with any concurrency model.
type Runner interface {
	Go(fn func() error) // schedule
	Wait() error        // join / propagate first err
}

// Request is what an Inferrer receives for one extraction.
type Request struct {
	Text       string
	Schema     *Schema
	Model      string
	Prompt     string            // template tag; "" → DefaultPromptTag
	Parameters map[string]string // generation parameters, backend specific
}

// Inferrer is the opaque text-to-structure step. It returns a best-effort
// mapping of field name to raw value and may omit fields or return values of
// the wrong shape; the extractor completes and validates the mapping.
type Inferrer interface {
	Infer(ctx context.Context, req Request) (map[string]any, error)
}

// InferFunc adapts a function to Inferrer.
type InferFunc func(ctx context.Context, req Request) (map[string]any, error)

func (f InferFunc) Infer(ctx context.Context, req Request) (map[string]any, error) {
	return f(ctx, req)
}

// Invoker abstraction allows mocking, retrying, and caching
type Invoker interface {
	Generate(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error)
}

// InvokerFunc adapts a function to Invoker.
type InvokerFunc func(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error)

func (f InvokerFunc) Generate(ctx context.Context, model Model, prompt string, params map[string]string) ([]byte, error) {
	return f(ctx, model, prompt, params)
}

// Options represents functional options for extraction
type Options struct {
	Model       string
	Timeout     time.Duration
	Prompt      string            // template tag
	Runner      Runner            // nil → NewLimitedRunner(ctx, Concurrency)
	Concurrency int               // batch parallelism; 0 → runtime.NumCPU()
	Parameters  map[string]string // e.g. temperature, topP, maxOutputTokens
}

// Functional option constructors
func WithModel(name string) func(*Options) {
	return func(o *Options) { o.Model = name }
}

func WithTimeout(d time.Duration) func(*Options) {
	return func(o *Options) { o.Timeout = d }
}

func WithPrompt(tag string) func(*Options) {
	return func(o *Options) { o.Prompt = tag }
}

func WithRunner(r Runner) func(*Options) {
	return func(o *Options) { o.Runner = r }
}

func WithConcurrency(n int) func(*Options) {
	return func(o *Options) { o.Concurrency = n }
}

// WithParameter sets one generation parameter; repeated calls accumulate.
func WithParameter(key, value string) func(*Options) {
	return func(o *Options) {
		if o.Parameters == nil {
			o.Parameters = make(map[string]string)
		}
		o.Parameters[key] = value
	}
}

// WithParameters merges generation parameters into the options.
func WithParameters(params map[string]string) func(*Options) {
	return func(o *Options) {
		for k, v := range params {
			WithParameter(k, v)(o)
		}
	}
}
