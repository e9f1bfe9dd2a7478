package extractkit

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// Extractor runs schema-driven extraction against an Inferrer.
type Extractor struct {
	inferrer Inferrer
	log      *slog.Logger
	defaults []func(*Options)
}

// New returns an Extractor that logs with slog.Default(). The option
// functions become defaults for every call.
func New(inf Inferrer, optFns ...func(*Options)) *Extractor {
	return NewWithLogger(inf, slog.Default(), optFns...)
}

// NewWithLogger lets the caller supply their own logger.
func NewWithLogger(inf Inferrer, log *slog.Logger, optFns ...func(*Options)) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{inferrer: inf, log: log, defaults: optFns}
}

func (x *Extractor) options(optFns []func(*Options)) Options {
	var opts Options
	for _, fn := range x.defaults {
		fn(&opts)
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// Extract asks the inferrer for a candidate mapping, completes it against the
// schema and validates it. Errors from the inferrer are returned unchanged; a
// failed rule yields *ValidationError.
func (x *Extractor) Extract(ctx context.Context, text string, s *Schema, optFns ...func(*Options)) (*Result, error) {
	reqID := uuid.NewString()
	log := x.log.With("request_id", reqID)

	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("extract: %w", ErrEmptyDocument)
	}
	if s.Len() == 0 {
		return nil, fmt.Errorf("extract: %w", ErrMissingSchema)
	}
	if x.inferrer == nil {
		return nil, fmt.Errorf("extract: inferrer not configured")
	}

	opts := x.options(optFns)
	log.Debug("Starting extraction",
		"document_length", len(text),
		"fields", s.Names(),
		"model", opts.Model,
		"prompt", opts.Prompt,
		"timeout", opts.Timeout)

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	candidate, err := x.inferrer.Infer(ctx, Request{
		Text:       text,
		Schema:     s,
		Model:      opts.Model,
		Prompt:     opts.Prompt,
		Parameters: opts.Parameters,
	})
	if err != nil {
		log.Debug("Inference failed", "error", err)
		return nil, err
	}
	log.Debug("Received candidate", "key_count", len(candidate))

	res, err := complete(s, candidate, log)
	if err != nil {
		log.Debug("Extraction rejected", "error", err)
		return nil, err
	}
	res.RequestID = reqID

	log.Info("Extraction completed successfully", "fields", s.Len(), "missing", res.missing)
	return res, nil
}

// Complete applies the schema to an already inferred candidate mapping:
// absent fields get their sentinel, values are coerced to the declared type
// and every rule is evaluated. It has no side effects.
func Complete(s *Schema, candidate map[string]any) (*Result, error) {
	if s.Len() == 0 {
		return nil, fmt.Errorf("complete: %w", ErrMissingSchema)
	}
	return complete(s, candidate, nil)
}

func complete(s *Schema, candidate map[string]any, log *slog.Logger) (*Result, error) {
	values := make(map[string]any, s.Len())
	var missing []string

	for _, f := range s.fields {
		raw, ok := candidate[f.Name]
		if !ok || isAbsent(f.Type, raw) {
			values[f.Name] = cloneValue(f.sentinel())
			missing = append(missing, f.Name)
			if log != nil {
				log.Debug("Substituted sentinel", "field", f.Name, "sentinel", values[f.Name])
			}
			continue
		}
		v, err := coerce(f.Type, raw)
		if err != nil {
			return nil, &ValidationError{Field: f.Name, Rule: "type", Value: raw}
		}
		values[f.Name] = v
	}

	for _, f := range s.fields {
		v := values[f.Name]
		for _, r := range f.Rules {
			if _, required := r.(requiredRule); required {
				if containsString(missing, f.Name) {
					return nil, &ValidationError{Field: f.Name, Rule: r.Name(), Value: v}
				}
				continue
			}
			if !r.Check(cloneValue(v)) {
				return nil, &ValidationError{Field: f.Name, Rule: r.Name(), Value: v}
			}
		}
	}

	if err := s.ValidateDocument(values); err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}
	return &Result{schema: s, values: values, missing: missing}, nil
}

// ExtractInto derives the schema from T, extracts and decodes into a new T.
func ExtractInto[T any](ctx context.Context, x *Extractor, text string, optFns ...func(*Options)) (*T, error) {
	s, err := SchemaOf[T]()
	if err != nil {
		return nil, fmt.Errorf("schema analysis failed: %w", err)
	}
	res, err := x.Extract(ctx, text, s, optFns...)
	if err != nil {
		return nil, err
	}
	var out T
	if err := res.Decode(&out); err != nil {
		return nil, err
	}
	return &out, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
