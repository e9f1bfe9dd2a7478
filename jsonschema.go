package extractkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// compiledSchema lazily compiles s.JSONSchema() once per Schema.
type compiledSchema struct {
	once sync.Once
	js   *jsonschema.Schema
	err  error
}

func (s *Schema) compiled() (*jsonschema.Schema, error) {
	c := s.jsc
	if c == nil {
		c = &compiledSchema{}
	}
	c.once.Do(func() {
		raw, err := json.Marshal(s.JSONSchema())
		if err != nil {
			c.err = fmt.Errorf("failed to serialize schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		compiler.Draft = jsonschema.Draft2020
		if err := compiler.AddResource("schema.json", bytes.NewReader(raw)); err != nil {
			c.err = fmt.Errorf("failed to load schema: %w", err)
			return
		}
		c.js, c.err = compiler.Compile("schema.json")
		if c.err != nil {
			c.err = fmt.Errorf("failed to compile schema: %w", c.err)
		}
	})
	return c.js, c.err
}

// ValidateDocument checks a completed record against the schema's JSON Schema.
func (s *Schema) ValidateDocument(values map[string]any) error {
	js, err := s.compiled()
	if err != nil {
		return err
	}
	// Round-trip so the validator sees plain JSON types ([]any, float64).
	raw, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to decode record: %w", err)
	}
	if err := js.Validate(doc); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
