package extractkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Result is a completed extraction: every declared field has a value. It is
// read-only; accessors return copies.
type Result struct {
	RequestID string

	schema  *Schema
	values  map[string]any
	missing []string
}

// Schema returns the schema the result was produced against.
func (r *Result) Schema() *Schema { return r.schema }

// Names returns the field names in schema order.
func (r *Result) Names() []string { return r.schema.Names() }

// Get returns the value for name.
func (r *Result) Get(name string) (any, bool) {
	v, ok := r.values[name]
	return cloneValue(v), ok
}

// String returns a string field, or "" when the field is not a string.
func (r *Result) String(name string) string {
	s, _ := r.values[name].(string)
	return s
}

// Int returns an integer field, or 0 when the field is not an integer.
func (r *Result) Int(name string) int {
	n, _ := r.values[name].(int)
	return n
}

// Strings returns a list field, or nil when the field is not a list.
func (r *Result) Strings(name string) []string {
	l, ok := r.values[name].([]string)
	if !ok {
		return nil
	}
	return append([]string{}, l...)
}

// Missing lists the fields filled with their sentinel, in schema order.
func (r *Result) Missing() []string { return append([]string(nil), r.missing...) }

// IsMissing reports whether name was filled with its sentinel.
func (r *Result) IsMissing(name string) bool {
	for _, m := range r.missing {
		if m == name {
			return true
		}
	}
	return false
}

// Map returns a copy of the values.
func (r *Result) Map() map[string]any {
	m := make(map[string]any, len(r.values))
	for k, v := range r.values {
		m[k] = cloneValue(v)
	}
	return m
}

// Equal compares values and missing sets; request IDs are ignored.
func (r *Result) Equal(other *Result) bool {
	if r == nil || other == nil {
		return r == other
	}
	return reflect.DeepEqual(r.values, other.values) && reflect.DeepEqual(r.missing, other.missing)
}

// MarshalJSON writes the fields in schema order.
func (r *Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.schema.Names() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(r.values[name])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Decode copies the values into dst, typically a struct with matching json
// tags.
func (r *Result) Decode(dst any) error {
	raw, err := r.MarshalJSON()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
