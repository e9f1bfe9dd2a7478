package extractkit

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldType is the declared type of an extracted field.
type FieldType string

const (
	String     FieldType = "string"
	Integer    FieldType = "integer"
	StringList FieldType = "list-of-string"
)

// SentinelString is substituted for string fields that inference did not find.
const SentinelString = "unknown"

var fieldNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// notFoundMarkers are textual answers that mean "absent" (compared lowercased).
var notFoundMarkers = map[string]struct{}{
	"":        {},
	"unknown": {},
	"n/a":     {},
	"na":      {},
	"none":    {},
	"null":    {},
}

// ParseFieldType accepts the canonical names plus a few common aliases.
func ParseFieldType(s string) (FieldType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "string", "str", "text":
		return String, nil
	case "integer", "int", "number":
		return Integer, nil
	case "list-of-string", "list", "[]string", "strings", "string_list":
		return StringList, nil
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidField, s)
}

func (t FieldType) valid() bool {
	switch t {
	case String, Integer, StringList:
		return true
	}
	return false
}

// Sentinel returns the fixed "not found" placeholder for the type.
func (t FieldType) Sentinel() any {
	switch t {
	case Integer:
		return 0
	case StringList:
		return []string{}
	default:
		return SentinelString
	}
}

// jsonType is the JSON Schema type keyword for t.
func (t FieldType) jsonType() string {
	switch t {
	case Integer:
		return "integer"
	case StringList:
		return "array"
	default:
		return "string"
	}
}

// Field describes one named value an extraction must produce.
type Field struct {
	Name        string
	Description string
	Type        FieldType
	Rules       []Rule
	// Default overrides the type sentinel when set.
	Default any
}

// sentinel is the value substituted when the field is absent.
func (f Field) sentinel() any {
	if f.Default != nil {
		return f.Default
	}
	return f.Type.Sentinel()
}

// normalize validates f and returns a copy with the default coerced to the
// declared type and the rule slice detached from the caller's.
func (f Field) normalize() (Field, error) {
	if !fieldNamePattern.MatchString(f.Name) {
		return f, fmt.Errorf("%w: bad name %q", ErrInvalidField, f.Name)
	}
	if !f.Type.valid() {
		return f, fmt.Errorf("%w: field %q has unknown type %q", ErrInvalidField, f.Name, f.Type)
	}
	if f.Default != nil {
		v, err := coerce(f.Type, f.Default)
		if err != nil {
			return f, fmt.Errorf("%w: field %q default %v does not match type %s", ErrInvalidField, f.Name, f.Default, f.Type)
		}
		f.Default = v
	}
	for i, r := range f.Rules {
		if r == nil {
			return f, fmt.Errorf("%w: field %q rule %d is nil", ErrInvalidField, f.Name, i)
		}
	}
	f.Rules = append([]Rule(nil), f.Rules...)
	return f, nil
}

func isNotFoundMarker(s string) bool {
	_, ok := notFoundMarkers[strings.ToLower(strings.TrimSpace(s))]
	return ok
}
