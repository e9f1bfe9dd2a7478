package extractkit

import (
	"errors"
	"fmt"
)

// ErrEmptyDocument is returned when the source document is blank.
var ErrEmptyDocument = errors.New("document text is empty")
var ErrMissingSchema = errors.New("schema is required")
var ErrDuplicateField = errors.New("duplicate field name")
var ErrInvalidField = errors.New("invalid field")
var ErrUnknownRule = errors.New("unknown rule")
var ErrUnsupportedDocument = errors.New("unsupported document type")
var ErrInvalidResponse = errors.New("invalid inference response")
var ErrModelMissing = errors.New("model not specified")

// ErrValidation matches every *ValidationError via errors.Is.
var ErrValidation = errors.New("validation failed")

// ValidationError reports a field whose value failed an attached rule.
// The type coercion step reports Rule "type".
type ValidationError struct {
	Field string
	Rule  string
	Value any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: field %q violates rule %q (value: %v)", e.Field, e.Rule, e.Value)
}

// Is lets errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
