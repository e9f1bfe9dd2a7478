package extractkit

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Schema is an ordered, immutable list of field descriptors.
type Schema struct {
	fields []Field
	index  map[string]int
	jsc    *compiledSchema
}

// NewSchema validates the fields and returns a schema preserving their order.
func NewSchema(fields ...Field) (*Schema, error) {
	s := &Schema{
		fields: make([]Field, 0, len(fields)),
		index:  make(map[string]int, len(fields)),
		jsc:    &compiledSchema{},
	}
	for _, f := range fields {
		nf, err := f.normalize()
		if err != nil {
			return nil, err
		}
		if _, dup := s.index[nf.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateField, nf.Name)
		}
		s.index[nf.Name] = len(s.fields)
		s.fields = append(s.fields, nf)
	}
	return s, nil
}

// MustSchema is NewSchema that panics; intended for package-level vars.
func MustSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of declared fields. A nil schema has none.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// Fields returns a copy of the descriptors in declaration order.
func (s *Schema) Fields() []Field {
	if s == nil {
		return nil
	}
	return append([]Field(nil), s.fields...)
}

// Names returns the field names in declaration order.
func (s *Schema) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.fields))
	for i, f := range s.fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a descriptor by name.
func (s *Schema) Field(name string) (Field, bool) {
	if s == nil {
		return Field{}, false
	}
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// FormatInstructions renders the instruction block sent to the model, listing
// every field with its type and description.
func (s *Schema) FormatInstructions() string {
	var b strings.Builder
	b.WriteString("The output should be a markdown code snippet formatted in the following schema, ")
	b.WriteString("including the leading and trailing \"```json\" and \"```\":\n\n")
	b.WriteString("```json\n{\n")
	for i, f := range s.Fields() {
		fmt.Fprintf(&b, "\t%q: %s", f.Name, instructionType(f.Type))
		if i < s.Len()-1 {
			b.WriteString(",")
		}
		if f.Description != "" {
			fmt.Fprintf(&b, "  // %s", collapseSpace(f.Description))
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n```\n")
	b.WriteString("If a value is not present in the text, use null.")
	return b.String()
}

func instructionType(t FieldType) string {
	switch t {
	case Integer:
		return "integer"
	case StringList:
		return "array of strings"
	default:
		return "string"
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// JSONSchema returns a JSON Schema document describing the completed record:
// every field required, no additional properties.
func (s *Schema) JSONSchema() map[string]any {
	props := make(map[string]any, s.Len())
	for _, f := range s.Fields() {
		p := map[string]any{"type": f.Type.jsonType()}
		if f.Type == StringList {
			p["items"] = map[string]any{"type": "string"}
		}
		if f.Description != "" {
			p["description"] = collapseSpace(f.Description)
		}
		props[f.Name] = p
	}
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"type":                 "object",
		"properties":           props,
		"required":             s.Names(),
		"additionalProperties": false,
	}
}

// JSONSchemaBytes is JSONSchema encoded as indented JSON.
func (s *Schema) JSONSchemaBytes() ([]byte, error) {
	return json.MarshalIndent(s.JSONSchema(), "", "  ")
}

// SchemaBuilder assembles a Schema fluently; the first error is reported by Build.
type SchemaBuilder struct {
	fields []Field
	err    error
}

// NewSchemaBuilder starts an empty builder.
func NewSchemaBuilder() *SchemaBuilder { return &SchemaBuilder{} }

// Add appends an arbitrary field descriptor.
func (b *SchemaBuilder) Add(f Field) *SchemaBuilder {
	b.fields = append(b.fields, f)
	return b
}

func (b *SchemaBuilder) String(name, description string, rules ...Rule) *SchemaBuilder {
	return b.Add(Field{Name: name, Description: description, Type: String, Rules: rules})
}

func (b *SchemaBuilder) Integer(name, description string, rules ...Rule) *SchemaBuilder {
	return b.Add(Field{Name: name, Description: description, Type: Integer, Rules: rules})
}

func (b *SchemaBuilder) StringList(name, description string, rules ...Rule) *SchemaBuilder {
	return b.Add(Field{Name: name, Description: description, Type: StringList, Rules: rules})
}

// Rules appends rules parsed from text to the most recently added field.
func (b *SchemaBuilder) Rules(list string) *SchemaBuilder {
	if b.err != nil {
		return b
	}
	if len(b.fields) == 0 {
		b.err = fmt.Errorf("%w: Rules called before any field", ErrInvalidField)
		return b
	}
	rules, err := ParseRules(list)
	if err != nil {
		b.err = err
		return b
	}
	last := &b.fields[len(b.fields)-1]
	last.Rules = append(last.Rules, rules...)
	return b
}

// Build validates and returns the schema.
func (b *SchemaBuilder) Build() (*Schema, error) {
	if b.err != nil {
		return nil, b.err
	}
	return NewSchema(b.fields...)
}

// MustBuild is Build that panics on error.
func (b *SchemaBuilder) MustBuild() *Schema {
	s, err := b.Build()
	if err != nil {
		panic(err)
	}
	return s
}

// SchemaOf derives a schema from the exported fields of struct T. The json
// tag gives the name, desc the description and extract the rules.
//
//	type VacationInfo struct {
//	    LeaveTime string `json:"leave_time" desc:"When they are leaving"`
//	    NumPeople int    `json:"num_people" desc:"Number of travellers" extract:"positive"`
//	}
func SchemaOf[T any]() (*Schema, error) {
	var zero T
	rt := reflect.TypeOf(zero)
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("extractkit: T must be struct")
	}

	var fields []Field
	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if sf.Anonymous || !sf.IsExported() {
			continue
		}
		name := strings.Split(sf.Tag.Get("json"), ",")[0]
		if name == "-" {
			continue
		}
		if name == "" {
			name = sf.Name
		}
		typ, err := fieldTypeOf(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", rt.Name(), sf.Name, err)
		}
		tp, err := parseExtractTag(sf.Tag.Get(extractTag))
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", rt.Name(), sf.Name, err)
		}
		f := Field{
			Name:        name,
			Description: sf.Tag.Get("desc"),
			Type:        typ,
			Rules:       append(rangeRules(sf.Type), tp.rules...),
		}
		if tp.hasDefault {
			f.Default = tp.defaultValue
		}
		fields = append(fields, f)
	}
	return NewSchema(fields...)
}

func fieldTypeOf(t reflect.Type) (FieldType, error) {
	switch t.Kind() {
	case reflect.String:
		return String, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Integer, nil
	case reflect.Slice:
		if t.Elem().Kind() == reflect.String {
			return StringList, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported Go type %s", ErrInvalidField, t)
}

// rangeRules bounds integer fields whose Go kind is narrower than int.
func rangeRules(t reflect.Type) []Rule {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32:
		bits := t.Bits()
		if bits >= strconv.IntSize {
			return nil
		}
		hi := int64(1)<<(bits-1) - 1
		return []Rule{Min(int(-hi - 1)), Max(int(hi))}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		rules := []Rule{NonNegative()}
		if bits := t.Bits(); bits < strconv.IntSize {
			rules = append(rules, Max(int(uint64(1)<<bits-1)))
		}
		return rules
	}
	return nil
}
