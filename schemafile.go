package extractkit

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FieldSpec is the file representation of a Field.
type FieldSpec struct {
	Name        string    `yaml:"name" json:"name"`
	Description string    `yaml:"description" json:"description"`
	Type        string    `yaml:"type" json:"type"`
	Rules       []string  `yaml:"rules,omitempty" json:"rules,omitempty"`
	Default     yaml.Node `yaml:"default,omitempty" json:"-"`
}

type schemaFile struct {
	Fields []FieldSpec `yaml:"fields"`
}

// LoadSchemaFile reads a YAML schema declaration:
//
//	fields:
//	  - name: num_people
//	    description: The number of people on the vacation
//	    type: integer
//	    rules: [positive]
func LoadSchemaFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}
	s, err := ParseSchemaYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// ParseSchemaYAML parses a YAML schema declaration. A bare list of fields is
// accepted as well as a document with a top-level "fields" key. Unknown keys
// are rejected, so a misspelled "rules" cannot drop a rule silently.
func ParseSchemaYAML(data []byte) (*Schema, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, ErrMissingSchema
	}

	var specs []FieldSpec
	if root.Content[0].Kind == yaml.SequenceNode {
		if err := decodeStrict(data, &specs); err != nil {
			return nil, fmt.Errorf("failed to parse schema: %w", err)
		}
	} else {
		var doc schemaFile
		if err := decodeStrict(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse schema: %w", err)
		}
		specs = doc.Fields
	}
	if len(specs) == 0 {
		return nil, ErrMissingSchema
	}
	return SchemaFromSpecs(specs)
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(out)
}

// SchemaFromSpecs converts file-level declarations into a Schema.
func SchemaFromSpecs(specs []FieldSpec) (*Schema, error) {
	fields := make([]Field, 0, len(specs))
	for i, fs := range specs {
		f, err := fs.field()
		if err != nil {
			return nil, fmt.Errorf("field %d (%s): %w", i, fs.Name, err)
		}
		fields = append(fields, f)
	}
	return NewSchema(fields...)
}

func (fs FieldSpec) field() (Field, error) {
	t, err := ParseFieldType(fs.Type)
	if err != nil {
		return Field{}, err
	}
	f := Field{Name: fs.Name, Description: fs.Description, Type: t}
	for _, spec := range fs.Rules {
		r, err := ParseRule(spec)
		if err != nil {
			return Field{}, err
		}
		f.Rules = append(f.Rules, r)
	}
	if !fs.Default.IsZero() {
		var v any
		if err := fs.Default.Decode(&v); err != nil {
			return Field{}, fmt.Errorf("%w: default: %v", ErrInvalidField, err)
		}
		f.Default = v
	}
	return f, nil
}
