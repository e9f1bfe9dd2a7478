package extractkit

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/tyler-sommer/stick"
)

// DefaultPromptTag names the built-in extraction template.
const DefaultPromptTag = "extract"

const defaultExtractTemplate = `From the following text, extract the following information:

{{ field_list }}

Format the output as JSON with the following keys:
{{ key_list }}

text: {{ document }}

{{ format_instructions }}`

// PromptProvider should return the prompt template text for the given tag
type PromptProvider interface {
	GetPrompt(tag string, version int) (string, error)
}

// PromptContext is what a template can refer to when it is rendered.
type PromptContext struct {
	Document           string
	Keys               []string
	FormatInstructions string
	Fields             []Field
}

func newPromptContext(doc string, s *Schema) PromptContext {
	return PromptContext{
		Document:           doc,
		Keys:               s.Names(),
		FormatInstructions: s.FormatInstructions(),
		Fields:             s.Fields(),
	}
}

// ContextualPromptProvider extends PromptProvider to support template variables.
type ContextualPromptProvider interface {
	PromptProvider
	GetPromptWithContext(tag string, version int, pc PromptContext) (string, error)
}

// → StickPromptProvider is fs-agnostic
type StickPromptProvider struct {
	env       *stick.Env
	templates map[string]string
	vars      map[string]stick.Value // Template variables
}

// → Option pattern keeps the constructor flexible
type Option func(*StickPromptProvider) error

// WithFS loads every *.twig file found under dir in the supplied FS.
func WithFS[F fs.FS](fsys F, dir string) Option {
	return func(p *StickPromptProvider) error {
		return fs.WalkDir(fsys, dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".twig") {
				return nil
			}
			content, readErr := fs.ReadFile(fsys, path)
			if readErr != nil {
				return fmt.Errorf("read %s: %w", path, readErr)
			}
			tag := strings.TrimSuffix(filepath.Base(path), ".twig")
			p.templates[tag] = string(content)
			return nil
		})
	}
}

// WithTemplates lets you inject an in-memory map.
func WithTemplates(m map[string]string) Option {
	return func(p *StickPromptProvider) error {
		for k, v := range m {
			p.templates[k] = v
		}
		return nil
	}
}

// WithVar adds a variable that will be available in all templates
func WithVar(key string, value any) Option {
	return func(p *StickPromptProvider) error {
		p.vars[key] = value
		return nil
	}
}

// NewStickPromptProvider builds a provider from any combination of options.
// The built-in "extract" template is always present unless overridden.
func NewStickPromptProvider(opts ...Option) (*StickPromptProvider, error) {
	p := &StickPromptProvider{
		env:       stick.New(nil),
		templates: map[string]string{DefaultPromptTag: defaultExtractTemplate},
		vars:      make(map[string]stick.Value),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// DefaultPrompts returns a provider holding only the built-in template.
func DefaultPrompts() *StickPromptProvider {
	p, _ := NewStickPromptProvider()
	return p
}

// AddTemplate updates or inserts one template.
func (p *StickPromptProvider) AddTemplate(tag, tpl string) { p.templates[tag] = tpl }

// GetPrompt renders the template for the given tag with the custom variables.
func (p *StickPromptProvider) GetPrompt(tag string, version int) (string, error) {
	return p.render(tag, version, nil)
}

// GetPromptWithContext renders the template with the extraction context.
func (p *StickPromptProvider) GetPromptWithContext(tag string, version int, pc PromptContext) (string, error) {
	fields := make([]map[string]stick.Value, len(pc.Fields))
	lines := make([]string, len(pc.Fields))
	for i, f := range pc.Fields {
		desc := collapseSpace(f.Description)
		fields[i] = map[string]stick.Value{
			"Name":        f.Name,
			"Description": desc,
			"Type":        string(f.Type),
		}
		lines[i] = f.Name + ": " + desc
	}
	return p.render(tag, version, map[string]stick.Value{
		"document":            pc.Document,
		"Document":            pc.Document,
		"keys":                pc.Keys,
		"key_list":            strings.Join(pc.Keys, "\n"),
		"KeyList":             strings.Join(pc.Keys, ", "),
		"format_instructions": pc.FormatInstructions,
		"fields":              fields,
		"field_list":          strings.Join(lines, "\n"),
	})
}

func (p *StickPromptProvider) render(tag string, version int, extra map[string]stick.Value) (string, error) {
	tpl, ok := p.templates[tag]
	if !ok {
		return "", fmt.Errorf("template %q not found", tag)
	}

	templateCtx := make(map[string]stick.Value, len(p.vars)+len(extra)+4)
	templateCtx["version"] = version
	templateCtx["Version"] = version
	templateCtx["tag"] = tag
	templateCtx["Tag"] = tag
	for k, v := range extra {
		templateCtx[k] = v
	}
	// Custom variables win so callers can pin values in tests.
	for k, v := range p.vars {
		templateCtx[k] = v
	}

	var out strings.Builder
	if err := p.env.Execute(tpl, &out, templateCtx); err != nil {
		return "", fmt.Errorf("execute %q: %w", tag, err)
	}
	return out.String(), nil
}

// → SimplePromptProvider substitutes {{.Keys}}, {{.Document}} and
// {{.FormatInstructions}} without a template engine.
type SimplePromptProvider map[string]string

func (s SimplePromptProvider) GetPrompt(tag string, version int) (string, error) {
	if tpl, ok := s[tag]; ok {
		return tpl, nil
	}
	return "", fmt.Errorf("prompt %q not found", tag)
}
