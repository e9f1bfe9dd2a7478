package extractkit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// buildPrompt fills the placeholders understood by basic providers. When the
// template has no document placeholder the document is appended.
func buildPrompt(tpl string, pc PromptContext) string {
	slog.Debug("starting prompt construction", "template_length", len(tpl), "keys_count", len(pc.Keys), "document_length", len(pc.Document))

	tpl = strings.ReplaceAll(tpl, "{{.Keys}}", strings.Join(pc.Keys, ","))
	tpl = strings.ReplaceAll(tpl, "{{.FormatInstructions}}", pc.FormatInstructions)
	if strings.Contains(tpl, "{{.Document}}") {
		return strings.ReplaceAll(tpl, "{{.Document}}", pc.Document)
	}

	finalPrompt := tpl + "\n\n<<DOC>>\n" + pc.Document + "\n<<END>>"
	slog.Debug("constructed final prompt", "final_prompt_length", len(finalPrompt))
	return finalPrompt
}

// SanitizeJSONResponse removes garbage characters often produced by LLMs.
func SanitizeJSONResponse(b []byte) []byte {
	s := strings.TrimSpace(string(b))

	// Remove leading/trailing code fences, markdown, etc.
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}

// ParseCandidate decodes a model reply into a candidate mapping. It accepts a
// bare JSON object, a fenced one, or an object embedded in surrounding prose.
// Numbers are kept as json.Number.
func ParseCandidate(raw []byte) (map[string]any, error) {
	candidates := [][]byte{SanitizeJSONResponse(raw)}
	if obj := extractJSONObject(raw); obj != nil {
		candidates = append(candidates, obj)
	}

	var lastErr error
	for _, c := range candidates {
		if len(c) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(c))
		dec.UseNumber()
		var m map[string]any
		if err := dec.Decode(&m); err != nil {
			lastErr = err
			continue
		}
		if m == nil {
			lastErr = fmt.Errorf("reply is not a JSON object")
			continue
		}
		return m, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("empty reply")
	}
	return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, lastErr)
}

// extractJSONObject returns the span from the first '{' to the last '}'.
func extractJSONObject(raw []byte) []byte {
	start := bytes.IndexByte(raw, '{')
	end := bytes.LastIndexByte(raw, '}')
	if start < 0 || end <= start {
		return nil
	}
	return bytes.TrimSpace(raw[start : end+1])
}
