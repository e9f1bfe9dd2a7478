package extractkit

import "strings"

const extractTag = "extract"

// tagParts holds what may appear in `extract:"<rule>,<rule>,default=<v>"`.
type tagParts struct {
	rules        []Rule
	defaultValue string
	hasDefault   bool
}

// parseExtractTag splits the tag into rules and an optional default.
// Supports:
// - "" → no rules
// - "positive" → single rule
// - "required,max=10" → several rules
// - "default=N/A" → sentinel override (must come last; may contain commas)
func parseExtractTag(tag string) (tp tagParts, err error) {
	if tag == "" {
		return
	}
	if i := strings.Index(tag, "default="); i >= 0 {
		tp.defaultValue = tag[i+len("default="):]
		tp.hasDefault = true
		tag = strings.TrimSuffix(tag[:i], ",")
	}
	tp.rules, err = ParseRules(tag)
	return
}
