package extractkit

import (
	"fmt"
	"strconv"
	"strings"
)

// Rule is a pure predicate attached to a field. Check receives the value
// after coercion: string, int or []string depending on the field type.
type Rule interface {
	Name() string
	Check(v any) bool
}

type funcRule struct {
	name string
	fn   func(any) bool
}

func (r funcRule) Name() string      { return r.name }
func (r funcRule) Check(v any) bool { return r.fn(v) }

// RuleFunc wraps an ad-hoc predicate closure.
func RuleFunc(name string, fn func(v any) bool) Rule {
	return funcRule{name: name, fn: fn}
}

func intRule(name string, pred func(int) bool) Rule {
	return funcRule{name: name, fn: func(v any) bool {
		n, ok := v.(int)
		return ok && pred(n)
	}}
}

// Positive rejects integers <= 0.
func Positive() Rule { return intRule("positive", func(n int) bool { return n > 0 }) }

// NonNegative rejects integers < 0.
func NonNegative() Rule { return intRule("nonnegative", func(n int) bool { return n >= 0 }) }

// Min rejects integers below n.
func Min(n int) Rule {
	return intRule("min="+strconv.Itoa(n), func(v int) bool { return v >= n })
}

// Max rejects integers above n.
func Max(n int) Rule {
	return intRule("max="+strconv.Itoa(n), func(v int) bool { return v <= n })
}

// MaxItems rejects lists longer than n.
func MaxItems(n int) Rule {
	return funcRule{name: "maxitems=" + strconv.Itoa(n), fn: func(v any) bool {
		l, ok := v.([]string)
		return ok && len(l) <= n
	}}
}

// OneOf accepts only the listed strings (exact match).
func OneOf(values ...string) Rule {
	allowed := make(map[string]struct{}, len(values))
	for _, s := range values {
		allowed[s] = struct{}{}
	}
	return funcRule{name: "oneof=" + strings.Join(values, "|"), fn: func(v any) bool {
		s, ok := v.(string)
		if !ok {
			return false
		}
		_, ok = allowed[s]
		return ok
	}}
}

// requiredRule fails when the field had to be filled with its sentinel.
// It is evaluated on presence, not on the value.
type requiredRule struct{}

func (requiredRule) Name() string   { return "required" }
func (requiredRule) Check(any) bool { return true }

// NotSentinel marks a field as required: a missing value is rejected instead
// of being accepted as the sentinel.
func NotSentinel() Rule { return requiredRule{} }

// ParseRule builds a rule from its textual form as used in struct tags and
// schema files: positive, nonnegative, required, min=N, max=N, maxitems=N,
// oneof=a|b|c.
func ParseRule(spec string) (Rule, error) {
	spec = strings.TrimSpace(spec)
	name, arg, hasArg := strings.Cut(spec, "=")
	name = strings.ToLower(strings.TrimSpace(name))
	arg = strings.TrimSpace(arg)

	intArg := func() (int, error) {
		if !hasArg {
			return 0, fmt.Errorf("%w: %q needs an argument", ErrUnknownRule, spec)
		}
		n, err := strconv.Atoi(arg)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrUnknownRule, spec, err)
		}
		return n, nil
	}

	switch name {
	case "positive", "gt0":
		return Positive(), nil
	case "nonnegative", "gte0":
		return NonNegative(), nil
	case "required", "notsentinel":
		return NotSentinel(), nil
	case "min":
		n, err := intArg()
		if err != nil {
			return nil, err
		}
		return Min(n), nil
	case "max":
		n, err := intArg()
		if err != nil {
			return nil, err
		}
		return Max(n), nil
	case "maxitems":
		n, err := intArg()
		if err != nil {
			return nil, err
		}
		return MaxItems(n), nil
	case "oneof":
		if !hasArg || arg == "" {
			return nil, fmt.Errorf("%w: %q needs values", ErrUnknownRule, spec)
		}
		return OneOf(strings.Split(arg, "|")...), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRule, spec)
}

// ParseRules parses a comma separated rule list. Empty items are skipped.
func ParseRules(list string) ([]Rule, error) {
	var rules []Rule
	for _, item := range strings.Split(list, ",") {
		if strings.TrimSpace(item) == "" {
			continue
		}
		r, err := ParseRule(item)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
