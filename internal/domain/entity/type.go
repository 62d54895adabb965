package entity

import (
	"fmt"
	"regexp"
	"strings"
)

// typeSeparator joins a feature class and code into a type id.
const typeSeparator = "."

var filterRegex = regexp.MustCompile(`^[A-Z](\.[A-Z0-9]*)?$`)

// Type is the hierarchical (featureClass, featureCode) pair.
type Type struct {
	class FeatureClass
	code  string
}

// NewType creates a type from its parts. The code is upper-cased.
func NewType(class FeatureClass, code string) Type {
	return Type{class: class, code: strings.ToUpper(strings.TrimSpace(code))}
}

// ParseType parses "P.PPLC" or "P" into a Type.
func ParseType(id string) (Type, error) {
	classPart, code, _ := strings.Cut(id, typeSeparator)
	class, ok := ParseClass(classPart)
	if !ok {
		return Type{}, fmt.Errorf("unknown feature class %q", classPart)
	}
	return NewType(class, code), nil
}

// Class returns the feature class.
func (t Type) Class() FeatureClass { return t.class }

// Code returns the feature code (may be empty).
func (t Type) Code() string { return t.code }

// ID returns the wire identifier, e.g. "P.PPLC".
func (t Type) ID() string {
	if t.code == "" {
		return string(t.class)
	}
	return string(t.class) + typeSeparator + t.code
}

// Name returns a display label, e.g. "PPLC (City, village)".
func (t Type) Name() string {
	if t.code == "" {
		return t.class.Name()
	}
	return t.code + " (" + t.class.Name() + ")"
}

// MatchesAny reports whether the type id starts with any of the prefixes.
// An empty prefix list matches everything.
func (t Type) MatchesAny(prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	id := t.ID()
	for _, p := range prefixes {
		if strings.HasPrefix(id, p) {
			return true
		}
	}
	return false
}

// ParseFilter validates a type filter prefix ("P", "P.", "P.PPL").
// The class letter must belong to the enumeration.
func ParseFilter(raw string) (string, error) {
	f := strings.ToUpper(strings.TrimSpace(raw))
	if !filterRegex.MatchString(f) {
		return "", fmt.Errorf("malformed type filter %q", raw)
	}
	if !FeatureClass(f[:1]).IsValid() {
		return "", fmt.Errorf("unknown feature class in type filter %q", raw)
	}
	return f, nil
}
