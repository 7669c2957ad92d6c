// Package naming maps qualified annotation names to the names written in
// canonical output, or suppresses annotations entirely.
package naming

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/canon/internal/codebase"
)

// Policy maps a raw qualified annotation name to its output name. A false
// result suppresses the annotation.
type Policy interface {
	MapName(idx codebase.Index, qualifiedName string) (string, bool)
}

// Func adapts a function to the Policy interface.
type Func func(idx codebase.Index, qualifiedName string) (string, bool)

func (f Func) MapName(idx codebase.Index, qualifiedName string) (string, bool) {
	return f(idx, qualifiedName)
}

// Identity keeps every name unchanged. Empty names are suppressed.
var Identity Policy = Func(func(_ codebase.Index, qualifiedName string) (string, bool) {
	return qualifiedName, qualifiedName != ""
})

// Rules is a configurable Policy. Rules apply in this order: Suppress,
// SuppressHidden, Keep, Rename.
type Rules struct {
	// Rename maps a qualified name to the name written instead. Renaming to
	// the empty string suppresses.
	Rename map[string]string `yaml:"rename" json:"rename"`
	// Suppress lists names that are never written. An entry ending in ".*"
	// matches every name in that package and its subpackages.
	Suppress []string `yaml:"suppress" json:"suppress"`
	// Keep, when not empty, restricts output to names matching one of these
	// patterns, using the same ".*" convention as Suppress.
	Keep []string `yaml:"keep" json:"keep"`
	// SuppressHidden drops annotations whose type resolves to a hidden or
	// removed class in the index.
	SuppressHidden bool `yaml:"suppress_hidden" json:"suppress_hidden"`
}

var _ Policy = (*Rules)(nil)

func (r *Rules) MapName(idx codebase.Index, qualifiedName string) (string, bool) {
	if qualifiedName == "" {
		return "", false
	}
	if matchAny(r.Suppress, qualifiedName) {
		return "", false
	}
	if r.SuppressHidden && idx != nil {
		if c, ok := idx.FindClass(qualifiedName); ok && c.IsHiddenOrRemoved() {
			return "", false
		}
	}
	if len(r.Keep) > 0 && !matchAny(r.Keep, qualifiedName) {
		return "", false
	}
	if to, ok := r.Rename[qualifiedName]; ok {
		if to == "" {
			return "", false
		}
		return to, true
	}
	return qualifiedName, true
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if match(p, name) {
			return true
		}
	}
	return false
}

func match(pattern, name string) bool {
	if pkg, ok := strings.CutSuffix(pattern, ".*"); ok {
		return strings.HasPrefix(name, pkg+".")
	}
	return pattern == name
}

// LoadRules reads Rules from a YAML file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("naming: read %s: %w", path, err)
	}
	return ParseRules(data)
}

// ParseRules decodes Rules from YAML.
func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("naming: parse rules: %w", err)
	}
	return &r, nil
}
