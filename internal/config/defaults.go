// Package config provides configuration handling for canon.
package config

import "github.com/jward/canon/internal/naming"

// DefaultRules returns the default naming rules: annotations from the
// support library are renamed to their androidx equivalents.
func DefaultRules() naming.Rules {
	return naming.Rules{
		Rename: map[string]string{
			"android.support.annotation.NonNull":  "androidx.annotation.NonNull",
			"android.support.annotation.Nullable": "androidx.annotation.Nullable",
		},
	}
}

// DefaultOptions returns default canonicalization options.
func DefaultOptions() Options {
	return Options{
		DefaultAttribute: "value",
		Workers:          0, // runtime.NumCPU()
		Risor:            true,
		EvalTimeout:      "250ms",
		MaxDepth:         32,
		Extensions:       []string{".java"},
		ExcludeDirs:      []string{".git", "build", "out", "node_modules"},
	}
}
