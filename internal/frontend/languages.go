package frontend

import (
	"path/filepath"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// extToLanguage maps file extensions to canonical language names.
var extToLanguage = map[string]string{
	".java": "java",
}

// Grammars are lazily initialized on first use.
var (
	javaGrammar  *sitter.Language
	grammarsOnce sync.Once
)

func grammar() *sitter.Language {
	grammarsOnce.Do(func() {
		javaGrammar = java.GetLanguage()
	})
	return javaGrammar
}

// LanguageForFile returns the canonical language name for a file path based
// on its extension. Returns ("", false) if the extension is not recognized.
func LanguageForFile(path string) (string, bool) {
	lang, ok := extToLanguage[strings.ToLower(filepath.Ext(path))]
	return lang, ok
}
