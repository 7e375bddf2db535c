// Package lang provides a language registry mapping file extensions to
// tree-sitter grammars for the JavaScript family.
package lang

import (
	"sort"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
)

// Default is the grammar used when no file extension or override applies.
// TSX accepts plain JavaScript, TypeScript annotations and JSX alike.
const Default = "tsx"

// Language holds tree-sitter configuration for a supported language.
type Language struct {
	Name       string
	Extensions []string
	lang       *sitter.Language
}

// GetLanguage returns the tree-sitter Language pointer.
func (l *Language) GetLanguage() *sitter.Language {
	return l.lang
}

// NewParser creates a fresh tree-sitter parser for this language.
// Each goroutine must use its own parser (not thread-safe).
func (l *Language) NewParser() *sitter.Parser {
	p := sitter.NewParser()
	p.SetLanguage(l.lang)
	return p
}

// Languages maps language names to their configuration.
// Populated by init() functions in per-language files.
var Languages = map[string]*Language{}

// extensionMap is built lazily after all init() functions have run.
var extensionMap map[string]string
var extensionOnce sync.Once

func getExtensionMap() map[string]string {
	extensionOnce.Do(func() {
		extensionMap = make(map[string]string)
		for _, l := range Languages {
			for _, ext := range l.Extensions {
				extensionMap[ext] = l.Name
			}
		}
	})
	return extensionMap
}

// ForExtension returns the language name for a file extension, or "" if unsupported.
func ForExtension(ext string) string {
	return getExtensionMap()[ext]
}

// Resolve picks the language for a request: an explicit name wins, then the
// file extension, then Default. It returns nil for an unknown explicit name.
func Resolve(name, ext string) *Language {
	if name != "" {
		return Languages[name]
	}
	if byExt := ForExtension(ext); byExt != "" {
		return Languages[byExt]
	}
	return Languages[Default]
}

// Names returns the registered language names, sorted.
func Names() []string {
	names := make([]string, 0, len(Languages))
	for name := range Languages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NodeText returns the source text of a tree-sitter node.
func NodeText(node *sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}
