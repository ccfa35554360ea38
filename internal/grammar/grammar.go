// Package grammar classifies documents by syntax so features such as the
// diagram preview can decide whether they apply.
package grammar

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Well-known scope names.
const (
	ScopePlantUML  = "source.plantuml"
	ScopePlainText = "text.plain"
	ScopeNull      = "text.plain.null-grammar"
)

// Grammar describes one syntax.
type Grammar struct {
	ScopeName  string
	Name       string
	Extensions []string // without leading dot, lower case
	FirstLine  *regexp.Regexp
}

// Null is assigned to documents no registered grammar claims.
var Null = &Grammar{ScopeName: ScopeNull, Name: "Null Grammar"}

// Builtins returns the grammars pumlview registers at startup.
func Builtins() []*Grammar {
	return []*Grammar{
		{
			ScopeName:  ScopePlantUML,
			Name:       "PlantUML",
			Extensions: []string{"puml", "plantuml", "pu", "iuml", "wsd"},
			FirstLine:  regexp.MustCompile(`^\s*@start(uml|mindmap|gantt|wbs|salt|json|yaml|ditaa|dot)\b`),
		},
		{ScopeName: ScopePlainText, Name: "Plain Text", Extensions: []string{"txt", "text"}},
		{ScopeName: "source.gfm", Name: "GitHub Markdown", Extensions: []string{"md", "markdown"}},
		{ScopeName: "source.go", Name: "Go", Extensions: []string{"go"}},
		{ScopeName: "source.json", Name: "JSON", Extensions: []string{"json"}},
		{ScopeName: "source.yaml", Name: "YAML", Extensions: []string{"yaml", "yml"}},
	}
}

// Registry resolves paths to grammars. It is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	byScope map[string]*Grammar
	byExt   map[string]*Grammar
	ordered []*Grammar
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byScope: make(map[string]*Grammar),
		byExt:   make(map[string]*Grammar),
	}
}

// NewDefaultRegistry creates a registry holding Builtins.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, g := range Builtins() {
		_ = r.Register(g)
	}
	return r
}

// Register adds g, replacing any grammar with the same scope. Extensions
// claimed by an earlier grammar move to g.
func (r *Registry) Register(g *Grammar) error {
	if g == nil || g.ScopeName == "" {
		return fmt.Errorf("grammar scope name is required")
	}
	if g.ScopeName == ScopeNull {
		return fmt.Errorf("%s is reserved", ScopeNull)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byScope[g.ScopeName]; ok {
		for _, ext := range old.Extensions {
			if r.byExt[ext] == old {
				delete(r.byExt, ext)
			}
		}
		for i, o := range r.ordered {
			if o == old {
				r.ordered = append(r.ordered[:i], r.ordered[i+1:]...)
				break
			}
		}
	}

	norm := make([]string, 0, len(g.Extensions))
	for _, ext := range g.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if ext == "" {
			continue
		}
		norm = append(norm, ext)
		r.byExt[ext] = g
	}
	g.Extensions = norm
	r.byScope[g.ScopeName] = g
	r.ordered = append(r.ordered, g)
	return nil
}

// Lookup returns the grammar registered under scope.
func (r *Registry) Lookup(scope string) (*Grammar, bool) {
	if scope == ScopeNull {
		return Null, true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.byScope[scope]
	return g, ok
}

// Scopes lists registered scope names in sorted order.
func (r *Registry) Scopes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	scopes := make([]string, 0, len(r.byScope))
	for s := range r.byScope {
		scopes = append(scopes, s)
	}
	sort.Strings(scopes)
	return scopes
}

// Resolve picks the grammar for a document. The extension wins; otherwise
// the first line of content is matched against grammars that declare a
// FirstLine pattern. Unclaimed documents get Null.
func (r *Registry) Resolve(path, content string) *Grammar {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if g, ok := r.byExt[ext]; ok && ext != "" {
		return g
	}

	first := content
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	for _, g := range r.ordered {
		if g.FirstLine != nil && g.FirstLine.MatchString(first) {
			return g
		}
	}
	return Null
}

// Scope returns g's scope name, treating nil as the null grammar.
func Scope(g *Grammar) string {
	if g == nil {
		return ScopeNull
	}
	return g.ScopeName
}
