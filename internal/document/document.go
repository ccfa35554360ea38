// Package document holds the text buffers shown in editor panes.
package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/zjrosen/pumlview/internal/grammar"
)

// Document is a text buffer identified by its absolute path.
// Text and grammar may change while previews read them from other
// goroutines, so access is synchronized.
type Document struct {
	path string

	mu      sync.RWMutex
	text    string
	grammar *grammar.Grammar
	version int
}

// New creates an in-memory document. path is cleaned but not resolved
// against the working directory.
func New(path, text string, g *grammar.Grammar) *Document {
	return &Document{
		path:    filepath.Clean(path),
		text:    text,
		grammar: g,
	}
}

// Load reads path from disk and resolves its grammar with reg. A missing
// file yields an empty buffer for that path; other read errors fail.
func Load(path string, reg *grammar.Registry) (*Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	text, err := readText(abs)
	if err != nil {
		return nil, err
	}

	var g *grammar.Grammar
	if reg != nil {
		g = reg.Resolve(abs, text)
	}
	return New(abs, text, g), nil
}

func readText(path string) (string, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-opened document
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// Path returns the document identity.
func (d *Document) Path() string { return d.path }

// Title is the base name shown in tabs.
func (d *Document) Title() string {
	if base := filepath.Base(d.path); base != "." && base != string(filepath.Separator) {
		return base
	}
	return "untitled"
}

// Text returns the current buffer contents.
func (d *Document) Text() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.text
}

// Version increases on every text change.
func (d *Document) Version() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.version
}

// SetText replaces the buffer contents. It reports whether the text changed.
func (d *Document) SetText(text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.text == text {
		return false
	}
	d.text = text
	d.version++
	return true
}

// Grammar returns the content kind, nil when undetermined.
func (d *Document) Grammar() *grammar.Grammar {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.grammar
}

// SetGrammar changes the content kind.
func (d *Document) SetGrammar(g *grammar.Grammar) {
	d.mu.Lock()
	d.grammar = g
	d.mu.Unlock()
}

// Reload re-reads the file from disk. It reports whether the text changed.
func (d *Document) Reload() (bool, error) {
	text, err := readText(d.path)
	if err != nil {
		return false, err
	}
	return d.SetText(text), nil
}
