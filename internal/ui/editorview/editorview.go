// Package editorview renders a document with a line-number gutter in a
// scrollable viewport.
package editorview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/pumlview/internal/document"
	"github.com/zjrosen/pumlview/internal/keys"
	"github.com/zjrosen/pumlview/internal/ui/styles"
)

// Model shows one document.
type Model struct {
	doc      *document.Document
	viewport viewport.Model
	version  int
	loaded   bool
}

// New creates a view over doc. Call SetSize before View.
func New(doc *document.Document) Model {
	vp := viewport.New(0, 0)
	vp.KeyMap = ViewportKeyMap(keys.DefaultKeyMap())
	return Model{doc: doc, viewport: vp}
}

// ViewportKeyMap maps the application scroll bindings onto a viewport.
func ViewportKeyMap(km keys.KeyMap) viewport.KeyMap {
	return viewport.KeyMap{
		Up:       km.ScrollUp,
		Down:     km.ScrollDown,
		PageUp:   km.PageUp,
		PageDown: km.PageDown,
	}
}

// Document returns the document shown.
func (m Model) Document() *document.Document {
	return m.doc
}

// SetSize resizes the viewport.
func (m Model) SetSize(width, height int) Model {
	m.viewport.Width = width
	m.viewport.Height = height
	return m.Sync()
}

// Sync reloads the text when the document changed since the last call.
func (m Model) Sync() Model {
	if m.loaded && m.doc.Version() == m.version {
		return m
	}
	m.version = m.doc.Version()
	m.loaded = true
	m.viewport.SetContent(Numbered(m.doc.Text()))
	return m
}

// Update handles scrolling.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the visible lines.
func (m Model) View() string {
	return m.viewport.View()
}

// ScrollPercent reports how far the view is scrolled.
func (m Model) ScrollPercent() float64 {
	return m.viewport.ScrollPercent()
}

// Numbered prefixes each line with a right-aligned line number. An empty
// document shows a single numbered empty line.
func Numbered(text string) string {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	width := len(fmt.Sprint(len(lines)))

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(styles.LineNumberStyle.Render(fmt.Sprintf("%*d ", width, i+1)))
		b.WriteString(strings.ReplaceAll(line, "\t", "    "))
	}
	return b.String()
}
