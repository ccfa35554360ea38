// Package workspace models the editor's display surface: side-by-side
// panes of items, one active pane, and a command registry.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	"github.com/zjrosen/pumlview/internal/document"
	"github.com/zjrosen/pumlview/internal/grammar"
	"github.com/zjrosen/pumlview/internal/log"
)

var (
	// ErrUnknownCommand is returned by Dispatch for unregistered names.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrItemNotFound is returned when an item is in no pane.
	ErrItemNotFound = errors.New("item not in any pane")
	// ErrItemPresent is returned when presenting an item twice.
	ErrItemPresent = errors.New("item already presented")
)

// CommandFunc runs a dispatched command against the workspace.
type CommandFunc func(ctx context.Context, ws *Workspace) error

// Workspace owns panes and their items.
type Workspace struct {
	grammars *grammar.Registry
	load     func(path string, reg *grammar.Registry) (*document.Document, error)

	mu     sync.RWMutex
	panes  []*Pane
	active *Pane

	cmdMu    sync.RWMutex
	commands map[string]CommandFunc
}

// New creates a workspace with one empty, active pane. reg resolves the
// grammar of opened documents; nil leaves grammars undetermined.
func New(reg *grammar.Registry) *Workspace {
	w := &Workspace{
		grammars: reg,
		load:     document.Load,
		commands: make(map[string]CommandFunc),
	}
	first := &Pane{ws: w}
	w.panes = []*Pane{first}
	w.active = first
	return w
}

// Grammars returns the registry used to classify documents.
func (w *Workspace) Grammars() *grammar.Registry { return w.grammars }

// Panes returns the panes left to right.
func (w *Workspace) Panes() []*Pane {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]*Pane(nil), w.panes...)
}

// ActivePane returns the focused pane.
func (w *Workspace) ActivePane() *Pane {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active
}

// ActivePaneItem returns the active item of the focused pane.
func (w *Workspace) ActivePaneItem() Item {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.active.activeItemLocked()
}

// FocusNextPane moves focus right by delta panes, wrapping around.
func (w *Workspace) FocusNextPane(delta int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	n := len(w.panes)
	w.active = w.panes[((w.active.index+delta)%n+n)%n]
}

// PaneFor returns the pane holding item.
func (w *Workspace) PaneFor(item Item) (*Pane, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p, _ := w.locateLocked(item)
	return p, p != nil
}

func (w *Workspace) locateLocked(item Item) (*Pane, int) {
	for _, p := range w.panes {
		if i := p.indexOfLocked(item); i >= 0 {
			return p, i
		}
	}
	return nil, -1
}

// Documents returns every document open in an editor, sorted by path.
func (w *Workspace) Documents() []*document.Document {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var docs []*document.Document
	for _, p := range w.panes {
		for _, it := range p.items {
			if e, ok := it.(*Editor); ok {
				docs = append(docs, e.Document())
			}
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path() < docs[j].Path() })
	return docs
}

// Document returns the open document at path.
func (w *Workspace) Document(path string) (*document.Document, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if e := w.editorLocked(path); e != nil {
		return e.Document(), true
	}
	return nil, false
}

func (w *Workspace) editorLocked(path string) *Editor {
	for _, p := range w.panes {
		for _, it := range p.items {
			if e, ok := it.(*Editor); ok && e.Document().Path() == path {
				return e
			}
		}
	}
	return nil
}

// OpenDocument opens path in the active pane, or re-activates the editor
// already showing it.
func (w *Workspace) OpenDocument(ctx context.Context, path string) (*document.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", path, err)
	}

	w.mu.Lock()
	if e := w.editorLocked(abs); e != nil {
		w.activateLocked(e)
		w.mu.Unlock()
		return e.Document(), nil
	}
	w.mu.Unlock()

	doc, err := w.load(abs, w.grammars)
	if err != nil {
		log.ErrorErr(log.CatWorkspace, "open failed", err, "path", abs)
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	// Another caller may have opened the same path while we were reading.
	if e := w.editorLocked(abs); e != nil {
		w.activateLocked(e)
		return e.Document(), nil
	}
	w.active.addLocked(NewEditor(doc))
	log.Debug(log.CatWorkspace, "opened document", "path", abs, "grammar", grammar.Scope(doc.Grammar()))
	return doc, nil
}

// activateLocked focuses item and its pane.
func (w *Workspace) activateLocked(item Item) {
	if p, i := w.locateLocked(item); p != nil {
		p.active = i
		w.active = p
	}
}

// PresentInSecondaryPane shows item in the pane right of the first one,
// splitting it off when needed. The item becomes that pane's active item;
// workspace focus does not move.
func (w *Workspace) PresentInSecondaryPane(ctx context.Context, item Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if p, _ := w.locateLocked(item); p != nil {
		return fmt.Errorf("%s: %w", item.ItemID(), ErrItemPresent)
	}
	if len(w.panes) < 2 {
		w.panes = append(w.panes, &Pane{ws: w, index: len(w.panes)})
	}
	w.panes[1].addLocked(item)
	log.Debug(log.CatWorkspace, "presented item", "item", item.ItemID(), "pane", 1)
	return nil
}

// DestroyFromPane removes item from its pane and destroys it. The pane
// stays even when emptied; if it had focus, focus returns to the first pane.
func (w *Workspace) DestroyFromPane(ctx context.Context, item Item) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	p, i := w.locateLocked(item)
	if p == nil {
		w.mu.Unlock()
		return fmt.Errorf("%s: %w", item.ItemID(), ErrItemNotFound)
	}
	p.removeLocked(i)
	if w.active == p && len(p.items) == 0 && len(w.panes) > 1 {
		w.active = w.panes[0]
	}
	w.mu.Unlock()

	if d, ok := item.(Destroyer); ok {
		d.Destroy()
	}
	log.Debug(log.CatWorkspace, "destroyed item", "item", item.ItemID(), "pane", p.index)
	return nil
}

// AddCommand registers fn under name, replacing any previous binding.
func (w *Workspace) AddCommand(name string, fn CommandFunc) {
	w.cmdMu.Lock()
	w.commands[name] = fn
	w.cmdMu.Unlock()
}

// Commands lists registered command names in sorted order.
func (w *Workspace) Commands() []string {
	w.cmdMu.RLock()
	defer w.cmdMu.RUnlock()
	names := make([]string, 0, len(w.commands))
	for n := range w.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs the command registered under name.
func (w *Workspace) Dispatch(ctx context.Context, name string) error {
	w.cmdMu.RLock()
	fn, ok := w.commands[name]
	w.cmdMu.RUnlock()
	if !ok {
		return fmt.Errorf("%s: %w", name, ErrUnknownCommand)
	}
	return fn(ctx, w)
}
