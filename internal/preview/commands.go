package preview

import (
	"context"

	"github.com/zjrosen/pumlview/internal/document"
	"github.com/zjrosen/pumlview/internal/workspace"
)

// Command names registered on the workspace.
const (
	CommandToggle  = "plantuml-preview:toggle"
	CommandRefresh = "plantuml-preview:refresh"
)

// RegisterCommands binds the preview commands on ws.
func RegisterCommands(ws *workspace.Workspace, c *Controller) {
	ws.AddCommand(CommandToggle, func(ctx context.Context, ws *workspace.Workspace) error {
		// Render failures are shown in the view itself.
		_, err := c.Toggle(ctx, ActiveDocument(ws))
		return err
	})
	ws.AddCommand(CommandRefresh, func(ctx context.Context, ws *workspace.Workspace) error {
		doc := ActiveDocument(ws)
		if doc == nil {
			return ErrNilDocument
		}
		return c.Refresh(ctx, doc.Path())
	})
}

// ActiveDocument returns the document behind the focused item: an editor's
// document, or the document a focused preview is bound to. Nil when the
// focused pane is empty.
func ActiveDocument(ws *workspace.Workspace) *document.Document {
	switch it := ws.ActivePaneItem().(type) {
	case *workspace.Editor:
		return it.Document()
	case *View:
		return it.Document()
	}
	return nil
}
