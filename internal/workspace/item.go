package workspace

import "github.com/zjrosen/pumlview/internal/document"

// Item is anything a pane can hold.
type Item interface {
	ItemID() string
	Title() string
}

// Destroyer is implemented by items that release resources when their
// pane drops them.
type Destroyer interface {
	Destroy()
}

// Editor is the pane item showing a document's text.
type Editor struct {
	doc *document.Document
}

// NewEditor wraps doc in an editor item.
func NewEditor(doc *document.Document) *Editor {
	return &Editor{doc: doc}
}

func (e *Editor) ItemID() string { return "editor:" + e.doc.Path() }

func (e *Editor) Title() string { return e.doc.Title() }

// Document returns the edited document.
func (e *Editor) Document() *document.Document { return e.doc }
