package preview

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/zjrosen/pumlview/internal/document"
	"github.com/zjrosen/pumlview/internal/render"
)

// ErrNothingToExport is returned when a view has no successful render yet.
var ErrNothingToExport = errors.New("preview has no output to export")

// ExportPath is where Export writes v's output inside dir: the document's
// base name with the output format's extension.
func ExportPath(v *View, dir string) (string, error) {
	out := v.Output()
	if out == nil {
		return "", ErrNothingToExport
	}
	return ExportTarget(v.Document(), out.Format, dir), nil
}

// ExportTarget is the file a render of doc in format f is exported to
// inside dir.
func ExportTarget(doc *document.Document, f render.Format, dir string) string {
	name := doc.Title()
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(dir, name+"."+f.Extension())
}

// Export writes the last successful output of v into dir and returns the
// file written.
func Export(v *View, dir string) (string, error) {
	path, err := ExportPath(v, dir)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}
	if err := os.WriteFile(path, v.Output().Data, 0o644); err != nil { //nolint:gosec // exported diagrams are meant to be shared
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}
