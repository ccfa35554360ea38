package app

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/pumlview/internal/log"
	"github.com/zjrosen/pumlview/internal/preview"
	"github.com/zjrosen/pumlview/internal/render"
)

// dispatchCmd runs a workspace command. Host calls and renders block, so
// commands never run on the update loop.
func (m Model) dispatchCmd(name string) tea.Cmd {
	ws := m.svc.Workspace
	ctx := m.ctx
	return func() tea.Msg {
		err := ws.Dispatch(ctx, name)
		return commandDoneMsg{name: name, err: err}
	}
}

func (m Model) openFilesCmd(files []string) tea.Cmd {
	ws := m.svc.Workspace
	ctx := m.ctx
	return func() tea.Msg {
		var errs []error
		for _, f := range files {
			if _, err := ws.OpenDocument(ctx, f); err != nil {
				errs = append(errs, err)
			}
		}
		return filesOpenedMsg{err: errors.Join(errs...)}
	}
}

// restoreCmd reopens the previews stored by the last session. Entries for
// files that no longer exist are dropped.
func (m Model) restoreCmd() tea.Cmd {
	repo := m.svc.Previews
	ctrl := m.svc.Controller
	ctx := m.ctx
	return func() tea.Msg {
		open, err := repo.List()
		if err != nil {
			return restoredMsg{err: fmt.Errorf("loading session: %w", err)}
		}

		var (
			count int
			errs  []error
		)
		for _, p := range open {
			if _, err := os.Stat(p.Path); errors.Is(err, os.ErrNotExist) {
				log.Info(log.CatPreview, "Dropping preview of missing file", "path", p.Path)
				if err := repo.Delete(p.Path); err != nil {
					errs = append(errs, err)
				}
				continue
			}
			if _, err := ctrl.Show(ctx, p.Path); err != nil && !errors.Is(err, preview.ErrRenderFailure) {
				errs = append(errs, err)
				continue
			}
			count++
		}
		return restoredMsg{count: count, err: errors.Join(errs...)}
	}
}

// reloadCmd re-reads a changed file and re-renders its preview.
func (m Model) reloadCmd(path string) tea.Cmd {
	ws := m.svc.Workspace
	ctrl := m.svc.Controller
	ctx := m.ctx
	return func() tea.Msg {
		doc, ok := ws.Document(path)
		if !ok {
			return reloadedMsg{path: path}
		}
		changed, err := doc.Reload()
		if err != nil {
			return reloadedMsg{path: path, err: fmt.Errorf("reloading %s: %w", doc.Title(), err)}
		}
		if !changed {
			return reloadedMsg{path: path}
		}
		err = ctrl.Refresh(ctx, path)
		return reloadedMsg{path: path, changed: true, err: err}
	}
}

// exportCmd writes the output of the focused preview, or of the preview
// bound to the focused editor's document.
func (m Model) exportCmd() tea.Cmd {
	ws := m.svc.Workspace
	ctrl := m.svc.Controller
	dir := m.svc.Config.Preview.ExportDir
	return func() tea.Msg {
		doc := preview.ActiveDocument(ws)
		if doc == nil {
			return exportedMsg{err: preview.ErrNilDocument}
		}
		v, ok := ctrl.View(doc.Path())
		if !ok {
			return exportedMsg{err: preview.ErrNothingToExport}
		}
		path, err := preview.Export(v, dir)
		return exportedMsg{path: path, err: err}
	}
}

// formatCmd saves the new format and re-renders every open preview in it.
func (m Model) formatCmd(f render.Format) tea.Cmd {
	ctrl := m.svc.Controller
	ctx := m.ctx
	return func() tea.Msg {
		errs := []error{m.saveFormat(f)}
		for _, v := range ctrl.Views() {
			if err := ctrl.Refresh(ctx, v.Document().Path()); !errors.Is(err, preview.ErrRenderFailure) {
				errs = append(errs, err)
			}
		}
		return formatChangedMsg{format: f, err: errors.Join(errs...)}
	}
}
