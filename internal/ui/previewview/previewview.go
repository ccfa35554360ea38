// Package previewview renders a preview.View: the diagram text, a spinner
// while the first render runs, and render diagnostics above stale output.
package previewview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/pumlview/internal/keys"
	"github.com/zjrosen/pumlview/internal/log"
	"github.com/zjrosen/pumlview/internal/preview"
	"github.com/zjrosen/pumlview/internal/ui/editorview"
	"github.com/zjrosen/pumlview/internal/ui/markdown"
	"github.com/zjrosen/pumlview/internal/ui/styles"
)

// Model shows one preview.
type Model struct {
	view     *preview.View
	viewport viewport.Model
	md       *markdown.Renderer
	mdStyle  string
	shown    snapshot
}

// snapshot is the view state the viewport content was built from.
type snapshot struct {
	version    int
	renderedAt time.Time
	diagnostic string
	rendering  bool
	frame      string
	width      int
}

// New creates a model for v. mdStyle is the glamour style for diagnostics.
func New(v *preview.View, mdStyle string) Model {
	vp := viewport.New(0, 0)
	vp.KeyMap = editorview.ViewportKeyMap(keys.DefaultKeyMap())
	return Model{view: v, viewport: vp, mdStyle: mdStyle}
}

// Preview returns the preview shown.
func (m Model) Preview() *preview.View {
	return m.view
}

// SetSize resizes the viewport.
func (m Model) SetSize(width, height int) Model {
	m.viewport.Width = width
	m.viewport.Height = height
	return m.Sync(m.shown.frame)
}

// Sync rebuilds the content when the preview changed since the last call.
// frame is the spinner frame shown while the first render runs.
func (m Model) Sync(frame string) Model {
	cur := snapshot{
		version:    m.view.RenderedVersion(),
		renderedAt: m.view.RenderedAt(),
		diagnostic: m.view.Diagnostic(),
		rendering:  m.view.Rendering(),
		width:      m.viewport.Width,
	}
	if cur.rendering {
		cur.frame = frame
	}
	if cur == m.shown {
		return m
	}
	m.shown = cur

	if cur.diagnostic != "" && cur.width > 0 {
		var (
			md  *markdown.Renderer
			err error
		)
		if m.md == nil {
			md, err = markdown.New(cur.width, m.mdStyle)
		} else {
			md, err = m.md.Resize(cur.width)
		}
		if err != nil {
			log.ErrorErr(log.CatUI, "Failed to create markdown renderer", err)
		} else {
			m.md = md
		}
	}
	m.viewport.SetContent(Content(m.view, m.md, cur.frame))
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

// Status returns the texts shown in the bottom border: output format and
// size on the left, render progress or change summary on the right.
func (m Model) Status() (left, right string) {
	if out := m.view.Output(); out != nil {
		left = fmt.Sprintf("%s · %s", out.Format, styles.FormatBytes(len(out.Data)))
	}
	switch {
	case m.view.Rendering():
		right = "rendering…"
	case m.view.Diagnostic() != "":
		right = "render failed"
	default:
		right = m.view.Changes()
	}
	return left, right
}

// Content composes the preview body. md may be nil, in which case the
// diagnostic is shown unformatted.
func Content(v *preview.View, md *markdown.Renderer, frame string) string {
	var sections []string
	out := v.Output()
	diag := v.Diagnostic()

	if diag != "" {
		sections = append(sections, renderDiagnostic(diag, md))
		if out != nil {
			sections = append(sections, styles.StaleStyle.Render("Showing the last successful render:"))
		}
	}

	switch {
	case out == nil && v.Rendering():
		sections = append(sections, strings.TrimSpace(frame+" Rendering "+v.Document().Title()+"…"))
	case out == nil && diag == "":
		sections = append(sections, styles.EmptyStyle.Render("Nothing rendered yet."))
	case out == nil:
	case !out.Format.IsText():
		sections = append(sections, styles.EmptyStyle.Render(fmt.Sprintf(
			"%s output (%s) cannot be shown in a terminal. Press ctrl+s to export it.",
			out.Format, styles.FormatBytes(len(out.Data)))))
	default:
		sections = append(sections, strings.TrimRight(out.Text(), "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func renderDiagnostic(diag string, md *markdown.Renderer) string {
	if md != nil {
		text, err := md.Render("**Render failed**\n\n" + markdown.CodeBlock(diag))
		if err == nil {
			return text
		}
		log.ErrorErr(log.CatUI, "Failed to render diagnostic", err)
	}
	return styles.DiagnosticStyle.Render("Render failed\n" + diag)
}
