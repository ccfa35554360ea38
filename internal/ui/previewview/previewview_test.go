package previewview_test

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/pumlview/internal/document"
	"github.com/zjrosen/pumlview/internal/grammar"
	"github.com/zjrosen/pumlview/internal/preview"
	"github.com/zjrosen/pumlview/internal/render"
	"github.com/zjrosen/pumlview/internal/ui/markdown"
	"github.com/zjrosen/pumlview/internal/ui/previewview"
	"github.com/zjrosen/pumlview/internal/workspace"
)

func init() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// scriptedBackend echoes the source until fail is set.
type scriptedBackend struct {
	fail atomic.Bool
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Render(_ context.Context, source string, format render.Format) (*render.Output, error) {
	if b.fail.Load() {
		return nil, &render.DiagnosticError{Message: "Syntax Error?", Line: 2}
	}
	return &render.Output{Format: format, Data: []byte("[" + strings.TrimSpace(source) + "]\n")}, nil
}

func openPreview(t *testing.T, backend render.Backend, format render.Format) (*preview.Controller, *preview.View) {
	t.Helper()
	ws := workspace.New(grammar.NewDefaultRegistry())
	c := preview.NewController(ws, preview.Options{Backend: backend, Format: format})
	t.Cleanup(c.Close)

	doc := document.New("/tmp/a.puml", "Bob -> Alice", nil)
	res, err := c.Toggle(context.Background(), doc)
	require.NoError(t, err)
	require.NoError(t, res.RenderErr)
	return c, res.View
}

func TestContent_TextOutput(t *testing.T) {
	_, v := openPreview(t, &scriptedBackend{}, render.FormatUTXT)

	require.Equal(t, "[Bob -> Alice]", previewview.Content(v, nil, ""))

	m := previewview.New(v, "notty").SetSize(40, 5)
	left, right := m.Status()
	require.Equal(t, "utxt · 15 B", left)
	require.Empty(t, right)
	require.Contains(t, m.View(), "[Bob -> Alice]")
}

func TestContent_FailureKeepsStaleOutput(t *testing.T) {
	backend := &scriptedBackend{}
	c, v := openPreview(t, backend, render.FormatUTXT)

	backend.fail.Store(true)
	require.Error(t, c.Render(context.Background(), v))

	plain := previewview.Content(v, nil, "")
	require.Contains(t, plain, "Render failed")
	require.Contains(t, plain, "line 2: Syntax Error?")
	require.Contains(t, plain, "Showing the last successful render:")
	require.True(t, strings.HasSuffix(plain, "[Bob -> Alice]"))

	md, err := markdown.New(60, "notty")
	require.NoError(t, err)
	formatted := previewview.Content(v, md, "")
	require.Contains(t, formatted, "Render failed")
	require.Contains(t, formatted, "line 2: Syntax Error?")

	_, right := previewview.New(v, "notty").Status()
	require.Equal(t, "render failed", right)
}

func TestContent_BinaryFormat(t *testing.T) {
	_, v := openPreview(t, &scriptedBackend{}, render.FormatSVG)

	content := previewview.Content(v, nil, "")
	require.Contains(t, content, "svg output (15 B) cannot be shown")
	require.Contains(t, content, "ctrl+s")
}

func TestContent_FirstRenderInFlight(t *testing.T) {
	release := make(chan struct{})
	backend := render.BackendFunc(func(ctx context.Context, source string, format render.Format) (*render.Output, error) {
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return &render.Output{Format: format, Data: []byte(source)}, nil
	})

	ws := workspace.New(grammar.NewDefaultRegistry())
	c := preview.NewController(ws, preview.Options{Backend: backend})
	t.Cleanup(c.Close)
	doc := document.New("/tmp/slow.puml", "A -> B", nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Toggle(context.Background(), doc)
	}()

	var v *preview.View
	require.Eventually(t, func() bool {
		var ok bool
		v, ok = c.View(doc.Path())
		return ok && v.Rendering()
	}, time.Second, 5*time.Millisecond)

	require.Equal(t, "* Rendering slow.puml…", previewview.Content(v, nil, "*"))
	_, right := previewview.New(v, "").Status()
	require.Equal(t, "rendering…", right)

	close(release)
	<-done
	require.Equal(t, "A -> B", previewview.Content(v, nil, "*"))
}

func TestModel_SyncPicksUpNewRender(t *testing.T) {
	c, v := openPreview(t, &scriptedBackend{}, render.FormatUTXT)
	m := previewview.New(v, "notty").SetSize(40, 5)

	v.Document().SetText("Alice -> Bob")
	require.NoError(t, c.Render(context.Background(), v))
	require.Contains(t, m.View(), "[Bob -> Alice]", "content is rebuilt only on Sync")

	m = m.Sync("")
	require.Contains(t, m.View(), "[Alice -> Bob]")
	require.Same(t, v, m.Preview())
}
