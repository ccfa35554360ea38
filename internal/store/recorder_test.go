package store_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/pumlview/internal/document"
	"github.com/zjrosen/pumlview/internal/grammar"
	"github.com/zjrosen/pumlview/internal/infrastructure/sqlite"
	"github.com/zjrosen/pumlview/internal/preview"
	"github.com/zjrosen/pumlview/internal/pubsub"
	"github.com/zjrosen/pumlview/internal/render"
	"github.com/zjrosen/pumlview/internal/store"
	"github.com/zjrosen/pumlview/internal/workspace"
)

func TestRecorder_PersistsControllerEvents(t *testing.T) {
	db, err := sqlite.NewDB(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	defer db.Close()
	previews, history := db.PreviewRepository(), db.HistoryRepository()

	ws := workspace.New(grammar.NewDefaultRegistry())
	backend := render.BackendFunc(func(_ context.Context, source string, format render.Format) (*render.Output, error) {
		return &render.Output{Format: format, Data: []byte(source)}, nil
	})
	c := preview.NewController(ws, preview.Options{Backend: backend})
	defer c.Close()

	ctx, cancel := context.WithCancel(context.Background())
	events := c.Events().Subscribe(ctx)
	done := make(chan struct{})
	go func() {
		store.NewRecorder(previews, history).Run(events)
		close(done)
	}()

	a := document.New("/work/a.puml", "A -> B", nil)
	b := document.New("/work/b.puml", "B -> C", nil)
	_, err = c.Toggle(ctx, a)
	require.NoError(t, err)
	_, err = c.Toggle(ctx, b)
	require.NoError(t, err)
	_, err = c.Toggle(ctx, a)
	require.NoError(t, err)

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("recorder did not stop")
	}

	open, err := previews.List()
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.Equal(t, "/work/b.puml", open[0].Path)

	recent, err := history.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "/work/b.puml", recent[0].Path)
	require.True(t, recent[0].Succeeded)
	require.Equal(t, "func", recent[0].Backend)
	require.Equal(t, "utxt", recent[0].Format)
	require.Equal(t, len("B -> C"), recent[0].Bytes)
}

type memHistory struct {
	records []store.RenderRecord
	prunes  int
}

func (m *memHistory) Append(r *store.RenderRecord) error {
	r.ID = int64(len(m.records) + 1)
	m.records = append(m.records, *r)
	return nil
}

func (m *memHistory) Recent(int) ([]store.RenderRecord, error)          { return m.records, nil }
func (m *memHistory) ForPath(string, int) ([]store.RenderRecord, error) { return m.records, nil }
func (m *memHistory) Prune(int) (int64, error)                          { m.prunes++; return 0, nil }

func TestRecorder_RenderFailuresAndPruning(t *testing.T) {
	hist := &memHistory{}
	r := store.NewRecorder(nil, hist)

	r.Record(pubsub.Event[preview.Event]{Type: pubsub.OpenedEvent, Payload: preview.Event{Path: "/a.puml"}})
	r.Record(pubsub.Event[preview.Event]{
		Type:    pubsub.RenderFailedEvent,
		Payload: preview.Event{Path: "/a.puml", Diagnostic: "line 1: Syntax Error?"},
	})
	require.Len(t, hist.records, 1)
	require.False(t, hist.records[0].Succeeded)
	require.Equal(t, "line 1: Syntax Error?", hist.records[0].Diagnostic)
	require.False(t, hist.records[0].RenderedAt.IsZero())

	for i := 0; i < 199; i++ {
		r.Record(pubsub.Event[preview.Event]{Type: pubsub.RenderedEvent, Payload: preview.Event{Path: "/a.puml"}})
	}
	require.Len(t, hist.records, 200)
	require.Equal(t, 2, hist.prunes)
}
