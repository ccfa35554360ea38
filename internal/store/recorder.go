package store

import (
	"time"

	"github.com/zjrosen/pumlview/internal/log"
	"github.com/zjrosen/pumlview/internal/preview"
	"github.com/zjrosen/pumlview/internal/pubsub"
)

// DefaultHistoryLimit is how many render records are kept.
const DefaultHistoryLimit = 1000

const pruneEvery = 100

// Recorder persists controller events.
type Recorder struct {
	previews PreviewRepository
	history  HistoryRepository
	keep     int
	appended int
}

// NewRecorder creates a recorder. Either repository may be nil to skip
// that kind of record.
func NewRecorder(previews PreviewRepository, history HistoryRepository) *Recorder {
	return &Recorder{previews: previews, history: history, keep: DefaultHistoryLimit}
}

// Run records events until the channel closes. Subscribe with a context
// and cancel it to stop; buffered events are still recorded.
func (r *Recorder) Run(events <-chan pubsub.Event[preview.Event]) {
	for evt := range events {
		r.Record(evt)
	}
}

// Record persists a single event. Failures are logged and dropped.
func (r *Recorder) Record(evt pubsub.Event[preview.Event]) {
	p := evt.Payload
	var err error
	switch evt.Type {
	case pubsub.OpenedEvent:
		if r.previews != nil {
			err = r.previews.Save(OpenPreview{Path: p.Path, ViewID: p.ViewID, OpenedAt: evt.Timestamp})
		}
	case pubsub.ClosedEvent:
		if r.previews != nil {
			err = r.previews.Delete(p.Path)
		}
	case pubsub.RenderedEvent, pubsub.RenderFailedEvent:
		if r.history != nil {
			err = r.appendRender(evt)
		}
	default:
		return
	}
	if err != nil {
		log.ErrorErr(log.CatStore, "recording event failed", err, "type", evt.Type, "path", p.Path)
	}
}

func (r *Recorder) appendRender(evt pubsub.Event[preview.Event]) error {
	p := evt.Payload
	at := evt.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	rec := &RenderRecord{
		Path:       p.Path,
		ViewID:     p.ViewID,
		Backend:    p.Backend,
		Format:     string(p.Format),
		Bytes:      p.Bytes,
		Version:    p.Version,
		Duration:   p.Duration,
		Succeeded:  evt.Type == pubsub.RenderedEvent,
		Diagnostic: p.Diagnostic,
		RenderedAt: at,
	}
	if err := r.history.Append(rec); err != nil {
		return err
	}

	r.appended++
	if r.appended%pruneEvery == 0 {
		if n, err := r.history.Prune(r.keep); err != nil {
			return err
		} else if n > 0 {
			log.Debug(log.CatStore, "pruned render history", "removed", n)
		}
	}
	return nil
}
