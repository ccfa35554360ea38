// Package store defines what pumlview persists between runs: the previews
// that were open, for session restore, and a history of renders.
package store

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// OpenPreview is a document that had a live preview.
type OpenPreview struct {
	Path     string
	ViewID   string
	OpenedAt time.Time
}

// RenderRecord is one completed render.
type RenderRecord struct {
	ID         int64
	Path       string
	ViewID     string
	Backend    string
	Format     string
	Bytes      int
	Version    int
	Duration   time.Duration
	Succeeded  bool
	Diagnostic string
	RenderedAt time.Time
}

// PreviewRepository stores open previews keyed by document path.
type PreviewRepository interface {
	Save(p OpenPreview) error
	Delete(path string) error
	List() ([]OpenPreview, error)
	Clear() error
}

// HistoryRepository stores render records, newest last.
type HistoryRepository interface {
	Append(r *RenderRecord) error
	Recent(limit int) ([]RenderRecord, error)
	ForPath(path string, limit int) ([]RenderRecord, error)
	Prune(keep int) (int64, error)
}
