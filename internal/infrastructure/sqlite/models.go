package sqlite

import (
	"database/sql"
	"time"

	"github.com/zjrosen/pumlview/internal/store"
)

// OpenPreviewModel is a row of open_previews.
type OpenPreviewModel struct {
	Path     string
	ViewID   string
	OpenedAt int64 // Unix millis
}

func toOpenPreviewModel(p store.OpenPreview) OpenPreviewModel {
	return OpenPreviewModel{Path: p.Path, ViewID: p.ViewID, OpenedAt: p.OpenedAt.UnixMilli()}
}

func (m OpenPreviewModel) toDomain() store.OpenPreview {
	return store.OpenPreview{Path: m.Path, ViewID: m.ViewID, OpenedAt: time.UnixMilli(m.OpenedAt)}
}

// RenderModel is a row of render_history.
type RenderModel struct {
	ID         int64
	Path       string
	ViewID     string
	Backend    string
	Format     string
	Bytes      int
	Version    int
	DurationMs int64
	Succeeded  bool
	Diagnostic sql.NullString
	RenderedAt int64 // Unix millis
}

func toRenderModel(r *store.RenderRecord) RenderModel {
	m := RenderModel{
		ID:         r.ID,
		Path:       r.Path,
		ViewID:     r.ViewID,
		Backend:    r.Backend,
		Format:     r.Format,
		Bytes:      r.Bytes,
		Version:    r.Version,
		DurationMs: r.Duration.Milliseconds(),
		Succeeded:  r.Succeeded,
		RenderedAt: r.RenderedAt.UnixMilli(),
	}
	if r.Diagnostic != "" {
		m.Diagnostic = sql.NullString{String: r.Diagnostic, Valid: true}
	}
	return m
}

func (m RenderModel) toDomain() store.RenderRecord {
	return store.RenderRecord{
		ID:         m.ID,
		Path:       m.Path,
		ViewID:     m.ViewID,
		Backend:    m.Backend,
		Format:     m.Format,
		Bytes:      m.Bytes,
		Version:    m.Version,
		Duration:   time.Duration(m.DurationMs) * time.Millisecond,
		Succeeded:  m.Succeeded,
		Diagnostic: m.Diagnostic.String,
		RenderedAt: time.UnixMilli(m.RenderedAt),
	}
}
