package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/zjrosen/pumlview/internal/store"
)

const renderColumns = `id, path, view_id, backend, format, bytes, version, duration_ms, succeeded, diagnostic, rendered_at`

type historyRepository struct {
	db *sql.DB
}

func newHistoryRepository(db *sql.DB) *historyRepository {
	return &historyRepository{db: db}
}

var _ store.HistoryRepository = (*historyRepository)(nil)

func scanRender(scanner interface{ Scan(...any) error }) (RenderModel, error) {
	var m RenderModel
	err := scanner.Scan(
		&m.ID, &m.Path, &m.ViewID, &m.Backend, &m.Format,
		&m.Bytes, &m.Version, &m.DurationMs, &m.Succeeded, &m.Diagnostic, &m.RenderedAt,
	)
	return m, err
}

// Append inserts rec and sets its ID.
func (r *historyRepository) Append(rec *store.RenderRecord) error {
	m := toRenderModel(rec)
	result, err := r.db.Exec(
		`INSERT INTO render_history (
			path, view_id, backend, format, bytes, version, duration_ms, succeeded, diagnostic, rendered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.Path, m.ViewID, m.Backend, m.Format, m.Bytes, m.Version, m.DurationMs, m.Succeeded, m.Diagnostic, m.RenderedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert render: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id
	return nil
}

// Recent returns up to limit records, newest first.
func (r *historyRepository) Recent(limit int) ([]store.RenderRecord, error) {
	return r.query(`SELECT `+renderColumns+` FROM render_history ORDER BY id DESC LIMIT ?`, limit)
}

// ForPath returns up to limit records for path, newest first.
func (r *historyRepository) ForPath(path string, limit int) ([]store.RenderRecord, error) {
	return r.query(`SELECT `+renderColumns+` FROM render_history WHERE path = ? ORDER BY id DESC LIMIT ?`, path, limit)
}

func (r *historyRepository) query(q string, args ...any) ([]store.RenderRecord, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query render history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []store.RenderRecord
	for rows.Next() {
		m, err := scanRender(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan render: %w", err)
		}
		records = append(records, m.toDomain())
	}
	return records, rows.Err()
}

// Prune deletes all but the newest keep records and reports how many
// were removed.
func (r *historyRepository) Prune(keep int) (int64, error) {
	result, err := r.db.Exec(
		`DELETE FROM render_history WHERE id NOT IN (SELECT id FROM render_history ORDER BY id DESC LIMIT ?)`,
		keep,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune render history: %w", err)
	}
	return result.RowsAffected()
}
