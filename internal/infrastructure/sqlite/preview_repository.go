package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/zjrosen/pumlview/internal/store"
)

type previewRepository struct {
	db *sql.DB
}

func newPreviewRepository(db *sql.DB) *previewRepository {
	return &previewRepository{db: db}
}

var _ store.PreviewRepository = (*previewRepository)(nil)

// Save inserts or replaces the record for p.Path.
func (r *previewRepository) Save(p store.OpenPreview) error {
	m := toOpenPreviewModel(p)
	_, err := r.db.Exec(
		`INSERT INTO open_previews (path, view_id, opened_at) VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET view_id = excluded.view_id, opened_at = excluded.opened_at`,
		m.Path, m.ViewID, m.OpenedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save open preview: %w", err)
	}
	return nil
}

// Delete removes path. Deleting an unknown path is not an error.
func (r *previewRepository) Delete(path string) error {
	if _, err := r.db.Exec(`DELETE FROM open_previews WHERE path = ?`, path); err != nil {
		return fmt.Errorf("failed to delete open preview: %w", err)
	}
	return nil
}

// List returns open previews in the order they were opened.
func (r *previewRepository) List() ([]store.OpenPreview, error) {
	rows, err := r.db.Query(`SELECT path, view_id, opened_at FROM open_previews ORDER BY opened_at, path`)
	if err != nil {
		return nil, fmt.Errorf("failed to list open previews: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var previews []store.OpenPreview
	for rows.Next() {
		var m OpenPreviewModel
		if err := rows.Scan(&m.Path, &m.ViewID, &m.OpenedAt); err != nil {
			return nil, fmt.Errorf("failed to scan open preview: %w", err)
		}
		previews = append(previews, m.toDomain())
	}
	return previews, rows.Err()
}

// Clear removes every record.
func (r *previewRepository) Clear() error {
	if _, err := r.db.Exec(`DELETE FROM open_previews`); err != nil {
		return fmt.Errorf("failed to clear open previews: %w", err)
	}
	return nil
}
