//go:build sqlite_fts5

package feedback

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/reviewink/internal/models"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS feedback_fts USING fts5(
			id UNINDEXED,
			comment,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(ctx context.Context, tx *sql.Tx, id, comment string) error {
	if err := ftsDelete(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO feedback_fts (id, comment) VALUES (?, ?)`, id, comment); err != nil {
		return fmt.Errorf("feedback: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(ctx context.Context, tx *sql.Tx, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM feedback_fts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("feedback: delete fts: %w", err)
	}
	return nil
}

// Search performs an FTS5 comment search with highlighted snippets.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT f.id, f.project_id, f.timestamp,
		       snippet(feedback_fts, 1, '<b>', '</b>', '...', 32)
		FROM feedback_fts
		JOIN feedback f ON f.id = feedback_fts.id
		WHERE feedback_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("feedback: search: %w", err)
	}
	defer rows.Close()

	var out []models.SearchHit
	for rows.Next() {
		var h models.SearchHit
		if err := rows.Scan(&h.ID, &h.ProjectID, &h.Timestamp, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
