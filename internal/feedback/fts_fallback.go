//go:build !sqlite_fts5

package feedback

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/starford/reviewink/internal/models"
)

func initFTS(_ *sql.DB) error {
	// FTS5 not available; comment search uses LIKE on feedback.comment.
	return nil
}

func ftsUpsert(_ context.Context, _ *sql.Tx, _, _ string) error { return nil }

func ftsDelete(_ context.Context, _ *sql.Tx, _ string) error { return nil }

// Search performs a LIKE-based comment search.
func (db *DB) Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, project_id, timestamp, substr(comment, 1, 200)
		FROM feedback
		WHERE comment LIKE ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, "%"+query+"%", limit)
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
