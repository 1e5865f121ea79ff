package feedback

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/reviewink/internal/apperr"
	"github.com/starford/reviewink/internal/models"
)

// Row is one feedback record as stored. Drawing holds the raw drawing JSON
// and is nil when the column is NULL.
type Row struct {
	ID        string
	ProjectID string
	VersionID string
	UserID    string
	Timestamp float64
	Comment   string
	Drawing   []byte
	IsChecked bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Query selects rows for List. ProjectID is required; UserID is only used
// by the "mine" filter.
type Query struct {
	ProjectID string
	VersionID string
	Filter    models.Filter
	UserID    string
	Limit     int
	Offset    int
}

const selectColumns = `id, project_id, version_id, user_id, timestamp, comment, drawing_data, is_checked, created_at, updated_at`

// Insert adds a new feedback row and its search entry.
func (db *DB) Insert(ctx context.Context, r Row) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("feedback: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	_, err = tx.ExecContext(ctx, `
		INSERT INTO feedback (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.ProjectID, r.VersionID, r.UserID, r.Timestamp, r.Comment,
		nullable(r.Drawing), r.IsChecked, r.CreatedAt.UTC(), r.UpdatedAt.UTC())
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return apperr.ErrAlreadyExists
		}
		return fmt.Errorf("feedback: insert: %w", err)
	}
	if err := ftsUpsert(ctx, tx, r.ID, r.Comment); err != nil {
		return err
	}
	return tx.Commit()
}

// Get returns one row or apperr.ErrNotFound.
func (db *DB) Get(ctx context.Context, id string) (*Row, error) {
	row := db.conn.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM feedback WHERE id = ?`, id)
	r, err := scanRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("feedback: get: %w", err)
	}
	return r, nil
}

// List returns rows ordered by video timestamp together with the total
// number of matches before pagination.
func (db *DB) List(ctx context.Context, q Query) ([]Row, int, error) {
	where := []string{"project_id = ?"}
	args := []any{q.ProjectID}
	if q.VersionID != "" {
		where = append(where, "version_id = ?")
		args = append(args, q.VersionID)
	}
	switch q.Filter {
	case models.FilterChecked:
		where = append(where, "is_checked = 1")
	case models.FilterUnchecked:
		where = append(where, "is_checked = 0")
	case models.FilterMine:
		where = append(where, "user_id = ?")
		args = append(args, q.UserID)
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM feedback WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("feedback: count: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM feedback WHERE `+cond+` ORDER BY timestamp, created_at LIMIT ? OFFSET ?`,
		append(args, limit, max(q.Offset, 0))...)
	if err != nil {
		return nil, 0, fmt.Errorf("feedback: list: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("feedback: scan: %w", err)
		}
		out = append(out, *r)
	}
	return out, total, rows.Err()
}

// UpdateComment replaces the comment text and its search entry.
func (db *DB) UpdateComment(ctx context.Context, id, comment string, at time.Time) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("feedback: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `UPDATE feedback SET comment = ?, updated_at = ? WHERE id = ?`, comment, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("feedback: update comment: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return err
	}
	if err := ftsUpsert(ctx, tx, id, comment); err != nil {
		return err
	}
	return tx.Commit()
}

// SetChecked marks a feedback item as resolved or open.
func (db *DB) SetChecked(ctx context.Context, id string, checked bool, at time.Time) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE feedback SET is_checked = ?, updated_at = ? WHERE id = ?`, checked, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("feedback: set checked: %w", err)
	}
	return mustAffect(res)
}

// UpdateDrawing stores raw drawing JSON; nil writes NULL.
func (db *DB) UpdateDrawing(ctx context.Context, id string, raw []byte, at time.Time) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE feedback SET drawing_data = ?, updated_at = ? WHERE id = ?`, nullable(raw), at.UTC(), id)
	if err != nil {
		return fmt.Errorf("feedback: update drawing: %w", err)
	}
	return mustAffect(res)
}

// Delete removes a row and its search entry.
func (db *DB) Delete(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("feedback: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM feedback WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("feedback: delete: %w", err)
	}
	if err := mustAffect(res); err != nil {
		return err
	}
	if err := ftsDelete(ctx, tx, id); err != nil {
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (*Row, error) {
	var (
		r       Row
		drawing sql.NullString
	)
	if err := s.Scan(&r.ID, &r.ProjectID, &r.VersionID, &r.UserID, &r.Timestamp, &r.Comment,
		&drawing, &r.IsChecked, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if drawing.Valid {
		r.Drawing = []byte(drawing.String)
	}
	return &r, nil
}

func nullable(raw []byte) any {
	if raw == nil {
		return nil
	}
	return string(raw)
}

func mustAffect(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("feedback: rows affected: %w", err)
	}
	if n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
