package feedback

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/starford/reviewink/internal/apperr"
	"github.com/starford/reviewink/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "reviewink-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func seed(t *testing.T, db *DB, rows ...Row) {
	t.Helper()
	now := time.Now()
	for _, r := range rows {
		if r.CreatedAt.IsZero() {
			r.CreatedAt, r.UpdatedAt = now, now
		}
		if err := db.Insert(context.Background(), r); err != nil {
			t.Fatalf("Insert %s: %v", r.ID, err)
		}
	}
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM feedback`).Scan(&count); err != nil {
		t.Fatalf("feedback table missing: %v", err)
	}
}

func TestInsertAndGet(t *testing.T) {
	db := testDB(t)
	raw := []byte(`{"lines":[],"strokeWidth":4,"strokeColor":"#FF3B30"}`)
	seed(t, db, Row{ID: "f1", ProjectID: "p", UserID: "u1", Timestamp: 12.5, Comment: "too dark", Drawing: raw})

	got, err := db.Get(context.Background(), "f1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Comment != "too dark" || got.Timestamp != 12.5 || got.UserID != "u1" {
		t.Errorf("row = %+v", got)
	}
	if string(got.Drawing) != string(raw) {
		t.Errorf("drawing = %s", got.Drawing)
	}
	if got.IsChecked {
		t.Error("new feedback should be unchecked")
	}
}

func TestInsertDuplicate(t *testing.T) {
	db := testDB(t)
	seed(t, db, Row{ID: "dup", ProjectID: "p"})
	err := db.Insert(context.Background(), Row{ID: "dup", ProjectID: "p"})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestGetMissing(t *testing.T) {
	db := testDB(t)
	if _, err := db.Get(context.Background(), "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListFilters(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seed(t, db,
		Row{ID: "c", ProjectID: "p", VersionID: "v1", UserID: "ann", Timestamp: 30},
		Row{ID: "a", ProjectID: "p", VersionID: "v1", UserID: "bob", Timestamp: 10},
		Row{ID: "b", ProjectID: "p", VersionID: "v2", UserID: "ann", Timestamp: 20},
		Row{ID: "x", ProjectID: "other", Timestamp: 1},
	)
	if err := db.SetChecked(ctx, "a", true, time.Now()); err != nil {
		t.Fatalf("SetChecked: %v", err)
	}

	cases := []struct {
		name string
		q    Query
		want []string
	}{
		{"all ordered by timestamp", Query{ProjectID: "p"}, []string{"a", "b", "c"}},
		{"version", Query{ProjectID: "p", VersionID: "v1"}, []string{"a", "c"}},
		{"checked", Query{ProjectID: "p", Filter: models.FilterChecked}, []string{"a"}},
		{"unchecked", Query{ProjectID: "p", Filter: models.FilterUnchecked}, []string{"b", "c"}},
		{"mine", Query{ProjectID: "p", Filter: models.FilterMine, UserID: "ann"}, []string{"b", "c"}},
		{"paged", Query{ProjectID: "p", Limit: 1, Offset: 1}, []string{"b"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rows, total, err := db.List(ctx, tc.q)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			var ids []string
			for _, r := range rows {
				ids = append(ids, r.ID)
			}
			if len(ids) != len(tc.want) {
				t.Fatalf("ids = %v, want %v", ids, tc.want)
			}
			for i := range ids {
				if ids[i] != tc.want[i] {
					t.Errorf("ids = %v, want %v", ids, tc.want)
					break
				}
			}
			if tc.q.Limit == 0 && total != len(tc.want) {
				t.Errorf("total = %d, want %d", total, len(tc.want))
			}
		})
	}
}

func TestUpdateDrawingNull(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seed(t, db, Row{ID: "d", ProjectID: "p", Drawing: []byte(`{"lines":[]}`)})

	if err := db.UpdateDrawing(ctx, "d", nil, time.Now()); err != nil {
		t.Fatalf("UpdateDrawing: %v", err)
	}
	got, _ := db.Get(ctx, "d")
	if got.Drawing != nil {
		t.Errorf("drawing = %s, want NULL", got.Drawing)
	}
	if err := db.UpdateDrawing(ctx, "missing", nil, time.Now()); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestUpdateCommentAndSearch(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seed(t, db, Row{ID: "s", ProjectID: "p", Comment: "original wording"})

	if err := db.UpdateComment(ctx, "s", "replacement wording", time.Now()); err != nil {
		t.Fatalf("UpdateComment: %v", err)
	}
	hits, err := db.Search(ctx, "original", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("old comment still matches: %+v", hits)
	}
	hits, _ = db.Search(ctx, "replacement", 10)
	if len(hits) != 1 || hits[0].ID != "s" {
		t.Errorf("hits = %+v", hits)
	}
}

func TestDelete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	seed(t, db, Row{ID: "del", ProjectID: "p", Comment: "vanishing"})

	if err := db.Delete(ctx, "del"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := db.Get(ctx, "del"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	hits, _ := db.Search(ctx, "vanishing", 10)
	if len(hits) != 0 {
		t.Error("deleted feedback still searchable")
	}
	if err := db.Delete(ctx, "del"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}
