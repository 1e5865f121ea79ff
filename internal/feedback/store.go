package feedback

import (
	"context"
	"time"

	"github.com/starford/reviewink/internal/models"
)

// Store defines the feedback persistence operations. Consumers depend on
// this interface rather than *DB.
type Store interface {
	Insert(ctx context.Context, r Row) error
	Get(ctx context.Context, id string) (*Row, error)
	List(ctx context.Context, q Query) ([]Row, int, error)
	UpdateComment(ctx context.Context, id, comment string, at time.Time) error
	SetChecked(ctx context.Context, id string, checked bool, at time.Time) error
	UpdateDrawing(ctx context.Context, id string, raw []byte, at time.Time) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error)
	Close() error
}

var _ Store = (*DB)(nil)
