// Package feedbackservice coordinates the feedback store, drawing
// persistence, frame capture and change notifications.
package feedbackservice

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/starford/reviewink/internal/apperr"
	"github.com/starford/reviewink/internal/checksum"
	"github.com/starford/reviewink/internal/drawing"
	"github.com/starford/reviewink/internal/export"
	"github.com/starford/reviewink/internal/feedback"
	"github.com/starford/reviewink/internal/models"
	"github.com/starford/reviewink/internal/raster"
	"github.com/starford/reviewink/internal/sse"
)

const maxCommentLength = 10000

// Notifier receives feedback change events.
type Notifier interface {
	PublishFeedbackEvent(kind, projectID, id string)
}

// FrameSource decodes the video frame a feedback item points at.
type FrameSource interface {
	Image(ctx context.Context, videoURL string, ts float64) (image.Image, error)
}

// CreateInput is the payload for a new feedback item.
type CreateInput struct {
	ProjectID string        `json:"project_id"`
	VersionID string        `json:"version_id"`
	UserID    string        `json:"user_id"`
	Timestamp float64       `json:"timestamp"`
	Comment   string        `json:"comment"`
	Drawing   *drawing.Data `json:"drawing_data"`
}

// Validate checks the payload.
func (in CreateInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ProjectID, validation.Required),
		validation.Field(&in.Timestamp, validation.Min(0.0)),
		validation.Field(&in.Comment, validation.RuneLength(0, maxCommentLength)),
		validation.Field(&in.Drawing),
	)
}

// UpdateInput patches a feedback item; nil fields are left unchanged.
type UpdateInput struct {
	Comment   *string `json:"comment"`
	IsChecked *bool   `json:"is_checked"`
}

// RenderOptions controls PNG and PDF rendering of a drawing.
type RenderOptions struct {
	Size drawing.Size
	// VideoURL, when set, puts the frame at the feedback timestamp under
	// the drawing.
	VideoURL string
}

// Service implements the feedback use cases.
type Service struct {
	db     feedback.Store
	frames FrameSource
	notify Notifier
	now    func() time.Time

	// drawingMu serialises check-and-set on drawings.
	drawingMu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets the change notifier.
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notify = n } }

// WithFrames sets the frame source used for rendering over video.
func WithFrames(f FrameSource) Option { return func(s *Service) { s.frames = f } }

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// NewService creates a new feedback service.
func NewService(db feedback.Store, opts ...Option) *Service {
	s := &Service{db: db, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Create stores a new feedback item.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Feedback, error) {
	in.Comment = normalizeComment(in.Comment)
	if err := in.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	raw, err := encodeDrawing(in.Drawing)
	if err != nil {
		return nil, err
	}
	now := s.now()
	row := feedback.Row{
		ID:        uuid.NewString(),
		ProjectID: in.ProjectID,
		VersionID: in.VersionID,
		UserID:    in.UserID,
		Timestamp: in.Timestamp,
		Comment:   in.Comment,
		Drawing:   raw,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.db.Insert(ctx, row); err != nil {
		return nil, err
	}
	s.publish(sse.KindCreated, row.ProjectID, row.ID)
	return toModel(&row), nil
}

// Get returns one feedback item.
func (s *Service) Get(ctx context.Context, id string) (*models.Feedback, error) {
	row, err := s.db.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toModel(row), nil
}

// List returns feedback ordered by video timestamp.
func (s *Service) List(ctx context.Context, q feedback.Query) ([]models.Feedback, int, error) {
	if q.ProjectID == "" {
		return nil, 0, fmt.Errorf("%w: project_id is required", apperr.ErrInvalidInput)
	}
	if !q.Filter.Valid() {
		return nil, 0, fmt.Errorf("%w: unknown filter %q", apperr.ErrInvalidInput, q.Filter)
	}
	if q.Filter == models.FilterMine && q.UserID == "" {
		return nil, 0, fmt.Errorf("%w: user_id is required for filter mine", apperr.ErrInvalidInput)
	}
	rows, total, err := s.db.List(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	items := make([]models.Feedback, len(rows))
	for i := range rows {
		items[i] = *toModel(&rows[i])
	}
	return items, total, nil
}

// Update applies a partial update.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.Feedback, error) {
	row, err := s.db.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if in.Comment != nil {
		comment := normalizeComment(*in.Comment)
		if err := validation.Validate(comment, validation.RuneLength(0, maxCommentLength)); err != nil {
			return nil, fmt.Errorf("%w: comment: %v", apperr.ErrInvalidInput, err)
		}
		if err := s.db.UpdateComment(ctx, id, comment, now); err != nil {
			return nil, err
		}
	}
	if in.IsChecked != nil {
		if err := s.db.SetChecked(ctx, id, *in.IsChecked, now); err != nil {
			return nil, err
		}
	}
	s.publish(sse.KindUpdated, row.ProjectID, id)
	return s.Get(ctx, id)
}

// Delete removes a feedback item.
func (s *Service) Delete(ctx context.Context, id string) error {
	row, err := s.db.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(sse.KindDeleted, row.ProjectID, id)
	return nil
}

// Search finds feedback by comment text.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.SearchHit, error) {
	query = normalizeComment(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", apperr.ErrInvalidInput)
	}
	return s.db.Search(ctx, query, limit)
}

// Drawing returns the stored drawing and its version tag. A missing drawing
// is nil with the tag of null.
func (s *Service) Drawing(ctx context.Context, id string) (*drawing.Data, string, error) {
	row, err := s.db.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return decodeStored(row), checksum.Drawing(row.Drawing), nil
}

// PutDrawing replaces the drawing. When ifMatch is not empty it must equal
// the current version tag. A nil or empty drawing clears the column.
func (s *Service) PutDrawing(ctx context.Context, id string, d *drawing.Data, ifMatch string) (string, error) {
	if d != nil {
		if err := d.Validate(); err != nil {
			return "", fmt.Errorf("%w: drawing: %v", apperr.ErrInvalidInput, err)
		}
	}
	raw, err := encodeDrawing(d)
	if err != nil {
		return "", err
	}

	s.drawingMu.Lock()
	defer s.drawingMu.Unlock()

	row, err := s.db.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if ifMatch != "" && strings.Trim(ifMatch, `"`) != checksum.Drawing(row.Drawing) {
		return "", apperr.ErrConflict
	}
	if err := s.db.UpdateDrawing(ctx, id, raw, s.now()); err != nil {
		return "", err
	}
	s.publish(sse.KindDrawing, row.ProjectID, id)
	return checksum.Drawing(raw), nil
}

// ClearDrawing removes the drawing.
func (s *Service) ClearDrawing(ctx context.Context, id, ifMatch string) (string, error) {
	return s.PutDrawing(ctx, id, nil, ifMatch)
}

// SaveDrawing stores d unconditionally. It backs live drawing sessions.
func (s *Service) SaveDrawing(ctx context.Context, id string, d *drawing.Data) error {
	_, err := s.PutDrawing(ctx, id, d, "")
	return err
}

// LoadDrawing returns the stored drawing for a live session.
func (s *Service) LoadDrawing(ctx context.Context, id string) (*drawing.Data, error) {
	d, _, err := s.Drawing(ctx, id)
	return d, err
}

// RenderPNG writes the drawing of id as a PNG image.
func (s *Service) RenderPNG(ctx context.Context, id string, w io.Writer, opts RenderOptions) error {
	d, bg, err := s.renderInputs(ctx, id, opts)
	if err != nil {
		return err
	}
	if err := raster.RenderPNG(w, d, opts.Size, bg); err != nil {
		if errors.Is(err, raster.ErrNoSize) || errors.Is(err, drawing.ErrTooLarge) {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
		}
		return err
	}
	return nil
}

// RenderPDF writes the drawing of id as a one-page PDF.
func (s *Service) RenderPDF(ctx context.Context, id string, w io.Writer, opts RenderOptions) error {
	d, bg, err := s.renderInputs(ctx, id, opts)
	if err != nil {
		return err
	}
	err = export.WritePDF(w, d, export.PDFOptions{
		Size:       opts.Size,
		Background: bg,
		Title:      "feedback " + id,
	})
	if errors.Is(err, export.ErrNoSize) || errors.Is(err, drawing.ErrTooLarge) {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return err
}

func (s *Service) renderInputs(ctx context.Context, id string, opts RenderOptions) (*drawing.Data, image.Image, error) {
	row, err := s.db.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	d := decodeStored(row)
	if opts.VideoURL == "" || s.frames == nil {
		return d, nil, nil
	}
	bg, err := s.frames.Image(ctx, opts.VideoURL, row.Timestamp)
	if err != nil {
		return nil, nil, err
	}
	return d, bg, nil
}

func (s *Service) publish(kind, projectID, id string) {
	if s.notify != nil {
		s.notify.PublishFeedbackEvent(kind, projectID, id)
	}
}

func normalizeComment(c string) string {
	return norm.NFC.String(strings.TrimSpace(c))
}

func encodeDrawing(d *drawing.Data) ([]byte, error) {
	if d == nil || len(d.Lines) == 0 {
		return nil, nil
	}
	raw, err := drawing.Encode(d)
	if err != nil {
		return nil, fmt.Errorf("feedbackservice: encode drawing: %w", err)
	}
	return raw, nil
}

// decodeStored hydrates the stored drawing. Malformed rows are logged and
// treated as having no drawing.
func decodeStored(row *feedback.Row) *drawing.Data {
	d, err := drawing.Decode(row.Drawing)
	if err != nil {
		slog.Warn("malformed drawing data",
			slog.String("id", row.ID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return d
}

func toModel(row *feedback.Row) *models.Feedback {
	return &models.Feedback{
		ID:              row.ID,
		ProjectID:       row.ProjectID,
		VersionID:       row.VersionID,
		UserID:          row.UserID,
		Timestamp:       row.Timestamp,
		Comment:         row.Comment,
		Drawing:         decodeStored(row),
		DrawingChecksum: checksum.Drawing(row.Drawing),
		IsChecked:       row.IsChecked,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
