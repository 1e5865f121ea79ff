package api

import (
	"github.com/starford/reviewink/internal/feedbackservice"
	"github.com/starford/reviewink/internal/models"
)

// CreateFeedbackRequest is the request body for creating feedback.
type CreateFeedbackRequest = feedbackservice.CreateInput

// UpdateFeedbackRequest is the request body for patching feedback.
type UpdateFeedbackRequest = feedbackservice.UpdateInput

// Feedback is the feedback response type (aliased from the domain layer).
type Feedback = models.Feedback

// FeedbackListResponse wraps paginated feedback listings.
type FeedbackListResponse struct {
	Feedback []Feedback `json:"feedback" validate:"required"`
	Total    int        `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []models.SearchHit `json:"results" validate:"required"`
}

// DrawingUpdatedResponse is returned after a drawing is replaced or cleared.
type DrawingUpdatedResponse struct {
	Checksum string `json:"drawing_checksum" example:"9f86d0..." validate:"required"`
}

// FrameListResponse lists cached frames.
type FrameListResponse struct {
	Frames []models.FrameMeta `json:"frames" validate:"required"`
}
