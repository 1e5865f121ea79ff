package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/reviewink/internal/feedback"
	"github.com/starford/reviewink/internal/feedbackservice"
	"github.com/starford/reviewink/internal/models"
	"github.com/starford/reviewink/internal/session"
)

const maxBodySize = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc      *feedbackservice.Service
	sessions *session.Handler
}

// NewHandler creates a new Handler. sessions may be nil when live drawing
// sessions are not served.
func NewHandler(svc *feedbackservice.Service, sessions *session.Handler) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// ListFeedback handles GET /api/feedback.
//
//	@Summary		List feedback of a project ordered by video timestamp
//	@Tags			feedback
//	@Produce		json
//	@Param			project_id	query		string	true	"Project ID"
//	@Param			version_id	query		string	false	"Version ID"
//	@Param			filter		query		string	false	"Filter"	Enums(all, unchecked, checked, mine)
//	@Param			user_id		query		string	false	"User for filter=mine"
//	@Param			limit		query		int		false	"Page size"
//	@Param			offset		query		int		false	"Page offset"
//	@Success		200			{object}	FeedbackListResponse
//	@Failure		400			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback [get]
func (h *Handler) ListFeedback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))
	offset, _ := strconv.Atoi(q.Get("offset"))

	items, total, err := h.svc.List(r.Context(), feedback.Query{
		ProjectID: q.Get("project_id"),
		VersionID: q.Get("version_id"),
		Filter:    models.Filter(q.Get("filter")),
		UserID:    q.Get("user_id"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		writeError(w, "list feedback", err)
		return
	}
	if items == nil {
		items = []models.Feedback{}
	}
	writeJSON(w, http.StatusOK, FeedbackListResponse{Feedback: items, Total: total})
}

// GetFeedback handles GET /api/feedback/{id}.
//
//	@Summary		Get a single feedback item
//	@Tags			feedback
//	@Produce		json
//	@Param			id	path		string	true	"Feedback ID"
//	@Success		200	{object}	Feedback
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback/{id} [get]
func (h *Handler) GetFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fb, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get feedback", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// CreateFeedback handles POST /api/feedback.
//
//	@Summary		Create feedback at a video timestamp
//	@Tags			feedback
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateFeedbackRequest	true	"Feedback to create"
//	@Success		201		{object}	Feedback
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback [post]
func (h *Handler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	var req CreateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	fb, err := h.svc.Create(r.Context(), req)
	if err != nil {
		writeError(w, "create feedback", err, slog.String("project", req.ProjectID))
		return
	}
	writeJSON(w, http.StatusCreated, fb)
}

// UpdateFeedback handles PATCH /api/feedback/{id}.
//
//	@Summary		Edit the comment or toggle the checked flag
//	@Tags			feedback
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Feedback ID"
//	@Param			body	body		UpdateFeedbackRequest	true	"Fields to change"
//	@Success		200		{object}	Feedback
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback/{id} [patch]
func (h *Handler) UpdateFeedback(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	id := chi.URLParam(r, "id")
	var req UpdateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Comment == nil && req.IsChecked == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("comment or is_checked is required"))
		return
	}
	fb, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, "update feedback", err, slog.String("id", id))
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// DeleteFeedback handles DELETE /api/feedback/{id}.
//
//	@Summary		Delete a feedback item
//	@Tags			feedback
//	@Param			id	path	string	true	"Feedback ID"
//	@Success		204	"Feedback deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback/{id} [delete]
func (h *Handler) DeleteFeedback(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, "delete feedback", err, slog.String("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across feedback comments
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	if results == nil {
		results = []models.SearchHit{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
