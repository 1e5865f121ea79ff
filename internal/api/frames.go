package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/reviewink/internal/frames"
	"github.com/starford/reviewink/internal/models"
)

// FrameHandler serves captured video frames.
type FrameHandler struct {
	svc *frames.Service
}

// NewFrameHandler creates a FrameHandler.
func NewFrameHandler(svc *frames.Service) *FrameHandler {
	return &FrameHandler{svc: svc}
}

// Capture handles GET /api/frames.
//
//	@Summary		Get the video frame at a timestamp, capturing it on a cache miss
//	@Tags			frames
//	@Produce		jpeg
//	@Param			video	query	string	true	"Video URL"
//	@Param			t		query	number	true	"Timestamp in seconds"
//	@Success		200
//	@Header			200	{string}	X-Frame-Key		"Cache key"
//	@Header			200	{string}	X-Frame-Cached	"true on a cache hit"
//	@Failure		400	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/frames [get]
func (h *FrameHandler) Capture(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ts, err := strconv.ParseFloat(q.Get("t"), 64)
	if err != nil || ts < 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("t must be a non-negative number"))
		return
	}
	video := q.Get("video")
	data, meta, err := h.svc.Frame(r.Context(), video, ts)
	if err != nil {
		writeError(w, "capture frame", err, slog.String("video", video))
		return
	}
	w.Header().Set("X-Frame-Key", meta.Key)
	w.Header().Set("X-Frame-Cached", strconv.FormatBool(meta.Cached))
	writeImage(w, data)
}

// Get handles GET /api/frames/{key}.
//
//	@Summary		Get a cached frame by key
//	@Tags			frames
//	@Produce		jpeg
//	@Param			key	path	string	true	"Cache key"
//	@Success		200
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/frames/{key} [get]
func (h *FrameHandler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	data, err := h.svc.Cached(key)
	if err != nil {
		writeError(w, "get frame", err, slog.String("key", key))
		return
	}
	writeImage(w, data)
}

// List handles GET /api/frames/cache.
//
//	@Summary		List cached frames
//	@Tags			frames
//	@Produce		json
//	@Success		200	{object}	FrameListResponse
//	@Security		BearerAuth
//	@Router			/frames/cache [get]
func (h *FrameHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.List()
	if err != nil {
		writeError(w, "list frames", err)
		return
	}
	if items == nil {
		items = []models.FrameMeta{}
	}
	writeJSON(w, http.StatusOK, FrameListResponse{Frames: items})
}

func writeImage(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", http.DetectContentType(data))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
