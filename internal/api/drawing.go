package api

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/reviewink/internal/drawing"
	"github.com/starford/reviewink/internal/feedbackservice"
)

func setETag(w http.ResponseWriter, tag string) {
	w.Header().Set("ETag", `"`+tag+`"`)
}

// GetDrawing handles GET /api/feedback/{id}/drawing.
//
//	@Summary		Get the drawing of a feedback item
//	@Description	Returns null when the item has no drawing. The ETag is the drawing checksum.
//	@Tags			drawing
//	@Produce		json
//	@Param			id	path		string	true	"Feedback ID"
//	@Success		200	{object}	drawing.Data
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback/{id}/drawing [get]
func (h *Handler) GetDrawing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, tag, err := h.svc.Drawing(r.Context(), id)
	if err != nil {
		writeError(w, "get drawing", err, slog.String("id", id))
		return
	}
	setETag(w, tag)
	writeJSON(w, http.StatusOK, d)
}

// PutDrawing handles PUT /api/feedback/{id}/drawing.
//
//	@Summary		Replace the drawing with optimistic concurrency
//	@Tags			drawing
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string			true	"Feedback ID"
//	@Param			If-Match	header		string			false	"Drawing checksum"
//	@Param			body		body		drawing.Data	true	"Drawing"
//	@Success		200			{object}	DrawingUpdatedResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback/{id}/drawing [put]
func (h *Handler) PutDrawing(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	id := chi.URLParam(r, "id")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read body"))
		return
	}
	d, err := drawing.Decode(body)
	if err != nil {
		writeError(w, "put drawing", err, slog.String("id", id))
		return
	}
	tag, err := h.svc.PutDrawing(r.Context(), id, d, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "put drawing", err, slog.String("id", id))
		return
	}
	h.publishDrawing(id, d)
	setETag(w, tag)
	writeJSON(w, http.StatusOK, DrawingUpdatedResponse{Checksum: tag})
}

// ClearDrawing handles DELETE /api/feedback/{id}/drawing.
//
//	@Summary		Remove the drawing of a feedback item
//	@Tags			drawing
//	@Produce		json
//	@Param			id			path		string	true	"Feedback ID"
//	@Param			If-Match	header		string	false	"Drawing checksum"
//	@Success		200			{object}	DrawingUpdatedResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback/{id}/drawing [delete]
func (h *Handler) ClearDrawing(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	tag, err := h.svc.ClearDrawing(r.Context(), id, r.Header.Get("If-Match"))
	if err != nil {
		writeError(w, "clear drawing", err, slog.String("id", id))
		return
	}
	h.publishDrawing(id, nil)
	setETag(w, tag)
	writeJSON(w, http.StatusOK, DrawingUpdatedResponse{Checksum: tag})
}

// DrawingPNG handles GET /api/feedback/{id}/drawing.png.
//
//	@Summary		Render the drawing as a PNG image
//	@Tags			drawing
//	@Produce		png
//	@Param			id		path	string	true	"Feedback ID"
//	@Param			width	query	number	false	"Output width"
//	@Param			height	query	number	false	"Output height"
//	@Param			video	query	string	false	"Video URL; draws over the frame at the feedback timestamp"
//	@Success		200
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback/{id}/drawing.png [get]
func (h *Handler) DrawingPNG(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "image/png", h.svc.RenderPNG)
}

// DrawingPDF handles GET /api/feedback/{id}/drawing.pdf.
//
//	@Summary		Export the drawing as a one-page PDF
//	@Tags			drawing
//	@Produce		application/pdf
//	@Param			id		path	string	true	"Feedback ID"
//	@Param			width	query	number	false	"Page width in points"
//	@Param			height	query	number	false	"Page height in points"
//	@Param			video	query	string	false	"Video URL; places the frame under the drawing"
//	@Success		200
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Failure		502	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback/{id}/drawing.pdf [get]
func (h *Handler) DrawingPDF(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "application/pdf", h.svc.RenderPDF)
}

type renderFunc func(ctx context.Context, id string, w io.Writer, opts feedbackservice.RenderOptions) error

// render buffers the output so a failure still gets a JSON error body.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, contentType string, fn renderFunc) {
	id := chi.URLParam(r, "id")
	q := r.URL.Query()
	opts := feedbackservice.RenderOptions{VideoURL: q.Get("video")}
	if v, err := strconv.ParseFloat(q.Get("width"), 64); err == nil {
		opts.Size.Width = v
	}
	if v, err := strconv.ParseFloat(q.Get("height"), 64); err == nil {
		opts.Size.Height = v
	}

	var buf bytes.Buffer
	if err := fn(r.Context(), id, &buf, opts); err != nil {
		writeError(w, "render drawing", err, slog.String("id", id), slog.String("type", contentType))
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// Session handles GET /api/feedback/{id}/session.
//
//	@Summary		Open a live drawing session over WebSocket
//	@Tags			drawing
//	@Param			id		path	string	true	"Feedback ID"
//	@Param			width	query	number	false	"Native surface width"
//	@Param			height	query	number	false	"Native surface height"
//	@Success		101
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/feedback/{id}/session [get]
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		writeJSON(w, http.StatusNotFound, errorBody("sessions are disabled"))
		return
	}
	h.sessions.Serve(w, r, chi.URLParam(r, "id"))
}

// publishDrawing pushes a drawing changed over REST to open sessions.
func (h *Handler) publishDrawing(id string, d *drawing.Data) {
	if h.sessions != nil {
		h.sessions.Hub().Publish(id, d)
	}
}
