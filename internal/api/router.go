package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/reviewink/internal/feedbackservice"
	"github.com/starford/reviewink/internal/frames"
	"github.com/starford/reviewink/internal/session"
)

// Deps are the services the router mounts. Frames, Sessions and Events
// are optional.
type Deps struct {
	Feedback *feedbackservice.Service
	Frames   *frames.Service
	Sessions *session.Handler
	// Events, if non-nil, is mounted at GET /events inside the auth group.
	Events http.Handler

	AuthEnabled bool
	Token       string
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(d Deps) chi.Router {
	h := NewHandler(d.Feedback, d.Sessions)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(d.AuthEnabled, d.Token))

	// Feedback CRUD.
	r.Get("/feedback", h.ListFeedback)
	r.Post("/feedback", h.CreateFeedback)
	r.Route("/feedback/{id}", func(r chi.Router) {
		r.Get("/", h.GetFeedback)
		r.Patch("/", h.UpdateFeedback)
		r.Delete("/", h.DeleteFeedback)

		// Drawing.
		r.Get("/drawing", h.GetDrawing)
		r.Put("/drawing", h.PutDrawing)
		r.Delete("/drawing", h.ClearDrawing)
		r.Get("/drawing.png", h.DrawingPNG)
		r.Get("/drawing.pdf", h.DrawingPDF)
		r.Get("/session", h.Session)
	})

	// Search.
	r.Get("/search", h.Search)

	if d.Frames != nil {
		fh := NewFrameHandler(d.Frames)
		r.Get("/frames", fh.Capture)
		r.Get("/frames/cache", fh.List)
		r.Get("/frames/{key}", fh.Get)
	}

	if d.Events != nil {
		r.Get("/events", d.Events.ServeHTTP)
	}

	return r
}
