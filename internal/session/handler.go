package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/starford/reviewink/internal/apperr"
	"github.com/starford/reviewink/internal/drawing"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 << 10
	sendBuffer     = 64
	saveTimeout    = 5 * time.Second
)

// Persister loads and stores the drawing of a feedback item.
type Persister interface {
	SaveDrawing(ctx context.Context, feedbackID string, d *drawing.Data) error
	LoadDrawing(ctx context.Context, feedbackID string) (*drawing.Data, error)
}

// Defaults are the settings a new session starts with.
type Defaults struct {
	Tool   drawing.Tool
	Widths drawing.WidthRange
	Size   drawing.Size
}

// Handler upgrades HTTP requests to live drawing sessions.
type Handler struct {
	persister Persister
	defaults  func() Defaults
	hub       *Hub
	upgrader  websocket.Upgrader
}

// NewHandler creates a session handler. defaults is consulted for every
// new session so configuration reloads apply to the next connection.
func NewHandler(p Persister, hub *Hub, defaults func() Defaults) *Handler {
	return &Handler{
		persister: p,
		defaults:  defaults,
		hub:       hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// Hub returns the connection registry.
func (h *Handler) Hub() *Hub { return h.hub }

type client struct {
	id     string
	conn   *websocket.Conn
	canvas *drawing.Canvas
	send   chan Outbound

	closeOnce sync.Once
	done      chan struct{}
}

func (c *client) enqueue(msg Outbound) {
	select {
	case <-c.done:
	case c.send <- msg:
	default:
		slog.Warn("session: send buffer full, dropping message",
			slog.String("session", c.id), slog.String("type", msg.Type))
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// Serve runs a session for feedbackID on the request's connection. The
// optional width and height query parameters set the native surface size,
// capped at drawing.MaxSurface. The stored drawing is rescaled onto it.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, feedbackID string) {
	initial, err := h.persister.LoadDrawing(r.Context(), feedbackID)
	if errors.Is(err, apperr.ErrNotFound) {
		http.Error(w, "feedback not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("session: load drawing", slog.String("id", feedbackID), slog.String("error", err.Error()))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	def := h.defaults()
	size := def.Size
	if v, err := strconv.ParseFloat(r.URL.Query().Get("width"), 64); err == nil && v > 0 {
		size.Width = min(v, drawing.MaxSurface)
	}
	if v, err := strconv.ParseFloat(r.URL.Query().Get("height"), 64); err == nil && v > 0 {
		size.Height = min(v, drawing.MaxSurface)
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("session: upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Outbound, sendBuffer),
		done: make(chan struct{}),
	}
	logger := slog.Default().With(slog.String("session", c.id), slog.String("feedback", feedbackID))
	c.canvas = drawing.NewCanvas(drawing.Options{
		Width:       size.Width,
		Height:      size.Height,
		Enabled:     true,
		DrawingMode: true,
		Tool:        def.Tool,
		WidthRange:  def.Widths,
		Initial:     initial,
		Logger:      logger,
		OnChange: func(d *drawing.Data) {
			h.commit(feedbackID, c, d, logger)
		},
	})

	h.hub.add(feedbackID, c)
	logger.Info("session opened", slog.Float64("width", size.Width), slog.Float64("height", size.Height))

	ready, err := drawingMessage(c.canvas.Snapshot())
	if err == nil {
		ready.Type = TypeReady
		ready.SessionID = c.id
		t := c.canvas.Tool()
		ready.Tool = &ToolState{Width: t.Width, Color: t.Color}
		c.enqueue(ready)
	}

	go c.writePump()
	c.readPump()

	// A dropped connection ends any open stroke like the pointer leaving.
	c.canvas.PointerLeave()
	h.hub.remove(feedbackID, c)
	c.close()
	logger.Info("session closed")
}

func (h *Handler) commit(feedbackID string, from *client, d *drawing.Data, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := h.persister.SaveDrawing(ctx, feedbackID, d); err != nil {
		logger.Error("session: save drawing", slog.String("error", err.Error()))
		from.enqueue(Outbound{Type: TypeError, Error: "failed to save drawing"})
		return
	}
	msg, err := drawingMessage(d)
	if err != nil {
		return
	}
	from.enqueue(msg)
	h.hub.broadcast(feedbackID, from, d)
}

func (c *client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Warn("session: read", slog.String("session", c.id), slog.String("error", err.Error()))
			}
			return
		}
		var msg Inbound
		if err := json.Unmarshal(data, &msg); err != nil {
			c.enqueue(Outbound{Type: TypeError, Error: "invalid message: " + err.Error()})
			continue
		}
		reply, err := Apply(c.canvas, msg)
		if err != nil {
			c.enqueue(Outbound{Type: TypeError, Error: err.Error()})
			continue
		}
		if reply != nil {
			c.enqueue(*reply)
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case msg := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}
