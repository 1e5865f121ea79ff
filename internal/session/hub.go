package session

import (
	"sync"

	"github.com/starford/reviewink/internal/drawing"
)

// Hub tracks the live connections of every feedback item.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*client]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[*client]struct{})}
}

func (h *Hub) add(feedbackID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[feedbackID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[feedbackID] = room
	}
	room[c] = struct{}{}
}

func (h *Hub) remove(feedbackID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room := h.rooms[feedbackID]
	delete(room, c)
	if len(room) == 0 {
		delete(h.rooms, feedbackID)
	}
}

// Count returns the number of live sessions on feedbackID.
func (h *Hub) Count(feedbackID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[feedbackID])
}

// Publish pushes a drawing changed outside any session to every live
// session of feedbackID.
func (h *Hub) Publish(feedbackID string, d *drawing.Data) {
	h.broadcast(feedbackID, nil, d)
}

// broadcast hydrates every session of feedbackID except from with d and
// sends each client the drawing as rescaled onto its own surface.
func (h *Hub) broadcast(feedbackID string, from *client, d *drawing.Data) {
	h.mu.RLock()
	peers := make([]*client, 0, len(h.rooms[feedbackID]))
	for c := range h.rooms[feedbackID] {
		if c != from {
			peers = append(peers, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range peers {
		c.canvas.Hydrate(d)
		msg, err := drawingMessage(c.canvas.Snapshot())
		if err != nil {
			continue
		}
		c.enqueue(msg)
	}
}
