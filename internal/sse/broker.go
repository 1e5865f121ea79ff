// Package sse streams feedback changes to browsers as Server-Sent Events.
package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Event is one SSE frame: Type becomes the event name, Data the JSON payload.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Feedback event kinds accepted by PublishFeedbackEvent.
const (
	KindCreated = "created"
	KindUpdated = "updated"
	KindDeleted = "deleted"
	KindDrawing = "drawing"
)

var eventNames = map[string]string{
	KindCreated: "feedback.created",
	KindUpdated: "feedback.updated",
	KindDeleted: "feedback.deleted",
	KindDrawing: "drawing.changed",
}

const subscriberBuffer = 64

// hub is the state owned by the broker goroutine.
type hub struct {
	subs     map[chan []byte]struct{}
	timeline map[string]time.Time
	throttle time.Duration
}

func newHub(throttle time.Duration) *hub {
	return &hub{
		subs:     make(map[chan []byte]struct{}),
		timeline: make(map[string]time.Time),
		throttle: throttle,
	}
}

// send writes e to every subscriber. A subscriber whose buffer is full
// misses the event.
func (h *hub) send(e Event) {
	raw, err := frame(e)
	if err != nil {
		return
	}
	for ch := range h.subs {
		select {
		case ch <- raw:
		default:
		}
	}
}

// feedback sends the change event and, at most once per throttle window,
// a timeline.updated event for the project.
func (h *hub) feedback(kind, projectID, id string, now time.Time) {
	name, ok := eventNames[kind]
	if !ok {
		return
	}
	h.send(Event{Type: name, Data: map[string]string{"id": id, "project_id": projectID}})

	if last, seen := h.timeline[projectID]; seen && now.Sub(last) < h.throttle {
		return
	}
	h.timeline[projectID] = now
	h.send(Event{Type: "timeline.updated", Data: map[string]string{"project_id": projectID}})
}

// prune forgets projects whose throttle window has passed.
func (h *hub) prune(now time.Time) {
	for project, last := range h.timeline {
		if now.Sub(last) >= h.throttle {
			delete(h.timeline, project)
		}
	}
}

func (h *hub) drop(ch chan []byte) {
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
}

func frame(e Event) ([]byte, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "event: %s\ndata: %s\n\n", e.Type, payload)
	return buf.Bytes(), nil
}

// Broker fans events out to SSE subscribers. One goroutine owns the hub;
// every public method hands it an operation to run.
type Broker struct {
	ops    chan func(*hub)
	stop   chan struct{}
	done   chan struct{}
	closed atomic.Bool
}

// NewBroker starts a broker that emits at most one timeline.updated event
// per project every timelineThrottle.
func NewBroker(timelineThrottle time.Duration) *Broker {
	if timelineThrottle <= 0 {
		timelineThrottle = 2 * time.Second
	}
	b := &Broker{
		ops:  make(chan func(*hub)),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go b.loop(newHub(timelineThrottle))
	return b
}

func (b *Broker) loop(h *hub) {
	defer close(b.done)
	ticker := time.NewTicker(h.throttle)
	defer ticker.Stop()

	for {
		select {
		case <-b.stop:
			for ch := range h.subs {
				h.drop(ch)
			}
			return
		case op := <-b.ops:
			op(h)
		case now := <-ticker.C:
			h.prune(now)
		}
	}
}

// do runs op on the broker goroutine. It reports false once the broker has
// stopped.
func (b *Broker) do(op func(*hub)) bool {
	if b.closed.Load() {
		return false
	}
	select {
	case b.ops <- op:
		return true
	case <-b.done:
		return false
	}
}

// Close stops the broker and closes every subscriber channel.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stop)
	}
	<-b.done
}

// Subscribe registers a subscriber. The channel is closed on Unsubscribe
// or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, subscriberBuffer)
	if !b.do(func(h *hub) { h.subs[ch] = struct{}{} }) {
		close(ch)
	}
	return ch
}

// Unsubscribe removes ch and closes it.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.do(func(h *hub) { h.drop(ch) })
}

// ClientCount returns the number of subscribers.
func (b *Broker) ClientCount() int {
	resp := make(chan int, 1)
	if !b.do(func(h *hub) { resp <- len(h.subs) }) {
		return 0
	}
	return <-resp
}

// Publish sends event to every subscriber.
func (b *Broker) Publish(event Event) {
	b.do(func(h *hub) { h.send(event) })
}

// PublishFeedbackEvent publishes a feedback change followed by a throttled
// timeline.updated event for the project.
func (b *Broker) PublishFeedbackEvent(kind, projectID, id string) {
	now := time.Now()
	b.do(func(h *hub) { h.feedback(kind, projectID, id, now) })
}

// ServeHTTP streams events to one client until it disconnects (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	if err := rc.Flush(); err != nil {
		return
	}

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
