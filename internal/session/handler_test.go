package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/reviewink/internal/apperr"
	"github.com/starford/reviewink/internal/drawing"
)

type memPersister struct {
	mu    sync.Mutex
	items map[string]*drawing.Data
}

func newMemPersister(ids ...string) *memPersister {
	m := &memPersister{items: make(map[string]*drawing.Data)}
	for _, id := range ids {
		m.items[id] = nil
	}
	return m
}

func (m *memPersister) SaveDrawing(_ context.Context, id string, d *drawing.Data) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return apperr.ErrNotFound
	}
	m.items[id] = d.Clone()
	return nil
}

func (m *memPersister) LoadDrawing(_ context.Context, id string) (*drawing.Data, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.items[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return d.Clone(), nil
}

func (m *memPersister) get(id string) *drawing.Data {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[id]
}

func testServer(t *testing.T, p Persister) (*httptest.Server, *Handler) {
	t.Helper()
	h := NewHandler(p, NewHub(), func() Defaults {
		return Defaults{
			Tool:   drawing.DefaultTool(),
			Widths: drawing.DefaultWidthRange(),
			Size:   drawing.Size{Width: 100, Height: 100},
		}
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, strings.TrimPrefix(r.URL.Path, "/"))
	}))
	t.Cleanup(srv.Close)
	return srv, h
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg Inbound) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(msg))
}

func recv(t *testing.T, conn *websocket.Conn) Outbound {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var out Outbound
	require.NoError(t, conn.ReadJSON(&out))
	return out
}

func decodeDrawing(t *testing.T, raw json.RawMessage) *drawing.Data {
	t.Helper()
	d, err := drawing.Decode(raw)
	require.NoError(t, err)
	return d
}

func stroke(t *testing.T, conn *websocket.Conn, pts ...drawing.Point) {
	t.Helper()
	send(t, conn, Inbound{Type: TypePointerDown, X: pts[0].X, Y: pts[0].Y})
	for _, p := range pts[1:] {
		send(t, conn, Inbound{Type: TypePointerMove, X: p.X, Y: p.Y})
	}
	send(t, conn, Inbound{Type: TypePointerUp})
}

func TestSessionLifecycle(t *testing.T) {
	p := newMemPersister("fb1")
	srv, h := testServer(t, p)
	conn := dial(t, srv, "/fb1?width=200&height=100")

	ready := recv(t, conn)
	assert.Equal(t, TypeReady, ready.Type)
	assert.NotEmpty(t, ready.SessionID)
	assert.JSONEq(t, "null", string(ready.Drawing))
	assert.Equal(t, &ToolState{Width: drawing.DefaultStrokeWidth, Color: drawing.DefaultStrokeColor}, ready.Tool)
	assert.Equal(t, 1, h.Hub().Count("fb1"))

	send(t, conn, Inbound{Type: TypeLayout, Rect: &drawing.Rect{Width: 100, Height: 50}})
	stroke(t, conn, drawing.Point{X: 0, Y: 0}, drawing.Point{X: 10, Y: 10}, drawing.Point{X: 20, Y: 5})

	msg := recv(t, conn)
	require.Equal(t, TypeDrawing, msg.Type)
	d := decodeDrawing(t, msg.Drawing)
	require.Len(t, d.Lines, 1)
	assert.Equal(t, []drawing.Point{{X: 0, Y: 0}, {X: 20, Y: 20}, {X: 40, Y: 10}}, d.Lines[0].Points)
	assert.Equal(t, d, p.get("fb1"))

	send(t, conn, Inbound{Type: TypeSetColor, Color: "#0000FF"})
	tool := recv(t, conn)
	assert.Equal(t, TypeTool, tool.Type)
	assert.Equal(t, "#0000FF", tool.Tool.Color)

	send(t, conn, Inbound{Type: "bogus"})
	errMsg := recv(t, conn)
	assert.Equal(t, TypeError, errMsg.Type)
	assert.Contains(t, errMsg.Error, "unknown message type")

	send(t, conn, Inbound{Type: TypeClear})
	cleared := recv(t, conn)
	assert.Equal(t, TypeDrawing, cleared.Type)
	assert.JSONEq(t, "null", string(cleared.Drawing))
	assert.Nil(t, p.get("fb1"))
}

func TestSessionFanOut(t *testing.T) {
	p := newMemPersister("fb2")
	srv, h := testServer(t, p)

	a := dial(t, srv, "/fb2")
	recv(t, a)
	b := dial(t, srv, "/fb2")
	recv(t, b)
	require.Eventually(t, func() bool { return h.Hub().Count("fb2") == 2 }, time.Second, 10*time.Millisecond)

	stroke(t, a, drawing.Point{X: 1, Y: 1}, drawing.Point{X: 2, Y: 2})
	assert.Equal(t, TypeDrawing, recv(t, a).Type)

	got := recv(t, b)
	require.Equal(t, TypeDrawing, got.Type)
	assert.Len(t, decodeDrawing(t, got.Drawing).Lines, 1)

	stroke(t, b, drawing.Point{X: 5, Y: 5}, drawing.Point{X: 6, Y: 6})
	assert.Len(t, decodeDrawing(t, recv(t, b).Drawing).Lines, 2)
	assert.Len(t, decodeDrawing(t, recv(t, a).Drawing).Lines, 2)

	h.Hub().Publish("fb2", nil)
	assert.JSONEq(t, "null", string(recv(t, a).Drawing))
	assert.JSONEq(t, "null", string(recv(t, b).Drawing))
}

func TestSessionMixedSurfaceSizes(t *testing.T) {
	p := newMemPersister("fb4")
	srv, h := testServer(t, p)

	small := dial(t, srv, "/fb4?width=100&height=100")
	recv(t, small)
	large := dial(t, srv, "/fb4?width=400&height=400")
	recv(t, large)
	require.Eventually(t, func() bool { return h.Hub().Count("fb4") == 2 }, time.Second, 10*time.Millisecond)

	stroke(t, small, drawing.Point{X: 10, Y: 10}, drawing.Point{X: 90, Y: 90})
	recv(t, small)
	pushed := decodeDrawing(t, recv(t, large).Drawing)
	assert.Equal(t, drawing.Size{Width: 400, Height: 400}, pushed.Canvas())
	assert.Equal(t, []drawing.Point{{X: 40, Y: 40}, {X: 360, Y: 360}}, pushed.Lines[0].Points)

	stroke(t, large, drawing.Point{X: 300, Y: 300}, drawing.Point{X: 390, Y: 390})
	saved := decodeDrawing(t, recv(t, large).Drawing)
	assert.Equal(t, drawing.Size{Width: 400, Height: 400}, saved.Canvas())
	require.Len(t, saved.Lines, 2)
	assert.Equal(t, []drawing.Point{{X: 40, Y: 40}, {X: 360, Y: 360}}, saved.Lines[0].Points)
	assert.Equal(t, []drawing.Point{{X: 300, Y: 300}, {X: 390, Y: 390}}, saved.Lines[1].Points)
	assert.Equal(t, saved, p.get("fb4"))

	back := decodeDrawing(t, recv(t, small).Drawing)
	assert.Equal(t, drawing.Size{Width: 100, Height: 100}, back.Canvas())
	assert.Equal(t, []drawing.Point{{X: 75, Y: 75}, {X: 97.5, Y: 97.5}}, back.Lines[1].Points)

	late := dial(t, srv, "/fb4?width=200&height=200")
	ready := decodeDrawing(t, recv(t, late).Drawing)
	assert.Equal(t, drawing.Size{Width: 200, Height: 200}, ready.Canvas())
	assert.Equal(t, []drawing.Point{{X: 150, Y: 150}, {X: 195, Y: 195}}, ready.Lines[1].Points)
}

func TestSessionUnknownFeedback(t *testing.T) {
	srv, _ := testServer(t, newMemPersister())
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSessionDisconnectUnregisters(t *testing.T) {
	srv, h := testServer(t, newMemPersister("fb3"))
	conn := dial(t, srv, "/fb3")
	recv(t, conn)
	require.Equal(t, 1, h.Hub().Count("fb3"))

	conn.Close()
	assert.Eventually(t, func() bool { return h.Hub().Count("fb3") == 0 }, time.Second, 10*time.Millisecond)
}
