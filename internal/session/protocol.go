// Package session runs live drawing sessions over WebSocket: each
// connection owns a drawing.Canvas fed by client input messages, and every
// committed change is persisted and fanned out to the other viewers of the
// same feedback item.
package session

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/reviewink/internal/drawing"
)

// Client message types.
const (
	TypeLayout       = "layout"
	TypePalette      = "palette"
	TypePointerDown  = "pointer_down"
	TypePointerMove  = "pointer_move"
	TypePointerUp    = "pointer_up"
	TypePointerLeave = "pointer_leave"
	TypeTouchStart   = "touch_start"
	TypeTouchMove    = "touch_move"
	TypeTouchEnd     = "touch_end"
	TypeTouchCancel  = "touch_cancel"
	TypeClear        = "clear"
	TypeSetWidth     = "set_width"
	TypeAdjustWidth  = "adjust_width"
	TypeSetColor     = "set_color"
	TypeDrawingMode  = "drawing_mode"
	TypeResize       = "resize"
)

// Server message types.
const (
	TypeReady   = "ready"
	TypeDrawing = "drawing"
	TypeTool    = "tool"
	TypeError   = "error"
)

// ErrUnknownMessage is returned for an unrecognised message type.
var ErrUnknownMessage = errors.New("session: unknown message type")

// Inbound is a client message. Only the fields relevant to Type are read.
type Inbound struct {
	Type    string          `json:"type"`
	X       float64         `json:"x"`
	Y       float64         `json:"y"`
	Rect    *drawing.Rect   `json:"rect"`
	Touches []drawing.Touch `json:"touches"`
	Width   float64         `json:"width"`
	Height  float64         `json:"height"`
	Delta   int             `json:"delta"`
	Color   string          `json:"color"`
	Enabled bool            `json:"enabled"`
}

// ToolState is the pen echoed back to the client.
type ToolState struct {
	Width float64 `json:"width"`
	Color string  `json:"color"`
}

// Outbound is a server message.
type Outbound struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Drawing   json.RawMessage `json:"drawing,omitempty"`
	Tool      *ToolState      `json:"tool,omitempty"`
	Error     string          `json:"error,omitempty"`
}

func drawingMessage(d *drawing.Data) (Outbound, error) {
	raw, err := drawing.Encode(d)
	if err != nil {
		return Outbound{}, fmt.Errorf("session: encode drawing: %w", err)
	}
	return Outbound{Type: TypeDrawing, Drawing: raw}, nil
}

func toolMessage(t drawing.Tool) *Outbound {
	return &Outbound{Type: TypeTool, Tool: &ToolState{Width: t.Width, Color: t.Color}}
}

// Apply routes one client message to the canvas. Tool changes answer with
// the resulting pen; everything else has no direct reply, since committed
// changes are reported through the canvas change callback.
func Apply(c *drawing.Canvas, msg Inbound) (*Outbound, error) {
	switch msg.Type {
	case TypeLayout:
		if msg.Rect == nil {
			return nil, fmt.Errorf("session: %s: rect is required", msg.Type)
		}
		c.SetLayout(*msg.Rect)
	case TypePalette:
		if msg.Rect == nil {
			c.ClearPalette()
		} else {
			c.SetPalette(*msg.Rect)
		}
	case TypePointerDown:
		c.PointerDown(msg.X, msg.Y)
	case TypePointerMove:
		c.PointerMove(msg.X, msg.Y)
	case TypePointerUp:
		c.PointerUp()
	case TypePointerLeave:
		c.PointerLeave()
	case TypeTouchStart:
		c.TouchStart(msg.Touches)
	case TypeTouchMove:
		c.TouchMove(msg.Touches)
	case TypeTouchEnd:
		c.TouchEnd(msg.Touches)
	case TypeTouchCancel:
		c.TouchCancel(msg.Touches)
	case TypeClear:
		c.Clear()
	case TypeSetWidth:
		c.SetWidth(msg.Width)
		return toolMessage(c.Tool()), nil
	case TypeAdjustWidth:
		c.AdjustWidth(msg.Delta)
		return toolMessage(c.Tool()), nil
	case TypeSetColor:
		if err := c.SetColor(msg.Color); err != nil {
			return nil, err
		}
		return toolMessage(c.Tool()), nil
	case TypeDrawingMode:
		c.SetDrawingMode(msg.Enabled)
	case TypeResize:
		if msg.Width <= 0 || msg.Height <= 0 {
			return nil, fmt.Errorf("session: %s: width and height must be positive", msg.Type)
		}
		if (drawing.Size{Width: msg.Width, Height: msg.Height}).Oversized() {
			return nil, fmt.Errorf("session: %s: %w", msg.Type, drawing.ErrTooLarge)
		}
		c.Resize(msg.Width, msg.Height)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return nil, nil
}
