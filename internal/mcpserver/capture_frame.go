package mcpserver

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) captureFrame(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	video, err := req.RequireString("video")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ts, err := req.RequireFloat("timestamp")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if ts < 0 {
		return mcp.NewToolResultError("timestamp must not be negative"), nil
	}

	data, meta, err := s.frames.Frame(ctx, video, ts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text := fmt.Sprintf("frame %s (%d bytes, cached=%t)", meta.Key, len(data), meta.Cached)
	return mcp.NewToolResultImage(text, base64.StdEncoding.EncodeToString(data), http.DetectContentType(data)), nil
}
