// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes reviewink feedback tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/reviewink/internal/apperr"
	"github.com/starford/reviewink/internal/feedback"
	"github.com/starford/reviewink/internal/feedbackservice"
	"github.com/starford/reviewink/internal/frames"
	"github.com/starford/reviewink/internal/models"
)

const contractURI = "reviewink://drawing-format"

// Server wraps the MCP server with reviewink tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *feedbackservice.Service
	frames *frames.Service
}

// New creates a new MCP server with all reviewink tools registered. fs may
// be nil, in which case capture_frame is not offered.
func New(svc *feedbackservice.Service, fs *frames.Service) *Server {
	s := &Server{svc: svc, frames: fs}

	s.mcp = server.NewMCPServer(
		"Reviewink",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_feedback",
		mcp.WithDescription("List feedback of a project ordered by video timestamp."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithString("version_id", mcp.Description("Optional video version ID")),
		mcp.WithString("filter", mcp.Description("all, unchecked, checked or mine"),
			mcp.Enum(string(models.FilterAll), string(models.FilterUnchecked), string(models.FilterChecked), string(models.FilterMine))),
		mcp.WithString("user_id", mcp.Description("User ID, required for filter=mine")),
	), s.listFeedback)

	s.mcp.AddTool(mcp.NewTool("read_feedback",
		mcp.WithDescription("Read one feedback item including its drawing."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Feedback ID")),
	), s.readFeedback)

	s.mcp.AddTool(mcp.NewTool("search_feedback",
		mcp.WithDescription("Full-text search through feedback comments."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchFeedback)

	s.mcp.AddTool(mcp.NewTool("create_feedback",
		mcp.WithDescription("Leave a text comment at a video timestamp."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Project ID")),
		mcp.WithNumber("timestamp", mcp.Required(), mcp.Description("Seconds from the start of the video")),
		mcp.WithString("comment", mcp.Required(), mcp.Description("Comment text")),
		mcp.WithString("version_id", mcp.Description("Optional video version ID")),
	), s.createFeedback)

	s.mcp.AddTool(mcp.NewTool("get_drawing",
		mcp.WithDescription("Return the drawing of a feedback item and its checksum. "+
			"The format is described by get_drawing_contract or the "+contractURI+" resource."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Feedback ID")),
	), s.getDrawing)

	s.mcp.AddTool(mcp.NewTool("clear_drawing",
		mcp.WithDescription("Remove the drawing of a feedback item."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Feedback ID")),
		mcp.WithString("checksum", mcp.Description("Checksum from get_drawing; the clear fails if it is stale")),
	), s.clearDrawing)

	s.mcp.AddTool(mcp.NewTool("get_drawing_contract",
		mcp.WithDescription("Returns the reviewink drawing format contract."),
	), s.getDrawingContract)

	if fs != nil {
		s.mcp.AddTool(mcp.NewTool("capture_frame",
			mcp.WithDescription("Capture the video frame at a timestamp as an image."),
			mcp.WithString("video", mcp.Required(), mcp.Description("Video URL")),
			mcp.WithNumber("timestamp", mcp.Required(), mcp.Description("Seconds from the start of the video")),
		), s.captureFrame)
	}

	// Resource: drawing format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Drawing Format Contract",
			mcp.WithResourceDescription("Persisted drawing JSON attached to feedback items."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readDrawingFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error, id string) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id))
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError("checksum mismatch: the drawing changed, call get_drawing again")
	}
	return mcp.NewToolResultError(err.Error())
}

func (s *Server) listFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, total, err := s.svc.List(ctx, feedback.Query{
		ProjectID: project,
		VersionID: req.GetString("version_id", ""),
		Filter:    models.Filter(req.GetString("filter", "")),
		UserID:    req.GetString("user_id", ""),
	})
	if err != nil {
		return errorResult(err, project), nil
	}
	return jsonResult(map[string]any{"feedback": items, "total": total})
}

func (s *Server) readFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fb, err := s.svc.Get(ctx, id)
	if err != nil {
		return errorResult(err, id), nil
	}
	return jsonResult(fb)
}

func (s *Server) searchFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("no feedback found"), nil
	}
	return jsonResult(results)
}

func (s *Server) createFeedback(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	project, err := req.RequireString("project_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ts, err := req.RequireFloat("timestamp")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	comment, err := req.RequireString("comment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fb, err := s.svc.Create(ctx, feedbackservice.CreateInput{
		ProjectID: project,
		VersionID: req.GetString("version_id", ""),
		Timestamp: ts,
		Comment:   comment,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", fb.ID)), nil
}

func (s *Server) getDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d, tag, err := s.svc.Drawing(ctx, id)
	if err != nil {
		return errorResult(err, id), nil
	}
	return jsonResult(map[string]any{"drawing_data": d, "checksum": tag})
}

func (s *Server) clearDrawing(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.ClearDrawing(ctx, id, req.GetString("checksum", "")); err != nil {
		return errorResult(err, id), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("cleared: %s", id)), nil
}

func (s *Server) getDrawingContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(DrawingFormatContract), nil
}

func (s *Server) readDrawingFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     DrawingFormatContract,
		},
	}, nil
}
