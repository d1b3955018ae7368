package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joescharf/cq/internal/compare"
	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/report"
	"github.com/joescharf/cq/internal/review"
	"github.com/joescharf/cq/internal/scan"
)

// Server wraps the review engine and exposes it as MCP tools.
type Server struct {
	engine *review.Engine
	opts   models.Options
}

// NewServer creates the MCP server wrapper around a review engine with
// the given default options.
func NewServer(engine *review.Engine, opts models.Options) *Server {
	return &Server{engine: engine, opts: opts}
}

// MCPServer returns a configured mcp-go server with all tools registered.
func (s *Server) MCPServer() *server.MCPServer {
	srv := server.NewMCPServer("cq", "1.0.0", server.WithToolCapabilities(true))

	srv.AddTool(s.reviewFileTool())
	srv.AddTool(s.reviewProjectTool())
	srv.AddTool(s.historyTool())
	srv.AddTool(s.compareLatestTool())

	return srv
}

// ServeStdio starts the stdio transport, blocking until ctx is cancelled.
func (s *Server) ServeStdio(ctx context.Context) error {
	srv := s.MCPServer()
	stdioServer := server.NewStdioServer(srv)
	return stdioServer.Listen(ctx, os.Stdin, os.Stdout)
}

// ---------------------------------------------------------------------------
// Tool definitions and handlers
// ---------------------------------------------------------------------------

// cq_review_file
func (s *Server) reviewFileTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("cq_review_file",
		mcp.WithDescription("Review a single source file. Returns the full review result as JSON: score, approval verdict, issues, and suggestions."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path to the file to review")),
		mcp.WithBoolean("strict", mcp.Description("Strict mode: high-severity issues also block approval")),
	)
	return tool, s.handleReviewFile
}

func (s *Server) handleReviewFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	opts := s.opts
	opts.StrictMode = request.GetBool("strict", opts.StrictMode)

	result, err := s.engine.ReviewFile(ctx, path, opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("review failed: %v", err)), nil
	}
	return jsonResult(result)
}

// cq_review_project
func (s *Server) reviewProjectTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("cq_review_project",
		mcp.WithDescription("Review every recognized source file under a directory. Returns the aggregate: overall score, per-artifact scores, worst artifacts, critical issues, and recommendations."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Project root directory")),
		mcp.WithNumber("workers", mcp.Description("Worker pool size (default: number of CPUs)")),
	)
	return tool, s.handleReviewProject
}

func (s *Server) handleReviewProject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: path"), nil
	}

	scanner := scan.New(s.engine)
	scanner.Workers = request.GetInt("workers", 0)

	agg, err := scanner.Scan(ctx, path, s.opts)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("scan failed: %v", err)), nil
	}
	return jsonResult(agg)
}

// cq_history
func (s *Server) historyTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("cq_history",
		mcp.WithDescription("List stored review results for an artifact, oldest first. Returns a JSON array of results with id, score, approved, summary, and timestamp."),
		mcp.WithString("artifact", mcp.Required(), mcp.Description("Artifact key (typically the file path used at review time)")),
	)
	return tool, s.handleHistory
}

func (s *Server) handleHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("artifact")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: artifact"), nil
	}

	store := s.engine.Store()
	if store == nil {
		return mcp.NewToolResultError("no history store configured"), nil
	}

	results, err := store.All(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load history: %v", err)), nil
	}

	type entryOut struct {
		ID        string `json:"id"`
		Score     int    `json:"score"`
		Approved  bool   `json:"approved"`
		Summary   string `json:"summary"`
		Timestamp string `json:"timestamp"`
	}
	out := make([]entryOut, len(results))
	for i, r := range results {
		out[i] = entryOut{
			ID:        r.ID,
			Score:     r.Score,
			Approved:  r.Approved,
			Summary:   r.Summary,
			Timestamp: r.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
		}
	}
	return jsonResult(out)
}

// cq_compare_latest
func (s *Server) compareLatestTool() (mcp.Tool, server.ToolHandlerFunc) {
	tool := mcp.NewTool("cq_compare_latest",
		mcp.WithDescription("Compare the two most recent stored reviews of an artifact. Returns resolved/new issues and suggestions, the score delta, the trend label, and a Markdown rendering."),
		mcp.WithString("artifact", mcp.Required(), mcp.Description("Artifact key")),
	)
	return tool, s.handleCompareLatest
}

func (s *Server) handleCompareLatest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key, err := request.RequireString("artifact")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: artifact"), nil
	}

	store := s.engine.Store()
	if store == nil {
		return mcp.NewToolResultError("no history store configured"), nil
	}

	results, err := store.All(ctx, key)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load history: %v", err)), nil
	}
	if len(results) < 2 {
		return mcp.NewToolResultError(fmt.Sprintf("need at least 2 stored reviews for %s, have %d", key, len(results))), nil
	}

	cmp := compare.Compare(results[len(results)-2], results[len(results)-1])
	out := struct {
		models.Comparison
		Markdown string `json:"markdown"`
	}{Comparison: cmp, Markdown: report.RenderComparison(&cmp)}
	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
