package mcp

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/charmbracelet/log"
	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/buildinfo"
	"github.com/matzehuels/flowboard/pkg/errors"
)

// ServerName is announced to MCP clients.
const ServerName = "flowboard"

// Options configures a [Server].
type Options struct {
	Logger *log.Logger
}

// Server exposes one board as MCP tools.
type Server struct {
	mu     sync.Mutex
	board  *actions.Board
	logger *log.Logger
	mcp    *server.MCPServer
}

// New registers the board tools.
func New(b *actions.Board, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	s := &Server{board: b, logger: opts.Logger}
	s.mcp = server.NewMCPServer(ServerName, buildinfo.Version, server.WithToolCapabilities(false))
	s.mcp.AddTools(s.tools()...)
	return s
}

// MCP returns the underlying protocol server.
func (s *Server) MCP() *server.MCPServer { return s.mcp }

// Serve reads requests from in and writes responses to out until ctx is
// cancelled or in reaches EOF.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	s.logger.Debug("serving mcp on stdio")
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// locked runs fn with exclusive access to the board.
func (s *Server) locked(fn func(b *actions.Board) (*mcpgo.CallToolResult, error)) (*mcpgo.CallToolResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := fn(s.board)
	if err != nil {
		// Tool failures go back to the model as results, not protocol errors.
		s.logger.Debug("tool failed", "err", err)
		return mcpgo.NewToolResultError(errors.UserMessage(err)), nil
	}
	return res, nil
}

func jsonResult(v any) (*mcpgo.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode result")
	}
	return mcpgo.NewToolResultText(string(data)), nil
}
