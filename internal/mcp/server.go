// Package mcp exposes the web search and detector registry over the Model Context Protocol.
package mcp

import (
	"net/http"

	"github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	srv "github.com/mark3labs/mcp-go/server"

	"github.com/Laisky/diagnostics-portal/internal/mcp/tools"
)

const (
	serverName    = "diagnostics-portal"
	serverVersion = "1.0.0"
)

// Server wraps the MCP server state for the HTTP transport.
type Server struct {
	handler http.Handler
	logger  logSDK.Logger
	tools   []string
}

// NewServer constructs a remote MCP server exposing the given tools under a single handler.
func NewServer(logger logSDK.Logger, toolset ...tools.Tool) (*Server, error) {
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	hooks := newMCPHooks(logger.Named("mcp_hooks"))

	mcpServer := srv.NewMCPServer(
		serverName,
		serverVersion,
		srv.WithToolCapabilities(true),
		srv.WithInstructions("Use web_search to find troubleshooting articles and detector_menu to browse detector categories."),
		srv.WithRecovery(),
		srv.WithHooks(hooks),
	)

	s := &Server{logger: logger.Named("mcp")}
	for _, tool := range toolset {
		if tool == nil {
			continue
		}
		def := tool.Definition()
		mcpServer.AddTool(def, tool.Handle)
		s.tools = append(s.tools, def.Name)
	}
	if len(s.tools) == 0 {
		return nil, errors.New("at least one tool is required")
	}

	streamable := srv.NewStreamableHTTPServer(mcpServer)
	s.handler = withHTTPLogging(streamable, s.logger.Named("http"))
	s.logger.Info("mcp server ready", zap.Strings("tools", s.tools))

	return s, nil
}

// Handler returns the HTTP handler that should be mounted to serve MCP traffic.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Tools returns the names of the registered tools.
func (s *Server) Tools() []string {
	return append([]string(nil), s.tools...)
}
