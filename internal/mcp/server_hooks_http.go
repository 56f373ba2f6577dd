package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	errors "github.com/Laisky/errors/v2"
	logSDK "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	mcp "github.com/mark3labs/mcp-go/mcp"
	srv "github.com/mark3labs/mcp-go/server"
)

func newMCPHooks(logger logSDK.Logger) *srv.Hooks {
	if logger == nil {
		return nil
	}

	hooks := &srv.Hooks{}

	hooks.AddBeforeAny(func(ctx context.Context, id any, method mcp.MCPMethod, message any) {
		fields := hookLogFields(ctx, id, method)
		if message != nil {
			fields = append(fields, zap.String("request", redactHookPayload(message)))
		}
		logger.Debug("mcp request received", fields...)
	})

	hooks.AddBeforeCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest) {
		fields := hookLogFields(ctx, id, mcp.MethodToolsCall)
		fields = append(fields, toolCallFields(message)...)
		logger.Info("mcp tool call", fields...)
	})

	hooks.AddAfterCallTool(func(ctx context.Context, id any, message *mcp.CallToolRequest, result any) {
		fields := hookLogFields(ctx, id, mcp.MethodToolsCall)
		if message != nil {
			fields = append(fields, zap.String("tool", message.Params.Name))
		}
		fields = append(fields, toolResultFields(result)...)
		logger.Info("mcp tool done", fields...)
	})

	hooks.AddOnError(func(ctx context.Context, id any, method mcp.MCPMethod, message any, err error) {
		fields := hookLogFields(ctx, id, method)
		if message != nil {
			fields = append(fields, zap.String("request", redactHookPayload(message)))
		}
		fields = append(fields, zap.Error(err))
		if shouldDowngradeMCPErrorLog(method, err) {
			logger.Debug("mcp request failed (non-critical)", fields...)
			return
		}
		logger.Error("mcp request failed", fields...)
	})

	hooks.AddOnRegisterSession(func(ctx context.Context, session srv.ClientSession) {
		logger.Info("mcp session registered", zap.String("session_id", session.SessionID()))
	})

	hooks.AddOnUnregisterSession(func(ctx context.Context, session srv.ClientSession) {
		logger.Info("mcp session unregistered", zap.String("session_id", session.SessionID()))
	})

	return hooks
}

// shouldDowngradeMCPErrorLog reports whether a failure comes from a client
// listing resources or prompts, neither of which this server offers.
func shouldDowngradeMCPErrorLog(method mcp.MCPMethod, err error) bool {
	if err == nil || !errors.Is(err, srv.ErrUnsupported) {
		return false
	}
	switch method {
	case mcp.MethodResourcesList,
		mcp.MethodResourcesTemplatesList,
		mcp.MethodPromptsList:
		return true
	default:
		return false
	}
}

func hookLogFields(ctx context.Context, id any, method mcp.MCPMethod) []zap.Field {
	fields := []zap.Field{
		zap.Any("request_id", id),
		zap.String("method", string(method)),
	}

	if session := srv.ClientSessionFromContext(ctx); session != nil {
		fields = append(fields, zap.String("session_id", session.SessionID()))
	}

	return fields
}

// toolCallFields summarizes tool arguments without logging the raw query.
func toolCallFields(req *mcp.CallToolRequest) []zap.Field {
	if req == nil {
		return nil
	}

	fields := []zap.Field{zap.String("tool", req.Params.Name)}
	args := req.GetArguments()
	if query, ok := args["query"].(string); ok {
		fields = append(fields, zap.Int("query_len", utf8.RuneCountInString(strings.TrimSpace(query))))
	}
	if category, ok := args["category"].(string); ok && category != "" {
		fields = append(fields, zap.String("category", category))
	}
	if resourceID, ok := args["resource_id"].(string); ok && resourceID != "" {
		fields = append(fields, zap.String("resource_id", redactSubscriptions(resourceID)))
	}

	return fields
}

// toolResultSummary picks the identifying fields out of a tool's JSON payload.
type toolResultSummary struct {
	SearchID string `json:"search_id"`
	State    string `json:"state"`
	Category string `json:"category"`
	Results  []any  `json:"results"`
}

func toolResultFields(result any) []zap.Field {
	res, ok := result.(*mcp.CallToolResult)
	if !ok || res == nil {
		return nil
	}

	fields := []zap.Field{zap.Bool("is_error", res.IsError)}
	if len(res.Content) == 0 {
		return fields
	}
	text, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		return fields
	}
	if res.IsError {
		return append(fields, zap.String("error", redactSubscriptions(text.Text)))
	}

	var summary toolResultSummary
	if err := json.Unmarshal([]byte(text.Text), &summary); err != nil {
		return fields
	}
	if summary.SearchID != "" {
		fields = append(fields,
			zap.String("search_id", summary.SearchID),
			zap.String("state", summary.State),
			zap.Int("result_count", len(summary.Results)),
		)
	}
	if summary.Category != "" {
		fields = append(fields, zap.String("category", summary.Category))
	}

	return fields
}

func withHTTPLogging(next http.Handler, logger logSDK.Logger) http.Handler {
	if next == nil {
		return nil
	}
	if logger == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		startAt := time.Now()
		body, truncated, err := readAndRestoreRequestBody(r, httpLogBodyLimit)
		if err != nil {
			logger.Error("read request body", zap.Error(err))
		}
		logger.Debug("incoming http request", httpRequestFields(r, body, truncated)...)

		lrw := newLoggingResponseWriter(w, httpLogBodyLimit)
		next.ServeHTTP(lrw, r)

		respBody, respTruncated := lrw.Body()
		fields := httpResponseFields(r, lrw.Status(), respBody, respTruncated)
		logger.Debug("outgoing http response", append(fields, zap.Duration("cost", time.Since(startAt)))...)
	})
}

func httpRequestFields(r *http.Request, body string, truncated bool) []zap.Field {
	sessionID := strings.TrimSpace(r.Header.Get(srv.HeaderKeySessionID))
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("url", redactSubscriptions(r.URL.String())),
		zap.String("body", redactMCPBody(body)),
		zap.Bool("body_truncated", truncated),
		zap.String("remote_addr", r.RemoteAddr),
		zap.String("mcp_session_id", sessionID),
	}
}

func httpResponseFields(r *http.Request, status int, body string, truncated bool) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("url", redactSubscriptions(r.URL.String())),
		zap.Int("status", status),
		zap.String("body", redactMCPBody(body)),
		zap.Bool("body_truncated", truncated),
		zap.String("remote_addr", r.RemoteAddr),
	}
}

func readAndRestoreRequestBody(r *http.Request, limit int) (string, bool, error) {
	if r.Body == nil {
		return "", false, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return "", false, errors.Wrap(err, "read body")
	}
	if err := r.Body.Close(); err != nil {
		return "", false, errors.Wrap(err, "close body")
	}

	r.Body = io.NopCloser(bytes.NewReader(data))
	logged, truncated := truncateForLog(data, limit)
	return logged, truncated, nil
}

// loggingResponseWriter tees up to bodyLimit bytes of the response for logging.
// MCP streams over SSE, so Flush must keep reaching the underlying writer.
type loggingResponseWriter struct {
	http.ResponseWriter
	status    int
	buffer    bytes.Buffer
	truncated bool
	bodyLimit int
}

func newLoggingResponseWriter(w http.ResponseWriter, limit int) *loggingResponseWriter {
	return &loggingResponseWriter{
		ResponseWriter: w,
		bodyLimit:      limit,
	}
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.status = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	if lrw.status == 0 {
		lrw.status = http.StatusOK
	}

	remaining := lrw.bodyLimit - lrw.buffer.Len()
	switch {
	case remaining <= 0:
		lrw.truncated = true
	case len(b) > remaining:
		lrw.buffer.Write(b[:remaining])
		lrw.truncated = true
	default:
		lrw.buffer.Write(b)
	}

	return lrw.ResponseWriter.Write(b)
}

func (lrw *loggingResponseWriter) Status() int {
	if lrw.status == 0 {
		return http.StatusOK
	}
	return lrw.status
}

func (lrw *loggingResponseWriter) Body() (string, bool) {
	return lrw.buffer.String(), lrw.truncated
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (lrw *loggingResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := lrw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, errors.New("hijacker not supported")
}

func truncateForLog(data []byte, limit int) (string, bool) {
	if len(data) <= limit {
		return string(data), false
	}
	return string(data[:limit]), true
}
