package mcp

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Laisky/errors/v2"
	glog "github.com/Laisky/go-utils/v6/log"
	"github.com/Laisky/zap"
	"github.com/Laisky/zap/zapcore"
	"github.com/Laisky/zap/zaptest/observer"
	"github.com/mark3labs/mcp-go/mcp"
	srv "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
)

const testResourceID = "/subscriptions/0f1e2d3c-aaaa-bbbb-cccc-123456789abc/resourceGroups/rg/providers/Microsoft.Web/sites/shop"

// newObservedLogger returns a logger whose entries are kept in memory.
func newObservedLogger() (glog.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := glog.Shared.WithOptions(zap.WrapCore(func(zapcore.Core) zapcore.Core {
		return core
	}))
	return logger, logs
}

func TestShouldDowngradeMCPErrorLog(t *testing.T) {
	resourcesErr := fmt.Errorf("resources %w", srv.ErrUnsupported)
	promptsErr := errors.Wrap(fmt.Errorf("prompts %w", srv.ErrUnsupported), "request error")

	require.True(t, shouldDowngradeMCPErrorLog(mcp.MethodResourcesList, resourcesErr))
	require.True(t, shouldDowngradeMCPErrorLog(mcp.MethodResourcesTemplatesList, resourcesErr))
	require.True(t, shouldDowngradeMCPErrorLog(mcp.MethodPromptsList, promptsErr))
}

func TestShouldDowngradeMCPErrorLogFalse(t *testing.T) {
	require.False(t, shouldDowngradeMCPErrorLog(mcp.MethodToolsCall, fmt.Errorf("tools %w", srv.ErrUnsupported)))
	require.False(t, shouldDowngradeMCPErrorLog(mcp.MethodResourcesList, errors.New("resources not supported")))
	require.False(t, shouldDowngradeMCPErrorLog(mcp.MethodResourcesList, nil))
}

func TestOnErrorHookLevels(t *testing.T) {
	logger, logs := newObservedLogger()
	hooks := newMCPHooks(logger)
	require.Len(t, hooks.OnError, 1)

	hooks.OnError[0](context.Background(), 1, mcp.MethodResourcesList, nil, fmt.Errorf("resources %w", srv.ErrUnsupported))
	hooks.OnError[0](context.Background(), 2, mcp.MethodToolsCall, nil, errors.New("boom"))

	entries := logs.All()
	require.Len(t, entries, 2)
	require.Equal(t, zapcore.DebugLevel, entries[0].Level)
	require.Equal(t, zapcore.ErrorLevel, entries[1].Level)
}

func TestBeforeCallToolHookMasksResourceID(t *testing.T) {
	logger, logs := newObservedLogger()
	hooks := newMCPHooks(logger)
	require.Len(t, hooks.OnBeforeCallTool, 1)

	req := &mcp.CallToolRequest{}
	req.Params.Name = "web_search"
	req.Params.Arguments = map[string]any{
		"query":       "  disk full ",
		"resource_id": testResourceID,
	}
	hooks.OnBeforeCallTool[0](context.Background(), 7, req)

	entries := logs.FilterMessage("mcp tool call").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "web_search", fields["tool"])
	require.Equal(t, int64(9), fields["query_len"])
	require.Equal(t, string(mcp.MethodToolsCall), fields["method"])

	resourceID, ok := fields["resource_id"].(string)
	require.True(t, ok)
	require.Contains(t, resourceID, "/subscriptions/"+redactedValue+"/resourceGroups/rg")
	require.NotContains(t, resourceID, "0f1e2d3c")
	require.NotContains(t, fields, "category")
}

func TestBeforeCallToolHookLogsCategory(t *testing.T) {
	req := &mcp.CallToolRequest{}
	req.Params.Name = "detector_menu"
	req.Params.Arguments = map[string]any{"category": "BestPractices"}

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range toolCallFields(req) {
		f.AddTo(enc)
	}
	require.Equal(t, "detector_menu", enc.Fields["tool"])
	require.Equal(t, "BestPractices", enc.Fields["category"])
	require.NotContains(t, enc.Fields, "query_len")
	require.Nil(t, toolCallFields(nil))
}

func TestAfterCallToolHookLogsSearchID(t *testing.T) {
	logger, logs := newObservedLogger()
	hooks := newMCPHooks(logger)
	require.Len(t, hooks.OnAfterCallTool, 1)

	result, err := mcp.NewToolResultJSON(map[string]any{
		"query":     "disk full",
		"search_id": "search-42",
		"state":     "completed",
		"results":   []map[string]string{{"title": "a"}, {"title": "b"}},
	})
	require.NoError(t, err)

	req := &mcp.CallToolRequest{}
	req.Params.Name = "web_search"
	hooks.OnAfterCallTool[0](context.Background(), 8, req, result)

	entries := logs.FilterMessage("mcp tool done").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "web_search", fields["tool"])
	require.Equal(t, "search-42", fields["search_id"])
	require.Equal(t, "completed", fields["state"])
	require.Equal(t, int64(2), fields["result_count"])
	require.Equal(t, false, fields["is_error"])
}

func TestToolResultFieldsErrorIsMasked(t *testing.T) {
	result := mcp.NewToolResultError("search failed: " + testResourceID)

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range toolResultFields(result) {
		f.AddTo(enc)
	}
	require.Equal(t, true, enc.Fields["is_error"])
	require.NotContains(t, enc.Fields["error"], "0f1e2d3c")
	require.NotContains(t, enc.Fields, "search_id")

	require.Nil(t, toolResultFields("not a result"))
}

func TestWithHTTPLoggingMasksBodies(t *testing.T) {
	logger, logs := newObservedLogger()
	reqBody := `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"web_search","arguments":{"query":"slow","resource_id":"` + testResourceID + `"}}}`
	respBody := `{"jsonrpc":"2.0","id":1,"result":{"resource":"` + testResourceID + `"}}`

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.Equal(t, reqBody, string(got))
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(respBody))
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(reqBody))
	req.Header.Set(srv.HeaderKeySessionID, " session-1 ")
	rec := httptest.NewRecorder()
	withHTTPLogging(next, logger).ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, respBody, rec.Body.String())

	incoming := logs.FilterMessage("incoming http request").All()
	require.Len(t, incoming, 1)
	inFields := incoming[0].ContextMap()
	require.Equal(t, "session-1", inFields["mcp_session_id"])
	require.Contains(t, inFields["body"], redactedValue)
	require.NotContains(t, inFields["body"], "0f1e2d3c")

	outgoing := logs.FilterMessage("outgoing http response").All()
	require.Len(t, outgoing, 1)
	outFields := outgoing[0].ContextMap()
	require.Equal(t, int64(http.StatusAccepted), outFields["status"])
	require.Equal(t, false, outFields["body_truncated"])
	require.NotContains(t, outFields["body"], "0f1e2d3c")
}

func TestWithHTTPLoggingPassthrough(t *testing.T) {
	require.Nil(t, withHTTPLogging(nil, glog.Shared))

	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	require.NotNil(t, withHTTPLogging(next, nil))
}

func TestLoggingResponseWriterTruncates(t *testing.T) {
	rec := httptest.NewRecorder()
	lrw := newLoggingResponseWriter(rec, 4)

	_, err := lrw.Write([]byte("abc"))
	require.NoError(t, err)
	_, err = lrw.Write([]byte("def"))
	require.NoError(t, err)
	_, err = lrw.Write([]byte("ghi"))
	require.NoError(t, err)

	body, truncated := lrw.Body()
	require.Equal(t, "abcd", body)
	require.True(t, truncated)
	require.Equal(t, http.StatusOK, lrw.Status())
	require.Equal(t, "abcdefghi", rec.Body.String())
}
