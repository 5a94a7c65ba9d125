package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "rental-aggregator/internal/common/errors"
	apphttp "rental-aggregator/internal/common/http"
	"rental-aggregator/internal/common/logger"
)

// fakeMCPServer serves one SSE session and answers the tool call with reply,
// built from the posted request id.
type fakeMCPServer struct {
	t        *testing.T
	reply    func(id string) string
	mu       sync.Mutex
	received []Request
	calls    chan string
}

func newFakeMCPServer(t *testing.T, reply func(id string) string) (*fakeMCPServer, *httptest.Server) {
	f := &fakeMCPServer{t: t, reply: reply, calls: make(chan string, 1)}
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", f.handleSSE)
	mux.HandleFunc("/message", f.handleMessage)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return f, server
}

func (f *fakeMCPServer) handleSSE(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, "secret", r.URL.Query().Get("token"))
	w.Header().Set("Content-Type", "text/event-stream")
	flusher := w.(http.Flusher)

	fmt.Fprint(w, ": keepalive\n\n")
	fmt.Fprint(w, "event: endpoint\ndata: /message?sessionId=sess-42\n\n")
	flusher.Flush()

	select {
	case id := <-f.calls:
		fmt.Fprint(w, "event: message\ndata: {\"jsonrpc\":\"2.0\",\"id\":\"someone-else\",\"result\":{\"runId\":\"nope\"}}\n\n")
		fmt.Fprintf(w, "event: message\ndata: %s\n\n", f.reply(id))
		flusher.Flush()
	case <-r.Context().Done():
		return
	}
	<-r.Context().Done()
}

func (f *fakeMCPServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	assert.Equal(f.t, http.MethodPost, r.Method)
	assert.Equal(f.t, "sess-42", r.URL.Query().Get("session_id"))
	assert.Equal(f.t, "secret", r.URL.Query().Get("token"))

	var req Request
	assert.NoError(f.t, json.NewDecoder(r.Body).Decode(&req))
	f.mu.Lock()
	f.received = append(f.received, req)
	f.mu.Unlock()

	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte("Accepted"))
	f.calls <- req.ID
}

func newTestClient(t *testing.T, baseURL string, timeout time.Duration) *Client {
	return NewClient(Config{BaseURL: baseURL, Token: "secret", Timeout: timeout}, nil, logger.NewTestLogger(t))
}

func TestInvoke_ReturnsDirectIdentifiers(t *testing.T) {
	fake, server := newFakeMCPServer(t, func(id string) string {
		return fmt.Sprintf(`{"jsonrpc":"2.0","id":%q,"result":{"runId":"run-1","defaultDatasetId":"ds-1"}}`, id)
	})

	handle, err := newTestClient(t, server.URL, 5*time.Second).Invoke(context.Background(), "zillow-scraper", map[string]interface{}{"location": "Austin"})
	require.NoError(t, err)
	assert.Equal(t, "run-1", handle.RunID)
	assert.Equal(t, "ds-1", handle.DatasetID)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.received, 1)
	got := fake.received[0]
	assert.Equal(t, "2.0", got.JSONRPC)
	assert.Equal(t, "tools/call", got.Method)
	assert.Equal(t, "zillow-scraper", got.Params.Name)
	assert.Equal(t, "Austin", got.Params.Arguments["location"])
	assert.Regexp(t, `^chatprop-`, got.ID)
}

func TestInvoke_ReadsEmbeddedRunInformation(t *testing.T) {
	_, server := newFakeMCPServer(t, func(id string) string {
		text := `Actor finished with run information: {"id":"run-9","defaultDatasetId":"ds-9"}`
		result, _ := json.Marshal(map[string]interface{}{
			"content": []interface{}{map[string]interface{}{"type": "text", "text": text}},
		})
		return fmt.Sprintf(`{"jsonrpc":"2.0","id":%q,"result":%s}`, id, result)
	})

	handle, err := newTestClient(t, server.URL, 5*time.Second).Invoke(context.Background(), "realtor", nil)
	require.NoError(t, err)
	assert.Equal(t, "run-9", handle.RunID)
	assert.Equal(t, "ds-9", handle.DatasetID)
}

func TestInvoke_LogsBrokenRunInformation(t *testing.T) {
	_, server := newFakeMCPServer(t, func(id string) string {
		text := `Actor finished with run information: {"id":"run-9","defaultDatasetId":`
		result, _ := json.Marshal(map[string]interface{}{
			"runId":   "run-direct",
			"content": []interface{}{map[string]interface{}{"type": "text", "text": text}},
		})
		return fmt.Sprintf(`{"jsonrpc":"2.0","id":%q,"result":%s}`, id, result)
	})

	core, logs := observer.New(zapcore.WarnLevel)
	c := NewClient(Config{BaseURL: server.URL, Token: "secret", Timeout: 5 * time.Second}, nil, logger.NewZapAdapter(zap.New(core)))

	handle, err := c.Invoke(context.Background(), "realtor", nil)
	require.NoError(t, err)
	assert.Equal(t, "run-direct", handle.RunID)
	assert.Empty(t, handle.DatasetID)

	entries := logs.FilterMessage("Could not read run information from tool result").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "decode embedded run information")
}

func TestInvoke_ToolErrorIsProtocolError(t *testing.T) {
	_, server := newFakeMCPServer(t, func(id string) string {
		return fmt.Sprintf(`{"jsonrpc":"2.0","id":%q,"error":{"code":-32602,"message":"bad input"}}`, id)
	})

	_, err := newTestClient(t, server.URL, 5*time.Second).Invoke(context.Background(), "zillow", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeProtocol))
	assert.Contains(t, err.Error(), "bad input")
}

func TestInvoke_ResultWithoutIdentifiers(t *testing.T) {
	_, server := newFakeMCPServer(t, func(id string) string {
		return fmt.Sprintf(`{"jsonrpc":"2.0","id":%q,"result":{"content":[{"type":"text","text":"no json here"}]}}`, id)
	})

	_, err := newTestClient(t, server.URL, 5*time.Second).Invoke(context.Background(), "zillow", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeProtocol))
	assert.Contains(t, err.Error(), "missing pollable identifiers")
}

func TestInvoke_MessagePostRejected(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sse", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "event: endpoint\ndata: /message?sessionId=abc\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	mux.HandleFunc("/message", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "session expired", http.StatusNotFound)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	_, err := newTestClient(t, server.URL, 5*time.Second).Invoke(context.Background(), "zillow", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTransport))
	assert.Contains(t, err.Error(), "404")
}

func TestInvoke_StreamEndsEarly(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": hello\n\n")
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 5*time.Second).Invoke(context.Background(), "zillow", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeProtocol))
}

func TestInvoke_StreamRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := newTestClient(t, server.URL, 5*time.Second).Invoke(context.Background(), "zillow", nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTransport))
}

func TestInvoke_MissingToken(t *testing.T) {
	c := NewClient(Config{BaseURL: "http://unused"}, nil, logger.NewNoOpLogger())
	_, err := c.Invoke(context.Background(), "zillow", nil)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfiguration))
}

// blockingBody never yields data and reports when it has been closed.
type blockingBody struct {
	once   sync.Once
	closed chan struct{}
}

func (b *blockingBody) Read(p []byte) (int, error) {
	<-b.closed
	return 0, io.ErrClosedPipe
}

func (b *blockingBody) Close() error {
	b.once.Do(func() { close(b.closed) })
	return nil
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestInvoke_TimeoutClosesStream(t *testing.T) {
	body := &blockingBody{closed: make(chan struct{})}
	transport := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/event-stream"}},
			Body:       body,
			Request:    r,
		}, nil
	})

	c := NewClient(
		Config{BaseURL: "http://mcp.test", Token: "secret", Timeout: 50 * time.Millisecond},
		apphttp.NewClientWithTransport(0, transport),
		logger.NewTestLogger(t),
	)

	start := time.Now()
	_, err := c.Invoke(context.Background(), "zillow", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTimeout), "got %v", err)
	assert.Less(t, time.Since(start), 5*time.Second)

	select {
	case <-body.closed:
	case <-time.After(time.Second):
		t.Fatal("event stream was not closed")
	}
}

func TestParseSessionID(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"/message?sessionId=abc-123", "abc-123"},
		{"/message?sessionId=abc&x=1", "abc"},
		{"/message?x=1&sessionId=abc-123&token=t", "abc-123"},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			id, err := parseSessionID(tt.endpoint)
			require.NoError(t, err)
			assert.Equal(t, tt.want, id)
		})
	}

	for _, endpoint := range []string{"/message", "/message?sessionId=", "/message?sessionId=&x=1"} {
		_, err := parseSessionID(endpoint)
		assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeProtocol), endpoint)
	}
}
