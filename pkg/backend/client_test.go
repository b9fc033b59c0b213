package backend

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowboard/pkg/boardio"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/httputil"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := New(Options{
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
		Backoff: httputil.Backoff{Attempts: 3, Delay: time.Millisecond},
	})
	require.NoError(t, err)
	return c
}

func TestNewDefaults(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, httputil.DefaultBackoff(), c.backoff)

	c, err = New(Options{BaseURL: "http://example.com/"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", c.BaseURL())
}

func TestNewInvalidURL(t *testing.T) {
	_, err := New(Options{BaseURL: "not a url"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestSummarize(t *testing.T) {
	var got struct {
		Board boardio.Document `json:"board"`
	}
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/graph/summarize", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"status":"ok","nodes":2,"edges":1,"graph":{"nodes":[{"id":"a"}]}}`)
	}))

	doc := boardio.Document{
		Board: boardio.Board{Width: 1280, Height: 800},
		Nodes: []boardio.Node{{ID: "a", Type: "Sticky Note"}, {ID: "b", Type: "Quote"}},
		Edges: []boardio.Edge{{From: "a", To: "b", Color: "#111"}},
	}
	sum, err := c.Summarize(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, "ok", sum.Status)
	assert.Equal(t, 2, sum.Nodes)
	assert.Equal(t, 1, sum.Edges)
	assert.True(t, sum.HasGraph())
	assert.JSONEq(t, `{"nodes":[{"id":"a"}]}`, string(sum.Graph))
	assert.Equal(t, 1280.0, got.Board.Board.Width)
	assert.Len(t, got.Board.Nodes, 2)
}

func TestSummaryHasGraph(t *testing.T) {
	assert.False(t, Summary{}.HasGraph())
	assert.False(t, Summary{Graph: json.RawMessage(" null ")}.HasGraph())
	assert.True(t, Summary{Graph: json.RawMessage(`{}`)}.HasGraph())
}

func TestRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"ok","graph":{}}`)
	}))

	_, err := c.Summarize(context.Background(), boardio.Document{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		code     errors.Code
		sentinel error
		calls    int32
	}{
		{"not found", http.StatusNotFound, errors.ErrCodeNotFound, ErrNotFound, 1},
		{"bad request", http.StatusBadRequest, errors.ErrCodeBackend, nil, 1},
		{"server error", http.StatusInternalServerError, errors.ErrCodeNetwork, ErrNetwork, 3},
		{"rate limited", http.StatusTooManyRequests, errors.ErrCodeNetwork, ErrNetwork, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				http.Error(w, "nope", tt.status)
			}))

			_, err := c.Summarize(context.Background(), boardio.Document{})
			require.Error(t, err)
			assert.Equal(t, tt.code, errors.GetCode(err))
			if tt.sentinel != nil {
				assert.True(t, stderrors.Is(err, tt.sentinel), "want %v in chain of %v", tt.sentinel, err)
			}
			assert.Equal(t, tt.calls, calls.Load())
		})
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c, err := New(Options{BaseURL: addr, Backoff: httputil.Backoff{Attempts: 2, Delay: time.Millisecond}})
	require.NoError(t, err)

	_, err = c.Summarize(context.Background(), boardio.Document{})
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, ErrNetwork))
	assert.True(t, errors.IsRemote(err))
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	c, err := New(Options{
		BaseURL: srv.URL,
		Timeout: 20 * time.Millisecond,
		Backoff: httputil.Backoff{Attempts: 1},
	})
	require.NoError(t, err)

	_, err = c.Summarize(context.Background(), boardio.Document{})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeTimeout, errors.GetCode(err))
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Summarize(ctx, boardio.Document{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcess(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/graph/process", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, map[string]any{"g": 1.0}, req["graph"])
		assert.Equal(t, false, req["verbose"])
		assert.Equal(t, true, req["stream"])

		w.Header().Set("Content-Type", "text/event-stream")
		_, _ = io.WriteString(w, "data: === node=a ===\n\ndata: hi\n\n")
	}))

	body, err := c.Process(context.Background(), json.RawMessage(`{"g":1}`))
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "data: === node=a ===\n\ndata: hi\n\n", string(data))
}

func TestProcessNoGraph(t *testing.T) {
	c, err := New(Options{})
	require.NoError(t, err)
	_, err = c.Process(context.Background(), nil)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidInput))
}

func TestProcessOutlivesTimeout(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		time.Sleep(60 * time.Millisecond)
		_, _ = io.WriteString(w, "data: late\n\n")
	}))
	c.timeout = 10 * time.Millisecond

	body, err := c.Process(context.Background(), json.RawMessage(`{}`))
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "late"))
}
