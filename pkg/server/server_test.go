package server

import (
	"bytes"
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

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/backend"
	"github.com/matzehuels/flowboard/pkg/board"
	"github.com/matzehuels/flowboard/pkg/boardio"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/geom"
	"github.com/matzehuels/flowboard/pkg/registry"
)

type fakeBackend struct {
	graph  json.RawMessage
	stream string
}

func (f *fakeBackend) Summarize(context.Context, boardio.Document) (backend.Summary, error) {
	return backend.Summary{Status: "ok", Graph: f.graph}, nil
}

func (f *fakeBackend) Process(context.Context, json.RawMessage) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(f.stream)), nil
}

func (f *fakeBackend) UploadImage(context.Context, string, io.Reader, string) (backend.Image, error) {
	return backend.Image{}, errors.New(errors.ErrCodeUnsupported, "no images")
}

func (f *fakeBackend) UploadImageURL(context.Context, string, string) (backend.Image, error) {
	return backend.Image{}, errors.New(errors.ErrCodeUnsupported, "no images")
}

func (f *fakeBackend) DeleteImage(context.Context, string) error { return nil }

func newTestServer(t *testing.T, be actions.Backend) *Server {
	t.Helper()
	logger := log.New(io.Discard)
	b := actions.New(board.NewModel(registry.Builtins()), actions.Options{
		Backend:         be,
		ArrangeDuration: time.Millisecond,
		ClearDuration:   time.Millisecond,
		Logger:          logger,
		Jitter:          func() float64 { return 0 },
	})
	_, err := b.Startup(context.Background())
	require.NoError(t, err)
	s := New(b, Options{Logger: logger})
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, w)["status"])
}

func TestBoardState(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/api/board", "")
	require.Equal(t, http.StatusOK, w.Code)

	v := decode[boardView](t, w)
	assert.Len(t, v.Instances, 15)
	assert.Empty(t, v.Links)
	assert.False(t, v.Linking.Active)
	assert.Equal(t, actions.DefaultViewport, v.Viewport)
	for _, inst := range v.Instances {
		assert.False(t, inst.Changed, inst.ID)
	}
}

func TestDefinitions(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodGet, "/api/board/definitions", "")
	require.Equal(t, http.StatusOK, w.Code)
	defs := decode[[]definitionView](t, w)
	require.NotEmpty(t, defs)
	assert.Equal(t, "agenda-panel", defs[0].ID)
	assert.Equal(t, "Agenda Panel", defs[0].Name)
}

func TestAddInstance(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/api/board/instances", `{"def":"sticky-note","x":10,"y":20}`)
	require.Equal(t, http.StatusCreated, w.Code)
	id := decode[idResponse](t, w).ID
	assert.True(t, strings.HasPrefix(id, "sticky-note-"), id)

	inst, ok := s.board.Model().Instance(id)
	require.True(t, ok)
	assert.Equal(t, 10.0, inst.X)
	assert.Equal(t, 20.0, inst.Y)
	assert.True(t, s.board.Model().IsChanged(id))

	w = do(t, s, http.MethodPost, "/api/board/instances", `{"def":"sticky-note","atView":true}`)
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestAddInstanceErrors(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/api/board/instances", `{"def":"nope"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, errors.ErrCodeUnknownDefinition, decode[errorBody](t, w).Code)

	w = do(t, s, http.MethodPost, "/api/board/instances", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/board/instances", `{not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decode[errorBody](t, w).Code)
}

func TestPatchInstance(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPatch, "/api/board/instances/photo",
		`{"x":5,"w":300,"enabled":false,"payload":{"src":"a.png"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[board.Instance](t, w)
	assert.Equal(t, 5.0, got.X)
	assert.Equal(t, 300.0, got.W)
	assert.False(t, got.Enabled)
	assert.Equal(t, "a.png", got.Payload["src"])

	w = do(t, s, http.MethodPatch, "/api/board/instances/photo", `{"h":0}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPatch, "/api/board/instances/missing", `{"x":1}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAndFront(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/api/board/instances/banner/front", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	banner, _ := s.board.Model().Instance("banner")
	for _, inst := range s.board.Model().Instances() {
		assert.LessOrEqual(t, inst.Z, banner.Z)
	}

	w = do(t, s, http.MethodDelete, "/api/board/instances/banner", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, http.MethodDelete, "/api/board/instances/banner", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTemplate(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/api/board/instances/sticky-note/template", "")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "tpl-sticky-note", decode[idResponse](t, w).ID)

	w = do(t, s, http.MethodPost, "/api/board/instances/missing/template", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLinkGesture(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodPost, "/api/board/links/start", `{"from":"sticky-note"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, linkStateResponse{State: "pending", From: "sticky-note"}, decode[linkStateResponse](t, w))

	w = do(t, s, http.MethodPost, "/api/board/links/cursor", `{"x":100,"y":50}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 100.0, s.board.Model().Linking().Pointer.X)

	w = do(t, s, http.MethodPost, "/api/board/links/finish", `{"to":"photo"}`)
	require.Equal(t, http.StatusOK, w.Code)
	fin := decode[finishResponse](t, w)
	require.True(t, fin.Created)
	assert.Equal(t, "photo", fin.Link.To)

	w = do(t, s, http.MethodPost, "/api/board/links/finish", `{"to":"photo"}`)
	assert.False(t, decode[finishResponse](t, w).Created, "finish without a pending link")

	w = do(t, s, http.MethodDelete, "/api/board/links/x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodDelete, "/api/board/links/3", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, s, http.MethodDelete, "/api/board/links/0", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, s.board.Model().Links())
}

func TestLinkCancel(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/api/board/links/start", `{"from":"sticky-note"}`)
	w := do(t, s, http.MethodPost, "/api/board/links/cancel", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, s.board.Model().Linking().Active)
}

func TestArrange(t *testing.T) {
	s := newTestServer(t, nil)
	s.board.Model().Move("sticky-note", geom.Point{X: 5000, Y: 5000})

	w := do(t, s, http.MethodPost, "/api/board/arrange", `{"animated":true}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	inst, _ := s.board.Model().Instance("sticky-note")
	assert.Less(t, inst.X, 1280.0)
	assert.True(t, inst.Arranged)
}

func TestExportImport(t *testing.T) {
	s := newTestServer(t, nil)

	w := do(t, s, http.MethodGet, "/api/board/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	exported := w.Body.String()
	doc := decode[boardio.Document](t, w)
	assert.Len(t, doc.Nodes, 15)

	w = do(t, s, http.MethodGet, "/api/board/export?format=dot", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "digraph board")

	w = do(t, s, http.MethodGet, "/api/board/export?format=png", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(t, s, http.MethodGet, "/api/board/export?format=gif", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, http.MethodPost, "/api/board/clear", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, s.board.Model().Len())

	w = do(t, s, http.MethodPost, "/api/board/import", exported)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 15, decode[importResponse](t, w).Instances)
	assert.Equal(t, 15, s.board.Model().Len())

	w = do(t, s, http.MethodPost, "/api/board/import", `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResetAndRestore(t *testing.T) {
	s := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/api/board/clear", "")
	require.Zero(t, s.board.Model().Len())

	w := do(t, s, http.MethodPost, "/api/board/restore", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 15, s.board.Model().Len())

	w = do(t, s, http.MethodPost, "/api/board/reset", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, s.board.Model().Links())
}

func TestProcess(t *testing.T) {
	be := &fakeBackend{
		graph:  json.RawMessage(`{"nodes":[]}`),
		stream: "data: === node=sticky-note ===\n\ndata: hello\n\n",
	}
	s := newTestServer(t, be)

	w := do(t, s, http.MethodPost, "/api/board/process", "")
	require.Equal(t, http.StatusAccepted, w.Code)

	assert.Eventually(t, func() bool {
		w := do(t, s, http.MethodGet, "/api/board/streams", "")
		return decode[map[string]string](t, w)["sticky-note"] == "hello"
	}, 2*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !s.processing.Load() }, time.Second, 5*time.Millisecond)
}

// gatedBackend holds the process stream open until gate is closed.
type gatedBackend struct {
	fakeBackend
	gate       chan struct{}
	entered    chan json.RawMessage
	summarized atomic.Int32
}

func (g *gatedBackend) Summarize(ctx context.Context, doc boardio.Document) (backend.Summary, error) {
	g.summarized.Add(1)
	return g.fakeBackend.Summarize(ctx, doc)
}

func (g *gatedBackend) Process(ctx context.Context, graph json.RawMessage) (io.ReadCloser, error) {
	g.entered <- graph
	<-g.gate
	return g.fakeBackend.Process(ctx, graph)
}

func TestProcessUsesGraphTakenUnderLock(t *testing.T) {
	be := &gatedBackend{
		fakeBackend: fakeBackend{
			graph:  json.RawMessage(`{"nodes":["a"]}`),
			stream: "data: === node=photo ===\n\ndata: done\n\n",
		},
		gate:    make(chan struct{}),
		entered: make(chan json.RawMessage, 1),
	}
	s := newTestServer(t, be)

	w := do(t, s, http.MethodPost, "/api/board/process", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, int32(1), be.summarized.Load())

	w = do(t, s, http.MethodPost, "/api/board/clear", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Zero(t, s.board.Model().Len())

	select {
	case graph := <-be.entered:
		assert.JSONEq(t, `{"nodes":["a"]}`, string(graph))
	case <-time.After(2 * time.Second):
		t.Fatal("process never reached the backend")
	}
	close(be.gate)

	assert.Eventually(t, func() bool { return !s.processing.Load() }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, int32(1), be.summarized.Load(), "the cleared board is not summarized again")
	text, _ := s.board.Model().Streams().Get("photo")
	assert.Equal(t, "done", text)
}

func TestProcessWithoutBackend(t *testing.T) {
	s := newTestServer(t, nil)
	w := do(t, s, http.MethodPost, "/api/board/process", "")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	assert.False(t, s.processing.Load())
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.New(errors.ErrCodeInvalidID, "x"), http.StatusBadRequest},
		{errors.New(errors.ErrCodeNotFound, "x"), http.StatusNotFound},
		{errors.New(errors.ErrCodeBackend, "x"), http.StatusBadGateway},
		{errors.New(errors.ErrCodeTimeout, "x"), http.StatusGatewayTimeout},
		{errors.New(errors.ErrCodeStore, "x"), http.StatusInternalServerError},
		{context.Canceled, http.StatusServiceUnavailable},
		{stderrors.New("plain"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}
