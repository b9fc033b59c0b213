package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/flowboard/pkg/actions"
	"github.com/matzehuels/flowboard/pkg/errors"
	"github.com/matzehuels/flowboard/pkg/observability"
)

// DefaultAddr is the listen address when none is configured.
const DefaultAddr = ":8090"

// shutdownTimeout bounds graceful shutdown in [Server.ListenAndServe].
const shutdownTimeout = 5 * time.Second

// maxImportBytes caps the body of POST /api/board/import.
const maxImportBytes = 16 << 20

// Options configures a [Server].
type Options struct {
	Addr   string
	Logger *log.Logger
}

// Server serves one board.
type Server struct {
	mu     sync.Mutex
	board  *actions.Board
	addr   string
	logger *log.Logger
	hub    *hub
	router chi.Router

	bg         context.Context
	stopBG     context.CancelFunc
	processing atomic.Bool
	procWG     sync.WaitGroup
	unwatch    func()
}

// New creates a server for b and subscribes it to model changes. Call
// [Server.Close] to release the subscription.
func New(b *actions.Board, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	bg, stop := context.WithCancel(context.Background())
	s := &Server{
		board:  b,
		addr:   opts.Addr,
		logger: opts.Logger,
		hub:    newHub(opts.Logger),
		bg:     bg,
		stopBG: stop,
	}
	s.unwatch = b.Model().Subscribe(s.hub.broadcast)
	s.router = s.routes()
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Close stops background processing, disconnects event clients and drops
// the model subscription. It waits for a running process to return.
func (s *Server) Close() {
	s.stopBG()
	s.procWG.Wait()
	s.unwatch()
	s.hub.close()
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving board", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeNetwork, err, "listen on %s", s.addr)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.hub.close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "shutdown")
	}
	return nil
}

// locked runs fn with exclusive access to the board.
func (s *Server) locked(fn func(b *actions.Board) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.board)
}

// =============================================================================
// Routing
// =============================================================================

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)

	r.Route("/api/board", func(r chi.Router) {
		r.Get("/", s.handleBoard)
		r.Get("/definitions", s.handleDefinitions)

		r.Post("/instances", s.handleAddInstance)
		r.Route("/instances/{id}", func(r chi.Router) {
			r.Delete("/", s.handleDeleteInstance)
			r.Patch("/", s.handlePatchInstance)
			r.Post("/front", s.handleFront)
			r.Post("/template", s.handleTemplate)
		})

		r.Post("/links/start", s.handleLinkStart)
		r.Post("/links/cursor", s.handleLinkCursor)
		r.Post("/links/finish", s.handleLinkFinish)
		r.Post("/links/cancel", s.handleLinkCancel)
		r.Delete("/links/{index}", s.handleUnlink)

		r.Post("/arrange", s.handleArrange)
		r.Get("/export", s.handleExport)
		r.Post("/import", s.handleImport)
		r.Post("/clear", s.handleClear)
		r.Post("/reset", s.handleReset)
		r.Post("/restore", s.handleRestore)
		r.Post("/process", s.handleProcess)
		r.Get("/streams", s.handleStreams)
		r.Get("/events", s.hub.serve)
	})
	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.Host, r.URL.Path)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		observability.HTTP().OnResponse(r.Context(), r.Method, r.Host, r.URL.Path, status, time.Since(start))
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", status,
			"duration", time.Since(start), "id", middleware.GetReqID(r.Context()))
	})
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error string      `json:"error"`
	Code  errors.Code `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
		observability.HTTP().OnError(r.Context(), r.Method, r.Host, r.URL.Path, err)
	}
	writeJSON(w, status, errorBody{Error: errors.UserMessage(err), Code: errors.GetCode(err)})
}

// StatusFor maps an error to the HTTP status the API answers with.
func StatusFor(err error) int {
	switch errors.GetCode(err) {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidFormat, errors.ErrCodeInvalidID:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeUnknownDefinition:
		return http.StatusNotFound
	case errors.ErrCodeNetwork, errors.ErrCodeBackend:
		return http.StatusBadGateway
	case errors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeUnsupported:
		return http.StatusNotImplemented
	}
	if stderrors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if stderrors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}
