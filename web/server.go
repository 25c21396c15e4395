// ABOUTME: HTTP server serving a content store behind a chi router, with the entry file at "/".
// ABOUTME: Root requests wait on the readiness gate and read the entry only after it settles.
package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime"
	"net"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/2389-research/specserve/content"
	"github.com/2389-research/specserve/readiness"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ErrNoFiles is returned by NewServer when no content store is given.
var ErrNoFiles = errors.New("content store must not be nil")

// ServerOption configures optional Server behavior.
type ServerOption func(*Server)

// WithWhenReady gates root requests on signals produced by factory. The
// server builds and owns the readiness.Gate, and Close shuts it down.
func WithWhenReady(factory readiness.Factory) ServerOption {
	return func(s *Server) {
		s.whenReady = factory
	}
}

// WithGate gates root requests on an existing gate owned by the caller.
func WithGate(g *readiness.Gate) ServerOption {
	return func(s *Server) {
		s.gate = g
	}
}

// WithEntry sets the store key served at "/". Defaults to content.DefaultEntry.
func WithEntry(key string) ServerOption {
	return func(s *Server) {
		if key != "" {
			s.entry = key
		}
	}
}

// WithRequestLogging toggles the per-request log line.
func WithRequestLogging(enabled bool) ServerOption {
	return func(s *Server) {
		s.logRequests = enabled
	}
}

// WithLogger sets the logger for request and readiness logs. Defaults to log.Default().
func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server dispatches "/" to the entry file and every other path to an exact
// lookup in the content store. The store is only ever read.
type Server struct {
	files       content.Store
	entry       string
	whenReady   readiness.Factory
	gate        *readiness.Gate
	ownsGate    bool
	logRequests bool
	logger      *log.Logger
	router      chi.Router
}

// NewServer creates a Server reading from files. When a readiness factory is
// configured, its first invocation happens here and a failure is returned.
func NewServer(files content.Store, opts ...ServerOption) (*Server, error) {
	if files == nil {
		return nil, ErrNoFiles
	}

	s := &Server{
		files:  files,
		entry:  content.DefaultEntry,
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.gate == nil && s.whenReady != nil {
		g, err := readiness.New(s.whenReady, readiness.WithLogger(s.logger))
		if err != nil {
			return nil, fmt.Errorf("creating readiness gate: %w", err)
		}
		s.gate = g
		s.ownsGate = true
	}

	s.router = s.buildRouter()
	return s, nil
}

// ServeHTTP delegates to the chi router, satisfying http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Gate returns the readiness gate, or nil when the server is always ready.
func (s *Server) Gate() *readiness.Gate {
	return s.gate
}

// Close releases the gate if the server created it. Root requests still
// waiting are aborted.
func (s *Server) Close() {
	if s.ownsGate {
		s.gate.Close()
	}
}

// ListenAndServe listens on addr and serves until ctx is cancelled. See Serve.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully. There is no write timeout: root requests may wait for
// readiness for as long as it takes. On shutdown every request context is
// cancelled, so root requests still waiting are aborted even when the gate
// belongs to the caller.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()

	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("web listening addr=%s entry=%s gated=%t", ln.Addr(), s.entry, s.gate != nil)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serving on %s: %w", ln.Addr(), err)
		}
		return nil
	case <-ctx.Done():
	}

	s.Close()
	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

// buildRouter constructs the chi router with all routes and middleware.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	if s.logRequests {
		r.Use(requestLogger(s.logger))
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)

	r.Get("/", s.handleEntry)
	r.Get("/*", s.handleFile)

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	return r
}

// handleEntry waits for readiness, then serves the entry file as it is now.
func (s *Server) handleEntry(w http.ResponseWriter, r *http.Request) {
	if s.gate != nil {
		if err := s.gate.Wait(r.Context()); err != nil {
			// Client went away or the server is shutting down; there is no
			// response to give.
			panic(http.ErrAbortHandler)
		}
	}

	body, ok := s.files.Get(s.entry)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	s.writeBody(w, s.entry, body)
}

// handleFile serves the store entry whose key is the request path without its leading slash.
func (s *Server) handleFile(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/")
	body, ok := s.files.Get(key)
	if !ok {
		s.handleNotFound(w, r)
		return
	}
	s.writeBody(w, key, body)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "not found", http.StatusNotFound)
}

func (s *Server) writeBody(w http.ResponseWriter, key string, body []byte) {
	ctype := mime.TypeByExtension(path.Ext(key))
	if ctype == "" {
		ctype = http.DetectContentType(body)
	}
	w.Header().Set("Content-Type", ctype)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		s.logger.Printf("web write failed key=%s err=%v", key, err)
	}
}
