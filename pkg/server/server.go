// Package server serves the recall graph API over HTTP: the graph payload
// consumed by the viewer, drill-down command lists, session summaries and
// aggregate stats.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vanderheijden86/recall/pkg/debug"
	"github.com/vanderheijden86/recall/pkg/metrics"
	"github.com/vanderheijden86/recall/pkg/model"
)

// DefaultSessionLimit bounds /api/sessions when no limit is given.
const DefaultSessionLimit = 200

// Backend answers API queries.
type Backend interface {
	FetchGraph(ctx context.Context) (*model.GraphPayload, error)
	Commands(ctx context.Context, q model.CommandQuery) ([]model.Command, error)
	Stats(ctx context.Context) (model.Stats, error)
	SessionSummaries(ctx context.Context, limit, offset int) ([]model.SessionSummary, error)
}

// Server is the HTTP front of a Backend. Graph payloads are cached until
// Invalidate is called.
type Server struct {
	backend Backend
	builds  singleflight.Group

	mu     sync.Mutex
	cached *model.GraphPayload
	gen    uint64 // bumped by Invalidate; a build started earlier is not cached
}

const graphKey = "graph"

// New creates a server for b.
func New(b Backend) *Server {
	return &Server{backend: b}
}

// Invalidate drops the cached graph so the next request rebuilds it. A
// build already in flight still answers its callers but is not cached.
func (s *Server) Invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.gen++
	s.mu.Unlock()
	s.builds.Forget(graphKey)
	debug.Log("server: graph cache invalidated")
}

// Graph returns the cached payload, building it on first use. Concurrent
// callers share one build, which runs without holding the cache lock.
func (s *Server) Graph(ctx context.Context) (*model.GraphPayload, error) {
	s.mu.Lock()
	if p := s.cached; p != nil {
		s.mu.Unlock()
		return p, nil
	}
	gen := s.gen
	s.mu.Unlock()

	v, err, _ := s.builds.Do(graphKey, func() (any, error) {
		p, err := s.backend.FetchGraph(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		if s.gen == gen {
			s.cached = p
		}
		s.mu.Unlock()
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.GraphPayload), nil
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/commands", s.handleCommands)
	mux.HandleFunc("GET /api/sessions", s.handleSessions)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/metrics", s.handleMetrics)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	return mux
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	p, err := s.Graph(r.Context())
	if err != nil {
		debug.Log("server: graph: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	q := model.ParseCommandQuery(r.URL.Query())
	cmds, err := s.backend.Commands(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, model.CommandsResponse{Commands: cmds})
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", DefaultSessionLimit)
	offset := intParam(r, "offset", 0)
	list, err := s.backend.SessionSummaries(r.Context(), limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if list == nil {
		list = []model.SessionSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": list})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.backend.Stats(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"timings": metrics.AllTimingStats()})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func intParam(r *http.Request, name string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 0 {
		return def
	}
	return n
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// Serve listens on addr until ctx ends, then shuts down gracefully. Extra
// workers (a file watcher, for instance) run alongside and share the
// lifetime; the first failure stops everything.
func (s *Server) Serve(ctx context.Context, addr string, workers ...func(context.Context) error) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		debug.Log("server: listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	for _, work := range workers {
		g.Go(func() error { return work(gctx) })
	}
	return g.Wait()
}
