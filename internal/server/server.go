// Package server hosts a Universe over HTTP and websockets.
//
// A single loop goroutine owns the Universe. HTTP handlers never touch it
// directly; they submit closures over a channel and wait for the reply.
// While playing, the loop ticks on an interval and pushes one binary frame
// per tick to every websocket subscriber.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"
	"golang.org/x/sync/errgroup"

	"github.com/nvandessel/pheromones/internal/constants"
	"github.com/nvandessel/pheromones/internal/logging"
	"github.com/nvandessel/pheromones/internal/ratelimit"
	"github.com/nvandessel/pheromones/internal/universe"
)

// ErrStopped is returned by requests submitted after the loop has exited.
var ErrStopped = errors.New("server loop stopped")

// Config configures a Server.
type Config struct {
	Universe *universe.Universe

	// Addr is the listen address. Empty means constants.DefaultServerAddr.
	Addr string

	// TickInterval is the play cadence. Zero means the default.
	TickInterval time.Duration

	// Limiters rate-limit mutating routes. Nil means ratelimit.NewRouteLimiters.
	Limiters ratelimit.ToolLimiters

	Logger *slog.Logger
}

// Server serves the arena page, the JSON API and the frame stream.
type Server struct {
	uni      *universe.Universe
	interval time.Duration
	limiters ratelimit.ToolLimiters
	logger   *slog.Logger
	router   *way.Router
	upgrader websocket.Upgrader

	cmds chan command
	done chan struct{}

	// Loop-owned state.
	playing bool
	subs    map[chan []byte]struct{}

	mu         sync.Mutex
	addr       string
	configAddr string
	httpServer *http.Server
}

// NewServer creates a server around cfg.Universe. Call ListenAndServe, or
// Loop plus Handler when embedding.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Universe == nil {
		return nil, errors.New("server: universe is required")
	}
	s := &Server{
		uni:        cfg.Universe,
		interval:   cfg.TickInterval,
		limiters:   cfg.Limiters,
		logger:     cfg.Logger,
		configAddr: cfg.Addr,
		cmds:       make(chan command),
		done:       make(chan struct{}),
		subs:       make(map[chan []byte]struct{}),
	}
	if s.interval <= 0 {
		s.interval = constants.DefaultTickIntervalMs * time.Millisecond
	}
	if s.limiters == nil {
		s.limiters = ratelimit.NewRouteLimiters()
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.configAddr == "" {
		s.configAddr = constants.DefaultServerAddr
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server's routes.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the address the server is listening on (e.g., "localhost:PORT").
// Returns empty string if the server hasn't started yet.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// ListenAndServe runs the loop and serves HTTP until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.configAddr)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	s.mu.Lock()
	s.addr = ln.Addr().String()
	s.httpServer = &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.Loop(gctx)
		return nil
	})
	// Graceful shutdown when context is cancelled.
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		// Once Serve returns, the loop and the shutdown waiter stop too.
		defer cancel()
		s.logger.Info("serving", "addr", s.addr)
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	return g.Wait()
}
