package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/matryer/way"

	"github.com/nvandessel/pheromones/internal/constants"
	"github.com/nvandessel/pheromones/internal/grid"
	"github.com/nvandessel/pheromones/internal/ratelimit"
	"github.com/nvandessel/pheromones/internal/universe"
)

// Info describes the hosted Universe.
type Info struct {
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Start   grid.Pos        `json:"start"`
	End     grid.Pos        `json:"end"`
	Tick    uint64          `json:"tick"`
	Playing bool            `json:"playing"`
	Config  universe.Config `json:"config"`
}

// CellResult is the response to a wall toggle.
type CellResult struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Cell string `json:"cell"`
}

// RolesResult is the response to a Start or End move.
type RolesResult struct {
	Start grid.Pos `json:"start"`
	End   grid.Pos `json:"end"`
}

// PlayResult is the response to play and pause.
type PlayResult struct {
	Playing bool `json:"playing"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) routes() {
	s.router = way.NewRouter()
	s.router.HandleFunc("GET", "/", s.handleIndex)
	s.router.HandleFunc("GET", "/api/info", s.handleInfo)
	s.router.HandleFunc("GET", "/api/stats", s.handleStats)
	s.router.HandleFunc("GET", "/api/cells", s.handleCells)
	s.router.HandleFunc("POST", "/api/wall", s.limited("POST /api/wall", s.handleWall))
	s.router.HandleFunc("POST", "/api/start", s.limited("POST /api/start", s.handleRole((*universe.Universe).SetStart)))
	s.router.HandleFunc("POST", "/api/end", s.limited("POST /api/end", s.handleRole((*universe.Universe).SetEnd)))
	s.router.HandleFunc("POST", "/api/tick", s.limited("POST /api/tick", s.handleTick))
	s.router.HandleFunc("POST", "/api/play", s.handlePlay(true))
	s.router.HandleFunc("POST", "/api/pause", s.handlePlay(false))
	s.router.HandleFunc("GET", "/ws", s.handleWS)
}

// limited wraps h with the route's rate limiter.
func (s *Server) limited(route string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := ratelimit.CheckLimit(s.limiters, route); err != nil {
			if l, ok := s.limiters[route]; ok {
				if wait := l.RetryAfter(route); wait > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				}
			}
			writeError(w, http.StatusTooManyRequests, err)
			return
		}
		h(w, r)
	}
}

// handleIndex serves the arena page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	page, err := assets.ReadFile("assets/index.html")
	if err != nil {
		http.Error(w, "render error: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	v, err := s.do(r.Context(), func() (any, error) {
		return Info{
			Width:   s.uni.Width(),
			Height:  s.uni.Height(),
			Start:   s.uni.Start(),
			End:     s.uni.End(),
			Tick:    s.uni.TickCount(),
			Playing: s.playing,
			Config:  s.uni.Config(),
		}, nil
	})
	respond(w, v, err)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	v, err := s.do(r.Context(), func() (any, error) {
		return s.uni.Stats(), nil
	})
	respond(w, v, err)
}

// handleCells writes the current encoded frame.
func (s *Server) handleCells(w http.ResponseWriter, r *http.Request) {
	v, err := s.do(r.Context(), func() (any, error) {
		return s.uni.Frame().Encode()
	})
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Write(v.([]byte))
}

func (s *Server) handleWall(w http.ResponseWriter, r *http.Request) {
	row, col, err := cellParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	v, err := s.do(r.Context(), func() (any, error) {
		cell, err := s.uni.ToggleWall(row, col)
		if err != nil {
			return nil, err
		}
		s.broadcast()
		return CellResult{Row: row, Col: col, Cell: cell.String()}, nil
	})
	respond(w, v, err)
}

func (s *Server) handleRole(set func(*universe.Universe, int, int) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		row, col, err := cellParams(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		v, err := s.do(r.Context(), func() (any, error) {
			if err := set(s.uni, row, col); err != nil {
				return nil, err
			}
			s.broadcast()
			return RolesResult{Start: s.uni.Start(), End: s.uni.End()}, nil
		})
		respond(w, v, err)
	}
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	n := 1
	if q := r.URL.Query().Get("n"); q != "" {
		v, err := strconv.Atoi(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid n %q", q))
			return
		}
		n = v
	}
	if n < 1 || n > constants.MaxTicksPerRequest {
		writeError(w, http.StatusBadRequest, fmt.Errorf("n must be between 1 and %d, got %d", constants.MaxTicksPerRequest, n))
		return
	}
	v, err := s.do(r.Context(), func() (any, error) {
		s.uni.TickN(n)
		s.broadcast()
		return s.uni.Stats(), nil
	})
	respond(w, v, err)
}

func (s *Server) handlePlay(playing bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := s.do(r.Context(), func() (any, error) {
			if s.playing != playing {
				s.logger.Info("play state changed", "playing", playing, "tick", s.uni.TickCount())
			}
			s.playing = playing
			return PlayResult{Playing: playing}, nil
		})
		respond(w, v, err)
	}
}

// handleWS streams one binary frame per tick until the client goes away.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	frames, err := s.subscribe(r.Context())
	if err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, err.Error()))
		return
	}
	defer s.unsubscribe(frames)

	// Reads only detect the close; clients send nothing.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data, ok := <-frames:
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server stopping"))
				return
			}
			conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
				return
			}
		case <-gone:
			return
		}
	}
}

func cellParams(r *http.Request) (row, col int, err error) {
	q := r.URL.Query()
	if row, err = strconv.Atoi(q.Get("row")); err != nil {
		return 0, 0, fmt.Errorf("invalid row %q", q.Get("row"))
	}
	if col, err = strconv.Atoi(q.Get("col")); err != nil {
		return 0, 0, fmt.Errorf("invalid col %q", q.Get("col"))
	}
	return row, col, nil
}

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, grid.ErrOutOfBounds):
		return http.StatusBadRequest
	case errors.Is(err, grid.ErrRoleConflict), errors.Is(err, grid.ErrProtectedCell):
		return http.StatusConflict
	case errors.Is(err, ErrStopped), errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func respond(w http.ResponseWriter, v any, err error) {
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Error: err.Error()})
}
