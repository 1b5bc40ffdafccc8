package server

import (
	"context"
	"time"

	"github.com/nvandessel/pheromones/internal/logging"
)

// subscriberBuffer is how many frames a slow websocket may lag before
// frames are dropped for it.
const subscriberBuffer = 4

type command struct {
	fn    func() (any, error)
	reply chan result
}

type result struct {
	val any
	err error
}

// Loop owns the Universe until ctx is cancelled. Only one Loop may run.
func (s *Server) Loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Debug("loop started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			for ch := range s.subs {
				close(ch)
				delete(s.subs, ch)
			}
			s.logger.Debug("loop stopped", "tick", s.uni.TickCount())
			return
		case cmd := <-s.cmds:
			val, err := cmd.fn()
			cmd.reply <- result{val: val, err: err}
		case <-ticker.C:
			if s.playing {
				s.uni.Tick()
				s.broadcast()
			}
		}
	}
}

// do runs fn on the loop goroutine and returns its result.
func (s *Server) do(ctx context.Context, fn func() (any, error)) (any, error) {
	reply := make(chan result, 1)
	select {
	case s.cmds <- command{fn: fn, reply: reply}:
	case <-s.done:
		return nil, ErrStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	// The loop always answers a command it accepted.
	r := <-reply
	return r.val, r.err
}

// broadcast pushes the current frame to every subscriber. Must run on the loop.
func (s *Server) broadcast() {
	if len(s.subs) == 0 {
		return
	}
	data, err := s.uni.Frame().Encode()
	if err != nil {
		s.logger.Error("encoding frame", "error", err)
		return
	}
	for ch := range s.subs {
		select {
		case ch <- data:
		default:
			s.logger.Log(context.Background(), logging.LevelTrace, "dropping frame for slow subscriber")
		}
	}
}

// subscribe registers a frame channel and primes it with the current frame.
func (s *Server) subscribe(ctx context.Context) (chan []byte, error) {
	v, err := s.do(ctx, func() (any, error) {
		ch := make(chan []byte, subscriberBuffer)
		if data, err := s.uni.Frame().Encode(); err == nil {
			ch <- data
		}
		s.subs[ch] = struct{}{}
		return ch, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(chan []byte), nil
}

// unsubscribe removes ch. Safe to call after the loop has stopped.
func (s *Server) unsubscribe(ch chan []byte) {
	s.do(context.Background(), func() (any, error) {
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		return nil, nil
	})
}
