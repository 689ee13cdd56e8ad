// Package server accepts TCP clients and runs one handler goroutine per connection.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/mattjoyce/livebridge/internal/config"
	"github.com/mattjoyce/livebridge/internal/events"
	"github.com/mattjoyce/livebridge/internal/log"
	"github.com/mattjoyce/livebridge/internal/netutil"
	"github.com/mattjoyce/livebridge/internal/protocol"
)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Submitter hands a decoded request to the dispatch side and waits for its Result.
type Submitter interface {
	Submit(ctx context.Context, req *protocol.Request) protocol.Result
}

// Option configures a Server.
type Option func(*Server)

// WithEvents publishes connection lifecycle events to p.
func WithEvents(p events.Publisher) Option {
	return func(s *Server) {
		if p != nil {
			s.events = p
		}
	}
}

// WithLogger overrides the component logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// Server is the connection acceptor.
type Server struct {
	cfg    config.BridgeConfig
	sub    Submitter
	events events.Publisher
	logger *slog.Logger

	listener net.Listener
	cancel   context.CancelFunc
	done     chan struct{}
	conns    sync.WaitGroup
	stopOnce sync.Once

	mu   sync.Mutex
	live map[string]net.Conn

	active         atomic.Int64
	total          atomic.Uint64
	protocolErrors atomic.Uint64
}

// New returns a Server that will listen on cfg.Listen and pass requests to sub.
func New(sub Submitter, cfg config.BridgeConfig, opts ...Option) *Server {
	s := &Server{
		cfg:    cfg,
		sub:    sub,
		events: (*events.Hub)(nil),
		logger: log.WithComponent("server"),
		live:   make(map[string]net.Conn),
	}
	for _, opt := range opts {
		opt(s)
	}

	defaults := config.Defaults().Bridge
	if s.cfg.ReadTimeout <= 0 {
		s.cfg.ReadTimeout = defaults.ReadTimeout
	}
	if s.cfg.WriteTimeout <= 0 {
		s.cfg.WriteTimeout = defaults.WriteTimeout
	}
	if s.cfg.MaxFrameBytes <= 0 {
		s.cfg.MaxFrameBytes = defaults.MaxFrameBytes
	}
	return s
}

// Start binds the listener and runs the accept loop in the background.
// A bind failure is returned; after a successful return the server runs
// until Stop is called or ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if s.listener != nil {
		return fmt.Errorf("server already started")
	}
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	s.listener = listener

	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		<-ctx.Done()
		s.closeAll()
	}()
	go func() {
		defer close(s.done)
		s.acceptLoop(ctx)
	}()

	s.logger.Info("bridge server listening", "addr", listener.Addr().String())
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listener and every live connection, then waits for all handlers.
func (s *Server) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.closeAll()
	s.Wait()
}

// Wait blocks until the accept loop and every handler have finished.
func (s *Server) Wait() {
	if s.done != nil {
		<-s.done
	}
}

// Stats reports connection counters.
type Stats struct {
	ActiveConnections int64  `json:"active_connections"`
	TotalConnections  uint64 `json:"total_connections"`
	ProtocolErrors    uint64 `json:"protocol_errors"`
}

// Stats returns current counters.
func (s *Server) Stats() Stats {
	return Stats{
		ActiveConnections: s.active.Load(),
		TotalConnections:  s.total.Load(),
		ProtocolErrors:    s.protocolErrors.Load(),
	}
}

func (s *Server) closeAll() {
	s.stopOnce.Do(func() {
		if s.listener != nil {
			_ = s.listener.Close()
		}
	})

	s.mu.Lock()
	for _, c := range s.live {
		_ = c.Close()
	}
	s.mu.Unlock()
}

// acceptLoop returns only once the server is stopping and every handler is done.
func (s *Server) acceptLoop(ctx context.Context) {
	defer s.conns.Wait()

	var backoff time.Duration
	for {
		c, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil || netutil.IsExpectedCloseError(err) {
				return
			}
			if backoff == 0 {
				backoff = minAcceptBackoff
			} else {
				backoff *= 2
			}
			if backoff > maxAcceptBackoff {
				backoff = maxAcceptBackoff
			}
			s.logger.Warn("accept failed; retrying", "error", err, "backoff", backoff.String())
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			continue
		}
		backoff = 0

		id := uuid.NewString()
		if !s.track(ctx, id, c) {
			_ = c.Close()
			return
		}
		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			defer s.untrack(id)
			s.serveConn(ctx, c, id)
		}()
	}
}

// track registers a live connection. It refuses once ctx is done, which
// closeAll relies on: cancellation always precedes its sweep of live.
func (s *Server) track(ctx context.Context, id string, c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ctx.Err() != nil {
		return false
	}
	s.live[id] = c
	s.active.Add(1)
	s.total.Add(1)
	return true
}

func (s *Server) untrack(id string) {
	s.mu.Lock()
	delete(s.live, id)
	s.mu.Unlock()
	s.active.Add(-1)
}
