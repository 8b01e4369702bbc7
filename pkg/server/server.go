package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/mockbird/mockbird/internal/registry"
	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/journal"
	"github.com/mockbird/mockbird/pkg/logging"
	"github.com/mockbird/mockbird/pkg/stub"
)

// Sentinel errors returned by the server lifecycle.
var (
	// ErrBindFailure wraps the listen error when an instance cannot bind
	// its address. Binding is never retried.
	ErrBindFailure = errors.New("bind failure")

	// ErrServerStopped is returned by Start on an instance that was already
	// stopped. Instances are single-use.
	ErrServerStopped = errors.New("server stopped")

	// ErrPoolExhausted is returned by Pool.Acquire when every instance is
	// busy and the context expires before one is released.
	ErrPoolExhausted = errors.New("pool exhausted")
)

// State is a lifecycle phase. Transitions only move forward:
// Created -> Bound -> Serving -> Stopped.
type State int32

// Lifecycle states.
const (
	StateCreated State = iota
	StateBound
	StateServing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateBound:
		return "bound"
	case StateServing:
		return "serving"
	case StateStopped:
		return "stopped"
	default:
		return "state(" + strconv.Itoa(int(s)) + ")"
	}
}

// Server is one mock server instance: a registry, a journal, metrics and an
// HTTP listener serving the dispatcher plus the control protocol.
type Server struct {
	cfg     *config.ServerConfig
	log     *slog.Logger
	mocks   *registry.Registry
	journal *journal.Store
	metrics *Metrics
	handler http.Handler

	mu         sync.RWMutex
	state      State
	listener   net.Listener
	httpServer *http.Server
	addr       string
	port       int
	startTime  time.Time
}

// Option is a functional option for configuring a Server.
type Option func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithSelectionPolicy replaces the ordering applied when several mocks fully
// match the same request.
func WithSelectionPolicy(p registry.SelectionPolicy) Option {
	return func(s *Server) {
		s.mocks = registry.New(registry.WithSelectionPolicy(p))
	}
}

// New creates a Server in the Created state. A nil cfg uses defaults.
func New(cfg *config.ServerConfig, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultServerConfig()
	}

	s := &Server{
		cfg:   cfg,
		log:   logging.Nop(),
		mocks: registry.New(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.journal = journal.NewStore(cfg.JournalCapacity)
	s.metrics = newMetrics(func() float64 {
		return float64(s.mocks.Count())
	})
	s.handler = s.routes()
	return s
}

// NewWithStubs creates a Server and registers the given stubs before it
// starts serving. Registration is all or nothing: the first invalid stub
// aborts with an error and the server is not returned.
func NewWithStubs(cfg *config.ServerConfig, stubs []*stub.Stub, opts ...Option) (*Server, error) {
	s := New(cfg, opts...)
	for i, def := range stubs {
		if def == nil {
			continue
		}
		if _, err := s.mocks.Create(def); err != nil {
			return nil, fmt.Errorf("stub %d: %w", i, err)
		}
	}
	return s, nil
}

// Start binds the configured address and begins serving on a goroutine.
// Port 0 selects an ephemeral port; the bound address is available through
// Addr, Port and URL afterwards. A bind error surfaces as ErrBindFailure
// and leaves the instance in its prior state.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case StateBound, StateServing:
		return errors.New("server already started")
	case StateStopped:
		return fmt.Errorf("%w: instances are single-use", ErrServerStopped)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBindFailure, err)
	}
	s.listener = ln
	s.addr = ln.Addr().String()
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}
	s.state = StateBound

	s.httpServer = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  time.Duration(s.cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.cfg.WriteTimeout) * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.log.Error("server error", "error", err)
		}
	}()

	s.state = StateServing
	s.startTime = time.Now()
	s.log.Info("server started", "addr", s.addr, "admin_prefix", s.cfg.AdminPrefix)
	return nil
}

// Stop gracefully shuts the instance down: the listener closes, in-flight
// requests drain until ctx expires, and the registry and journal are
// discarded. Stop is idempotent; a stopped instance cannot be restarted.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateStopped {
		s.mu.Unlock()
		return nil
	}
	if s.state == StateCreated {
		s.state = StateStopped
		s.mu.Unlock()
		return nil
	}
	httpServer := s.httpServer
	addr := s.addr
	s.state = StateStopped
	s.mu.Unlock()

	// Shutdown outside the lock: in-flight control handlers read server
	// state and must be able to finish while we wait for them.
	var err error
	if httpServer != nil {
		err = httpServer.Shutdown(ctx)
	}
	s.mocks.DeleteAll()
	s.journal.Clear()
	s.log.Info("server stopped", "addr", addr)
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Reset discards all mocks and journal entries while the instance keeps
// serving. The pool calls this when an instance is released.
func (s *Server) Reset() {
	s.mocks.DeleteAll()
	s.journal.Clear()
}

// State returns the current lifecycle state.
func (s *Server) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsRunning reports whether the instance is serving.
func (s *Server) IsRunning() bool {
	return s.State() == StateServing
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Port returns the bound port, or 0 before Start.
func (s *Server) Port() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.port
}

// URL returns the base URL clients should dial, or "" before Start. A
// wildcard listen host is reported as 127.0.0.1.
func (s *Server) URL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.port == 0 {
		return ""
	}
	host := s.cfg.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(s.port))
}

// Uptime returns how long the instance has been serving.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != StateServing || s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}
