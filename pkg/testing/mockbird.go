package testing

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mockbird/mockbird/pkg/client"
	"github.com/mockbird/mockbird/pkg/config"
	"github.com/mockbird/mockbird/pkg/journal"
	"github.com/mockbird/mockbird/pkg/server"
)

const (
	// EnvHost and EnvPort point the helper at an already-running external
	// server instead of starting one in-process. When either is set, Get
	// attaches to that server.
	EnvHost = "MOCKBIRD_HOST"
	EnvPort = "MOCKBIRD_PORT"
)

// MockServer is one mock server instance scoped to a test. It is created by
// New, NewRemote or Get and cleans up after itself via t.Cleanup.
type MockServer struct {
	t      testing.TB
	client *client.Client
	url    string
	remote bool
}

// New starts a dedicated in-process server on an ephemeral port. The server
// is stopped when the test finishes.
func New(t testing.TB) *MockServer {
	t.Helper()

	cfg := config.DefaultServerConfig()
	cfg.Port = 0
	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		t.Fatalf("start mock server: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			t.Errorf("stop mock server: %v", err)
		}
	})

	return &MockServer{t: t, url: srv.URL(), client: client.New(srv.URL())}
}

// NewRemote attaches to an external server addressed by MOCKBIRD_HOST and
// MOCKBIRD_PORT (default localhost:4280). The server is reset on attach so
// the test starts clean, and again when the test finishes.
func NewRemote(t testing.TB) *MockServer {
	t.Helper()

	host := os.Getenv(EnvHost)
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv(EnvPort)
	if port == "" {
		port = strconv.Itoa(config.DefaultPort)
	}
	baseURL := "http://" + net.JoinHostPort(host, port)

	c := client.New(baseURL)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.Health(ctx); err != nil {
		t.Fatalf("no mockbird server reachable at %s: %v", baseURL, err)
	}

	s := &MockServer{t: t, url: baseURL, client: c, remote: true}
	s.Reset()
	t.Cleanup(s.cleanupRemote)
	return s
}

// cleanupRemote leaves the shared server clean for the next suite. Best
// effort: the server may already be gone.
func (s *MockServer) cleanupRemote() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.client.DeleteAllMocks(ctx)
	_, _ = s.client.ClearRequests(ctx)
}

var (
	poolOnce sync.Once
	pool     *server.Pool
)

func sharedPool() *server.Pool {
	poolOnce.Do(func() {
		pool = server.NewPool(0, nil)
	})
	return pool
}

// Get leases an instance from the package's shared pool and releases it,
// reset, when the test finishes. Parallel tests get independent instances.
// When MOCKBIRD_HOST or MOCKBIRD_PORT is set it attaches to that external
// server instead.
func Get(t testing.TB) *MockServer {
	t.Helper()

	if os.Getenv(EnvHost) != "" || os.Getenv(EnvPort) != "" {
		return NewRemote(t)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	srv, err := sharedPool().Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire pooled mock server: %v", err)
	}
	t.Cleanup(func() { sharedPool().Release(srv) })

	return &MockServer{t: t, url: srv.URL(), client: client.New(srv.URL())}
}

// ClosePool stops every instance in the shared pool. Tests release their
// instances automatically; call this from TestMain after m.Run only when
// the suite wants a full shutdown.
func ClosePool() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return sharedPool().Close(ctx)
}

// URL returns the base URL requests under test should be sent to.
func (s *MockServer) URL() string {
	return s.url
}

// Endpoint joins path onto the server URL.
func (s *MockServer) Endpoint(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return s.url + path
}

// Client returns the control client, for protocol calls the helper does not
// wrap.
func (s *MockServer) Client() *client.Client {
	return s.client
}

// Mock starts the definition of a new mock. Finish the chain with Register.
func (s *MockServer) Mock() *Builder {
	return &Builder{t: s.t, srv: s}
}

// Reset removes every mock and clears the request journal.
func (s *MockServer) Reset() {
	s.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.client.DeleteAllMocks(ctx); err != nil {
		s.t.Fatalf("reset mocks: %v", err)
	}
	if _, err := s.client.ClearRequests(ctx); err != nil {
		s.t.Fatalf("clear request journal: %v", err)
	}
}

// Requests returns the journaled requests, newest first.
func (s *MockServer) Requests() []*journal.Entry {
	s.t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	result, err := s.client.Requests(ctx, nil)
	if err != nil {
		s.t.Fatalf("list requests: %v", err)
	}
	return result.Requests
}
