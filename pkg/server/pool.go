package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mockbird/mockbird/pkg/config"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("pool closed")

// Pool manages up to size independent server instances for parallel test
// runs. Instances start lazily on first demand and are reused after
// Release.
type Pool struct {
	cfg  config.ServerConfig
	opts []Option
	size int

	mu      sync.Mutex
	started int
	all     []*Server
	closed  bool

	free chan *Server
}

// NewPool builds a pool of up to size instances sharing cfg. The port is
// forced to 0 so instances never collide on a listen address. size <= 0
// falls back to the default pool size.
func NewPool(size int, cfg *config.ServerConfig, opts ...Option) *Pool {
	if size <= 0 {
		size = config.DefaultServerConfig().PoolSize
	}
	var c config.ServerConfig
	if cfg != nil {
		c = *cfg
	} else {
		c = *config.DefaultServerConfig()
	}
	c.Port = 0
	return &Pool{
		cfg:  c,
		opts: opts,
		size: size,
		free: make(chan *Server, size),
	}
}

// Acquire returns a running instance: a free one when available, a freshly
// started one while the pool is below capacity, otherwise it blocks until a
// Release. Ctx expiry while blocked returns ErrPoolExhausted wrapping the
// ctx error.
func (p *Pool) Acquire(ctx context.Context) (*Server, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrPoolClosed
	}

	select {
	case srv := <-p.free:
		p.mu.Unlock()
		return srv, nil
	default:
	}

	if p.started < p.size {
		// Reserve the slot, then start outside the lock. net.Listen must
		// not run under the pool mutex.
		p.started++
		p.mu.Unlock()

		cfg := p.cfg
		srv := New(&cfg, p.opts...)
		if err := srv.Start(); err != nil {
			p.mu.Lock()
			p.started--
			p.mu.Unlock()
			return nil, err
		}

		p.mu.Lock()
		p.all = append(p.all, srv)
		p.mu.Unlock()
		return srv, nil
	}
	p.mu.Unlock()

	select {
	case srv := <-p.free:
		return srv, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", ErrPoolExhausted, ctx.Err())
	}
}

// Release wipes the instance's mocks and journal and hands it back for
// reuse. Releasing into a closed or full pool stops the instance instead.
func (p *Pool) Release(srv *Server) {
	if srv == nil {
		return
	}
	srv.Reset()

	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		p.stopQuietly(srv)
		return
	}

	select {
	case p.free <- srv:
	default:
		p.stopQuietly(srv)
	}
}

// Close stops every instance the pool ever started. The first stop error
// wins; the rest are still attempted.
func (p *Pool) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	all := make([]*Server, len(p.all))
	copy(all, p.all)
	p.mu.Unlock()

	var errs []error
	for _, srv := range all {
		if err := srv.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func (p *Pool) stopQuietly(srv *Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return p.size
}
