package status

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"svcboot/pkg/config"
	"svcboot/pkg/errors"
	"svcboot/pkg/logger"
)

var status_logger = logger.ForModule("status")

// Server binds the status listener and hands out the background handle.
type Server struct {
	config  *config.StatusServerConfig
	running bool
	mu      sync.Mutex
}

// Handle is the caller's reference to a running status listener.
type Handle struct {
	listener net.Listener
	poolSize int
	conns    chan net.Conn
	busy     atomic.Int32
	group    errgroup.Group

	// ctx is cancelled by Close and paces the accept loop's error backoff.
	ctx    context.Context
	cancel context.CancelFunc

	done      chan struct{}
	err       error
	closeOnce sync.Once
	closeErr  error
}

// Start derives the listener settings from cfg and starts it.
func Start(cfg config.Configuration) (*Handle, error) {
	return NewServer(config.NewStatusServerConfig(cfg)).Start()
}

// NewServer creates a new status server instance
func NewServer(cfg *config.StatusServerConfig) *Server {
	return &Server{config: cfg}
}

// Start binds synchronously and returns once the accept loop and the worker
// pool are running. A bind failure is the only error it reports.
func (s *Server) Start() (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.config == nil {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "status server config cannot be nil")
	}
	if s.running {
		return nil, fmt.Errorf("status server already started")
	}

	poolSize := s.config.PoolSize
	if poolSize <= 0 {
		poolSize = config.DefaultHTTPPoolSize
	}

	addr := s.config.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUnavailable,
			fmt.Sprintf("failed to bind status listener on %s", addr), err)
	}

	h := newHandle(listener, poolSize)
	h.startPool()
	h.group.Go(h.acceptLoop)
	go func() {
		h.err = h.group.Wait()
		close(h.done)
	}()

	s.running = true
	status_logger.Info("status listener started", "addr", listener.Addr().String(), "workers", poolSize)
	return h, nil
}

func newHandle(listener net.Listener, poolSize int) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	return &Handle{
		listener: listener,
		poolSize: poolSize,
		conns:    make(chan net.Conn),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Addr returns the bound address, useful when the port was 0.
func (h *Handle) Addr() net.Addr {
	return h.listener.Addr()
}

// PoolSize returns the fixed number of workers.
func (h *Handle) PoolSize() int {
	return h.poolSize
}

// BusyWorkers returns how many workers are serving a connection right now.
func (h *Handle) BusyWorkers() int {
	return int(h.busy.Load())
}

// Wait blocks until the accept loop and every worker have exited. Without a
// call to Close that never happens.
func (h *Handle) Wait() error {
	<-h.done
	return h.err
}

// Close stops accepting connections. Idle workers exit; a worker serving a
// peer that never sends stays with it until the peer goes away. When every
// worker is busy the accept loop may itself be blocked handing off a
// connection it already accepted, so Wait returns only after a worker frees
// up to take it.
func (h *Handle) Close() error {
	h.closeOnce.Do(func() {
		h.cancel()
		h.closeErr = h.listener.Close()
		status_logger.Info("status listener closed", "addr", h.listener.Addr().String())
	})
	return h.closeErr
}
