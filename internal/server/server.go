// Package server implements the WebSocket broadcast server: it accepts TCP
// connections, completes the opening handshake, watches client frames for
// the stop command and broadcasts text messages to every client.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"sync/atomic"

	"github.com/omochice/toy-websocket-server/internal/handshake"
	"github.com/omochice/toy-websocket-server/internal/registry"
)

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used by the server.
func WithLogger(logger *log.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMaxConnections overrides registry.DefaultCapacity.
func WithMaxConnections(n int) Option {
	return func(s *Server) {
		s.maxConns = n
	}
}

// Server represents a WebSocket broadcast server
type Server struct {
	address  string
	port     string
	maxConns int
	logger   *log.Logger

	registry *registry.Registry
	identity handshake.Identity

	mu       sync.Mutex
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	alive  atomic.Bool
	wg     sync.WaitGroup
}

// New creates a new Server instance for address and port. The port may be
// "0" to let the OS pick one.
func New(address, port string, opts ...Option) *Server {
	s := &Server{
		address:  address,
		port:     port,
		maxConns: registry.DefaultCapacity,
		logger:   log.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.registry = registry.New(s.maxConns)
	s.identity = handshake.Identity{Host: address, Port: port}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Start binds the listener and runs the accept loop in the background. It
// never blocks. If binding fails the server is stopped and the error is
// returned.
func (s *Server) Start() error {
	if s.ctx.Err() != nil {
		return fmt.Errorf("server stopped")
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(s.address, s.port))
	if err != nil {
		s.logger.Printf("Failed to bind %s:%s: %v", s.address, s.port, err)
		s.Stop()
		return fmt.Errorf("failed to start server: %w", err)
	}

	// Stop cancels ctx before taking mu: either it sees this listener or
	// Start backs out here, so wg.Add never races Shutdown's Wait.
	s.mu.Lock()
	if s.ctx.Err() != nil {
		s.mu.Unlock()
		listener.Close()
		return fmt.Errorf("server stopped")
	}
	if _, port, err := net.SplitHostPort(listener.Addr().String()); err == nil {
		s.identity.Port = port
	}
	s.listener = listener
	s.wg.Add(1)
	s.alive.Store(true)
	s.mu.Unlock()

	s.logger.Printf("Server started on %s", listener.Addr().String())

	go s.acceptLoop(listener)
	return nil
}

// Stop shuts the server down: it cancels pending reads and accepts, closes
// every connection and the listener. It does not wait for goroutines to
// exit and may be called from any goroutine, including a handler.
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	if s.alive.Swap(false) {
		s.logger.Printf("Server stopping")
	}
	if s.listener != nil {
		s.listener.Close()
	}
	s.mu.Unlock()

	if n := s.registry.CloseAll(); n > 0 {
		s.logger.Printf("Closed %d connections", n)
	}
}

// Shutdown stops the server and waits for the acceptor and all connection
// handlers to exit, or for ctx to be done.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for connections to drain: %w", ctx.Err())
	}
}

// IsAlive reports whether the server is accepting connections.
func (s *Server) IsAlive() bool {
	return s.alive.Load()
}

// Done returns a channel that is closed once the server has been stopped.
func (s *Server) Done() <-chan struct{} {
	return s.ctx.Done()
}

// Addr returns the server's listening address
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

// ClientCount returns the number of connected clients
func (s *Server) ClientCount() int {
	return s.registry.Len()
}

// release removes client from the registry and closes it if this call was
// the one that removed it.
func (s *Server) release(client *registry.Client) {
	if !s.registry.Remove(client) {
		return
	}
	client.SetState(registry.Closed)
	if err := client.Conn.Close(); err != nil {
		s.logger.Printf("Failed to close connection from %s: %v", client.Conn.RemoteAddr(), err)
	}
}
