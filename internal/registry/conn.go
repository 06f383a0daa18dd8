// Package registry tracks the live connections of the server.
package registry

import (
	"context"
	"sync/atomic"
)

// Conn abstracts the transport of a single peer.
type Conn interface {
	// Read fills buf with the next bytes received from the peer and
	// returns how many were read. Returns io.EOF when the peer has closed
	// the connection.
	Read(ctx context.Context, buf []byte) (int, error)

	// Write sends data to the peer in full.
	Write(ctx context.Context, data []byte) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}

// State is the lifecycle stage of a connection.
type State int32

const (
	Connecting State = iota
	HandshakeDone
	Closed
)

// String returns the string representation of State
func (s State) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case HandshakeDone:
		return "HANDSHAKE_DONE"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// Client is a connection owned by the Registry.
type Client struct {
	Conn  Conn
	state atomic.Int32
}

// NewClient wraps conn in a Client in the Connecting state.
func NewClient(conn Conn) *Client {
	return &Client{Conn: conn}
}

// State returns the current lifecycle stage.
func (c *Client) State() State {
	return State(c.state.Load())
}

// SetState moves the client to s. Closed is terminal.
func (c *Client) SetState(s State) {
	for {
		cur := c.state.Load()
		if State(cur) == Closed {
			return
		}
		if c.state.CompareAndSwap(cur, int32(s)) {
			return
		}
	}
}
