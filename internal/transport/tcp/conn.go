// Package tcp provides the TCP transport for the WebSocket server.
package tcp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/omochice/toy-websocket-server/internal/registry"
)

// aLongTimeAgo is a deadline in the past that unblocks pending I/O.
var aLongTimeAgo = time.Unix(1, 0)

// Conn adapts net.Conn to registry.Conn interface.
type Conn struct {
	conn      net.Conn
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	return &Conn{conn: conn}
}

// Read implements registry.Conn.
// Cancelling ctx unblocks a pending read.
func (c *Conn) Read(ctx context.Context, buf []byte) (int, error) {
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetReadDeadline(aLongTimeAgo)
	})
	defer stop()

	n, err := c.conn.Read(buf)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return n, ctxErr
		}
	}
	return n, err
}

// Write implements registry.Conn.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	stop := context.AfterFunc(ctx, func() {
		c.conn.SetWriteDeadline(aLongTimeAgo)
	})
	defer stop()

	_, err := c.conn.Write(data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

// Close implements registry.Conn.
// It is safe to call more than once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.conn.Close()
	})
	return c.closeErr
}

// RemoteAddr implements registry.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

var _ registry.Conn = (*Conn)(nil)
