// Package client provides a WebSocket client for the broadcast server.
package client

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Client represents a WebSocket client connected to the broadcast server.
type Client struct {
	address  string
	conn     net.Conn
	messages chan string
	mu       sync.RWMutex
	writeMu  sync.Mutex
	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new Client for a ws:// address.
func New(address string) *Client {
	return &Client{
		address:  address,
		messages: make(chan string, 10),
		done:     make(chan struct{}),
	}
}

// Connect performs the opening handshake and starts receiving broadcasts.
func (c *Client) Connect(ctx context.Context) error {
	conn, br, _, err := ws.Dial(ctx, c.address)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}

	// br holds frames that arrived together with the handshake response.
	var rw io.ReadWriter = conn
	if br != nil {
		rw = struct {
			io.Reader
			io.Writer
		}{br, conn}
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	c.wg.Add(1)
	go c.receiveMessages(rw)

	return nil
}

// Disconnect closes the connection and waits for the receiver to exit.
func (c *Client) Disconnect() {
	c.doneOnce.Do(func() {
		close(c.done)
	})

	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()

	c.wg.Wait()
}

// IsConnected returns whether the client is connected.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn != nil
}

// Send sends text to the server as a masked text frame.
func (c *Client) Send(text string) error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()

	if conn == nil {
		return fmt.Errorf("not connected to server")
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := wsutil.WriteClientText(conn, []byte(text)); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// Messages returns the channel of broadcast messages. It is closed when the
// connection ends.
func (c *Client) Messages() <-chan string {
	return c.messages
}

func (c *Client) receiveMessages(rw io.ReadWriter) {
	defer c.wg.Done()
	defer close(c.messages)

	for {
		data, err := wsutil.ReadServerText(rw)
		if err != nil {
			select {
			case <-c.done:
			default:
				if err != io.EOF {
					log.Printf("Error reading from server: %v", err)
				}
				c.mu.Lock()
				if c.conn != nil {
					c.conn.Close()
					c.conn = nil
				}
				c.mu.Unlock()
			}
			return
		}

		select {
		case c.messages <- string(data):
		case <-c.done:
			return
		}
	}
}
