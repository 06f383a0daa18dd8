package server

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gobwas/pool/pbytes"

	"github.com/omochice/toy-websocket-server/internal/frame"
	"github.com/omochice/toy-websocket-server/internal/handshake"
	"github.com/omochice/toy-websocket-server/internal/registry"
)

// stopCommand shuts the server down when it appears anywhere in a client
// payload, so "stopwatch" stops it too.
const stopCommand = "stop"

// readChunkSize is the most a single read takes off the socket.
const readChunkSize = 1024

// handle drives one connection through Connecting -> HandshakeDone -> Closed.
func (s *Server) handle(client *registry.Client) {
	defer s.wg.Done()
	defer s.release(client)

	buf := pbytes.GetLen(readChunkSize)
	defer pbytes.Put(buf)

	// pending holds frame bytes that arrived before the rest of their frame.
	var pending []byte

	addr := client.Conn.RemoteAddr()
	for {
		n, err := client.Conn.Read(s.ctx, buf)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, context.Canceled) && s.IsAlive() {
				s.logger.Printf("Error reading from %s: %v", addr, err)
			}
			return
		}
		if n == 0 {
			return
		}
		data := buf[:n]

		switch client.State() {
		case registry.Connecting:
			resp, ok := handshake.Process(data, s.identity)
			if !ok {
				continue
			}
			if err := client.Conn.Write(s.ctx, resp); err != nil {
				s.logger.Printf("Failed to send handshake to %s: %v", addr, err)
				return
			}
			client.SetState(registry.HandshakeDone)
			s.logger.Printf("Client %s connected", addr)

		case registry.HandshakeDone:
			var stop bool
			pending, stop = s.consumeFrames(addr, append(pending, data...))
			if stop {
				s.logger.Printf("Stop command received from %s", addr)
				s.Stop()
				return
			}

		default:
			return
		}
	}
}

// consumeFrames decodes every complete frame at the front of pending and
// returns the bytes of a trailing partial frame. It reports true as soon as
// a payload carries the stop command.
func (s *Server) consumeFrames(addr string, pending []byte) ([]byte, bool) {
	for len(pending) > 0 {
		size, err := frame.Size(pending)
		if errors.Is(err, frame.ErrShortFrame) || (err == nil && size > len(pending)) {
			return pending, false
		}
		if err != nil {
			// The frame boundary is unknown, so nothing after it can be parsed.
			s.logger.Printf("Dropped frame from %s: %v", addr, err)
			return nil, false
		}

		payload, err := frame.Decode(pending[:size])
		pending = pending[size:]
		if err != nil {
			s.logger.Printf("Dropped frame from %s: %v", addr, err)
			continue
		}
		if strings.Contains(string(payload), stopCommand) {
			return nil, true
		}
	}
	return nil, false
}
