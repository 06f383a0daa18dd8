package server

import (
	"github.com/omochice/toy-websocket-server/internal/frame"
	"github.com/omochice/toy-websocket-server/internal/registry"
)

// Send broadcasts message as a text frame to every client that completed
// the handshake. Clients that fail the write are dropped; delivery to the
// others continues. Send does nothing once the server is stopped.
func (s *Server) Send(message string) {
	if !s.IsAlive() {
		return
	}

	data, err := frame.Encode([]byte(message))
	if err != nil {
		s.logger.Printf("Failed to encode message: %v", err)
		return
	}

	for _, client := range s.registry.Snapshot() {
		if client.State() != registry.HandshakeDone {
			continue
		}
		if err := client.Conn.Write(s.ctx, data); err != nil {
			s.logger.Printf("Failed to send message to %s: %v", client.Conn.RemoteAddr(), err)
			s.release(client)
		}
	}
}
