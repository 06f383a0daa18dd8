package server

import (
	"net"

	"github.com/omochice/toy-websocket-server/internal/registry"
	"github.com/omochice/toy-websocket-server/internal/transport/tcp"
)

// acceptLoop accepts connections until the server stops. Any accept error
// that is not caused by Stop shuts the whole server down.
func (s *Server) acceptLoop(listener net.Listener) {
	defer s.wg.Done()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.ctx.Err() == nil {
				s.logger.Printf("Failed to accept connection: %v", err)
				s.Stop()
			}
			return
		}

		client := registry.NewClient(tcp.NewConn(conn))
		if err := s.registry.Insert(client); err != nil {
			s.logger.Printf("Rejected connection from %s: %v", conn.RemoteAddr(), err)
			client.Conn.Close()
			continue
		}

		s.wg.Add(1)
		go s.handle(client)
	}
}
