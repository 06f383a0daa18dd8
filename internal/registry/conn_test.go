package registry_test

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/omochice/toy-websocket-server/internal/registry"
)

// mockConn is a mock implementation of registry.Conn for testing.
type mockConn struct {
	readCh     chan []byte
	writtenMu  sync.Mutex
	written    [][]byte
	closeCount int
	remoteAddr string
}

func newMockConn(addr string) *mockConn {
	return &mockConn{
		readCh:     make(chan []byte, 10),
		remoteAddr: addr,
	}
}

func (m *mockConn) Read(ctx context.Context, buf []byte) (int, error) {
	select {
	case <-ctx.Done():
		return 0, ctx.Err()
	case data, ok := <-m.readCh:
		if !ok {
			return 0, io.EOF
		}
		return copy(buf, data), nil
	}
}

func (m *mockConn) Write(ctx context.Context, data []byte) error {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	copied := make([]byte, len(data))
	copy(copied, data)
	m.written = append(m.written, copied)
	return nil
}

func (m *mockConn) Close() error {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	m.closeCount++
	return nil
}

func (m *mockConn) RemoteAddr() string {
	return m.remoteAddr
}

func (m *mockConn) Closes() int {
	m.writtenMu.Lock()
	defer m.writtenMu.Unlock()
	return m.closeCount
}

// Compile-time check that mockConn implements registry.Conn
var _ registry.Conn = (*mockConn)(nil)

func TestState_String(t *testing.T) {
	tests := []struct {
		state registry.State
		want  string
	}{
		{registry.Connecting, "CONNECTING"},
		{registry.HandshakeDone, "HANDSHAKE_DONE"},
		{registry.Closed, "CLOSED"},
		{registry.State(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestClient_StateTransitions(t *testing.T) {
	client := registry.NewClient(newMockConn("127.0.0.1:1234"))

	if got := client.State(); got != registry.Connecting {
		t.Fatalf("new client state = %v, want %v", got, registry.Connecting)
	}

	client.SetState(registry.HandshakeDone)
	if got := client.State(); got != registry.HandshakeDone {
		t.Fatalf("state = %v, want %v", got, registry.HandshakeDone)
	}

	client.SetState(registry.Closed)
	client.SetState(registry.HandshakeDone)
	if got := client.State(); got != registry.Closed {
		t.Errorf("state after leaving Closed = %v, want %v", got, registry.Closed)
	}
}
