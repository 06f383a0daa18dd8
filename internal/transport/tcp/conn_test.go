package tcp_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/omochice/toy-websocket-server/internal/registry"
	"github.com/omochice/toy-websocket-server/internal/transport/tcp"
)

func TestConn_ImplementsInterface(t *testing.T) {
	var _ registry.Conn = (*tcp.Conn)(nil)
}

func TestConn_Read(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	go func() {
		server.Write([]byte("test message"))
		server.Close()
	}()

	buf := make([]byte, 64)
	n, err := conn.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(buf[:n]) != "test message" {
		t.Errorf("Read() = %q, want %q", string(buf[:n]), "test message")
	}
}

func TestConn_ReadInChunks(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	const chunk = 1024
	payload := bytes.Repeat([]byte("a"), chunk+100)
	go server.Write(payload)

	buf := make([]byte, chunk)
	n, err := conn.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != chunk {
		t.Errorf("first chunk length = %d, want %d", n, chunk)
	}

	n, err = conn.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 100 {
		t.Errorf("second chunk length = %d, want 100", n)
	}
}

func TestConn_ReadKeepsNoBuffer(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	go func() {
		server.Write([]byte("first"))
		server.Write([]byte("second"))
	}()

	first := make([]byte, 16)
	n, err := conn.Read(context.Background(), first)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first = first[:n]

	second := make([]byte, 16)
	if _, err := conn.Read(context.Background(), second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if string(first) != "first" {
		t.Errorf("first chunk changed by a later Read: %q", first)
	}
}

func TestConn_ReadAfterEOF(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	conn := tcp.NewConn(client)
	server.Close()

	buf := make([]byte, 16)
	for i := 0; i < 2; i++ {
		if _, err := conn.Read(context.Background(), buf); !errors.Is(err, io.EOF) {
			t.Errorf("Read() #%d error = %v, want io.EOF", i+1, err)
		}
	}
}

func TestConn_ReadCancelled(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := conn.Read(ctx, make([]byte, 16))
		errCh <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Read() error = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Read() was not interrupted by cancellation")
	}
}

func TestConn_Write(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	go func() {
		err := conn.Write(context.Background(), []byte("hello"))
		if err != nil {
			t.Errorf("Write() error = %v", err)
		}
	}()

	buf := make([]byte, 1024)
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("server read error: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Errorf("server received %q, want %q", string(buf[:n]), "hello")
	}
}

func TestConn_WriteAfterClose(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	conn := tcp.NewConn(client)
	conn.Close()

	if err := conn.Write(context.Background(), []byte("hello")); err == nil {
		t.Error("expected error writing to closed connection, got nil")
	}
}

func TestConn_Close(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()

	conn := tcp.NewConn(client)

	err := conn.Close()
	if err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	_, err = client.Read(make([]byte, 1))
	if err == nil {
		t.Error("expected error after close, got nil")
	}
}

func TestConn_RemoteAddr(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	addr := conn.RemoteAddr()
	if addr == "" {
		t.Error("RemoteAddr() returned empty string")
	}
}
