package main

import (
	"context"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/omochice/toy-websocket-server/internal/client"
	"github.com/omochice/toy-websocket-server/internal/server"
)

func TestBroadcastLines(t *testing.T) {
	srv := server.New("127.0.0.1", "0", server.WithLogger(log.New(io.Discard, "", 0)))
	if err := srv.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer srv.Stop()

	c := client.New("ws://" + srv.Addr())
	if err := c.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer c.Disconnect()

	// Wait until the server delivers to this client.
	deadline := time.After(2 * time.Second)
	for ready := false; !ready; {
		srv.Send("ping")
		select {
		case <-c.Messages():
			ready = true
		case <-time.After(20 * time.Millisecond):
		case <-deadline:
			t.Fatal("client never became ready")
		}
	}

	broadcastLines(srv, strings.NewReader("first\nsecond\n"))

	var got []string
	for len(got) < 2 {
		select {
		case msg := <-c.Messages():
			if msg != "ping" {
				got = append(got, msg)
			}
		case <-time.After(time.Second):
			t.Fatalf("received %v, want [first second]", got)
		}
	}
	if got[0] != "first" || got[1] != "second" {
		t.Errorf("received %v, want [first second]", got)
	}
}
