package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/omochice/toy-websocket-server/internal/client"
)

func main() {
	serverAddr := flag.String("server", "ws://localhost:8080", "WebSocket server address (e.g., ws://localhost:8080)")
	timeout := flag.Duration("timeout", 5*time.Second, "Handshake timeout")
	flag.Parse()

	c := client.New(*serverAddr)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	err := c.Connect(ctx)
	cancel()
	if err != nil {
		log.Fatalf("Failed to connect to server: %v", err)
	}
	defer c.Disconnect()

	log.Printf("Connected to %s", *serverAddr)

	go func() {
		for msg := range c.Messages() {
			fmt.Printf("> %s\n", msg)
		}
		log.Println("Server closed the connection")
		os.Exit(0)
	}()

	fmt.Println("Type your messages (a message containing 'stop' stops the server, 'quit' exits):")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		if text == "quit" || text == "exit" {
			break
		}

		if err := c.Send(text); err != nil {
			log.Printf("Failed to send message: %v", err)
		}
	}

	if err := scanner.Err(); err != nil {
		log.Printf("Error reading input: %v", err)
	}

	log.Println("Disconnected from server")
}
