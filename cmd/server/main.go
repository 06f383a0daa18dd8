package main

import (
	"bufio"
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/omochice/toy-websocket-server/internal/registry"
	"github.com/omochice/toy-websocket-server/internal/server"
)

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("Warning: Error loading .env file: %v", err)
		}
	}

	cmd := &cli.Command{
		Name:  "server",
		Usage: "WebSocket broadcast server; every line read from stdin is sent to all clients",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "address",
				Value:   "127.0.0.1",
				Usage:   "address to listen on",
				Sources: cli.EnvVars("WS_ADDRESS"),
			},
			&cli.StringFlag{
				Name:    "port",
				Value:   "8080",
				Usage:   "port to listen on",
				Sources: cli.EnvVars("WS_PORT"),
			},
			&cli.IntFlag{
				Name:    "max-connections",
				Value:   registry.DefaultCapacity,
				Usage:   "maximum number of simultaneous connections",
				Sources: cli.EnvVars("WS_MAX_CONNECTIONS"),
			},
			&cli.DurationFlag{
				Name:    "drain-timeout",
				Value:   5 * time.Second,
				Usage:   "how long to wait for connections to close on shutdown",
				Sources: cli.EnvVars("WS_DRAIN_TIMEOUT"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "include file and line in log output",
				Sources: cli.EnvVars("WS_DEBUG"),
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("debug") {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	srv := server.New(
		cmd.String("address"),
		cmd.String("port"),
		server.WithMaxConnections(int(cmd.Int("max-connections"))),
	)
	if err := srv.Start(); err != nil {
		return err
	}

	go broadcastLines(srv, os.Stdin)

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		log.Printf("Received signal %v, shutting down...", sig)
	case <-srv.Done():
		log.Printf("Stop command received, shutting down...")
	case <-ctx.Done():
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), cmd.Duration("drain-timeout"))
	defer cancel()
	if err := srv.Shutdown(drainCtx); err != nil {
		log.Printf("Shutdown incomplete: %v", err)
	}

	log.Println("Server stopped")
	return nil
}

// broadcastLines sends every line of r to all connected clients.
func broadcastLines(srv *server.Server, r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if !srv.IsAlive() {
			return
		}
		srv.Send(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		log.Printf("Error reading input: %v", err)
	}
}
