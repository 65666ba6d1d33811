package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/vovakirdan/wirechat-client/internal/core"
	wlog "github.com/vovakirdan/wirechat-client/internal/log"
	"github.com/vovakirdan/wirechat-client/internal/transport/ws"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

// run connects, joins a room, sends one message and checks that the server's
// copy replaced the optimistic entry.
func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	token := flag.String("token", os.Getenv("WIRECHAT_TOKEN"), "bearer token")
	room := flag.String("room", "general", "room name")
	text := flag.String("text", "hello from smoke test", "message text to send")
	timeout := flag.Duration("timeout", 10*time.Second, "total timeout for the run")
	level := flag.String("log-level", "warn", "log level")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := wlog.New(*level, os.Stderr)
	session := core.NewSession(ws.NewDialer(*addr, 0, 0, logger), logger, core.Options{ReconnectAttempts: 1})
	go session.Run(ctx)
	defer session.Close()

	if err := session.Open(ctx, *token, core.Identity{}); err != nil {
		return fmt.Errorf("open: %w", err)
	}
	if err := session.Join(ctx, *room); err != nil {
		return fmt.Errorf("join %s: %w", *room, err)
	}

	st, err := session.Snapshot(ctx)
	if err != nil {
		return err
	}
	log.Printf("joined %s with %d messages of history", *room, len(st.Messages))

	if err := session.Send(ctx, *text); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	// the echo may trail the ack
	for {
		st, err := session.Snapshot(ctx)
		if err != nil {
			return err
		}
		for _, m := range st.Messages {
			if m.Text == *text && !m.Optimistic {
				log.Printf("received %s from %s", m.ID, m.SenderName)
				return nil
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("echo of sent message not received: %w", ctx.Err())
		case <-time.After(50 * time.Millisecond):
		}
	}
}
