// Package terminal renders a session on a line-oriented terminal and turns
// typed lines into session actions.
package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-client/internal/core"
)

// Session is the part of core.Session the terminal drives.
type Session interface {
	Events() <-chan core.Event
	Join(ctx context.Context, roomID string) error
	Leave(ctx context.Context) error
	Send(ctx context.Context, text string) error
	DismissError(ctx context.Context) error
}

const helpText = `commands:
  /join <room>  switch to room
  /leave        leave the current room
  /dismiss      clear the last error
  /quit         exit
anything else is sent to the current room`

// Terminal reads commands from in and writes the conversation to out.
type Terminal struct {
	session Session
	in      io.Reader
	log     *zerolog.Logger

	mu      sync.Mutex
	out     io.Writer
	room    string
	printed map[string]bool
}

// New creates a terminal for session.
func New(session Session, in io.Reader, out io.Writer, logger *zerolog.Logger) *Terminal {
	return &Terminal{
		session: session,
		in:      in,
		out:     out,
		log:     logger,
		printed: make(map[string]bool),
	}
}

// Run renders events and executes input lines until ctx is done, input ends
// or the user quits.
func (t *Terminal) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go t.render(ctx)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(t.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if quit := t.execute(ctx, line); quit {
				return nil
			}
		}
	}
}

// execute runs one input line and reports whether the user asked to quit.
func (t *Terminal) execute(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		if err := t.session.Send(ctx, line); err != nil {
			t.printf("! not sent: %s\n", describe(err))
		}
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch cmd {
	case "/quit", "/exit":
		return true
	case "/join":
		if arg == "" {
			t.printf("! usage: /join <room>\n")
			return false
		}
		t.printf("* joining %s\n", arg)
		if err := t.session.Join(ctx, arg); err != nil && !errors.Is(err, context.Canceled) {
			t.printf("! join %s failed: %s\n", arg, describe(err))
		}
	case "/leave":
		if err := t.session.Leave(ctx); err != nil {
			t.printf("! leave failed: %s\n", describe(err))
		}
	case "/dismiss":
		_ = t.session.DismissError(ctx)
	case "/help":
		t.printf("%s\n", helpText)
	default:
		t.printf("! unknown command %s, try /help\n", cmd)
	}
	return false
}

func (t *Terminal) render(ctx context.Context) {
	events := t.session.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			t.handle(ev)
		}
	}
}

func (t *Terminal) handle(ev core.Event) {
	switch ev.Kind {
	case core.EventStatus:
		t.printf("* %s\n", ev.Status)
	case core.EventMembership:
		switch ev.Membership {
		case core.Joined:
			t.printf("* joined %s\n", ev.RoomID)
		case core.JoinFailed:
			t.printf("* could not join %s\n", ev.RoomID)
		}
	case core.EventError:
		if ev.Err != nil {
			t.printf("! %s\n", describe(ev.Err))
		}
	case core.EventMessages:
		t.printMessages(ev.RoomID, ev.Messages)
	default:
		t.log.Debug().Str("event", ev.Kind.String()).Msg("unhandled event")
	}
}

// printMessages prints confirmed messages not shown yet. Optimistic entries are
// skipped; their durable copy is printed when it arrives.
func (t *Terminal) printMessages(roomID string, msgs []core.Message) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if roomID != t.room {
		t.room = roomID
		t.printed = make(map[string]bool)
	}
	for _, m := range msgs {
		if m.Optimistic || t.printed[m.ID] {
			continue
		}
		t.printed[m.ID] = true
		fmt.Fprintln(t.out, formatMessage(m))
	}
}

func (t *Terminal) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, format, args...)
}

func formatMessage(m core.Message) string {
	stamp := m.CreatedAt.Local().Format("15:04")
	if m.IsSystem() {
		return fmt.Sprintf("%s -- %s", stamp, m.Text)
	}
	name := m.SenderName
	if m.Role == core.RoleAdmin || m.Role == core.RoleCreator {
		name = fmt.Sprintf("%s [%s]", name, m.Role)
	}
	return fmt.Sprintf("%s <%s> %s", stamp, name, m.Text)
}

func describe(err error) string {
	var ce *core.CoreError
	if errors.As(err, &ce) {
		return ce.Message
	}
	return err.Error()
}
