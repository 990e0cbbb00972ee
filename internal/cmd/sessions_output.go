package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/renato0307/grove/internal/domain"
)

// SessionsOutputCmd prints the output history of a session
type SessionsOutputCmd struct {
	After   int64  `help:"Only print messages after this sequence number" default:"0"`
	Follow  bool   `help:"Keep streaming new output until the session is deleted" short:"F"`
	Format  string `help:"Output format: table or json" enum:"table,json" default:"table"`
	Limit   int    `help:"Maximum number of messages to print (0 = all)" default:"0"`
	Session string `arg:"" help:"Session id or name"`
}

// Run executes the output command
func (s *SessionsOutputCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}
	ctx := context.Background()

	session, err := resolveSession(ctx, client, s.Session)
	if err != nil {
		return err
	}
	emit := s.printer(cli.stdout())

	if s.Follow {
		ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
		defer stop()
		return client.FollowOutput(ctx, session.ID, s.After, emit)
	}

	var messages []domain.OutputMessage
	params := map[string]any{"id": session.ID, "afterSeq": s.After, "limit": s.Limit}
	if err := client.Do(ctx, "session.output", params, &messages); err != nil {
		return fmt.Errorf("failed to read output: %w", err)
	}
	for _, msg := range messages {
		if err := emit(msg); err != nil {
			return err
		}
	}
	return nil
}

// printer writes one line per message: styled text for tables, JSON lines otherwise
func (s *SessionsOutputCmd) printer(w io.Writer) func(domain.OutputMessage) error {
	if s.Format == "json" {
		enc := json.NewEncoder(w)
		return func(msg domain.OutputMessage) error { return enc.Encode(msg) }
	}
	return func(msg domain.OutputMessage) error {
		printOutputMessage(w, msg)
		return nil
	}
}
