package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"

	"github.com/renato0307/grove/internal/gateway"
)

// EventsCmd streams daemon events as JSON lines
type EventsCmd struct {
	Types []string `arg:"" optional:"" help:"Event types to include (default: all)"`
}

// Run executes the events command
func (e *EventsCmd) Run(cli *CLI) error {
	client, err := cli.Container.Client()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	enc := json.NewEncoder(cli.stdout())
	err = client.Events(ctx, e.Types, func(event gateway.Event) error {
		return enc.Encode(event)
	})
	if err != nil {
		return fmt.Errorf("event stream ended: %w", err)
	}
	return nil
}
