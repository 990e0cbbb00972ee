package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/gateway"
)

// statusBarOrder is the order of the counts printed by the status command
var statusBarOrder = []domain.SessionStatus{
	domain.StatusWaiting,
	domain.StatusRunning,
	domain.StatusCompletedUnviewed,
	domain.StatusError,
}

// StatusCmd prints one-line session counts for status bars
type StatusCmd struct{}

// Run executes the status command
func (s *StatusCmd) Run(cli *CLI) error {
	fmt.Fprint(cli.stdout(), statusLine(cli))
	return nil
}

func statusLine(cli *CLI) string {
	counts := make(map[domain.SessionStatus]int)
	known := false

	if client, err := cli.Container.Client(); err == nil {
		var sessions []gateway.Session
		if err := client.Do(context.Background(), "session.list", nil, &sessions); err == nil {
			known = true
			for _, session := range sessions {
				counts[session.Status]++
			}
		}
	}

	// The daemon being down is shown, not reported as an error
	parts := make([]string, len(statusBarOrder))
	for i, status := range statusBarOrder {
		value := "?"
		if known {
			value = fmt.Sprintf("%d", counts[status])
		}
		parts[i] = renderStatus(status) + ":" + value
	}
	return strings.Join(parts, " ")
}
