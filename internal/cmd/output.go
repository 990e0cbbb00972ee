package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/dustin/go-humanize"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/theme"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func newTableWriter(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// relativeTime renders t as "3 minutes ago", or "-" for the zero time
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}

// shortID keeps the first block of a uuid
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func renderStatus(status domain.SessionStatus) string {
	return theme.StatusStyle(status).Render(string(status))
}

// outputText extracts the human readable part of an output message
func outputText(msg domain.OutputMessage) string {
	var payload struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(msg.Data, &payload); err == nil && payload.Text != "" {
		return payload.Text
	}
	return string(msg.Data)
}

func printOutputMessage(w io.Writer, msg domain.OutputMessage) {
	prefix := theme.OutputStyle(msg.Type).Render(fmt.Sprintf("[%s]", msg.Type))
	fmt.Fprintf(w, "%s %s\n", prefix, strings.TrimRight(outputText(msg), "\n"))
}

// confirm asks a yes/no question on the terminal
func confirm(title, description, affirmative string) (bool, error) {
	var ok bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Description(description).
				Value(&ok).
				Affirmative(affirmative).
				Negative("Cancel"),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return ok, nil
}
