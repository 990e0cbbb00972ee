package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/renato0307/grove/internal/domain"
)

var (
	BranchStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHighlight)
)

var statusColors = map[domain.SessionStatus]Color{
	domain.StatusCompletedUnviewed: ColorCompleted,
	domain.StatusError:             ColorError,
	domain.StatusInitializing:      ColorInitializing,
	domain.StatusReady:             ColorReady,
	domain.StatusRunning:           ColorRunning,
	domain.StatusStopped:           ColorStopped,
	domain.StatusWaiting:           ColorWaiting,
}

var outputColors = map[domain.OutputType]Color{
	domain.OutputError:      ColorError,
	domain.OutputPermission: ColorPermission,
	domain.OutputScript:     ColorScript,
	domain.OutputSystem:     ColorMuted,
	domain.OutputUser:       ColorUser,
}

// StatusStyle returns the style for a session status
func StatusStyle(status domain.SessionStatus) lipgloss.Style {
	color, ok := statusColors[status]
	if !ok {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(color)
}

// OutputStyle returns the style used to prefix an output message of the given type.
// Agent and raw messages are unstyled.
func OutputStyle(t domain.OutputType) lipgloss.Style {
	color, ok := outputColors[t]
	if !ok {
		return lipgloss.NewStyle()
	}
	return lipgloss.NewStyle().Foreground(color)
}
