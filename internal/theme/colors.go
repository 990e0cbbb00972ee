package theme

import "github.com/charmbracelet/lipgloss"

// Color is an alias for lipgloss.Color for convenience
type Color = lipgloss.Color

// Session status colors
const (
	ColorCompleted    Color = "99"  // Purple - finished, not yet looked at
	ColorError        Color = "196" // Bright red
	ColorInitializing Color = "86"  // Cyan - provisioning
	ColorReady        Color = "3"   // Yellow - idle
	ColorRunning      Color = "2"   // Green - working
	ColorStopped      Color = "8"   // Gray
	ColorWaiting      Color = "1"   // Red - waiting for the operator
)

// Semantic colors
const (
	ColorHighlight Color = "255" // White - emphasis
	ColorMuted     Color = "241" // Gray - secondary text
	ColorSubtle    Color = "245" // Light gray - labels
)

// Output message colors
const (
	ColorPermission Color = "214" // Orange
	ColorScript     Color = "33"  // Blue
	ColorUser       Color = "141" // Purple
)
