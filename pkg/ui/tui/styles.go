package tui

import (
	"github.com/charmbracelet/lipgloss"

	"greetsend/pkg/ui"
)

// Colors follow the outcome of a contact: WhatsApp green for sent, red for
// failed, amber for skipped and blue while the run is waiting. Gold marks
// headings.
var (
	colorSent    = lipgloss.AdaptiveColor{Light: "#128C7E", Dark: "#25D366"}
	colorFailed  = lipgloss.AdaptiveColor{Light: "#B00020", Dark: "#FF5C5C"}
	colorSkipped = lipgloss.AdaptiveColor{Light: "#B36B00", Dark: "#FFB020"}
	colorWaiting = lipgloss.AdaptiveColor{Light: "#1F5FBF", Dark: "#53BDEB"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#8A6D1F", Dark: "#E6C15A"}
	colorText    = lipgloss.AdaptiveColor{Light: "#303030", Dark: "#D0D0D0"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#8A8A8A", Dark: "#6C6C6C"}
)

var (
	baseStyle = lipgloss.NewStyle().Foreground(colorText)

	logoStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(1, 0).
			Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorMuted).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Underline(true).
			MarginBottom(1)

	labelStyle = lipgloss.NewStyle().Foreground(colorMuted)
	valueStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	phoneStyle = lipgloss.NewStyle().Foreground(colorMuted)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted).Italic(true)

	sentStyle    = lipgloss.NewStyle().Foreground(colorSent).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(colorFailed).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(colorSkipped).Bold(true)
	waitingStyle = lipgloss.NewStyle().Foreground(colorWaiting)
	hintStyle    = lipgloss.NewStyle().Foreground(colorSkipped).PaddingLeft(2)

	logTimestampStyle = lipgloss.NewStyle().Foreground(colorMuted)
	helpStyle         = lipgloss.NewStyle().Foreground(colorMuted).Padding(1, 0, 0, 2)
)

// contactMarks pairs each contact state with its glyph in the contacts panel
var contactMarks = map[ContactState]struct {
	glyph string
	style lipgloss.Style
}{
	ContactPending: {"•", mutedStyle},
	ContactSending: {"→", waitingStyle.Bold(true)},
	ContactSent:    {"✓", sentStyle},
	ContactFailed:  {"✗", failedStyle},
	ContactSkipped: {"↷", skippedStyle},
}

// waitStyle colors the countdown by what the run is waiting after, so a
// failure delay stands out from the regular gap between messages
func waitStyle(reason ui.WaitReason) lipgloss.Style {
	switch reason {
	case ui.WaitFailure:
		return failedStyle.Bold(false)
	case ui.WaitSkip:
		return skippedStyle.Bold(false)
	case ui.WaitSettle:
		return sentStyle.Bold(false)
	default:
		return waitingStyle
	}
}

// logLevelColor maps log levels shown in the log panel
func logLevelColor(level string) lipgloss.TerminalColor {
	switch level {
	case "ERROR":
		return colorFailed
	case "WARN":
		return colorSkipped
	case "SUCCESS":
		return colorSent
	case "INFO":
		return colorWaiting
	default:
		return colorMuted
	}
}
