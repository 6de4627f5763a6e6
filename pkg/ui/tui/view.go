package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderLogo())

	leftColumn := m.renderLeftColumn()
	rightColumn := m.renderRightColumn()

	mainContent := lipgloss.JoinHorizontal(
		lipgloss.Top,
		leftColumn,
		"  ",
		rightColumn,
	)
	sections = append(sections, mainContent)

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderLogo() string {
	logo := `
╔════════════════════════════════════════════╗
║   GREETSEND  ·  EID MUBARAK  ·  عيد مبارك   ║
╚════════════════════════════════════════════╝`

	return logoStyle.Width(m.width).Render(logo)
}

func (m *Model) renderLeftColumn() string {
	width := (m.width - 4) / 2
	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatsPanel(width),
		m.renderCurrentPanel(width),
		m.renderContactsPanel(width),
	)
}

func (m *Model) renderRightColumn() string {
	width := (m.width - 4) / 2
	return m.renderLogsPanel(width)
}

// renderStatsPanel shows the counters and the overall progress bar
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render("Run")

	done, total, sent, failures := m.Counts()

	m.mu.RLock()
	elapsed := time.Since(m.sessionStartTime)
	rejected := m.rejected
	paused := m.isPaused
	finished := m.finished
	m.mu.RUnlock()

	stats := []string{
		fmt.Sprintf("%s %s", labelStyle.Render("Elapsed:"), valueStyle.Render(formatDuration(elapsed))),
		fmt.Sprintf("%s %s", labelStyle.Render("Contacts:"), valueStyle.Render(fmt.Sprintf("%d/%d", done, total))),
		fmt.Sprintf("%s %s", labelStyle.Render("Sent:"), sentStyle.Render(fmt.Sprint(sent))),
		fmt.Sprintf("%s %s", labelStyle.Render("Failed/Skipped:"), failedStyle.Render(fmt.Sprint(failures))),
	}
	if rejected > 0 {
		stats = append(stats, fmt.Sprintf("%s %s", labelStyle.Render("Rejected rows:"), skippedStyle.Render(fmt.Sprint(rejected))))
	}
	stats = append(stats, m.progress.View())

	switch {
	case finished:
		stats = append(stats, sentStyle.Render("✓ Finished, press q to exit"))
	case paused:
		stats = append(stats, skippedStyle.Render("⏸  Paused, press p to resume"))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

// renderCurrentPanel shows the contact being processed and any delay
func (m *Model) renderCurrentPanel(width int) string {
	title := titleStyle.Render("Now")

	m.mu.RLock()
	current := m.current
	var item ContactItem
	if current != nil {
		item = *current
	}
	reason := m.waitReason
	until := m.waitUntil
	m.mu.RUnlock()

	if current == nil {
		content := mutedStyle.Render("Idle")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	lines := []string{
		fmt.Sprintf("%s %s %s", m.spinner.View(), valueStyle.Render(item.Record.Name), phoneStyle.Render(item.Record.Phone)),
		fmt.Sprintf("%s %s", labelStyle.Render("Image:"), valueStyle.Render(item.Record.ImageFile)),
	}
	if reason != "" {
		left := time.Until(until)
		if left < 0 {
			left = 0
		}
		lines = append(lines, waitStyle(reason).Render(fmt.Sprintf("Waiting %s %s", formatDuration(left), reason)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, lines...)),
	)
}

// renderContactsPanel lists the most recent contacts with their outcome
func (m *Model) renderContactsPanel(width int) string {
	title := titleStyle.Render("Recent contacts")

	items := m.recentItems(6)
	if len(items) == 0 {
		content := mutedStyle.Render("No contacts yet")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	var rows []string
	for _, it := range items {
		rows = append(rows, renderContactItem(it))
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, rows...)),
	)
}

func renderContactItem(it ContactItem) string {
	mark := contactMarks[it.State]
	label := fmt.Sprintf("%d. %s", it.Index, it.Record.Name)
	if it.State == ContactSent {
		label = mutedStyle.Render(label)
	}
	line := mark.style.Render(mark.glyph) + " " + label
	if it.State == ContactFailed && it.Hint != "" {
		line = lipgloss.JoinVertical(lipgloss.Left, line, hintStyle.Render(it.Hint))
	}
	return line
}

func (m *Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render("Log")

	start := len(m.logMessages) - 15
	if start < 0 {
		start = 0
	}

	var logs []string
	for i := start; i < len(m.logMessages); i++ {
		log := m.logMessages[i]
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))

		msg := log.Message
		maxMsgLen := width - 25
		if maxMsgLen > 3 && len([]rune(msg)) > maxMsgLen {
			msg = string([]rune(msg)[:maxMsgLen-3]) + "..."
		}

		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, msg))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = mutedStyle.Render("No logs yet...")
	}

	logsHeight := m.height - 8
	if logsHeight < 5 {
		logsHeight = 5
	}

	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	help := `
  Keys:
    q/Q      - Stop sending and quit
    p/P      - Pause/Resume before the next contact
    ctrl+l   - Clear the log
    ?        - Toggle this help

  Contacts:
    ` + sentStyle.Render("✓") + `        - Sent
    ` + failedStyle.Render("✗") + `        - Send failed, with a hint
    ` + skippedStyle.Render("↷") + `        - Skipped, image missing
    ` + waitingStyle.Render("→") + `        - Sending
`

	return panelStyle.Width(m.width).Render(help)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	mins := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, mins, s)
	}
	return fmt.Sprintf("%02d:%02d", mins, s)
}
