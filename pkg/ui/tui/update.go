package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"greetsend/pkg/contacts"
	"greetsend/pkg/report"
	"greetsend/pkg/ui"
)

// Message types for the TUI

// RunStartedMsg is sent before the first contact
type RunStartedMsg struct {
	Total    int
	Rejected int
}

// ContactStartedMsg is sent when a contact becomes current
type ContactStartedMsg struct {
	Index  int
	Total  int
	Record contacts.Record
}

// ContactSendingMsg is sent right before the message goes to the sender
type ContactSendingMsg struct {
	Record contacts.Record
}

// ContactSentMsg is sent after a successful send
type ContactSentMsg struct {
	Record contacts.Record
}

// ContactFailedMsg is sent after a failed send
type ContactFailedMsg struct {
	Record contacts.Record
	Error  error
	Hint   string
}

// ContactSkippedMsg is sent when the contact's image is missing
type ContactSkippedMsg struct {
	Record contacts.Record
	Path   string
	Error  error
}

// WaitingMsg is sent when the run starts a pacing delay
type WaitingMsg struct {
	Duration time.Duration
	Reason   ui.WaitReason
}

// RunFinishedMsg is sent after the last contact
type RunFinishedMsg struct {
	Summary report.Summary
	Elapsed time.Duration
}

// LogMsg is sent to add a log message
type LogMsg struct {
	Level   string
	Message string
}

// TickMsg is sent periodically to update the UI
type TickMsg time.Time

// Update handles all messages and updates the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(msg.Width/2-12, 10)
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		if p, ok := pm.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd

	case TickMsg:
		return m, tickCmd()

	case RunStartedMsg:
		m.StartRun(msg.Total, msg.Rejected)
		if msg.Rejected > 0 {
			m.AddLogMessage("WARN", fmt.Sprintf("%d contact rows rejected", msg.Rejected))
		}
		m.AddLogMessage("INFO", fmt.Sprintf("Found %d contacts", msg.Total))
		return m, nil

	case ContactStartedMsg:
		m.StartContact(msg.Index, msg.Record)
		return m, nil

	case ContactSendingMsg:
		m.setCurrent(ContactSending, nil, "")
		m.AddLogMessage("INFO", fmt.Sprintf("Sending to %s (%s)", msg.Record.Name, msg.Record.Phone))
		return m, nil

	case ContactSentMsg:
		m.setCurrent(ContactSent, nil, "")
		m.AddLogMessage("SUCCESS", "Queued: "+msg.Record.Name)
		return m, m.progress.SetPercent(m.Progress())

	case ContactFailedMsg:
		m.setCurrent(ContactFailed, msg.Error, msg.Hint)
		m.AddLogMessage("ERROR", fmt.Sprintf("Failed: %s - %v", msg.Record.Name, msg.Error))
		if msg.Hint != "" {
			m.AddLogMessage("WARN", msg.Hint)
		}
		return m, m.progress.SetPercent(m.Progress())

	case ContactSkippedMsg:
		m.setCurrent(ContactSkipped, msg.Error, "")
		m.AddLogMessage("WARN", fmt.Sprintf("Skipped %s: missing file '%s'", msg.Record.Name, msg.Path))
		return m, m.progress.SetPercent(m.Progress())

	case WaitingMsg:
		m.SetWaiting(msg.Duration, msg.Reason)
		return m, nil

	case RunFinishedMsg:
		m.Finish()
		m.AddLogMessage("SUCCESS", fmt.Sprintf("Finished: %d sent, %d failed/skipped", msg.Summary.Sent, msg.Summary.Failures))
		return m, nil

	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
		return m, nil
	}

	return m, nil
}

// handleKeyPress handles keyboard input
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "Q", "ctrl+c":
		m.quit()
		return m, tea.Quit

	case "p", "P":
		if m.togglePause() {
			m.AddLogMessage("WARN", "Sending paused by user")
		} else {
			m.AddLogMessage("INFO", "Sending resumed by user")
		}
		return m, nil

	case "?":
		m.showHelp = !m.showHelp
		return m, nil

	case "ctrl+l":
		m.mu.Lock()
		m.logMessages = []LogMessage{}
		m.mu.Unlock()
		return m, nil
	}

	return m, nil
}

// tickCmd returns a command that sends a tick message
func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
