package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"greetsend/pkg/contacts"
	"greetsend/pkg/report"
	"greetsend/pkg/ui"
)

// TUI is the full-screen run display. It implements ui.Reporter.
type TUI struct {
	program *tea.Program
	model   *Model
}

var _ ui.Reporter = (*TUI)(nil)

// New creates a TUI. onQuit is called when the user presses q; the send
// command passes the cancel func of the run context.
func New(onQuit func(), opts ...tea.ProgramOption) *TUI {
	model := NewModel(onQuit)
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
	}
}

// Start runs the TUI until Stop or until the user quits
func (t *TUI) Start() error {
	_, err := t.program.Run()
	return err
}

// Stop stops the TUI gracefully
func (t *TUI) Stop() {
	t.program.Quit()
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

// RunStarted implements ui.Reporter
func (t *TUI) RunStarted(total, rejected int) {
	t.Send(RunStartedMsg{Total: total, Rejected: rejected})
}

// ContactStarted implements ui.Reporter
func (t *TUI) ContactStarted(index, total int, c contacts.Record) {
	t.Send(ContactStartedMsg{Index: index, Total: total, Record: c})
}

// ContactSkipped implements ui.Reporter
func (t *TUI) ContactSkipped(c contacts.Record, path string, err error) {
	t.Send(ContactSkippedMsg{Record: c, Path: path, Error: err})
}

// ContactSending implements ui.Reporter
func (t *TUI) ContactSending(c contacts.Record) {
	t.Send(ContactSendingMsg{Record: c})
}

// ContactSent implements ui.Reporter
func (t *TUI) ContactSent(c contacts.Record) {
	t.Send(ContactSentMsg{Record: c})
}

// ContactFailed implements ui.Reporter
func (t *TUI) ContactFailed(c contacts.Record, err error, hint string) {
	t.Send(ContactFailedMsg{Record: c, Error: err, Hint: hint})
}

// Waiting implements ui.Reporter
func (t *TUI) Waiting(d time.Duration, reason ui.WaitReason) {
	t.Send(WaitingMsg{Duration: d, Reason: reason})
}

// RunFinished implements ui.Reporter
func (t *TUI) RunFinished(s report.Summary, elapsed time.Duration) {
	t.Send(RunFinishedMsg{Summary: s, Elapsed: elapsed})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// IsPaused returns whether the user paused sending
func (t *TUI) IsPaused() bool {
	return t.model.Paused()
}
