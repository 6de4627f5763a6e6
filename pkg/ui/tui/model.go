package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"greetsend/pkg/contacts"
	"greetsend/pkg/ui"
)

// ContactState is where a contact is in the run
type ContactState int

const (
	ContactPending ContactState = iota
	ContactSending
	ContactSent
	ContactFailed
	ContactSkipped
)

// ContactItem is one row of the contacts panel
type ContactItem struct {
	Index  int
	Record contacts.Record
	State  ContactState
	Error  error
	Hint   string
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner  spinner.Model
	progress progress.Model

	// Run state
	items    []*ContactItem
	current  *ContactItem
	total    int
	sent     int
	failed   int
	skipped  int
	rejected int
	finished bool

	waitReason ui.WaitReason
	waitUntil  time.Time

	sessionStartTime time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	isPaused       bool
	logMessages    []LogMessage
	maxLogMessages int

	// onQuit is called once when the user quits
	onQuit   func()
	quitOnce sync.Once

	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.TerminalColor
}

// NewModel creates a new TUI model. onQuit may be nil.
func NewModel(onQuit func()) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = waitingStyle

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return &Model{
		spinner:          s,
		progress:         p,
		sessionStartTime: time.Now(),
		logMessages:      []LogMessage{},
		maxLogMessages:   50,
		onQuit:           onQuit,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// StartRun sets the number of contacts and rejected rows
func (m *Model) StartRun(total, rejected int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total = total
	m.rejected = rejected
	m.sessionStartTime = time.Now()
}

// StartContact makes c the current contact
func (m *Model) StartContact(index int, c contacts.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item := &ContactItem{Index: index, Record: c, State: ContactPending}
	m.items = append(m.items, item)
	m.current = item
	m.waitReason = ""
}

func (m *Model) setCurrent(state ContactState, err error, hint string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return
	}
	m.current.State = state
	m.current.Error = err
	m.current.Hint = hint
	switch state {
	case ContactSent:
		m.sent++
	case ContactFailed:
		m.failed++
	case ContactSkipped:
		m.skipped++
	}
}

// SetWaiting records a pacing delay that ends after d
func (m *Model) SetWaiting(d time.Duration, reason ui.WaitReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.waitReason = reason
	m.waitUntil = time.Now().Add(d)
}

// Finish marks the run as done
func (m *Model) Finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished = true
	m.current = nil
	m.waitReason = ""
}

// Paused reports whether the user paused the run
func (m *Model) Paused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.isPaused
}

func (m *Model) togglePause() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.isPaused = !m.isPaused
	return m.isPaused
}

func (m *Model) quit() {
	m.quitOnce.Do(func() {
		if m.onQuit != nil {
			m.onQuit()
		}
	})
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   logLevelColor(level),
	})

	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Counts returns the running tally
func (m *Model) Counts() (done, total, sent, failures int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sent + m.failed + m.skipped, m.total, m.sent, m.failed + m.skipped + m.rejected
}

// Progress is the share of contacts processed, between 0 and 1
func (m *Model) Progress() float64 {
	done, total, _, _ := m.Counts()
	if total == 0 {
		return 0
	}
	return float64(done) / float64(total)
}

// recentItems returns up to n most recent contacts, newest last
func (m *Model) recentItems(n int) []ContactItem {
	m.mu.RLock()
	defer m.mu.RUnlock()
	start := len(m.items) - n
	if start < 0 {
		start = 0
	}
	out := make([]ContactItem, 0, len(m.items)-start)
	for _, it := range m.items[start:] {
		out = append(out, *it)
	}
	return out
}
