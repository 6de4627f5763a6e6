package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"greetsend/pkg/logger"
)

// AutoPath asks Save to place the report in the per-user data directory
const AutoPath = "auto"

// Status is the outcome of one contact
type Status string

const (
	StatusSent         Status = "sent"
	StatusFailed       Status = "failed"
	StatusSkipped      Status = "skipped"
	StatusRejected     Status = "rejected"
	StatusNotAttempted Status = "not_attempted"
)

// Outcome records what happened to one contact row
type Outcome struct {
	Line      int       `json:"line"`
	Name      string    `json:"name,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	ImageFile string    `json:"image_file,omitempty"`
	Status    Status    `json:"status"`
	Template  int       `json:"template,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorType string    `json:"error_type,omitempty"`
	ErrorCode int       `json:"error_code,omitempty"`
	At        time.Time `json:"at"`
}

// Summary holds the run counters
type Summary struct {
	Total        int `json:"total"`
	Sent         int `json:"sent"`
	Failed       int `json:"failed"`
	Skipped      int `json:"skipped"`
	Rejected     int `json:"rejected"`
	NotAttempted int `json:"not_attempted"`
	Failures     int `json:"failures"`
}

// Report is the JSON document written at the end of a run
type Report struct {
	RunID      string    `json:"run_id"`
	Backend    string    `json:"backend"`
	Contacts   string    `json:"contacts_file,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Duration   string    `json:"duration"`
	Summary    Summary   `json:"summary"`
	Outcomes   []Outcome `json:"outcomes"`
	Version    int       `json:"version"`

	mu sync.Mutex
}

// New starts a report for a run on the given backend
func New(backend, contactsFile string) *Report {
	return &Report{
		RunID:     uuid.New().String(),
		Backend:   backend,
		Contacts:  contactsFile,
		StartedAt: time.Now(),
		Outcomes:  []Outcome{},
		Version:   1,
	}
}

// Add appends an outcome; a zero At is stamped with the current time
func (r *Report) Add(o Outcome) {
	if r == nil {
		return
	}
	if o.At.IsZero() {
		o.At = time.Now()
	}
	r.mu.Lock()
	r.Outcomes = append(r.Outcomes, o)
	r.mu.Unlock()
}

// Finish stamps the end time and counters
func (r *Report) Finish(s Summary) {
	if r == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
	r.Summary = s
}

// Save writes the report to path atomically and returns the final path.
// AutoPath resolves to <data dir>/reports/<run id>.json.
func (r *Report) Save(path string) (string, error) {
	if path == AutoPath {
		dataDir, err := getDataDirectory()
		if err != nil {
			return "", fmt.Errorf("failed to get data directory: %w", err)
		}
		path = filepath.Join(dataDir, "reports", r.RunID+".json")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tempPath := path + ".tmp"
	file, err := os.Create(tempPath)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary report file: %w", err)
	}

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(r); err != nil {
		file.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to encode report: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to sync report file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to close report file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return "", fmt.Errorf("failed to replace report file: %w", err)
	}

	logger.GetLogger().DebugWithFields("Report saved", map[string]interface{}{
		"run_id":   r.RunID,
		"path":     path,
		"outcomes": len(r.Outcomes),
	})
	return path, nil
}

// getDataDirectory returns the per-user data directory for the current OS
func getDataDirectory() (string, error) {
	var dataDir string

	switch runtime.GOOS {
	case "linux":
		if xdgDataHome := os.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
			dataDir = filepath.Join(xdgDataHome, "greetsend")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			dataDir = filepath.Join(home, ".local", "share", "greetsend")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, "Library", "Application Support", "greetsend")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		dataDir = filepath.Join(appData, "greetsend")
	default:
		return "", fmt.Errorf("unsupported operating system: %s", runtime.GOOS)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return dataDir, nil
}
