package logger

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"greetsend/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug json", &config.LoggingConfig{Level: "debug", Format: "json"}, false},
		{"invalid level", &config.LoggingConfig{Level: "invalid"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "run.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && logger == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestFileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greetsend.log")
	var console bytes.Buffer

	l, err := newWithWriter(&config.LoggingConfig{Level: "info", Format: "json", File: path}, &console)
	if err != nil {
		t.Fatalf("newWithWriter() error = %v", err)
	}
	l.WithField("phone", "+249900000000").Info("Message sent")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	for name, out := range map[string]string{"file": string(data), "console": console.String()} {
		if !strings.Contains(out, "Message sent") || !strings.Contains(out, `"phone":"+249900000000"`) {
			t.Errorf("%s output missing entry: %s", name, out)
		}
		if !strings.Contains(out, `"app":"greetsend"`) {
			t.Errorf("%s output missing app field: %s", name, out)
		}
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"verbose", zerolog.InfoLevel, true},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func newBufferLogger(buf *bytes.Buffer) *zerologLogger {
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zlog := zerolog.New(buf).With().Timestamp().Logger()
	return &zerologLogger{logger: &zlog, fields: map[string]interface{}{}}
}

func TestFieldChaining(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.
		WithField("contact", "1/3").
		WithFields(map[string]interface{}{"name": "Ahmed", "attempt": 1}).
		WithError(errors.New("chat did not load")).
		Warn("Send failed")

	out := buf.String()
	for _, want := range []string{`"contact":"1/3"`, `"name":"Ahmed"`, `"attempt":1`, `"error":"chat did not load"`, "Send failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %s: %s", want, out)
		}
	}
}

func TestWithErrorNil(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)
	if logger.WithError(nil) != Logger(logger) {
		t.Error("WithError(nil) should return the same logger")
	}
}

func TestChildDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := newBufferLogger(&buf)
	_ = parent.WithField("child_only", true)

	parent.Info("parent line")
	if strings.Contains(buf.String(), "child_only") {
		t.Errorf("parent picked up child field: %s", buf.String())
	}
}

func TestFieldTypes(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferLogger(&buf)

	logger.InfoWithFields("typed", map[string]interface{}{
		"duration": 5 * time.Second,
		"reasons":  []string{"Name is empty"},
		"line":     int64(7),
		"ok":       true,
	})

	out := buf.String()
	if !strings.Contains(out, `"reasons":["Name is empty"]`) {
		t.Errorf("string slice not encoded: %s", out)
	}
	if !strings.Contains(out, `"line":7`) || !strings.Contains(out, `"ok":true`) {
		t.Errorf("scalar fields not encoded: %s", out)
	}
}

func TestDomainHelpers(t *testing.T) {
	tl := NewTestLogger()

	LogSend(tl, 1, 2, "Ahmed", "+249111", nil)
	LogSend(tl, 2, 2, "Sara", "+249222", errors.New("browser closed"))
	LogSkip(tl, 2, 2, "Sara", "sara.jpg", errors.New("image not found"))
	LogRejected(tl, 4, []string{"Phone is empty"})
	LogRunSummary(tl, 3, 1, 2, 0, time.Minute)

	if !tl.HasMessage("Message sent") || !tl.HasMessage("Run finished") {
		t.Errorf("expected messages not captured:\n%s", tl.String())
	}

	errs := tl.GetMessagesByLevel("ERROR")
	if len(errs) != 1 || errs[0].Error != "browser closed" || errs[0].Fields["contact"] != "2/2" {
		t.Errorf("unexpected error entries: %+v", errs)
	}

	warns := tl.GetMessagesByLevel("WARN")
	if len(warns) != 2 {
		t.Fatalf("expected 2 warnings, got %d", len(warns))
	}
	if warns[1].Fields["line"] != 4 {
		t.Errorf("rejected line field = %v", warns[1].Fields["line"])
	}

	tl.Clear()
	if len(tl.GetMessages()) != 0 {
		t.Error("Clear() left messages behind")
	}
}

func TestGlobalLogger(t *testing.T) {
	if err := Initialize(&config.LoggingConfig{Level: "error"}); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if GetLogger() == nil {
		t.Fatal("GetLogger() returned nil")
	}

	Debug("debug message")
	Info("info message")
	WithField("key", "value").Warn("with field")
	WithError(errors.New("x")).Error("with error")
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.WithField("a", 1).WithError(errors.New("x")).Error("ignored")
	if l.GetZerolog() == nil {
		t.Error("nop logger should expose a usable zerolog instance")
	}
}
