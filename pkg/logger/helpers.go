package logger

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// LogSend records a completed or failed send attempt for one contact
func LogSend(l Logger, index, total int, name, phone string, err error) {
	fields := map[string]interface{}{
		"contact": fmt.Sprintf("%d/%d", index, total),
		"name":    name,
		"phone":   phone,
	}
	if err != nil {
		l.WithError(err).ErrorWithFields("Send failed", fields)
		return
	}
	l.InfoWithFields("Message sent", fields)
}

// LogSkip records a contact skipped because its image could not be resolved
func LogSkip(l Logger, index, total int, name, imageFile string, reason error) {
	l.WithError(reason).WarnWithFields("Contact skipped", map[string]interface{}{
		"contact":    fmt.Sprintf("%d/%d", index, total),
		"name":       name,
		"image_file": imageFile,
	})
}

// LogRejected records a contact row that failed validation
func LogRejected(l Logger, line int, reasons []string) {
	l.WarnWithFields("Contact row rejected", map[string]interface{}{
		"line":    line,
		"reasons": reasons,
	})
}

// LogRunSummary records the final tally of a run
func LogRunSummary(l Logger, total, sent, failures, notAttempted int, elapsed time.Duration) {
	l.InfoWithFields("Run finished", map[string]interface{}{
		"total":         total,
		"sent":          sent,
		"failures":      failures,
		"not_attempted": notAttempted,
		"duration":      elapsed,
	})
}

// LogComponentStart logs a component coming up with its settings
func LogComponentStart(l Logger, component string, settings map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("Component started", settings)
}

// NewNopLogger creates a logger that discards everything
func NewNopLogger() Logger {
	return &nopLogger{}
}

type nopLogger struct{}

func (n *nopLogger) Debug(msg string)                                          {}
func (n *nopLogger) Info(msg string)                                           {}
func (n *nopLogger) Warn(msg string)                                           {}
func (n *nopLogger) Error(msg string)                                          {}
func (n *nopLogger) Fatal(msg string)                                          {}
func (n *nopLogger) WithField(key string, value interface{}) Logger            { return n }
func (n *nopLogger) WithFields(fields map[string]interface{}) Logger           { return n }
func (n *nopLogger) WithError(err error) Logger                                { return n }
func (n *nopLogger) WithContext(ctx context.Context) Logger                    { return n }
func (n *nopLogger) DebugWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) InfoWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) WarnWithFields(msg string, fields map[string]interface{})  {}
func (n *nopLogger) ErrorWithFields(msg string, fields map[string]interface{}) {}
func (n *nopLogger) FatalWithFields(msg string, fields map[string]interface{}) {}

func (n *nopLogger) GetZerolog() *zerolog.Logger {
	nop := zerolog.Nop()
	return &nop
}
