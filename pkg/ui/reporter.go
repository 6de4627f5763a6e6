package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"greetsend/pkg/contacts"
	"greetsend/pkg/media"
	"greetsend/pkg/report"
)

// WaitReason says why the run is pausing
type WaitReason string

const (
	WaitBetween WaitReason = "before next message"
	WaitFailure WaitReason = "after failure"
	WaitSkip    WaitReason = "after skip"
	WaitSettle  WaitReason = "for the message to go out"
)

// Reporter receives run events. The console printer and the TUI both
// implement it.
type Reporter interface {
	RunStarted(total, rejected int)
	ContactStarted(index, total int, c contacts.Record)
	ContactSkipped(c contacts.Record, path string, err error)
	ContactSending(c contacts.Record)
	ContactSent(c contacts.Record)
	ContactFailed(c contacts.Record, err error, hint string)
	Waiting(d time.Duration, reason WaitReason)
	RunFinished(s report.Summary, elapsed time.Duration)
	IsPaused() bool
}

// StatusLine prints the per-contact status lines to a writer
type StatusLine struct {
	mu sync.Mutex
	w  io.Writer
}

// NewStatusLine writes to w, or stdout when w is nil
func NewStatusLine(w io.Writer) *StatusLine {
	if w == nil {
		w = out
	}
	return &StatusLine{w: w}
}

func (s *StatusLine) printf(format string, args ...interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, format, args...)
}

// RunStarted prints the contact count
func (s *StatusLine) RunStarted(total, rejected int) {
	if rejected > 0 {
		s.printf("\nFound %d contacts (%s rejected).\n", total, Yellow(fmt.Sprint(rejected)))
		return
	}
	s.printf("\nFound %d contacts.\n", total)
}

// ContactStarted prints the separator and position header
func (s *StatusLine) ContactStarted(index, total int, c contacts.Record) {
	s.printf("%s\nContact %d/%d\n", strings.Repeat("-", 20), index, total)
}

// ContactSkipped prints the image path that could not be used
func (s *StatusLine) ContactSkipped(c contacts.Record, path string, err error) {
	if stderrors.Is(err, media.ErrOutsideFolder) {
		s.printf("%s Image path refused for '%s' (%s).\n", Yellow("SKIPPING:"), c.Name, c.Phone)
		s.printf("%v\n", err)
		return
	}
	s.printf("%s Image file not found for '%s' (%s).\n", Yellow("SKIPPING:"), c.Name, c.Phone)
	s.printf("Missing file: '%s'\n", path)
}

// ContactSending prints the recipient and image
func (s *StatusLine) ContactSending(c contacts.Record) {
	s.printf("Sending to: '%s' (%s)\nImage: '%s'\n", c.Name, c.Phone, c.ImageFile)
	s.printf("Attempting to send image '%s' with caption to %s...\n", filepath.Base(c.ImageFile), c.Phone)
}

// ContactSent confirms a send
func (s *StatusLine) ContactSent(c contacts.Record) {
	s.printf("%s\n", Green("Image and caption queued successfully!"))
}

// ContactFailed prints the error and the operator hint
func (s *StatusLine) ContactFailed(c contacts.Record, err error, hint string) {
	s.printf("%s\n", Red(fmt.Sprintf("Error sending image to %s: %v", c.Phone, err)))
	if hint != "" {
		s.printf("%s\n", Yellow("-> "+hint))
	}
}

// Waiting announces a pacing delay
func (s *StatusLine) Waiting(d time.Duration, reason WaitReason) {
	if reason == WaitSettle {
		return
	}
	s.printf("%s\n", Dim(fmt.Sprintf("Waiting for %s %s...", formatSeconds(d), reason)))
}

// RunFinished prints the final tally
func (s *StatusLine) RunFinished(sum report.Summary, elapsed time.Duration) {
	bar := strings.Repeat("=", 30)
	s.printf("\n%s\n%s\n", bar, Green("Finished Sending Messages!"))
	s.printf("Successfully sent attempts: %d\n", sum.Sent)
	s.printf("Failed/Skipped attempts: %d\n", sum.Failures)
	if sum.NotAttempted > 0 {
		s.printf("Not attempted (interrupted): %d\n", sum.NotAttempted)
	}
	s.printf("%s\n%s\n", Dim("Elapsed: "+elapsed.Round(time.Second).String()), bar)
}

// IsPaused is always false on the console
func (s *StatusLine) IsPaused() bool { return false }
