package ui

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"greetsend/pkg/config"
	"greetsend/pkg/contacts"
	"greetsend/pkg/media"
	"greetsend/pkg/report"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	out = &buf
	SetColorEnabled(false)
	t.Cleanup(func() {
		out = prev
		SetColorEnabled(true)
		SetQuietMode(false)
	})
	return &buf
}

func TestStatusLine(t *testing.T) {
	var buf bytes.Buffer
	SetColorEnabled(false)
	defer SetColorEnabled(true)

	s := NewStatusLine(&buf)
	c := contacts.Record{Name: "أحمد", Phone: "+249912345678", ImageFile: "ahmed.jpg"}

	s.RunStarted(3, 1)
	s.ContactStarted(1, 3, c)
	s.ContactSending(c)
	s.ContactSent(c)
	s.Waiting(5*time.Second, WaitSettle)
	s.Waiting(15*time.Second, WaitBetween)
	s.ContactStarted(2, 3, c)
	s.ContactSkipped(c, "images/ahmed.jpg", errors.New("missing"))
	s.ContactStarted(3, 3, c)
	s.ContactFailed(c, errors.New("boom"), "Please check your internet connection.")
	s.RunFinished(report.Summary{Sent: 1, Failures: 3}, 42*time.Second)

	got := buf.String()
	assert.Contains(t, got, "Found 3 contacts (1 rejected).")
	assert.Contains(t, got, "--------------------\nContact 1/3\n")
	assert.Contains(t, got, "Sending to: 'أحمد' (+249912345678)\nImage: 'ahmed.jpg'\n")
	assert.Contains(t, got, "Image and caption queued successfully!")
	assert.Contains(t, got, "Waiting for 15s before next message...")
	assert.NotContains(t, got, "Waiting for 5s")
	assert.Contains(t, got, "SKIPPING: Image file not found for 'أحمد' (+249912345678).")
	assert.Contains(t, got, "Missing file: 'images/ahmed.jpg'")
	assert.Contains(t, got, "Error sending image to +249912345678: boom")
	assert.Contains(t, got, "-> Please check your internet connection.")
	assert.Contains(t, got, "Successfully sent attempts: 1\n")
	assert.Contains(t, got, "Failed/Skipped attempts: 3\n")
	assert.NotContains(t, got, "Not attempted")
}

func TestStatusLineRefusedImagePath(t *testing.T) {
	var buf bytes.Buffer
	SetColorEnabled(false)
	defer SetColorEnabled(true)

	dir := t.TempDir()
	lib, err := media.Open(dir)
	if !assert.NoError(t, err) {
		return
	}
	c := contacts.Record{Name: "Sara", Phone: "+249911111111", ImageFile: "/home/sara/eid.jpg"}
	_, err = lib.Resolve(c.ImageFile)

	NewStatusLine(&buf).ContactSkipped(c, lib.Path(c.ImageFile), err)

	got := buf.String()
	assert.Contains(t, got, "SKIPPING: Image path refused for 'Sara' (+249911111111).")
	assert.Contains(t, got, "absolute image path '/home/sara/eid.jpg' refused")
	assert.NotContains(t, got, "Missing file")
}

func TestPrintBanner(t *testing.T) {
	buf := captureOutput(t)

	PrintBanner(BannerInfo{
		ContactsFile: "contacts.csv",
		ImagesFolder: "images",
		Backend:      "browser",
		Browser:      true,
		Delay:        15 * time.Second,
		WaitTime:     10 * time.Second,
	})
	got := buf.String()
	assert.Contains(t, got, "!! REQUIREMENTS !!")
	assert.Contains(t, got, "1. Ensure 'contacts.csv' exists")
	assert.Contains(t, got, "WhatsApp Web")
	assert.Contains(t, got, "8. Delay between messages: 15s | Wait time for load: 10s")

	buf.Reset()
	SetQuietMode(true)
	PrintBanner(BannerInfo{})
	PrintLogo()
	assert.Empty(t, buf.String())
}

func TestColorToggle(t *testing.T) {
	SetColorEnabled(false)
	assert.Equal(t, "x", Red("x"))
	SetColorEnabled(true)
	assert.Equal(t, "\033[31mx\033[0m", Red("x"))
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "15s", formatSeconds(15*time.Second))
	assert.Equal(t, "7s", formatSeconds(7*time.Second))
	assert.Equal(t, "1.5s", formatSeconds(1500*time.Millisecond))
}

type fakeNotification struct {
	titles   []string
	messages []string
}

func (f *fakeNotification) Send(title, message string) error {
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
	return nil
}

func TestNotifier(t *testing.T) {
	fake := &fakeNotification{}
	n := NewNotifierWithSender(config.NotificationConfig{Enabled: true, OnComplete: true, OnError: false}, fake)

	n.RunFinished(report.Summary{Sent: 4, Failures: 1, NotAttempted: 2})
	n.RunFailed(errors.New("contacts file not found"))

	assert.Equal(t, []string{"Eid greetings finished"}, fake.titles)
	assert.Equal(t, []string{"4 sent, 1 failed/skipped, 2 not attempted"}, fake.messages)

	disabled := NewNotifierWithSender(config.NotificationConfig{Enabled: false, OnComplete: true}, fake)
	disabled.RunFinished(report.Summary{})
	assert.Len(t, fake.titles, 1)
}

func TestEscaping(t *testing.T) {
	assert.Equal(t, `"say \"hi\""`, appleScriptString(`say "hi"`))
	assert.Equal(t, "a &amp; b &lt;c&gt;", xmlEscape("a & b <c>"))
}
