package browser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"greetsend/pkg/config"
	"greetsend/pkg/logger"
	"greetsend/pkg/sender"
)

func TestChatURL(t *testing.T) {
	tests := []struct {
		base  string
		phone string
		want  string
	}{
		{"https://web.whatsapp.com", "+249912345678", "https://web.whatsapp.com/send?phone=249912345678"},
		{"https://web.whatsapp.com/", "+1 (555) 010-9999", "https://web.whatsapp.com/send?phone=15550109999"},
		{"http://127.0.0.1:8080", "0044 20 7946", "http://127.0.0.1:8080/send?phone=0044207946"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ChatURL(tt.base, tt.phone))
	}
}

func TestFromConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Browser.Headless = true
	cfg.Browser.WaitTime = 20 * time.Second
	cfg.Browser.Selectors.SendButton = `button.send`
	cfg.Browser.Selectors.Caption = "   "

	opts := FromConfig(cfg.Browser)
	assert.True(t, opts.Headless)
	assert.Equal(t, 20*time.Second, opts.WaitTime)
	assert.Equal(t, cfg.Browser.BaseURL, opts.BaseURL)

	defaults := DefaultSelectors()
	assert.Equal(t, `button.send`, opts.Selectors.SendButton)
	assert.Equal(t, defaults.Caption, opts.Selectors.Caption)
	assert.Equal(t, defaults.Composer, opts.Selectors.Composer)
}

func TestNewFillsSelectors(t *testing.T) {
	s := New(Options{}, logger.NewNopLogger())
	assert.Equal(t, DefaultSelectors(), s.opts.Selectors)
}

func TestCloseWithoutSend(t *testing.T) {
	s := New(Options{}, logger.NewNopLogger())
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestRegisteredFactory(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Sender.Backend = Name

	s, err := sender.New(cfg, sender.Deps{Logger: logger.NewNopLogger()})
	assert.NoError(t, err)
	assert.IsType(t, &Sender{}, s)
	assert.NoError(t, s.Close())
}
