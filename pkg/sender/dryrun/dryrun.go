// Package dryrun provides a sender that logs messages instead of sending
// them.
package dryrun

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"greetsend/pkg/config"
	"greetsend/pkg/logger"
	"greetsend/pkg/sender"
)

// Name is the backend name used in configuration
const Name = config.BackendDryRun

func init() {
	sender.Register(Name, func(cfg *config.Config, deps sender.Deps) (sender.Sender, error) {
		return New(deps.Logger), nil
	})
}

var errSenderClosed = errors.New("dry-run sender is closed")

// Sender records every message it is asked to send
type Sender struct {
	log logger.Logger

	mu     sync.Mutex
	sent   []sender.Message
	closed bool
}

// New creates a dry-run sender
func New(log logger.Logger) *Sender {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, msg sender.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return errSenderClosed
	}

	s.log.InfoWithFields("Dry run: message not sent", map[string]interface{}{
		"phone":         msg.Phone,
		"image":         msg.ImagePath,
		"caption_chars": utf8.RuneCountInString(msg.Caption),
	})

	s.mu.Lock()
	s.sent = append(s.sent, msg)
	s.mu.Unlock()
	return nil
}

// Sent returns the recorded messages in order
func (s *Sender) Sent() []sender.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sender.Message, len(s.sent))
	copy(out, s.sent)
	return out
}

func (s *Sender) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}
