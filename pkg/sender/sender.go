// Package sender defines the delivery interface shared by the WhatsApp
// backends and selects one from configuration.
//
// Backends live in subpackages and register themselves on import:
//
//	import _ "greetsend/pkg/sender/browser"
//
//	s, err := sender.New(cfg, sender.Deps{Logger: log})
package sender

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"greetsend/pkg/config"
	"greetsend/pkg/logger"
)

// Message is one image with caption addressed to one phone number
type Message struct {
	// Phone is the recipient in international format with a leading '+'
	Phone string
	// ImagePath is the resolved local path of the image
	ImagePath string
	// Caption is sent with the image
	Caption string
}

// Sender delivers messages. Send is called once per contact, never
// concurrently. Errors are per-contact and never abort a run.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Close() error
}

// Deps carries the shared services a backend may need
type Deps struct {
	Logger     logger.Logger
	HTTPClient *http.Client
}

// Factory builds a backend from configuration
type Factory func(cfg *config.Config, deps Deps) (Sender, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a backend available under name. It panics on duplicates.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("sender: Register called twice for backend " + name)
	}
	registry[name] = f
}

// Backends lists the registered backend names
func Backends() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New builds the backend named by cfg.Sender.Backend
func New(cfg *config.Config, deps Deps) (Sender, error) {
	registryMu.RLock()
	f, ok := registry[cfg.Sender.Backend]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown sender backend %q (registered: %v)", cfg.Sender.Backend, Backends())
	}
	if deps.Logger == nil {
		deps.Logger = logger.GetLogger()
	}
	if deps.HTTPClient == nil {
		deps.HTTPClient = &http.Client{Timeout: cfg.Cloud.Timeout}
	}
	return f(cfg, deps)
}
