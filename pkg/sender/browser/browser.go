// Package browser sends image messages by driving WhatsApp Web in Chrome
// through the DevTools protocol.
package browser

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"greetsend/pkg/config"
	"greetsend/pkg/contacts"
	"greetsend/pkg/errors"
	"greetsend/pkg/logger"
	"greetsend/pkg/pacing"
	"greetsend/pkg/sender"
)

// Name is the backend name used in configuration
const Name = config.BackendBrowser

// StartupTimeout bounds the first chat load of a session, when WhatsApp Web
// still has to boot and sync
const StartupTimeout = 90 * time.Second

// elementTimeout bounds the lookup of each control once the chat is open
const elementTimeout = 15 * time.Second

func init() {
	sender.Register(Name, func(cfg *config.Config, deps sender.Deps) (sender.Sender, error) {
		return New(FromConfig(cfg.Browser), deps.Logger), nil
	})
}

// Selectors are the CSS selectors used to find WhatsApp Web controls
type Selectors struct {
	Composer   string
	LoginQR    string
	Popup      string
	Attach     string
	FileInput  string
	Caption    string
	SendButton string
}

// DefaultSelectors match the WhatsApp Web UI at the time of writing
func DefaultSelectors() Selectors {
	return Selectors{
		Composer:   `footer div[contenteditable="true"]`,
		LoginQR:    `div[data-ref] canvas, canvas[aria-label*="QR"], canvas[aria-label*="Scan"]`,
		Popup:      `div[role="dialog"], div[data-animate-modal-popup="true"]`,
		Attach:     `div[title="Attach"], span[data-icon="plus"], span[data-icon="plus-rounded"], span[data-icon="attach-menu-plus"]`,
		FileInput:  `input[type="file"][accept*="image"]`,
		Caption:    `div[aria-label*="caption" i][contenteditable="true"], div[role="dialog"] div[contenteditable="true"]`,
		SendButton: `span[data-icon="send"], div[aria-label="Send"], span[data-icon="wds-ic-send-filled"]`,
	}
}

func (s Selectors) merge(o config.BrowserSelectors) Selectors {
	pick := func(override, fallback string) string {
		if strings.TrimSpace(override) != "" {
			return override
		}
		return fallback
	}
	return Selectors{
		Composer:   pick(o.Composer, s.Composer),
		LoginQR:    pick(o.LoginQR, s.LoginQR),
		Popup:      pick(o.Popup, s.Popup),
		Attach:     pick(o.Attach, s.Attach),
		FileInput:  pick(o.FileInput, s.FileInput),
		Caption:    pick(o.Caption, s.Caption),
		SendButton: pick(o.SendButton, s.SendButton),
	}
}

// Options configures the browser session
type Options struct {
	BaseURL     string
	Headless    bool
	UserDataDir string
	BinPath     string
	// ControlURL attaches to an already running Chrome instead of launching
	ControlURL string
	// WaitTime bounds how long a chat may take to open
	WaitTime time.Duration
	// CloseTime is waited after pressing send so the upload can finish
	CloseTime time.Duration
	// TabClose closes the tab after every message
	TabClose  bool
	Selectors Selectors
}

// FromConfig builds Options from the browser configuration section
func FromConfig(c config.BrowserConfig) Options {
	return Options{
		BaseURL:     c.BaseURL,
		Headless:    c.Headless,
		UserDataDir: c.UserDataDir,
		BinPath:     c.BinPath,
		ControlURL:  c.ControlURL,
		WaitTime:    c.WaitTime,
		CloseTime:   c.CloseTime,
		TabClose:    c.TabClose,
		Selectors:   DefaultSelectors().merge(c.Selectors),
	}
}

// ChatURL returns the deep link that opens a chat with phone
func ChatURL(base, phone string) string {
	q := url.Values{}
	q.Set("phone", contacts.Digits(phone))
	return strings.TrimRight(base, "/") + "/send?" + q.Encode()
}

// Sender drives one Chrome instance. The browser is started lazily on the
// first Send and reused until Close.
type Sender struct {
	opts Options
	log  logger.Logger

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	warm     bool
}

// New creates a browser sender without starting Chrome
func New(opts Options, log logger.Logger) *Sender {
	if log == nil {
		log = logger.GetLogger()
	}
	if opts.Selectors == (Selectors{}) {
		opts.Selectors = DefaultSelectors()
	}
	return &Sender{opts: opts, log: log.WithField("component", "browser")}
}

func (s *Sender) connect() error {
	if s.browser != nil {
		return nil
	}

	controlURL := s.opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(s.opts.Headless)
		if s.opts.BinPath != "" {
			l = l.Bin(s.opts.BinPath)
		}
		if s.opts.UserDataDir != "" {
			l = l.UserDataDir(s.opts.UserDataDir)
		}
		u, err := l.Launch()
		if err != nil {
			return errors.Wrap(errors.ErrorTypeSession, "failed to launch Chrome", err)
		}
		s.launcher = l
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return errors.Wrap(errors.ErrorTypeSession, "failed to connect to Chrome", err)
	}
	s.browser = b

	s.log.InfoWithFields("Browser connected", map[string]interface{}{
		"headless":      s.opts.Headless,
		"user_data_dir": s.opts.UserDataDir,
	})
	return nil
}

func (s *Sender) ensurePage() (*rod.Page, error) {
	if s.page != nil {
		return s.page, nil
	}
	p, err := s.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, errors.Wrap(errors.ErrorTypeSession, "failed to open a browser tab", err)
	}
	s.page = p
	return p, nil
}

// Send opens the chat, attaches the image, types the caption and sends it
func (s *Sender) Send(ctx context.Context, msg sender.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.connect(); err != nil {
		return err
	}
	page, err := s.ensurePage()
	if err != nil {
		return err
	}

	if err := s.openChat(ctx, page, msg.Phone); err != nil {
		s.dropPageOnError(page)
		return err
	}
	if err := s.attachAndSend(ctx, page, msg); err != nil {
		s.dropPageOnError(page)
		return err
	}

	if err := pacing.Wait(ctx, s.opts.CloseTime); err != nil {
		return errors.Wrap(errors.ErrorTypeNetwork, "interrupted while the upload was finishing", err)
	}

	if s.opts.TabClose {
		_ = page.Close()
		s.page = nil
	}
	return nil
}

// openChat navigates to the chat and waits for the composer, the login QR
// code or an error popup, whichever comes first
func (s *Sender) openChat(ctx context.Context, page *rod.Page, phone string) error {
	budget := s.opts.WaitTime
	if !s.warm && budget < StartupTimeout {
		budget = StartupTimeout
	}
	p := page.Context(ctx).Timeout(budget)

	if err := p.Navigate(ChatURL(s.opts.BaseURL, phone)); err != nil {
		return errors.Classify(fmt.Errorf("navigate to chat: %w", err))
	}
	if err := p.WaitLoad(); err != nil {
		return errors.Classify(fmt.Errorf("wait for WhatsApp Web to load: %w", err))
	}

	sel := s.opts.Selectors
	_, err := p.Race().
		Element(sel.Composer).
		ElementR(sel.Popup, "(?i)invalid").Handle(func(*rod.Element) error {
		return errors.New(errors.ErrorTypeRecipient, "phone number shared via url is invalid")
	}).
		Element(sel.LoginQR).Handle(func(*rod.Element) error {
		return errors.New(errors.ErrorTypeSession, "WhatsApp Web is not logged in; scan the QR code in the browser window")
	}).
		Do()
	if err != nil {
		if errors.TypeOf(err) != errors.ErrorTypeUnknown {
			return err
		}
		if stderrors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return errors.Wrap(errors.ErrorTypeNetwork,
				fmt.Sprintf("chat did not open within %s; Internet Not Connected?", budget), err)
		}
		return errors.Classify(err)
	}

	s.warm = true
	return nil
}

func (s *Sender) attachAndSend(ctx context.Context, page *rod.Page, msg sender.Message) error {
	p := page.Context(ctx).Timeout(elementTimeout)
	sel := s.opts.Selectors

	attach, err := p.Element(sel.Attach)
	if err != nil {
		return missingControl("attach button", err)
	}
	if err := attach.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return missingControl("attach button", err)
	}

	fileInput, err := p.Element(sel.FileInput)
	if err != nil {
		return missingControl("image file input", err)
	}
	if err := fileInput.SetFiles([]string{msg.ImagePath}); err != nil {
		return errors.Wrap(errors.ErrorTypeMedia, fmt.Sprintf("failed to attach '%s'", msg.ImagePath), err)
	}

	caption, err := p.Element(sel.Caption)
	if err != nil {
		return missingControl("caption box", err)
	}
	if err := caption.Input(msg.Caption); err != nil {
		return missingControl("caption box", err)
	}

	send, err := p.Element(sel.SendButton)
	if err == nil {
		err = send.Click(proto.InputMouseButtonLeft, 1)
	}
	if err != nil {
		s.log.WithError(err).Debug("send button not clickable, pressing Enter")
		if kerr := p.Keyboard.Type(input.Enter); kerr != nil {
			return missingControl("send button", err)
		}
	}

	s.log.DebugWithFields("image queued in WhatsApp Web", map[string]interface{}{
		"phone": msg.Phone,
		"image": msg.ImagePath,
	})
	return nil
}

func missingControl(what string, err error) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	return errors.Wrap(errors.ErrorTypeAssets, "Unable to Locate Assets: "+what, err)
}

// dropPageOnError discards a tab left in an unknown state so the next
// contact starts from a fresh one
func (s *Sender) dropPageOnError(page *rod.Page) {
	_ = page.Close()
	s.page = nil
}

// Close closes the tab and the browser. Chrome started by this sender is
// shut down; an attached Chrome is left running.
func (s *Sender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.page != nil {
		_ = s.page.Close()
		s.page = nil
	}

	var err error
	if s.browser != nil {
		if s.launcher != nil {
			err = s.browser.Close()
			s.launcher.Kill()
		}
		s.browser = nil
	}
	return err
}
