package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
	"greetsend/pkg/pacing"
)

// Backend names accepted by sender.backend
const (
	BackendBrowser = "browser"
	BackendCloud   = "cloud"
	BackendDryRun  = "dry-run"
)

// Config holds all configuration options for greetsend
type Config struct {
	Contacts      ContactsConfig     `yaml:"contacts" json:"contacts"`
	Templates     TemplatesConfig    `yaml:"templates" json:"templates"`
	Images        ImagesConfig       `yaml:"images" json:"images"`
	Pacing        PacingConfig       `yaml:"pacing" json:"pacing"`
	Sender        SenderConfig       `yaml:"sender" json:"sender"`
	Browser       BrowserConfig      `yaml:"browser" json:"browser"`
	Cloud         CloudConfig        `yaml:"cloud" json:"cloud"`
	Output        OutputConfig       `yaml:"output" json:"output"`
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`
	Logging       LoggingConfig      `yaml:"logging" json:"logging"`
}

// ContactsConfig locates and describes the contact list
type ContactsConfig struct {
	File      string `yaml:"file" json:"file"`
	Delimiter string `yaml:"delimiter" json:"delimiter"`
	Comment   string `yaml:"comment" json:"comment"`
}

// TemplatesConfig points at a caption template file. An empty file means
// the built-in greeting set.
type TemplatesConfig struct {
	File string `yaml:"file" json:"file"`
}

// ImagesConfig locates the folder holding per-contact images
type ImagesConfig struct {
	Folder string `yaml:"folder" json:"folder"`
}

// PacingConfig holds the fixed delays between send attempts
type PacingConfig struct {
	Between      time.Duration `yaml:"between" json:"between"`
	AfterFailure time.Duration `yaml:"after_failure" json:"after_failure"`
	AfterSkip    time.Duration `yaml:"after_skip" json:"after_skip"`
	Settle       time.Duration `yaml:"settle" json:"settle"`
}

// SenderConfig selects the delivery backend
type SenderConfig struct {
	Backend     string        `yaml:"backend" json:"backend"`
	SendTimeout time.Duration `yaml:"send_timeout" json:"send_timeout"`
}

// BrowserConfig configures the WhatsApp Web automation backend
type BrowserConfig struct {
	Headless    bool          `yaml:"headless" json:"headless"`
	UserDataDir string        `yaml:"user_data_dir" json:"user_data_dir"`
	BinPath     string        `yaml:"bin_path" json:"bin_path"`
	ControlURL  string        `yaml:"control_url" json:"control_url"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	WaitTime    time.Duration `yaml:"wait_time" json:"wait_time"`
	CloseTime   time.Duration `yaml:"close_time" json:"close_time"`
	TabClose    bool          `yaml:"tab_close" json:"tab_close"`
	// Selectors override the CSS selectors used to drive WhatsApp Web;
	// empty entries keep the built-in ones
	Selectors BrowserSelectors `yaml:"selectors,omitempty" json:"selectors,omitempty"`
}

// BrowserSelectors holds CSS selector overrides for WhatsApp Web elements
type BrowserSelectors struct {
	Composer   string `yaml:"composer,omitempty" json:"composer,omitempty"`
	LoginQR    string `yaml:"login_qr,omitempty" json:"login_qr,omitempty"`
	Popup      string `yaml:"popup,omitempty" json:"popup,omitempty"`
	Attach     string `yaml:"attach,omitempty" json:"attach,omitempty"`
	FileInput  string `yaml:"file_input,omitempty" json:"file_input,omitempty"`
	Caption    string `yaml:"caption,omitempty" json:"caption,omitempty"`
	SendButton string `yaml:"send_button,omitempty" json:"send_button,omitempty"`
}

// CloudConfig configures the WhatsApp Cloud API backend
type CloudConfig struct {
	BaseURL       string        `yaml:"base_url" json:"base_url"`
	APIVersion    string        `yaml:"api_version" json:"api_version"`
	Account       string        `yaml:"account" json:"account"`
	PhoneNumberID string        `yaml:"phone_number_id" json:"phone_number_id"`
	AccessToken   string        `yaml:"access_token" json:"access_token"`
	Timeout       time.Duration `yaml:"timeout" json:"timeout"`
}

// OutputConfig controls console output and the run report
type OutputConfig struct {
	ReportFile string `yaml:"report_file" json:"report_file"`
	Color      bool   `yaml:"color" json:"color"`
}

// NotificationConfig holds desktop notification preferences
type NotificationConfig struct {
	Enabled    bool `yaml:"enabled" json:"enabled"`
	OnComplete bool `yaml:"on_complete" json:"on_complete"`
	OnError    bool `yaml:"on_error" json:"on_error"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config with the stock delays and file locations
func DefaultConfig() *Config {
	schedule := pacing.DefaultSchedule()
	return &Config{
		Contacts: ContactsConfig{
			File:      "contacts.csv",
			Delimiter: ",",
		},
		Images: ImagesConfig{
			Folder: "images",
		},
		Pacing: PacingConfig{
			Between:      schedule.Between,
			AfterFailure: schedule.AfterFailure,
			AfterSkip:    schedule.AfterSkip,
			Settle:       schedule.Settle,
		},
		Sender: SenderConfig{
			Backend:     BackendBrowser,
			SendTimeout: 2 * time.Minute,
		},
		Browser: BrowserConfig{
			Headless:    false,
			UserDataDir: defaultUserDataDir(),
			BaseURL:     "https://web.whatsapp.com",
			WaitTime:    10 * time.Second,
			CloseTime:   10 * time.Second,
			TabClose:    false,
		},
		Cloud: CloudConfig{
			BaseURL:    "https://graph.facebook.com",
			APIVersion: "v19.0",
			Timeout:    30 * time.Second,
		},
		Output: OutputConfig{
			Color: true,
		},
		Notifications: NotificationConfig{
			Enabled:    true,
			OnComplete: true,
			OnError:    true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

func defaultUserDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".greetsend-browser"
	}
	return filepath.Join(dir, "greetsend", "browser")
}

// Schedule converts the pacing section into a pacing.Schedule
func (p PacingConfig) Schedule() pacing.Schedule {
	return pacing.Schedule{
		Between:      p.Between,
		AfterFailure: p.AfterFailure,
		AfterSkip:    p.AfterSkip,
		Settle:       p.Settle,
	}
}

// SetBase sets the between delay and derives the failure and skip delays
// from it, leaving the settle pause alone.
func (p *PacingConfig) SetBase(base time.Duration) {
	s := pacing.FromBase(base)
	p.Between = s.Between
	p.AfterFailure = s.AfterFailure
	p.AfterSkip = s.AfterSkip
}

// DelimiterRune returns the configured delimiter as a rune
func (c ContactsConfig) DelimiterRune() rune {
	return firstRune(c.Delimiter, ',')
}

// CommentRune returns the configured comment marker, or 0 for none
func (c ContactsConfig) CommentRune() rune {
	return firstRune(c.Comment, 0)
}

func firstRune(s string, fallback rune) rune {
	switch s {
	case "":
		return fallback
	case `\t`, "tab":
		return '\t'
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r
}

// LoadFromEnv overrides values from GREETSEND_* environment variables
func (c *Config) LoadFromEnv() error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}
	setDuration := func(key string, dst *time.Duration) {
		if v := os.Getenv(key); v != "" {
			d, err := parseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	setString("GREETSEND_CONTACTS_FILE", &c.Contacts.File)
	setString("GREETSEND_DELIMITER", &c.Contacts.Delimiter)
	setString("GREETSEND_TEMPLATES_FILE", &c.Templates.File)
	setString("GREETSEND_IMAGES_FOLDER", &c.Images.Folder)

	if v := os.Getenv("GREETSEND_DELAY"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("GREETSEND_DELAY: %w", err))
		} else {
			c.Pacing.SetBase(d)
		}
	}

	setString("GREETSEND_BACKEND", &c.Sender.Backend)
	setBool("GREETSEND_HEADLESS", &c.Browser.Headless)
	setString("GREETSEND_USER_DATA_DIR", &c.Browser.UserDataDir)
	setString("GREETSEND_BROWSER_BIN", &c.Browser.BinPath)
	setString("GREETSEND_CONTROL_URL", &c.Browser.ControlURL)
	setDuration("GREETSEND_WAIT_TIME", &c.Browser.WaitTime)
	setDuration("GREETSEND_CLOSE_TIME", &c.Browser.CloseTime)

	setString("GREETSEND_CLOUD_ACCOUNT", &c.Cloud.Account)
	setString("GREETSEND_CLOUD_PHONE_NUMBER_ID", &c.Cloud.PhoneNumberID)
	setString("GREETSEND_CLOUD_TOKEN", &c.Cloud.AccessToken)

	setString("GREETSEND_REPORT_FILE", &c.Output.ReportFile)
	setBool("GREETSEND_NOTIFICATIONS_ENABLED", &c.Notifications.Enabled)
	setString("GREETSEND_LOG_LEVEL", &c.Logging.Level)
	setString("GREETSEND_LOG_FILE", &c.Logging.File)

	return errors.Join(errs...)
}

// parseDuration accepts Go durations ("15s") and bare integers as seconds,
// the unit the delays have always been expressed in.
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(strings.TrimSpace(v))
}

// LoadFromFile loads configuration from a YAML file. An empty path searches
// the standard locations and is not an error when nothing is found.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = FindConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// FindConfigFile returns the first existing config file in the standard
// locations, or "" when there is none
func FindConfigFile() string {
	home := os.Getenv("HOME")
	locations := []string{
		".greetsend.yaml",
		".greetsend.yml",
		"greetsend.yaml",
		filepath.Join(home, ".config", "greetsend", "config.yaml"),
		filepath.Join(home, ".config", "greetsend", "config.yml"),
		filepath.Join(home, ".greetsend.yaml"),
		filepath.Join(home, ".greetsend.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks the configuration and reports every problem at once
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.Contacts.File) == "" {
		errs = append(errs, errors.New("contacts file is required"))
	}
	switch c.Contacts.DelimiterRune() {
	case ',', ';', '\t', '|':
	default:
		errs = append(errs, fmt.Errorf("unsupported delimiter %q", c.Contacts.Delimiter))
	}
	if strings.TrimSpace(c.Images.Folder) == "" {
		errs = append(errs, errors.New("images folder is required"))
	}

	if c.Pacing.Between < 0 || c.Pacing.AfterFailure < 0 || c.Pacing.AfterSkip < 0 || c.Pacing.Settle < 0 {
		errs = append(errs, errors.New("pacing delays cannot be negative"))
	}

	switch c.Sender.Backend {
	case BackendBrowser, BackendCloud, BackendDryRun:
	default:
		errs = append(errs, fmt.Errorf("unknown sender backend %q (want browser, cloud or dry-run)", c.Sender.Backend))
	}
	if c.Sender.SendTimeout <= 0 {
		errs = append(errs, errors.New("send timeout must be positive"))
	}

	if c.Browser.WaitTime < 0 || c.Browser.CloseTime < 0 {
		errs = append(errs, errors.New("browser wait and close times cannot be negative"))
	}
	if c.Sender.Backend == BackendBrowser && c.Browser.BaseURL == "" {
		errs = append(errs, errors.New("browser base URL is required"))
	}

	if c.Sender.Backend == BackendCloud {
		if c.Cloud.BaseURL == "" || c.Cloud.APIVersion == "" {
			errs = append(errs, errors.New("cloud base URL and API version are required"))
		}
		if c.Cloud.Timeout <= 0 {
			errs = append(errs, errors.New("cloud timeout must be positive"))
		}
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "disabled": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level %q", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Save writes the configuration as YAML, readable only by the owner since
// it may hold an access token
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Masked returns a copy with secrets shortened for display
func (c *Config) Masked() *Config {
	out := *c
	out.Cloud.AccessToken = MaskSecret(c.Cloud.AccessToken)
	return &out
}

// MaskSecret keeps the first and last four characters of long values
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 8:
		return s[:4] + "..." + s[len(s)-4:]
	default:
		return "***"
	}
}

// MergeCommandLineFlags applies explicitly set command line flags. Keys are
// the flag names; only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if v, ok := flags["contacts"].(string); ok && v != "" {
		c.Contacts.File = v
	}
	if v, ok := flags["delimiter"].(string); ok && v != "" {
		c.Contacts.Delimiter = v
	}
	if v, ok := flags["templates"].(string); ok && v != "" {
		c.Templates.File = v
	}
	if v, ok := flags["images"].(string); ok && v != "" {
		c.Images.Folder = v
	}
	if v, ok := flags["delay"].(time.Duration); ok {
		c.Pacing.SetBase(v)
	}
	if v, ok := flags["backend"].(string); ok && v != "" {
		c.Sender.Backend = v
	}
	if v, ok := flags["dry-run"].(bool); ok && v {
		c.Sender.Backend = BackendDryRun
	}
	if v, ok := flags["headless"].(bool); ok {
		c.Browser.Headless = v
	}
	if v, ok := flags["wait-time"].(time.Duration); ok {
		c.Browser.WaitTime = v
	}
	if v, ok := flags["close-time"].(time.Duration); ok {
		c.Browser.CloseTime = v
	}
	if v, ok := flags["tab-close"].(bool); ok {
		c.Browser.TabClose = v
	}
	if v, ok := flags["account"].(string); ok && v != "" {
		c.Cloud.Account = v
	}
	if v, ok := flags["report"].(string); ok && v != "" {
		c.Output.ReportFile = v
	}
	if v, ok := flags["no-color"].(bool); ok && v {
		c.Output.Color = false
	}
	if v, ok := flags["notifications-enabled"].(bool); ok {
		c.Notifications.Enabled = v
	}
	if v, ok := flags["log-level"].(string); ok && v != "" {
		c.Logging.Level = v
	}
}

// Load loads configuration from all sources with proper precedence:
// flags > environment > .env files > config file > defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".greetsend.env"))

	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}
