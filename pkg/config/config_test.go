package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "contacts.csv", cfg.Contacts.File)
	assert.Equal(t, ',', cfg.Contacts.DelimiterRune())
	assert.Equal(t, "images", cfg.Images.Folder)
	assert.Empty(t, cfg.Templates.File)

	assert.Equal(t, 15*time.Second, cfg.Pacing.Between)
	assert.Equal(t, 7*time.Second, cfg.Pacing.AfterFailure)
	assert.Equal(t, 3*time.Second, cfg.Pacing.AfterSkip)
	assert.Equal(t, 5*time.Second, cfg.Pacing.Settle)

	assert.Equal(t, BackendBrowser, cfg.Sender.Backend)
	assert.Equal(t, 10*time.Second, cfg.Browser.WaitTime)
	assert.Equal(t, 10*time.Second, cfg.Browser.CloseTime)
	assert.False(t, cfg.Browser.TabClose)
	assert.Equal(t, "https://web.whatsapp.com", cfg.Browser.BaseURL)

	assert.True(t, cfg.Notifications.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("GREETSEND_CONTACTS_FILE", "/tmp/people.csv")
	t.Setenv("GREETSEND_IMAGES_FOLDER", "/tmp/pics")
	t.Setenv("GREETSEND_DELAY", "20")
	t.Setenv("GREETSEND_BACKEND", "cloud")
	t.Setenv("GREETSEND_HEADLESS", "true")
	t.Setenv("GREETSEND_WAIT_TIME", "12s")
	t.Setenv("GREETSEND_CLOUD_TOKEN", "token-from-env")
	t.Setenv("GREETSEND_NOTIFICATIONS_ENABLED", "false")
	t.Setenv("GREETSEND_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/tmp/people.csv", cfg.Contacts.File)
	assert.Equal(t, "/tmp/pics", cfg.Images.Folder)
	assert.Equal(t, 20*time.Second, cfg.Pacing.Between)
	assert.Equal(t, 10*time.Second, cfg.Pacing.AfterFailure)
	assert.Equal(t, 5*time.Second, cfg.Pacing.AfterSkip)
	assert.Equal(t, BackendCloud, cfg.Sender.Backend)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 12*time.Second, cfg.Browser.WaitTime)
	assert.Equal(t, "token-from-env", cfg.Cloud.AccessToken)
	assert.False(t, cfg.Notifications.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("GREETSEND_HEADLESS", "sometimes")
	t.Setenv("GREETSEND_CLOSE_TIME", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GREETSEND_HEADLESS")
	assert.Contains(t, err.Error(), "GREETSEND_CLOSE_TIME")
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "greetsend.yaml")
	content := `
contacts:
  file: guests.csv
  delimiter: ";"
images:
  folder: cards
pacing:
  between: 30s
  after_failure: 10s
  after_skip: 2s
  settle: 1s
sender:
  backend: dry-run
  send_timeout: 1m
browser:
  headless: true
  tab_close: true
logging:
  level: warn
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "guests.csv", cfg.Contacts.File)
	assert.Equal(t, ';', cfg.Contacts.DelimiterRune())
	assert.Equal(t, "cards", cfg.Images.Folder)
	assert.Equal(t, 30*time.Second, cfg.Pacing.Between)
	assert.Equal(t, 10*time.Second, cfg.Pacing.AfterFailure)
	assert.Equal(t, 2*time.Second, cfg.Pacing.AfterSkip)
	assert.Equal(t, time.Second, cfg.Pacing.Settle)
	assert.Equal(t, BackendDryRun, cfg.Sender.Backend)
	assert.Equal(t, time.Minute, cfg.Sender.SendTimeout)
	assert.True(t, cfg.Browser.Headless)
	assert.True(t, cfg.Browser.TabClose)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// untouched sections keep their defaults
	assert.Equal(t, 10*time.Second, cfg.Browser.WaitTime)
}

func TestLoadFromFileErrors(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")))

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("contacts: [unclosed"), 0644))
	assert.Error(t, cfg.LoadFromFile(bad))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"missing contacts file", func(c *Config) { c.Contacts.File = " " }, "contacts file is required"},
		{"bad delimiter", func(c *Config) { c.Contacts.Delimiter = "#" }, "unsupported delimiter"},
		{"tab delimiter", func(c *Config) { c.Contacts.Delimiter = `\t` }, ""},
		{"missing images folder", func(c *Config) { c.Images.Folder = "" }, "images folder is required"},
		{"negative delay", func(c *Config) { c.Pacing.AfterSkip = -time.Second }, "cannot be negative"},
		{"unknown backend", func(c *Config) { c.Sender.Backend = "sms" }, "unknown sender backend"},
		{"zero send timeout", func(c *Config) { c.Sender.SendTimeout = 0 }, "send timeout must be positive"},
		{"cloud without version", func(c *Config) {
			c.Sender.Backend = BackendCloud
			c.Cloud.APIVersion = ""
		}, "API version"},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, "invalid log format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Contacts.File = ""
	cfg.Images.Folder = ""
	cfg.Logging.Level = "nope"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "contacts file is required")
	assert.Contains(t, err.Error(), "images folder is required")
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"contacts":   "flag.csv",
		"images":     "flag-images",
		"templates":  "captions.yaml",
		"delimiter":  ";",
		"delay":      8 * time.Second,
		"headless":   true,
		"wait-time":  3 * time.Second,
		"close-time": 4 * time.Second,
		"tab-close":  true,
		"report":     "report.json",
		"log-level":  "error",
		"no-color":   true,
	})

	assert.Equal(t, "flag.csv", cfg.Contacts.File)
	assert.Equal(t, "flag-images", cfg.Images.Folder)
	assert.Equal(t, "captions.yaml", cfg.Templates.File)
	assert.Equal(t, ';', cfg.Contacts.DelimiterRune())
	assert.Equal(t, 8*time.Second, cfg.Pacing.Between)
	assert.Equal(t, 4*time.Second, cfg.Pacing.AfterFailure)
	assert.Equal(t, 2*time.Second, cfg.Pacing.AfterSkip)
	assert.Equal(t, 5*time.Second, cfg.Pacing.Settle)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 3*time.Second, cfg.Browser.WaitTime)
	assert.Equal(t, 4*time.Second, cfg.Browser.CloseTime)
	assert.True(t, cfg.Browser.TabClose)
	assert.Equal(t, "report.json", cfg.Output.ReportFile)
	assert.Equal(t, "error", cfg.Logging.Level)
	assert.False(t, cfg.Output.Color)
}

func TestMergeDryRunWinsOverBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"backend": "cloud",
		"dry-run": true,
	})
	assert.Equal(t, BackendDryRun, cfg.Sender.Backend)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Contacts.File = "saved.csv"
	cfg.Pacing.Between = 42 * time.Second
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "saved.csv", loaded.Contacts.File)
	assert.Equal(t, 42*time.Second, loaded.Pacing.Between)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("contacts:\n  file: from-file.csv\nimages:\n  folder: from-file\n"), 0644))
	t.Setenv("GREETSEND_IMAGES_FOLDER", "from-env")

	cfg, err := Load(path, map[string]interface{}{"contacts": "from-flag.csv"})
	require.NoError(t, err)
	assert.Equal(t, "from-flag.csv", cfg.Contacts.File)
	assert.Equal(t, "from-env", cfg.Images.Folder)
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "***", MaskSecret("short"))
	assert.Equal(t, "EAAB...wxyz", MaskSecret("EAABsecretvaluewxyz"))

	cfg := DefaultConfig()
	cfg.Cloud.AccessToken = "EAABsecretvaluewxyz"
	assert.Equal(t, "EAAB...wxyz", cfg.Masked().Cloud.AccessToken)
	assert.Equal(t, "EAABsecretvaluewxyz", cfg.Cloud.AccessToken)
}
