package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"greetsend/pkg/config"
	"greetsend/pkg/media"
	"greetsend/pkg/templates"
	"greetsend/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage greetsend configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (GREETSEND_*)
  - .env files
  - Configuration file
  - Default values (lowest priority)`,
}

// initCmd represents the config init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as '.greetsend.yaml'
unless a different path is specified with the --config flag.`,
	RunE: runConfigInit,
}

// showCmd represents the config show command
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

The Cloud API access token is masked.`,
	RunE: runConfigShow,
}

// validateCmd represents the config validate command
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the configuration for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Value types and ranges
  - That the contacts file, images folder and templates file exist`,
	RunE: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfig = `# greetsend configuration file
#
# Every option can also be set with an environment variable prefixed
# with GREETSEND_, e.g. GREETSEND_DELAY=30 or GREETSEND_BACKEND=cloud.
# Durations accept Go syntax ("15s", "2m") or plain seconds.

contacts:
  # CSV with the columns Name, PhoneNumber, ImageFile (UTF-8)
  file: "contacts.csv"
  # Field delimiter: "," ";" "|" or "tab"
  delimiter: ","
  # Lines starting with this character are ignored (empty: none)
  comment: ""

templates:
  # YAML file with a 'templates:' list; each entry needs one {name}.
  # Leave empty for the built-in Eid greetings.
  file: ""

images:
  # Folder holding the files named in the ImageFile column
  folder: "images"

pacing:
  # Wait between messages
  between: 15s
  # Wait after a failed send
  after_failure: 7s
  # Wait after a contact whose image is missing
  after_skip: 3s
  # Pause after every successful send
  settle: 5s

sender:
  # browser (WhatsApp Web), cloud (WhatsApp Cloud API) or dry-run
  backend: "browser"
  # Upper bound for one message, including page loads
  send_timeout: 2m

browser:
  headless: false
  # Chrome profile kept between runs so the QR code is scanned once.
  # Defaults to the greetsend directory in your user config dir.
  # user_data_dir: "/path/to/profile"
  # Chrome binary; empty downloads or finds one
  bin_path: ""
  # DevTools URL of an already running Chrome to attach to
  control_url: ""
  base_url: "https://web.whatsapp.com"
  # Time allowed for a chat to open
  wait_time: 10s
  # Time the chat stays open after sending
  close_time: 10s
  # Close the chat tab after each message
  tab_close: false

cloud:
  base_url: "https://graph.facebook.com"
  api_version: "v19.0"
  # Stored account from 'greetsend auth login'; empty uses the newest
  account: ""
  # Prefer 'greetsend auth login' over putting the token here
  phone_number_id: ""
  access_token: ""
  timeout: 30s

output:
  # JSON run report; "auto" writes to the greetsend data directory
  report_file: ""
  color: true

notifications:
  enabled: true
  on_complete: true
  on_error: true

logging:
  # debug, info, warn, error or disabled
  level: "info"
  # console or json
  format: "console"
  # Log file; empty logs to stderr
  file: ""
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".greetsend.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0600); err != nil {
		return fmt.Errorf("failed to create configuration file: %w", err)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Edit the configuration file")
	fmt.Println("2. Run 'greetsend config validate' to check it")
	fmt.Println("3. Run 'greetsend check' to check your contacts and images")
	fmt.Println("4. Start sending with 'greetsend send'")
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, nil)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg.Masked())
	if err != nil {
		return fmt.Errorf("failed to format configuration: %w", err)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (GREETSEND_*)")
	fmt.Println("3. .env files")
	if path := configPathInUse(); path != "" {
		fmt.Printf("4. Configuration file: %s\n", path)
	} else {
		fmt.Println("4. Configuration file: (none found)")
	}
	fmt.Println("5. Default values")
	return nil
}

func configPathInUse() string {
	if configFile != "" {
		return configFile
	}
	return config.FindConfigFile()
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPathInUse()
	if path == "" {
		return fmt.Errorf("no configuration file found; specify one with --config or run 'greetsend config init'")
	}
	ui.PrintInfo("Validating configuration", path)

	cfg, err := config.Load(path, nil)
	if err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	var warnings []string
	if _, err := os.Stat(cfg.Contacts.File); err != nil {
		warnings = append(warnings, fmt.Sprintf("contacts file %s: %v", cfg.Contacts.File, err))
	}
	if _, err := media.Open(cfg.Images.Folder); err != nil {
		warnings = append(warnings, err.Error())
	}
	if cfg.Templates.File != "" {
		if _, err := templates.Load(cfg.Templates.File); err != nil {
			return fmt.Errorf("templates file is invalid: %w", err)
		}
	}
	if cfg.Sender.Backend == config.BackendCloud && cfg.Cloud.AccessToken != "" {
		warnings = append(warnings, "cloud access token is stored in plain text; consider 'greetsend auth login'")
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Contacts: %s\n", cfg.Contacts.File)
	fmt.Printf("  Images: %s\n", cfg.Images.Folder)
	fmt.Printf("  Templates: %s\n", templateSource(cfg.Templates.File))
	fmt.Printf("  Backend: %s\n", cfg.Sender.Backend)
	fmt.Printf("  Delays: between %s, after failure %s, after skip %s, settle %s\n",
		cfg.Pacing.Between, cfg.Pacing.AfterFailure, cfg.Pacing.AfterSkip, cfg.Pacing.Settle)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
	return nil
}
