package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"greetsend/pkg/config"
	"greetsend/pkg/logger"
	"greetsend/pkg/ui"
)

var (
	// Version information
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
	quiet         bool
	verbose       bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "greetsend",
	Short: "Send personalized Eid greeting images over WhatsApp",
	Long: `greetsend reads a contact list and sends every contact their own image
with a randomly chosen, personalized caption.

Messages go through WhatsApp Web in an automated browser by default, or
through the WhatsApp Cloud API with --backend cloud. Use --dry-run to see
what would be sent without sending anything.

Running greetsend without a command is the same as 'greetsend send'.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if quiet {
			ui.SetQuietMode(true)
		}
		if noColor {
			ui.SetColorEnabled(false)
		}

		if cmd.Name() != "version" && cmd.Name() != "help" && cmd.Name() != "completion" {
			ui.PrintLogo()
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.greetsend.yaml or ~/.config/greetsend/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", true, "enable desktop notifications")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress the logo, banner and informational output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	rootCmd.SetVersionTemplate(`greetsend {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags the user actually set
func globalFlags(cmd *cobra.Command, flags map[string]interface{}) map[string]interface{} {
	if flags == nil {
		flags = make(map[string]interface{})
	}
	switch {
	case logLevel != "":
		flags["log-level"] = logLevel
	case verbose:
		flags["log-level"] = "debug"
	}
	if noColor {
		flags["no-color"] = true
	}
	if f := cmd.Flags().Lookup("notifications"); f != nil && f.Changed {
		flags["notifications-enabled"] = notifications
	}
	return flags
}

// loadConfig merges all configuration sources for cmd and applies the
// output settings
func loadConfig(cmd *cobra.Command, flags map[string]interface{}) (*config.Config, error) {
	cfg, err := config.Load(configFile, globalFlags(cmd, flags))
	if err != nil {
		return nil, err
	}
	if !cfg.Output.Color {
		ui.SetColorEnabled(false)
	}
	return cfg, nil
}

// setupLogging initializes the global logger from cfg
func setupLogging(cfg *config.Config) (logger.Logger, error) {
	logger.Version = version
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.GetLogger(), nil
}
