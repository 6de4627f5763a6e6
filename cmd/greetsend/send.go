package main

import (
	"bufio"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"greetsend/pkg/auth"
	"greetsend/pkg/campaign"
	"greetsend/pkg/config"
	"greetsend/pkg/contacts"
	"greetsend/pkg/logger"
	"greetsend/pkg/media"
	"greetsend/pkg/report"
	"greetsend/pkg/sender"
	"greetsend/pkg/templates"
	"greetsend/pkg/ui"
	"greetsend/pkg/ui/tui"
)

var (
	// Send command flags
	contactsFile  string
	imagesFolder  string
	templatesFile string
	delimiter     string
	delay         time.Duration
	backendName   string
	headless      bool
	waitTime      time.Duration
	closeTime     time.Duration
	tabClose      bool
	reportFile    string
	accountName   string
	assumeYes     bool
	useTUI        bool
	dryRun        bool
)

// errInterrupted is returned when a run is stopped before every contact was
// attempted
var errInterrupted = stderrors.New("run interrupted")

// newSender builds the configured backend
var newSender = sender.New

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send the greeting to every contact",
	Long: `Send one image message per contact, in file order.

Each contact row names an image in the images folder. The caption is a
randomly chosen template with the contact's name filled in. Rows that fail
validation and contacts whose image is missing are counted as failures;
they never stop the run.

The delay between messages is fixed. After a failure half the delay is
waited, after a missing image a quarter of it.`,
	Example: `  # Send with the defaults (contacts.csv, images/, WhatsApp Web)
  greetsend send

  # See what would be sent
  greetsend send --dry-run --yes

  # Use the Cloud API with a stored account and a 30s delay
  greetsend send --backend cloud --account eid --delay 30s

  # Interactive terminal UI, report written to the data directory
  greetsend send --tui --report auto`,
	Args: cobra.NoArgs,
	RunE: runSend,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	addSendFlags(sendCmd)

	// greetsend without a command sends
	addSendFlags(rootCmd)
	rootCmd.Args = cobra.ArbitraryArgs
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 && !isKnownCommand(args[0]) {
			return fmt.Errorf("unknown command %q for %q", args[0], cmd.CommandPath())
		}
		return runSend(cmd, nil)
	}
}

func addSendFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&contactsFile, "contacts", "", "contacts CSV file (default contacts.csv)")
	f.StringVar(&imagesFolder, "images", "", "folder holding the contact images (default images)")
	f.StringVar(&templatesFile, "templates", "", "caption templates YAML file (default: built-in greetings)")
	f.StringVar(&delimiter, "delimiter", "", "contacts field delimiter: , ; | or tab")
	f.DurationVar(&delay, "delay", 0, "delay between messages; failure and skip delays are derived from it (default 15s)")
	f.StringVar(&backendName, "backend", "", "delivery backend: browser, cloud or dry-run")
	f.BoolVar(&headless, "headless", false, "run the browser without a window")
	f.DurationVar(&waitTime, "wait-time", 0, "time allowed for WhatsApp Web to load a chat (default 10s)")
	f.DurationVar(&closeTime, "close-time", 0, "time to keep the chat open after sending (default 10s)")
	f.BoolVar(&tabClose, "tab-close", false, "close the chat tab after each message")
	f.StringVar(&reportFile, "report", "", "write a JSON run report to this file ('auto' for the data directory)")
	f.StringVarP(&accountName, "account", "a", "", "stored Cloud API account to use")
	f.BoolVarP(&assumeYes, "yes", "y", false, "start without waiting for Enter")
	f.BoolVar(&useTUI, "tui", false, "use the interactive terminal UI")
	f.BoolVar(&dryRun, "dry-run", false, "print what would be sent instead of sending")
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}

// sendFlags maps the send flags the user set to config keys
func sendFlags(cmd *cobra.Command) map[string]interface{} {
	flags := make(map[string]interface{})
	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}

	if changed("contacts") {
		flags["contacts"] = contactsFile
	}
	if changed("images") {
		flags["images"] = imagesFolder
	}
	if changed("templates") {
		flags["templates"] = templatesFile
	}
	if changed("delimiter") {
		flags["delimiter"] = delimiter
	}
	if changed("delay") {
		flags["delay"] = delay
	}
	if changed("backend") {
		flags["backend"] = backendName
	}
	if changed("headless") {
		flags["headless"] = headless
	}
	if changed("wait-time") {
		flags["wait-time"] = waitTime
	}
	if changed("close-time") {
		flags["close-time"] = closeTime
	}
	if changed("tab-close") {
		flags["tab-close"] = tabClose
	}
	if changed("report") {
		flags["report"] = reportFile
	}
	if changed("account") {
		flags["account"] = accountName
	}
	if dryRun {
		flags["dry-run"] = true
	}
	return flags
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sendFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Log lines would tear the alternate screen apart
	if useTUI && cfg.Logging.File == "" && logLevel == "" && !verbose {
		cfg.Logging.Level = "error"
	}
	log, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	log = log.WithField("component", "cli")
	log.WithField("backend", cfg.Sender.Backend).Info("greetsend starting")

	notifier := ui.NewNotifier(cfg.Notifications)
	fail := func(err error) error {
		notifier.RunFailed(err)
		return err
	}

	ui.PrintBanner(ui.BannerInfo{
		ContactsFile: cfg.Contacts.File,
		ImagesFolder: cfg.Images.Folder,
		Backend:      cfg.Sender.Backend,
		Browser:      cfg.Sender.Backend == config.BackendBrowser,
		Delay:        cfg.Pacing.Between,
		WaitTime:     cfg.Browser.WaitTime,
	})

	result, err := contacts.Load(cfg.Contacts.File, contacts.Options{
		Delimiter: cfg.Contacts.DelimiterRune(),
		Comment:   cfg.Contacts.CommentRune(),
	})
	if err != nil {
		return fail(err)
	}
	for _, rej := range result.Rejected {
		logger.LogRejected(log, rej.Line, rej.Reasons)
		ui.PrintWarning(fmt.Sprintf("Skipping row %d", rej.Line), strings.Join(rej.Reasons, "; "))
	}
	if len(result.Records) == 0 {
		fmt.Println("No valid contacts found. Exiting.")
		return nil
	}

	set, err := templates.LoadOrDefault(cfg.Templates.File)
	if err != nil {
		return fail(err)
	}
	library, err := media.Open(cfg.Images.Folder)
	if err != nil {
		return fail(err)
	}

	if cfg.Sender.Backend == config.BackendCloud {
		if err := resolveCloudCredentials(&cfg.Cloud); err != nil {
			log.WithError(err).Warn("No stored Cloud API credentials")
		}
	}

	s, err := newSender(cfg, sender.Deps{Logger: logger.GetLogger()})
	if err != nil {
		if cfg.Sender.Backend == config.BackendCloud {
			auth.ShowQuickTokenGuide(os.Stdout)
		}
		return fail(fmt.Errorf("failed to initialize %s sender: %w", cfg.Sender.Backend, err))
	}
	defer func() {
		if err := s.Close(); err != nil {
			log.WithError(err).Warn("Failed to close sender")
		}
	}()

	var rep *report.Report
	if cfg.Output.ReportFile != "" {
		rep = report.New(cfg.Sender.Backend, cfg.Contacts.File)
	}

	runner := &campaign.Runner{
		Sender:      s,
		Library:     library,
		Picker:      templates.NewPicker(set, nil),
		Schedule:    cfg.Pacing.Schedule(),
		Report:      rep,
		Logger:      logger.GetLogger(),
		SendTimeout: cfg.Sender.SendTimeout,
	}
	if err := runner.Preflight(result.Records); err != nil {
		return fail(err)
	}

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if !assumeYes {
		if cfg.Sender.Backend == config.BackendBrowser {
			fmt.Println("Please log in to WhatsApp Web in the browser window if asked (scan the QR code).")
		}
		if err := waitForEnter(ctx, os.Stdin); err != nil {
			return errInterrupted
		}
	}

	var stats campaign.Stats
	if useTUI {
		stats, err = runWithTUI(ctx, cancel, runner, result)
		if err != nil {
			log.WithError(err).Error("TUI failed")
		}
		// The TUI is gone; leave the summary on the normal screen
		ui.NewStatusLine(os.Stdout).RunFinished(stats.Summary(), stats.Duration)
	} else {
		runner.Reporter = ui.NewStatusLine(os.Stdout)
		stats = runner.Run(ctx, result.Records, result.Rejected)
	}

	if rep != nil {
		rep.Finish(stats.Summary())
		path, err := rep.Save(cfg.Output.ReportFile)
		if err != nil {
			log.WithError(err).Error("Failed to save report")
			ui.PrintWarning("Failed to save report", err)
		} else {
			ui.PrintInfo("Report", path)
		}
	}

	notifier.RunFinished(stats.Summary())

	if stats.NotAttempted > 0 {
		ui.PrintWarning(fmt.Sprintf("Run interrupted; %d contacts were not attempted", stats.NotAttempted))
		return errInterrupted
	}
	return nil
}

// runWithTUI runs the campaign next to the bubbletea UI. Quitting the UI
// cancels the run.
func runWithTUI(ctx context.Context, cancel context.CancelFunc, runner *campaign.Runner, result *contacts.Result) (campaign.Stats, error) {
	terminal := tui.New(cancel)
	runner.Reporter = terminal

	runDone := make(chan campaign.Stats, 1)
	go func() {
		runDone <- runner.Run(ctx, result.Records, result.Rejected)
	}()

	tuiDone := make(chan error, 1)
	go func() {
		tuiDone <- terminal.Start()
	}()

	select {
	case stats := <-runDone:
		// Leave the final screen up briefly before tearing it down
		select {
		case <-time.After(2 * time.Second):
		case <-ctx.Done():
		}
		terminal.Stop()
		return stats, <-tuiDone
	case err := <-tuiDone:
		cancel()
		return <-runDone, err
	}
}

// resolveCloudCredentials fills missing Cloud API credentials from the
// credential stores
func resolveCloudCredentials(cfg *config.CloudConfig) error {
	if cfg.AccessToken != "" && cfg.PhoneNumberID != "" {
		return nil
	}
	manager, err := auth.NewManager()
	if err != nil {
		return err
	}
	return manager.Resolve(cfg)
}

// waitForEnter blocks until a line is read from r or ctx is done. EOF
// counts as Enter so piped input does not hang the run.
func waitForEnter(ctx context.Context, r io.Reader) error {
	fmt.Print("Press Enter to start sending messages...")

	read := make(chan struct{}, 1)
	go func() {
		_, _ = bufio.NewReader(r).ReadString('\n')
		read <- struct{}{}
	}()

	select {
	case <-read:
		return nil
	case <-ctx.Done():
		fmt.Println()
		return ctx.Err()
	}
}
