package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"greetsend/pkg/contacts"
	"greetsend/pkg/logger"
	"greetsend/pkg/media"
	"greetsend/pkg/sender"
	"greetsend/pkg/templates"
	"greetsend/pkg/ui"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate contacts, templates and images without sending",
	Long: `Check everything a run needs without opening a browser or sending
anything:

  - every contact row is validated the same way 'send' does
  - every referenced image must exist in the images folder
  - the caption templates must load and each have one {name} placeholder

Images nobody references are listed too. The command exits with status 1
when any problem is found, so it can guard a scheduled run.`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&contactsFile, "contacts", "", "contacts CSV file (default contacts.csv)")
	checkCmd.Flags().StringVar(&imagesFolder, "images", "", "folder holding the contact images (default images)")
	checkCmd.Flags().StringVar(&templatesFile, "templates", "", "caption templates YAML file (default: built-in greetings)")
	checkCmd.Flags().StringVar(&delimiter, "delimiter", "", "contacts field delimiter: , ; | or tab")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, sendFlags(cmd))
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := setupLogging(cfg)
	if err != nil {
		return err
	}

	problems := 0

	ui.PrintInfo("Contacts", cfg.Contacts.File)
	result, err := contacts.Load(cfg.Contacts.File, contacts.Options{
		Delimiter: cfg.Contacts.DelimiterRune(),
		Comment:   cfg.Contacts.CommentRune(),
	})
	if err != nil {
		return err
	}
	fmt.Printf("  %d valid, %d rejected\n", len(result.Records), len(result.Rejected))
	for _, rej := range result.Rejected {
		logger.LogRejected(log, rej.Line, rej.Reasons)
		fmt.Printf("  - row %d: %s\n", rej.Line, strings.Join(rej.Reasons, "; "))
	}
	problems += len(result.Rejected)

	ui.PrintInfo("Templates", templateSource(cfg.Templates.File))
	set, err := templates.LoadOrDefault(cfg.Templates.File)
	if err != nil {
		ui.PrintError("  Templates are invalid", err)
		problems++
	} else {
		fmt.Printf("  %d templates\n", set.Len())
	}

	ui.PrintInfo("Images", cfg.Images.Folder)
	library, err := media.Open(cfg.Images.Folder)
	if err != nil {
		ui.PrintError("  Images folder is unusable", err)
		problems++
	} else {
		referenced := make([]string, 0, len(result.Records))
		for _, rec := range result.Records {
			referenced = append(referenced, rec.ImageFile)
		}
		audit, err := library.Audit(referenced)
		if err != nil {
			return err
		}
		for _, name := range audit.Missing {
			fmt.Printf("  - missing: %s\n", name)
		}
		for _, name := range audit.Unreferenced {
			fmt.Printf("  - unused: %s\n", name)
		}
		problems += len(audit.Missing)
	}

	ui.PrintInfo("Backend", fmt.Sprintf("%s (available: %s)", cfg.Sender.Backend, strings.Join(sender.Backends(), ", ")))

	if problems > 0 {
		return fmt.Errorf("check found %d problem(s)", problems)
	}
	ui.PrintSuccess("Everything is ready to send")
	return nil
}

func templateSource(path string) string {
	if path == "" {
		return "built-in"
	}
	return path
}
