package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"greetsend/pkg/templates"
	"greetsend/pkg/ui"
)

var previewAll bool

// templatesCmd represents the templates command
var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "Inspect the caption templates",
	Long: `Inspect the caption templates a run picks from.

Templates come from the file named by --templates or templates.file in the
configuration, or the built-in Eid greetings when neither is set. Every
template holds exactly one {name} placeholder.`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the caption templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadTemplates(cmd)
		if err != nil {
			return err
		}
		ui.PrintInfo("Source", set.Source)
		fmt.Println()
		for i, t := range set.Templates {
			fmt.Printf("%2d. %s\n", i+1, t)
		}
		return nil
	},
}

var templatesPreviewCmd = &cobra.Command{
	Use:   "preview <name>",
	Short: "Render a caption for a contact name",
	Example: `  # One random caption, as a run would pick it
  greetsend templates preview "Ahmed"

  # Every template
  greetsend templates preview "Ahmed" --all`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		set, err := loadTemplates(cmd)
		if err != nil {
			return err
		}
		if previewAll {
			for i, t := range set.Templates {
				fmt.Printf("%2d. %s\n", i+1, templates.Render(t, args[0]))
			}
			return nil
		}
		i, t := templates.NewPicker(set, nil).Pick()
		ui.PrintInfo("Template", fmt.Sprintf("%d of %d", i+1, set.Len()))
		fmt.Println(templates.Render(t, args[0]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesPreviewCmd)

	templatesCmd.PersistentFlags().StringVar(&templatesFile, "templates", "", "caption templates YAML file (default: built-in greetings)")
	templatesPreviewCmd.Flags().BoolVar(&previewAll, "all", false, "render every template")
}

func loadTemplates(cmd *cobra.Command) (*templates.Set, error) {
	cfg, err := loadConfig(cmd, sendFlags(cmd))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return templates.LoadOrDefault(cfg.Templates.File)
}
