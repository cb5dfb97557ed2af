package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/steveyegge/ghsync/internal/github"
	"github.com/steveyegge/ghsync/internal/ui"
)

const configFile = ".ghsync.yaml"

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Interactively create a .ghsync.yaml config file",
	Long: `Create a .ghsync.yaml configuration file in the current directory.

Prompts for the repository, API token, and issues directory. The token
can be left empty here and supplied via the GHSYNC_TOKEN environment
variable instead, which keeps it out of the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("%s already exists", configFile)
		}
		if !ui.IsInteractive() {
			return fmt.Errorf("init requires a terminal: create %s by hand or use flags", configFile)
		}

		repo := viper.GetString("repo")
		token := ""
		issuesDir := viper.GetString("issues_dir")

		form := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Repository").
					Description("GitHub repository in owner/repo form").
					Placeholder("octocat/hello-world").
					Value(&repo).
					Validate(func(s string) error {
						_, _, err := github.SplitRepo(s)
						return err
					}),
				huh.NewInput().
					Title("API token").
					Description("Leave empty to use GHSYNC_TOKEN instead").
					EchoMode(huh.EchoModePassword).
					Value(&token),
				huh.NewInput().
					Title("Issues directory").
					Description("Where issue Markdown files live").
					Value(&issuesDir),
			),
		)

		if err := form.Run(); err != nil {
			return fmt.Errorf("init cancelled: %w", err)
		}

		v := viper.New()
		v.Set("repo", repo)
		v.Set("issues_dir", issuesDir)
		if token != "" {
			v.Set("token", token)
		}
		if err := v.WriteConfigAs(configFile); err != nil {
			return fmt.Errorf("failed to write %s: %w", configFile, err)
		}

		if err := os.MkdirAll(issuesDir, 0755); err != nil {
			return fmt.Errorf("failed to create issues directory: %w", err)
		}

		styles := ui.DefaultStyles()
		fmt.Printf("%s Wrote %s\n", styles.Success.Render("✓"), configFile)
		if token != "" {
			fmt.Printf("%s The token is stored in plain text; keep %s out of version control\n",
				styles.Warning.Render("⚠"), configFile)
		}
		fmt.Printf("Run 'ghsync sync' to perform the first sync\n")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
