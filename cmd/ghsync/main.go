// Command ghsync mirrors GitHub issues into a directory of Markdown
// files and pushes local edits back.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/steveyegge/ghsync/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "ghsync",
	Short: "Two-way sync between GitHub issues and local Markdown files",
	Long: `ghsync mirrors the issues of a GitHub repository into a local directory
of Markdown files (issue-{number}.md) and pushes local edits back.

Each file carries YAML frontmatter (number, title, state, labels) and the
issue body as Markdown. A file with "number: 0" is a draft: the next sync
creates the issue remotely and renames the file to its assigned number.

Configuration is read from .ghsync.yaml in the working directory, from
GHSYNC_* environment variables, and from flags (highest precedence).`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.Setup()
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("repo", "", "GitHub repository in owner/repo form")
	pf.String("token", "", "GitHub API token (or GHSYNC_TOKEN)")
	pf.String("issues-dir", "./issues", "Directory holding issue Markdown files")
	pf.String("state", ".ghsync/state.db", "Path to the sync state database")

	cobra.CheckErr(viper.BindPFlag("repo", pf.Lookup("repo")))
	cobra.CheckErr(viper.BindPFlag("token", pf.Lookup("token")))
	cobra.CheckErr(viper.BindPFlag("issues_dir", pf.Lookup("issues-dir")))
	cobra.CheckErr(viper.BindPFlag("state", pf.Lookup("state")))

	viper.SetConfigName(".ghsync")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.SetEnvPrefix("GHSYNC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	cobra.OnInitialize(func() {
		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				fmt.Fprintf(os.Stderr, "Warning: could not read config file: %v\n", err)
			}
		}
	})
}

// requireRepo validates the repo/token settings shared by the commands
// that talk to GitHub.
func requireRepo() (repo, token string, err error) {
	repo = viper.GetString("repo")
	token = viper.GetString("token")

	if repo == "" {
		return "", "", fmt.Errorf("no repository configured: pass --repo owner/repo or run 'ghsync init'")
	}
	if token == "" {
		return "", "", fmt.Errorf("no token configured: pass --token, set GHSYNC_TOKEN, or run 'ghsync init'")
	}
	return repo, token, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		styles := ui.DefaultStyles()
		fmt.Fprintf(os.Stderr, "%s %v\n", styles.Error.Render("Error:"), err)
		os.Exit(1)
	}
}
