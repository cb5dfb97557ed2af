package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/steveyegge/ghsync/internal/daemon"
	"github.com/steveyegge/ghsync/internal/github"
	"github.com/steveyegge/ghsync/internal/snapshot"
	"github.com/steveyegge/ghsync/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one reconciliation pass and exit",
	Long: `Fetch all issues from the remote repository, scan the local issues
directory, and reconcile both sides once:

  1. Remote changes overwrite local files
  2. Local edits are pushed to the remote
  3. Drafts (number: 0) are created remotely and renamed
  4. Conflicts resolve in favor of the remote (local content is logged)

Use --since to restrict the remote fetch to recently updated issues.
It accepts RFC 3339 timestamps and natural language ("yesterday",
"3 days ago").`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, token, err := requireRepo()
		if err != nil {
			return err
		}

		var since time.Time
		if raw, _ := cmd.Flags().GetString("since"); raw != "" {
			since, err = parseSince(raw)
			if err != nil {
				return err
			}
		}

		store, err := snapshot.OpenDB(viper.GetString("state"))
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		defer store.Close()

		client, err := github.NewClient(repo, token)
		if err != nil {
			return err
		}

		issuesDir := viper.GetString("issues_dir")
		styles := ui.DefaultStyles()

		var last daemon.PassStats
		cfg := &daemon.Config{
			Since:          since,
			Logger:         log.New(os.Stderr, "[sync] ", log.LstdFlags),
			OnPassComplete: func(s daemon.PassStats) { last = s },
		}

		d, err := daemon.New(client, store, issuesDir, cfg)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		fmt.Printf("%s Syncing %s with %s...\n", styles.Header.Render("⇅"), repo, issuesDir)
		if err := d.RunOnce(ctx); err != nil {
			return err
		}

		fmt.Printf("%s Sync complete in %v\n", styles.Success.Render("✓"), last.Duration.Round(time.Millisecond))
		fmt.Printf("   Changes: %d\n", last.Changes)
		if last.Errors > 0 {
			fmt.Printf("   %s %d change(s) failed and will be retried\n", styles.Warning.Render("⚠"), last.Errors)
		}
		fmt.Printf("   Tracked: %d issue(s)\n", last.Tracked)
		return nil
	},
}

// parseSince accepts an RFC 3339 timestamp or an English phrase.
func parseSince(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	r, err := w.Parse(raw, time.Now())
	if err != nil || r == nil {
		return time.Time{}, fmt.Errorf("could not parse --since value %q", raw)
	}
	return r.Time, nil
}

func init() {
	syncCmd.Flags().String("since", "", "Only pull issues updated since this time")
	rootCmd.AddCommand(syncCmd)
}
