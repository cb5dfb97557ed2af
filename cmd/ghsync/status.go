package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/steveyegge/ghsync/internal/snapshot"
	"github.com/steveyegge/ghsync/internal/ui"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync state",
	Long: `Display the current sync state.

Shows:
  - State database location and size
  - Number of tracked issues, broken down by state
  - Time of the most recent reconciliation`,
	RunE: func(cmd *cobra.Command, args []string) error {
		statePath := viper.GetString("state")
		styles := ui.DefaultStyles()

		info, err := os.Stat(statePath)
		if os.IsNotExist(err) {
			fmt.Printf("\n%s No sync state yet\n", styles.Warning.Render("⚠"))
			fmt.Printf("   Run 'ghsync sync' to perform the first sync\n\n")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to check state database: %w", err)
		}

		store, err := snapshot.OpenDB(statePath)
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		defer store.Close()

		entries, err := store.All()
		if err != nil {
			return fmt.Errorf("failed to read sync state: %w", err)
		}

		byState := make(map[string]int)
		var lastSynced time.Time
		for _, e := range entries {
			byState[string(e.Record.State)]++
			if e.SyncedAt.After(lastSynced) {
				lastSynced = e.SyncedAt
			}
		}

		size := info.Size()
		sizeStr := fmt.Sprintf("%d bytes", size)
		if size > 1024*1024 {
			sizeStr = fmt.Sprintf("%.1f MB", float64(size)/(1024*1024))
		} else if size > 1024 {
			sizeStr = fmt.Sprintf("%.1f KB", float64(size)/1024)
		}

		fmt.Printf("\n%s Sync Status\n\n", styles.Header.Render("⇅"))
		fmt.Printf("%s %s\n", styles.Label.Render("State:"), statePath)
		fmt.Printf("%s %s\n", styles.Label.Render("Size:"), sizeStr)
		fmt.Printf("%s %d\n", styles.Label.Render("Tracked:"), len(entries))
		for _, state := range []string{"open", "closed"} {
			if n := byState[state]; n > 0 {
				fmt.Printf("%s %s %d\n",
					styles.Label.Render(""),
					styles.StateStyle(state).Render(ui.StateIcon(state)+" "+state+":"), n)
			}
		}
		if !lastSynced.IsZero() {
			fmt.Printf("%s %s\n", styles.Label.Render("Last sync:"), lastSynced.Format("2006-01-02 15:04:05"))
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
