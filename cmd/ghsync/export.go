package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/steveyegge/ghsync/internal/snapshot"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export sync state as JSONL",
	Long: `Write the tracked sync state to stdout as JSON Lines, one entry
per issue. Useful for backups and for inspecting what the engine
believes the last agreed state of each issue is.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := snapshot.OpenDB(viper.GetString("state"))
		if err != nil {
			return fmt.Errorf("failed to open state database: %w", err)
		}
		defer store.Close()

		n, err := snapshot.ExportJSONL(os.Stdout, store)
		if err != nil {
			return fmt.Errorf("export failed: %w", err)
		}

		fmt.Fprintf(os.Stderr, "Exported %d entries\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
}
