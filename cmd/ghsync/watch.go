package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/steveyegge/ghsync/internal/daemon"
	"github.com/steveyegge/ghsync/internal/dashboard"
	"github.com/steveyegge/ghsync/internal/github"
	"github.com/steveyegge/ghsync/internal/snapshot"
	"github.com/steveyegge/ghsync/internal/ui"
	"gopkg.in/natefinch/lumberjack.v2"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the sync daemon in the foreground",
	Long: `Run continuous two-way sync until interrupted.

The daemon polls the remote repository on a fixed interval and watches
the issues directory for edits. Rapid edits to the same file are
debounced so only the settled content is pushed.

With --dashboard-port, a WebSocket server broadcasts issue updates,
conflict resolutions, and pass statistics to connected clients.

With --log-file, daemon logs are written to a rotating log file instead
of stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, token, err := requireRepo()
		if err != nil {
			return err
		}

		interval, _ := cmd.Flags().GetDuration("interval")
		debounce, _ := cmd.Flags().GetDuration("debounce")
		dashboardPort, _ := cmd.Flags().GetInt("dashboard-port")
		logFile, _ := cmd.Flags().GetString("log-file")

		var logOut io.Writer = os.Stderr
		if logFile != "" {
			logOut = &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
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
		cfg := &daemon.Config{
			PollInterval:     interval,
			DebounceInterval: debounce,
			Logger:           log.New(logOut, "[daemon] ", log.LstdFlags),
		}

		d, err := daemon.New(client, store, issuesDir, cfg)
		if err != nil {
			return err
		}

		styles := ui.DefaultStyles()

		if dashboardPort > 0 {
			server := dashboard.NewServer(&dashboard.Config{
				Port:   dashboardPort,
				Logger: log.New(logOut, "[dashboard] ", log.LstdFlags),
			})
			if err := server.Start(); err != nil {
				return fmt.Errorf("failed to start dashboard: %w", err)
			}
			defer func() {
				if err := server.Stop(); err != nil {
					fmt.Fprintf(os.Stderr, "Error stopping dashboard: %v\n", err)
				}
			}()

			handler := dashboard.NewHandler(server, log.New(logOut, "[dashboard] ", log.LstdFlags))
			d.Reconciler().SetObserver(handler)
			cfg.OnPassComplete = func(s daemon.PassStats) {
				handler.OnPassComplete(s.Changes, s.Errors, s.Tracked, s.Duration)
			}

			fmt.Printf("Dashboard: ws://localhost:%d/ws\n", dashboardPort)
		}

		fmt.Printf("%s Watching %s <-> %s (poll every %v)\n",
			styles.Header.Render("⇅"), repo, issuesDir, interval)
		fmt.Println("Press Ctrl+C to stop")

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := d.Start(ctx); err != nil {
			return err
		}

		fmt.Printf("%s Daemon stopped\n", styles.Success.Render("✓"))
		return nil
	},
}

func init() {
	watchCmd.Flags().Duration("interval", 5*time.Minute, "Remote poll interval")
	watchCmd.Flags().Duration("debounce", 300*time.Millisecond, "Quiet window for local file edits")
	watchCmd.Flags().Int("dashboard-port", 0, "Serve the WebSocket dashboard on this port (0 = off)")
	watchCmd.Flags().String("log-file", "", "Write daemon logs to this rotating file instead of stderr")
	rootCmd.AddCommand(watchCmd)
}
