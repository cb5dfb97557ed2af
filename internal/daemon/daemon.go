package daemon

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/steveyegge/ghsync/internal/engine"
	"github.com/steveyegge/ghsync/internal/github"
	"github.com/steveyegge/ghsync/internal/issue"
	"github.com/steveyegge/ghsync/internal/snapshot"
)

// PassStats summarizes one reconciliation pass.
type PassStats struct {
	// Changes is the number of classified changes the pass applied.
	Changes int
	// Errors is the number of changes that failed and will be retried.
	Errors int
	// Tracked is the snapshot count after the pass.
	Tracked int
	// Duration is the wall time of the pass.
	Duration time.Duration
}

// Config holds configuration for the daemon.
type Config struct {
	// PollInterval is how often the full remote issue list is fetched
	// and diffed against the snapshot store.
	PollInterval time.Duration

	// DebounceInterval is how long a file must stay quiet before its
	// change is processed. Rapid edits within the window coalesce into
	// one reconciliation reading the settled content.
	DebounceInterval time.Duration

	// Since, when set, restricts remote issues to those updated at or
	// after this instant. Zero means no filter.
	Since time.Time

	// OnPassComplete, when set, fires after every reconciliation pass.
	OnPassComplete func(PassStats)

	// Logger for daemon activity.
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:     5 * time.Minute,
		DebounceInterval: 300 * time.Millisecond,
		Logger:           log.New(os.Stderr, "[daemon] ", log.LstdFlags),
	}
}

// Daemon orchestrates the two sync triggers: the periodic remote poll
// and the local filesystem watch. Both converge on the same reconciler
// and at most one reconciliation pass executes at a time.
type Daemon struct {
	remote     engine.RemoteClient
	store      snapshot.Store
	reconciler *engine.Reconciler
	issuesDir  string
	config     *Config

	watcher       *FileWatcher
	changeQueue   map[string]time.Time // filepath -> last event time
	changeQueueMu sync.Mutex

	// passMu serializes reconciliation passes. A poll tick arriving
	// while a filesystem-triggered pass is running blocks here and
	// executes on the next available slot.
	passMu sync.Mutex

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	fatalMu  sync.Mutex
	fatalErr error
}

// New creates a daemon syncing the given repository client against issuesDir.
func New(remote engine.RemoteClient, store snapshot.Store, issuesDir string, config *Config) (*Daemon, error) {
	if remote == nil {
		return nil, fmt.Errorf("remote client cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("snapshot store cannot be nil")
	}
	if issuesDir == "" {
		return nil, fmt.Errorf("issuesDir cannot be empty")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[daemon] ", log.LstdFlags)
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 5 * time.Minute
	}
	if config.DebounceInterval <= 0 {
		config.DebounceInterval = 300 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		remote:      remote,
		store:       store,
		reconciler:  engine.NewReconciler(remote, store, issuesDir, config.Logger),
		issuesDir:   issuesDir,
		config:      config,
		changeQueue: make(map[string]time.Time),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Reconciler exposes the daemon's reconciler so callers can attach an
// observer before starting.
func (d *Daemon) Reconciler() *engine.Reconciler {
	return d.reconciler
}

// RunOnce performs exactly one full reconciliation pass and returns:
// fetch all remote issues, scan the local directory, diff both against
// the snapshot store, and reconcile every classified change.
func (d *Daemon) RunOnce(ctx context.Context) error {
	return d.fullPass(ctx)
}

// Start runs the daemon until ctx is cancelled: an initial full pass,
// then the filesystem watcher and the poll ticker. Any in-flight pass
// completes before Start returns.
func (d *Daemon) Start(ctx context.Context) error {
	d.config.Logger.Println("Starting sync daemon")

	if err := d.fullPass(ctx); err != nil {
		return fmt.Errorf("initial sync failed: %w", err)
	}

	watcher, err := NewFileWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Start(d.issuesDir); err != nil {
		return fmt.Errorf("failed to watch issues directory: %w", err)
	}
	d.watcher = watcher

	d.config.Logger.Printf("Watching: %s (poll every %v)", d.issuesDir, d.config.PollInterval)

	d.wg.Add(3)
	go d.watchFileEvents()
	go d.processChangeQueue()
	go d.pollLoop()

	select {
	case <-ctx.Done():
		d.config.Logger.Println("Shutdown signal received")
		return d.Stop()
	case <-d.ctx.Done():
		// A goroutine hit a fatal error (auth failure).
		_ = d.Stop()
		return d.fatal()
	}
}

// Stop gracefully shuts down the daemon, waiting for any in-flight
// reconciliation pass to complete.
func (d *Daemon) Stop() error {
	d.config.Logger.Println("Stopping daemon")

	d.cancel()

	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.config.Logger.Printf("Error closing watcher: %v", err)
		}
	}

	d.wg.Wait()

	d.config.Logger.Println("Daemon stopped")
	return nil
}

func (d *Daemon) setFatal(err error) {
	d.fatalMu.Lock()
	if d.fatalErr == nil {
		d.fatalErr = err
	}
	d.fatalMu.Unlock()
	d.cancel()
}

func (d *Daemon) fatal() error {
	d.fatalMu.Lock()
	defer d.fatalMu.Unlock()
	return d.fatalErr
}

// watchFileEvents queues filesystem events for debounced processing.
func (d *Daemon) watchFileEvents() {
	defer d.wg.Done()

	for {
		select {
		case <-d.ctx.Done():
			return

		case event, ok := <-d.watcher.Events():
			if !ok {
				return
			}

			// Deletion is not a sync direction: the next poll pass
			// recreates the file from the remote record.
			if event.Op == OpRemove {
				continue
			}

			d.config.Logger.Printf("File event: %s %s", event.Op, event.Path)
			d.queueChange(event.Path)

		case err, ok := <-d.watcher.Errors():
			if !ok {
				return
			}
			d.config.Logger.Printf("Watcher error: %v", err)
		}
	}
}

// queueChange records a file change, resetting its quiet-window clock.
func (d *Daemon) queueChange(path string) {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	d.changeQueue[path] = time.Now()
}

// processChangeQueue periodically drains files that have settled.
func (d *Daemon) processChangeQueue() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.DebounceInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if paths := d.drainSettled(); len(paths) > 0 {
				d.localPass(d.ctx, paths)
			}
		}
	}
}

// drainSettled removes and returns queued paths whose quiet window has
// elapsed. Paths still being written to stay queued.
func (d *Daemon) drainSettled() []string {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()

	now := time.Now()
	var settled []string
	for path, queuedAt := range d.changeQueue {
		if now.Sub(queuedAt) < d.config.DebounceInterval {
			continue
		}
		settled = append(settled, path)
		delete(d.changeQueue, path)
	}
	return settled
}

// drainAll empties the change queue. Called by the full pass, whose
// directory scan covers every pending file anyway.
func (d *Daemon) drainAll() {
	d.changeQueueMu.Lock()
	defer d.changeQueueMu.Unlock()
	d.changeQueue = make(map[string]time.Time)
}

// pollLoop triggers a full pass on every poll tick.
func (d *Daemon) pollLoop() {
	defer d.wg.Done()

	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return

		case <-ticker.C:
			if err := d.fullPass(d.ctx); err != nil {
				d.setFatal(err)
				return
			}
		}
	}
}

// fullPass fetches the complete remote issue list, scans the local
// directory, and reconciles every change in one serialized pass.
// Returns a non-nil error only for fatal conditions (auth failure);
// transient remote errors are logged and retried on the next tick.
func (d *Daemon) fullPass(ctx context.Context) error {
	d.passMu.Lock()
	defer d.passMu.Unlock()

	start := time.Now()

	remotes, err := d.remote.ListIssues(ctx)
	if err != nil {
		if github.IsAuthFailed(err) {
			return fmt.Errorf("authentication failed: %w", err)
		}
		if errors.Is(err, context.Canceled) {
			return nil
		}
		d.config.Logger.Printf("Remote fetch failed (will retry next tick): %v", err)
		return nil
	}

	if !d.config.Since.IsZero() {
		filtered := remotes[:0]
		for _, r := range remotes {
			if !r.UpdatedAt.Before(d.config.Since) {
				filtered = append(filtered, r)
			}
		}
		remotes = filtered
	}

	locals, err := issue.ScanDir(d.issuesDir, d.config.Logger)
	if err != nil {
		return fmt.Errorf("failed to scan issues directory: %w", err)
	}

	// The scan covers everything the watcher queued.
	d.drainAll()

	changes, err := engine.Plan(remotes, locals, d.store)
	if err != nil {
		return fmt.Errorf("failed to plan pass: %w", err)
	}

	stats, errs := d.applyChanges(ctx, changes)
	stats.Duration = time.Since(start)

	d.config.Logger.Printf("Pass complete: %d remote, %d local, %d changes (%d failed) in %v",
		len(remotes), len(locals), stats.Changes, stats.Errors, stats.Duration.Round(time.Millisecond))
	d.notifyPass(stats)

	return checkFatal(errs)
}

// localPass reconciles only the settled local files; no remote fetch.
// Fatal errors stop the daemon via setFatal.
func (d *Daemon) localPass(ctx context.Context, paths []string) {
	d.passMu.Lock()
	defer d.passMu.Unlock()

	start := time.Now()

	var locals []*issue.LocalFile
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // removed while queued
		}
		lf, err := issue.ReadFile(path)
		if err != nil {
			// Malformed local file: skip the change, surface the path.
			d.config.Logger.Printf("Skipping unparsable file %s: %v", path, err)
			continue
		}
		locals = append(locals, lf)
	}
	if len(locals) == 0 {
		return
	}

	changes, err := engine.Plan(nil, locals, d.store)
	if err != nil {
		d.config.Logger.Printf("Failed to plan local pass: %v", err)
		return
	}

	stats, errs := d.applyChanges(ctx, changes)
	stats.Duration = time.Since(start)

	d.config.Logger.Printf("Local pass complete: %d files, %d changes (%d failed) in %v",
		len(locals), stats.Changes, stats.Errors, stats.Duration.Round(time.Millisecond))
	d.notifyPass(stats)

	if err := checkFatal(errs); err != nil {
		d.setFatal(err)
	}
}

// applyChanges reconciles each change, logging per-issue failures.
// Failed changes are retried on the next pass; the returned errors let
// the caller spot fatal conditions.
func (d *Daemon) applyChanges(ctx context.Context, changes []engine.Change) (PassStats, []error) {
	var stats PassStats
	var errs []error

	for _, ch := range changes {
		if err := d.reconciler.Reconcile(ctx, ch); err != nil {
			d.config.Logger.Printf("Error reconciling issue #%d (%s): %v", ch.Number, ch.Kind, err)
			errs = append(errs, err)
			stats.Errors++
			continue
		}
		stats.Changes++
	}

	if n, err := d.store.Len(); err == nil {
		stats.Tracked = n
	}
	return stats, errs
}

// checkFatal inspects a pass's failures for conditions that must stop
// the run rather than wait for a retry.
func checkFatal(errs []error) error {
	for _, err := range errs {
		if github.IsAuthFailed(err) {
			return fmt.Errorf("authentication failed: %w", err)
		}
	}
	return nil
}

func (d *Daemon) notifyPass(stats PassStats) {
	if d.config.OnPassComplete != nil {
		d.config.OnPassComplete(stats)
	}
}
