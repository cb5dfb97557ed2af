// Package daemon provides the sync scheduler for continuous two-way sync.
//
// The daemon merges two triggers into serialized reconciliation passes:
//
//   - A poll ticker fetches the full remote issue list on a fixed
//     interval and diffs it against the snapshot store.
//   - A FileWatcher monitors the issues directory with fsnotify and
//     queues edited Markdown files for debounced local-only passes.
//
// # Passes
//
// At most one reconciliation pass runs at a time. A poll tick arriving
// while a filesystem-triggered pass is in flight blocks until that pass
// finishes and then runs; it is deferred, never dropped.
//
// A full pass (poll tick, or RunOnce in one-shot mode) fetches every
// remote issue, scans the whole directory, and reconciles all classified
// changes. A local pass reconciles only files whose edits have settled
// past the debounce window, with no remote fetch.
//
// # Debouncing
//
// Each watcher event resets a per-file clock. A file is processed only
// after it has stayed quiet for the debounce interval, so an editor
// writing a file several times in quick succession yields exactly one
// push of the final content.
//
// # Error Handling
//
// Transient remote failures (network, rate limiting) are logged and the
// affected changes retried on the next tick. An authentication failure
// is fatal and stops the daemon.
//
// # File Watching
//
// FileWatcher is a thin abstraction over fsnotify, filtered to .md
// files. Deletions are deliberately ignored: removing a local file does
// not close or delete the remote issue, and the next full pass recreates
// the file. The watcher maps fsnotify operations as follows:
//
//   - fsnotify.Create → OpCreate
//   - fsnotify.Write → OpModify
//   - fsnotify.Remove → OpRemove
//   - fsnotify.Rename → OpRemove (the new name triggers a separate Create)
//
// # Graceful Shutdown
//
// Cancelling the context passed to Start triggers shutdown: the watcher
// is closed, any in-flight pass completes, and Start returns.
package daemon
