package engine

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/steveyegge/ghsync/internal/issue"
	"github.com/steveyegge/ghsync/internal/snapshot"
)

// Observer receives notifications about applied changes. Used by the
// dashboard bridge; all methods are optional to care about.
type Observer interface {
	// OnReconciled fires after a change was successfully applied.
	OnReconciled(ch Change)
	// OnConflict fires when both sides changed and the local delta was
	// discarded in favor of the remote record.
	OnConflict(number int, discarded issue.Record)
}

// Reconciler executes classified changes against the remote client and
// the local issues directory, updating the snapshot store only after
// both sides of an action committed.
type Reconciler struct {
	remote   RemoteClient
	store    snapshot.Store
	dir      string
	logger   *log.Logger
	observer Observer
}

// NewReconciler creates a reconciler writing local files under dir.
// If logger is nil, a default stderr logger is used.
func NewReconciler(remote RemoteClient, store snapshot.Store, dir string, logger *log.Logger) *Reconciler {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &Reconciler{
		remote: remote,
		store:  store,
		dir:    dir,
		logger: logger,
	}
}

// SetObserver attaches an optional change observer.
func (r *Reconciler) SetObserver(o Observer) {
	r.observer = o
}

// Reconcile applies one classified change.
//
// Policy:
//
//	Unchanged     refresh snapshot bookkeeping only
//	RemoteUpdated overwrite local file, update snapshot
//	LocalUpdated  push fields to remote, update snapshot
//	LocalCreated  create remotely, write canonical file, seed snapshot
//	BothUpdated   remote wins: discard local delta (logged), overwrite
func (r *Reconciler) Reconcile(ctx context.Context, ch Change) error {
	switch ch.Kind {
	case Unchanged:
		return r.refreshSnapshot(ch)
	case RemoteUpdated:
		return r.applyRemote(ch, *ch.Remote)
	case LocalUpdated:
		return r.pushLocal(ctx, ch)
	case LocalCreated:
		return r.createRemote(ctx, ch)
	case BothUpdated:
		return r.resolveConflict(ch)
	default:
		return fmt.Errorf("unknown change kind %d for issue #%d", ch.Kind, ch.Number)
	}
}

// refreshSnapshot absorbs echoes of our own prior writes: content is
// value-equal but a timestamp or fingerprint moved, so the stored
// bookkeeping is advanced without touching either side.
func (r *Reconciler) refreshSnapshot(ch Change) error {
	entry, ok, err := r.store.Get(ch.Number)
	if err != nil {
		return fmt.Errorf("failed to load snapshot #%d: %w", ch.Number, err)
	}
	if !ok {
		return nil
	}

	dirty := false
	if ch.Remote != nil && ch.Remote.UpdatedAt.After(entry.RemoteUpdatedAt) {
		entry.RemoteUpdatedAt = ch.Remote.UpdatedAt
		dirty = true
	}
	if ch.Local != nil && ch.Local.Fingerprint != entry.Fingerprint {
		entry.Fingerprint = ch.Local.Fingerprint
		dirty = true
	}
	if !dirty {
		return nil
	}

	entry.SyncedAt = time.Now()
	if err := r.store.Put(entry); err != nil {
		return fmt.Errorf("failed to refresh snapshot #%d: %w", ch.Number, err)
	}
	return nil
}

// applyRemote overwrites the local file with the remote record and
// updates the snapshot. Shared by RemoteUpdated and conflict resolution.
func (r *Reconciler) applyRemote(ch Change, remote issue.Remote) error {
	lf, err := issue.WriteFile(r.dir, remote.Record)
	if err != nil {
		return fmt.Errorf("failed to write local file for issue #%d: %w", remote.Number, err)
	}

	entry := snapshot.Entry{
		Number:          remote.Number,
		Record:          remote.Record,
		RemoteUpdatedAt: remote.UpdatedAt,
		Fingerprint:     lf.Fingerprint,
		SyncedAt:        time.Now(),
	}
	if err := r.store.Put(entry); err != nil {
		return &PartialApplyError{Number: remote.Number, Committed: SideLocal, Err: err}
	}

	r.logger.Printf("Synced issue #%d to %s", remote.Number, lf.Path)
	r.notifyReconciled(ch)
	return nil
}

// pushLocal sends a locally edited record to the remote and updates the
// snapshot with the remote's returned timestamp. A failed push leaves
// the snapshot untouched so the change is retried on the next pass.
func (r *Reconciler) pushLocal(ctx context.Context, ch Change) error {
	lf := ch.Local
	updatedAt, err := r.remote.UpdateIssue(ctx, lf.Record.Number, lf.Record)
	if err != nil {
		return fmt.Errorf("failed to push issue #%d: %w", lf.Record.Number, err)
	}

	entry := snapshot.Entry{
		Number:          lf.Record.Number,
		Record:          lf.Record,
		RemoteUpdatedAt: updatedAt,
		Fingerprint:     lf.Fingerprint,
		SyncedAt:        time.Now(),
	}
	if err := r.store.Put(entry); err != nil {
		return &PartialApplyError{Number: lf.Record.Number, Committed: SideRemote, Err: err}
	}

	r.logger.Printf("Pushed issue #%d from %s", lf.Record.Number, lf.Path)
	r.notifyReconciled(ch)
	return nil
}

// createRemote pushes a local draft as a new remote issue, moves the
// file to its canonical issue-{number}.md path, and seeds the snapshot.
func (r *Reconciler) createRemote(ctx context.Context, ch Change) error {
	draft := ch.Local
	created, err := r.remote.CreateIssue(ctx, draft.Record)
	if err != nil {
		return fmt.Errorf("failed to create issue from %s: %w", draft.Path, err)
	}

	lf, err := issue.WriteFile(r.dir, created.Record)
	if err != nil {
		// The remote issue now exists but the canonical file doesn't.
		return &PartialApplyError{Number: created.Number, Committed: SideRemote, Err: err}
	}

	// Drop the draft file once the canonical one is in place.
	if filepath.Clean(draft.Path) != filepath.Clean(lf.Path) {
		if err := os.Remove(draft.Path); err != nil && !os.IsNotExist(err) {
			r.logger.Printf("Warning: failed to remove draft %s: %v", draft.Path, err)
		}
	}

	entry := snapshot.Entry{
		Number:          created.Number,
		Record:          created.Record,
		RemoteUpdatedAt: created.UpdatedAt,
		Fingerprint:     lf.Fingerprint,
		SyncedAt:        time.Now(),
	}
	if err := r.store.Put(entry); err != nil {
		return &PartialApplyError{Number: created.Number, Committed: SideRemote, Err: err}
	}

	r.logger.Printf("Created issue #%d from draft %s", created.Number, draft.Path)
	ch.Number = created.Number
	r.notifyReconciled(ch)
	return nil
}

// resolveConflict applies the documented tie-break: remote wins. The
// discarded local content is logged so an operator can recover it.
func (r *Reconciler) resolveConflict(ch Change) error {
	remote := *ch.Remote

	r.logger.Printf("CONFLICT on issue #%d: both sides changed, remote wins", ch.Number)
	if data, err := issue.Encode(ch.Local.Record); err == nil {
		r.logger.Printf("Discarded local content for issue #%d:\n%s", ch.Number, data)
	} else {
		r.logger.Printf("Discarded local title for issue #%d: %q", ch.Number, ch.Local.Record.Title)
	}
	if r.observer != nil {
		r.observer.OnConflict(ch.Number, ch.Local.Record)
	}

	return r.applyRemote(ch, remote)
}

func (r *Reconciler) notifyReconciled(ch Change) {
	if r.observer != nil {
		r.observer.OnReconciled(ch)
	}
}
