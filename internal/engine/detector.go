// Package engine implements the core of the two-way sync: classifying
// what changed on each side against the snapshot store, and applying
// the reconciliation policy through the remote and local collaborators.
package engine

import (
	"context"
	"sort"
	"time"

	"github.com/steveyegge/ghsync/internal/issue"
	"github.com/steveyegge/ghsync/internal/snapshot"
)

// ChangeKind classifies one issue's pending change for a pass.
type ChangeKind int

const (
	// Unchanged means no action is needed. The reconciler may still
	// refresh snapshot bookkeeping when an echo of our own write moved
	// a timestamp or fingerprint without changing content.
	Unchanged ChangeKind = iota
	// RemoteUpdated means the remote side moved forward.
	RemoteUpdated
	// LocalUpdated means the local file content changed.
	LocalUpdated
	// LocalCreated means a local draft (number 0) awaits a remote create.
	LocalCreated
	// BothUpdated means both sides moved within one pass. The
	// reconciler resolves it deterministically: remote wins.
	BothUpdated
)

// String returns a human-readable representation of the kind.
func (k ChangeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case RemoteUpdated:
		return "remote-updated"
	case LocalUpdated:
		return "local-updated"
	case LocalCreated:
		return "local-created"
	case BothUpdated:
		return "both-updated"
	default:
		return "unknown"
	}
}

// Change is one classified pending change. Remote and Local carry the
// fresh inputs the classification was made from; either may be nil
// depending on the kind.
type Change struct {
	Kind   ChangeKind
	Number int
	Remote *issue.Remote
	Local  *issue.LocalFile
}

// RemoteClient is the remote issue tracker contract the engine consumes.
// internal/github provides the production implementation.
type RemoteClient interface {
	ListIssues(ctx context.Context) ([]issue.Remote, error)
	CreateIssue(ctx context.Context, rec issue.Record) (issue.Remote, error)
	UpdateIssue(ctx context.Context, number int, rec issue.Record) (time.Time, error)
}

// ClassifyRemote compares a freshly fetched remote issue against its
// snapshot. Forward timestamp movement is RemoteUpdated unless the
// decoded content is value-equal to what we already synchronized, which
// is the echo of our own prior push and must stay Unchanged.
func ClassifyRemote(remote issue.Remote, snap *snapshot.Entry) ChangeKind {
	if snap == nil {
		return RemoteUpdated
	}
	if !remote.UpdatedAt.After(snap.RemoteUpdatedAt) {
		return Unchanged
	}
	if remote.Record.Equal(&snap.Record) {
		return Unchanged
	}
	return RemoteUpdated
}

// ClassifyLocal compares a freshly read local file against its snapshot.
// Drafts (number 0) are LocalCreated; a fingerprint move with
// value-equal content (re-encoded but identical record) is Unchanged.
func ClassifyLocal(file *issue.LocalFile, snap *snapshot.Entry) ChangeKind {
	if file.Record.IsDraft() {
		return LocalCreated
	}
	if snap == nil {
		return LocalUpdated
	}
	if file.Fingerprint == snap.Fingerprint {
		return Unchanged
	}
	if file.Record.Equal(&snap.Record) {
		return Unchanged
	}
	return LocalUpdated
}

// Plan merges one pass's inputs into an ordered list of changes.
//
// BothUpdated is produced only here: when the same issue number has
// both a pending remote update and a pending local update within the
// pass. A tracked issue whose local file is absent from the scan is
// planned as RemoteUpdated so the file is restored. Unchanged entries
// are emitted only when snapshot bookkeeping needs a refresh (echoes),
// so an idle pass plans zero changes.
func Plan(remotes []issue.Remote, locals []*issue.LocalFile, store snapshot.Store) ([]Change, error) {
	type pending struct {
		remoteKind ChangeKind
		localKind  ChangeKind
		remote     *issue.Remote
		local      *issue.LocalFile
		snap       *snapshot.Entry
		refresh    bool
	}
	byNumber := make(map[int]*pending)
	var drafts []Change

	get := func(number int) (*pending, error) {
		if p, ok := byNumber[number]; ok {
			return p, nil
		}
		p := &pending{remoteKind: Unchanged, localKind: Unchanged}
		if e, found, err := store.Get(number); err != nil {
			return nil, err
		} else if found {
			p.snap = &e
		}
		byNumber[number] = p
		return p, nil
	}

	for i := range remotes {
		remote := remotes[i]
		p, err := get(remote.Number)
		if err != nil {
			return nil, err
		}
		p.remote = &remote
		p.remoteKind = ClassifyRemote(remote, p.snap)
		if p.remoteKind == Unchanged && p.snap != nil &&
			remote.UpdatedAt.After(p.snap.RemoteUpdatedAt) {
			p.refresh = true
		}
	}

	for _, lf := range locals {
		if lf.Record.IsDraft() {
			drafts = append(drafts, Change{Kind: LocalCreated, Local: lf})
			continue
		}

		p, err := get(lf.Record.Number)
		if err != nil {
			return nil, err
		}
		p.local = lf
		p.localKind = ClassifyLocal(lf, p.snap)
		if p.localKind == Unchanged && p.snap != nil && lf.Fingerprint != p.snap.Fingerprint {
			p.refresh = true
		}
	}

	numbers := make([]int, 0, len(byNumber))
	for n := range byNumber {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)

	var changes []Change
	for _, n := range numbers {
		p := byNumber[n]
		ch := Change{Number: n, Remote: p.remote, Local: p.local}

		switch {
		case p.remoteKind == RemoteUpdated && p.localKind == LocalUpdated:
			ch.Kind = BothUpdated
		case p.remoteKind == RemoteUpdated:
			ch.Kind = RemoteUpdated
		case p.localKind == LocalUpdated:
			ch.Kind = LocalUpdated
		case p.remote != nil && p.local == nil && p.snap != nil:
			// Tracked issue with no local file: it was deleted locally.
			// Deletion is not a sync direction, so restore from remote.
			ch.Kind = RemoteUpdated
		case p.refresh:
			ch.Kind = Unchanged
		default:
			continue
		}
		changes = append(changes, ch)
	}

	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].Local.Path < drafts[j].Local.Path
	})
	return append(changes, drafts...), nil
}
