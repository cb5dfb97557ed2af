package engine

import (
	"testing"
	"time"

	"github.com/steveyegge/ghsync/internal/issue"
	"github.com/steveyegge/ghsync/internal/snapshot"
)

var (
	t0 = time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	t1 = t0.Add(time.Hour)
)

func record(number int, title, body string) issue.Record {
	return issue.Record{
		Number: number,
		Title:  title,
		State:  issue.StateOpen,
		Labels: []string{"bug"},
		Body:   body,
	}
}

func remoteAt(rec issue.Record, at time.Time) issue.Remote {
	return issue.Remote{Record: rec, UpdatedAt: at}
}

func entryFor(rec issue.Record, at time.Time, fp string) snapshot.Entry {
	return snapshot.Entry{
		Number:          rec.Number,
		Record:          rec,
		RemoteUpdatedAt: at,
		Fingerprint:     fp,
		SyncedAt:        at,
	}
}

func localFile(rec issue.Record, fp string) *issue.LocalFile {
	return &issue.LocalFile{
		Path:        issue.FileName(rec.Number),
		Record:      rec,
		Fingerprint: fp,
	}
}

func TestClassifyRemote(t *testing.T) {
	rec := record(42, "Bug", "details")
	snap := entryFor(rec, t0, "fp1")

	tests := []struct {
		name   string
		remote issue.Remote
		snap   *snapshot.Entry
		want   ChangeKind
	}{
		{"no snapshot seeds directly", remoteAt(rec, t0), nil, RemoteUpdated},
		{"timestamp unchanged", remoteAt(rec, t0), &snap, Unchanged},
		{"timestamp moved with new content", remoteAt(record(42, "Bug fixed", "details"), t1), &snap, RemoteUpdated},
		{"echo of our own push stays unchanged", remoteAt(rec, t1), &snap, Unchanged},
		{"timestamp behind snapshot", remoteAt(record(42, "Old", "x"), t0.Add(-time.Hour)), &snap, Unchanged},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyRemote(tt.remote, tt.snap); got != tt.want {
				t.Errorf("ClassifyRemote = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyLocal(t *testing.T) {
	rec := record(7, "Seven", "body")
	snap := entryFor(rec, t0, "fp1")

	tests := []struct {
		name string
		file *issue.LocalFile
		snap *snapshot.Entry
		want ChangeKind
	}{
		{"draft is a create", localFile(record(0, "New", "draft"), "fpX"), nil, LocalCreated},
		{"same fingerprint", localFile(rec, "fp1"), &snap, Unchanged},
		{"changed fingerprint and content", localFile(record(7, "Seven", "edited"), "fp2"), &snap, LocalUpdated},
		{"reencoded but value-equal", localFile(rec, "fp2"), &snap, Unchanged},
		{"numbered file without snapshot", localFile(rec, "fp1"), nil, LocalUpdated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyLocal(tt.file, tt.snap); got != tt.want {
				t.Errorf("ClassifyLocal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlanMergesBothSides(t *testing.T) {
	store := snapshot.NewMemory()

	recA := record(1, "A", "a")
	recB := record(2, "B", "b")
	if err := store.Put(entryFor(recA, t0, "fpA")); err != nil {
		t.Fatal(err)
	}
	if err := store.Put(entryFor(recB, t0, "fpB")); err != nil {
		t.Fatal(err)
	}

	remotes := []issue.Remote{
		// #1 moved remotely.
		remoteAt(record(1, "A v2", "a"), t1),
		// #2 unchanged remotely.
		remoteAt(recB, t0),
	}
	locals := []*issue.LocalFile{
		// #1 also edited locally -> conflict candidate.
		localFile(record(1, "A local", "a"), "fpA2"),
		// #2 untouched locally.
		localFile(recB, "fpB"),
		// Fresh draft.
		localFile(record(0, "Draft", "new"), "fpD"),
	}

	changes, err := Plan(remotes, locals, store)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}

	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %d: %+v", len(changes), changes)
	}
	if changes[0].Kind != BothUpdated || changes[0].Number != 1 {
		t.Errorf("expected BothUpdated for #1, got %v #%d", changes[0].Kind, changes[0].Number)
	}
	if changes[0].Remote == nil || changes[0].Local == nil {
		t.Error("BothUpdated change must carry both inputs")
	}
	if changes[1].Kind != LocalCreated {
		t.Errorf("expected trailing LocalCreated, got %v", changes[1].Kind)
	}
}

func TestPlanIdlePassIsEmpty(t *testing.T) {
	store := snapshot.NewMemory()
	rec := record(1, "A", "a")
	if err := store.Put(entryFor(rec, t0, "fpA")); err != nil {
		t.Fatal(err)
	}

	changes, err := Plan(
		[]issue.Remote{remoteAt(rec, t0)},
		[]*issue.LocalFile{localFile(rec, "fpA")},
		store,
	)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("idle pass should plan nothing, got %+v", changes)
	}
}

func TestPlanEmitsRefreshForEcho(t *testing.T) {
	store := snapshot.NewMemory()
	rec := record(1, "A", "a")
	if err := store.Put(entryFor(rec, t0, "fpA")); err != nil {
		t.Fatal(err)
	}

	// Remote timestamp moved but content is identical: our own echo.
	changes, err := Plan(
		[]issue.Remote{remoteAt(rec, t1)},
		[]*issue.LocalFile{localFile(rec, "fpA")},
		store,
	)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(changes) != 1 || changes[0].Kind != Unchanged {
		t.Fatalf("expected one Unchanged bookkeeping change, got %+v", changes)
	}
}

func TestPlanRestoresDeletedLocalFile(t *testing.T) {
	store := snapshot.NewMemory()
	rec := record(1, "A", "a")
	if err := store.Put(entryFor(rec, t0, "fpA")); err != nil {
		t.Fatal(err)
	}

	// Tracked issue, remote unchanged, but the local file is gone from
	// the scan: the pass must re-pull it.
	changes, err := Plan([]issue.Remote{remoteAt(rec, t0)}, nil, store)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(changes) != 1 || changes[0].Kind != RemoteUpdated {
		t.Fatalf("expected a RemoteUpdated restore, got %+v", changes)
	}
}

func TestPlanOrdersByNumber(t *testing.T) {
	store := snapshot.NewMemory()

	remotes := []issue.Remote{
		remoteAt(record(9, "Nine", "n"), t1),
		remoteAt(record(3, "Three", "t"), t1),
	}
	changes, err := Plan(remotes, nil, store)
	if err != nil {
		t.Fatalf("Plan failed: %v", err)
	}
	if len(changes) != 2 || changes[0].Number != 3 || changes[1].Number != 9 {
		t.Errorf("changes not ordered by number: %+v", changes)
	}
}
