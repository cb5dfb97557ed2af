package issue

import (
	"bytes"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileName(t *testing.T) {
	if got := FileName(42); got != "issue-42.md" {
		t.Errorf("FileName(42) = %q, want issue-42.md", got)
	}

	tests := []struct {
		name   string
		number int
		ok     bool
	}{
		{"issue-42.md", 42, true},
		{"issue-0.md", 0, true},
		{"issue-42.txt", 0, false},
		{"notes.md", 0, false},
		{"issue-.md", 0, false},
		{"issue--7.md", 0, false},
	}
	for _, tt := range tests {
		n, ok := NumberFromFileName(tt.name)
		if ok != tt.ok || n != tt.number {
			t.Errorf("NumberFromFileName(%q) = (%d, %v), want (%d, %v)",
				tt.name, n, ok, tt.number, tt.ok)
		}
	}
}

func TestWriteReadFile(t *testing.T) {
	dir := t.TempDir()

	rec := Record{
		Number: 42,
		Title:  "Bug",
		State:  StateOpen,
		Labels: []string{"bug"},
		Body:   "details",
	}

	written, err := WriteFile(dir, rec)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if written.Path != filepath.Join(dir, "issue-42.md") {
		t.Errorf("unexpected path %s", written.Path)
	}
	if written.Fingerprint == "" {
		t.Error("fingerprint should be set after write")
	}

	read, err := ReadFile(written.Path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !read.Record.Equal(&rec) {
		t.Errorf("read back mismatch:\nwant %+v\ngot  %+v", rec, read.Record)
	}
	if read.Fingerprint != written.Fingerprint {
		t.Errorf("fingerprint changed across write/read: %s vs %s",
			written.Fingerprint, read.Fingerprint)
	}

	// No leftover temp file.
	if _, err := os.Stat(written.Path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should be renamed away")
	}
}

func TestReadFilePathMismatch(t *testing.T) {
	dir := t.TempDir()

	data, err := Encode(Record{Number: 7, Title: "Seven", State: StateOpen})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Content claims #7 but the filename says #9.
	path := filepath.Join(dir, "issue-9.md")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	_, err = ReadFile(path)
	var pe *ParseError
	if !errors.As(err, &pe) || pe.Kind != PathMismatch {
		t.Fatalf("expected PathMismatch error, got %v", err)
	}
	if pe.Path != path {
		t.Errorf("error should name the file, got %q", pe.Path)
	}
}

func TestReadFileDraftSkipsPathCheck(t *testing.T) {
	dir := t.TempDir()

	data, err := Encode(Record{Number: 0, Title: "Draft", State: StateOpen})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	// Drafts can live under any name.
	path := filepath.Join(dir, "my-new-idea.md")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	lf, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !lf.Record.IsDraft() {
		t.Error("expected a draft record")
	}
}

func TestScanDir(t *testing.T) {
	dir := t.TempDir()

	for _, rec := range []Record{
		{Number: 1, Title: "One", State: StateOpen},
		{Number: 2, Title: "Two", State: StateClosed},
	} {
		if _, err := WriteFile(dir, rec); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
	}

	// Invalid file and non-markdown noise are skipped, not fatal.
	if err := os.WriteFile(filepath.Join(dir, "issue-3.md"), []byte("no frontmatter"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.txt"), []byte("hi"), 0644); err != nil {
		t.Fatal(err)
	}

	var logBuf bytes.Buffer
	files, err := ScanDir(dir, log.New(&logBuf, "", 0))
	if err != nil {
		t.Fatalf("ScanDir failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 valid files, got %d", len(files))
	}
	if !strings.Contains(logBuf.String(), "issue-3.md") {
		t.Errorf("skip warning should name the bad file, got %q", logBuf.String())
	}
}

func TestScanDirMissing(t *testing.T) {
	files, err := ScanDir(filepath.Join(t.TempDir(), "does-not-exist"), nil)
	if err != nil {
		t.Fatalf("missing directory should scan as empty, got %v", err)
	}
	if len(files) != 0 {
		t.Errorf("expected no files, got %d", len(files))
	}
}
