package issue

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LocalFile is one issue file as last read from disk: its path, the
// decoded record, and a fingerprint of the raw bytes at read time.
type LocalFile struct {
	Path        string
	Record      Record
	Fingerprint string
}

// FileName returns the canonical filename for an issue number: issue-{number}.md
func FileName(number int) string {
	return fmt.Sprintf("issue-%d.md", number)
}

// NumberFromFileName extracts the issue number from a canonical filename.
// Returns false for names that don't follow the issue-{number}.md convention.
func NumberFromFileName(name string) (int, bool) {
	base := strings.TrimSuffix(name, ".md")
	if base == name || !strings.HasPrefix(base, "issue-") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(base, "issue-"))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Fingerprint returns the hex-encoded SHA-256 of raw file content.
func Fingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ReadFile reads and decodes a local issue file.
//
// A file whose name encodes a different number than its frontmatter is
// corrupt, not a rename: it fails with a PathMismatch parse error.
// Draft files (number 0) are exempt from the check since they have no
// canonical name yet.
func ReadFile(path string) (*LocalFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read issue file %s: %w", path, err)
	}

	rec, err := Decode(data)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Path = path
		}
		return nil, err
	}

	if !rec.IsDraft() {
		if n, ok := NumberFromFileName(filepath.Base(path)); ok && n != rec.Number {
			return nil, &ParseError{
				Kind:  PathMismatch,
				Path:  path,
				Field: "number",
				Err:   fmt.Errorf("filename says #%d, frontmatter says #%d", n, rec.Number),
			}
		}
	}

	return &LocalFile{
		Path:        path,
		Record:      rec,
		Fingerprint: Fingerprint(data),
	}, nil
}

// WriteFile encodes a record to its canonical path under dir and returns
// the resulting LocalFile. The write goes through a temp file and rename
// so watchers never observe a half-written issue.
func WriteFile(dir string, rec Record) (*LocalFile, error) {
	data, err := Encode(rec)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create issues directory: %w", err)
	}

	path := filepath.Join(dir, FileName(rec.Number))
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("failed to rename temp file: %w", err)
	}

	return &LocalFile{
		Path:        path,
		Record:      rec,
		Fingerprint: Fingerprint(data),
	}, nil
}

// ScanDir reads every .md issue file in dir. Files that fail to decode
// are skipped with a warning on logger (stderr when nil); a missing
// directory is treated as empty.
func ScanDir(dir string, logger *log.Logger) ([]*LocalFile, error) {
	if logger == nil {
		logger = log.New(os.Stderr, "", 0)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*LocalFile{}, nil
		}
		return nil, fmt.Errorf("failed to read issues directory: %w", err)
	}

	var files []*LocalFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		lf, err := ReadFile(path)
		if err != nil {
			logger.Printf("Skipping invalid issue file %s: %v", entry.Name(), err)
			continue
		}
		files = append(files, lf)
	}

	return files, nil
}
