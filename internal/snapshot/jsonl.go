package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/steveyegge/ghsync/internal/issue"
)

// jsonlEntry is the line format for snapshot export: one issue per line.
type jsonlEntry struct {
	Number          int       `json:"number"`
	Title           string    `json:"title"`
	State           string    `json:"state"`
	Labels          []string  `json:"labels"`
	Body            string    `json:"body,omitempty"`
	RemoteUpdatedAt time.Time `json:"remote_updated_at"`
	Fingerprint     string    `json:"fingerprint"`
	SyncedAt        time.Time `json:"synced_at"`
}

// ExportJSONL writes every entry in the store as one JSON object per line.
func ExportJSONL(w io.Writer, store Store) (int, error) {
	entries, err := store.All()
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshots: %w", err)
	}

	enc := json.NewEncoder(w)
	for _, e := range entries {
		line := jsonlEntry{
			Number:          e.Number,
			Title:           e.Record.Title,
			State:           string(e.Record.State),
			Labels:          e.Record.SortedLabels(),
			Body:            e.Record.Body,
			RemoteUpdatedAt: e.RemoteUpdatedAt,
			Fingerprint:     e.Fingerprint,
			SyncedAt:        e.SyncedAt,
		}
		if err := enc.Encode(&line); err != nil {
			return 0, fmt.Errorf("failed to encode snapshot #%d: %w", e.Number, err)
		}
	}
	return len(entries), nil
}

// ImportJSONL reads exported lines back into the store.
// Malformed lines abort the import with the offending line number.
func ImportJSONL(r io.Reader, store Store) (int, error) {
	dec := json.NewDecoder(r)
	count := 0

	for {
		var line jsonlEntry
		if err := dec.Decode(&line); err != nil {
			if err == io.EOF {
				break
			}
			return count, fmt.Errorf("invalid JSON at line %d: %w", count+1, err)
		}

		entry := Entry{
			Number: line.Number,
			Record: issue.Record{
				Number: line.Number,
				Title:  line.Title,
				State:  issue.State(line.State),
				Labels: line.Labels,
				Body:   line.Body,
			},
			RemoteUpdatedAt: line.RemoteUpdatedAt,
			Fingerprint:     line.Fingerprint,
			SyncedAt:        line.SyncedAt,
		}
		if err := store.Put(entry); err != nil {
			return count, fmt.Errorf("failed to store snapshot #%d: %w", line.Number, err)
		}
		count++
	}
	return count, nil
}
