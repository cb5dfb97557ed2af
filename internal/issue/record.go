// Package issue provides the canonical in-memory representation of one
// GitHub issue and its local Markdown counterpart, plus the frontmatter
// encoding boundary between the two.
package issue

import (
	"fmt"
	"sort"
)

// State is the lifecycle state of an issue.
type State string

const (
	// StateOpen indicates the issue is open.
	StateOpen State = "open"
	// StateClosed indicates the issue has been closed.
	StateClosed State = "closed"
)

// Valid reports whether s is a recognized issue state.
func (s State) Valid() bool {
	return s == StateOpen || s == StateClosed
}

// Record represents one issue's content regardless of origin.
//
// Number is assigned by GitHub on creation and immutable afterwards.
// Number 0 marks a locally created draft that has not been pushed yet.
type Record struct {
	Number int
	Title  string
	State  State
	Labels []string
	Body   string
}

// Validate checks required fields on a decoded or about-to-be-encoded record.
func (r *Record) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Number < 0 {
		return fmt.Errorf("number must not be negative (got %d)", r.Number)
	}
	if !r.State.Valid() {
		return fmt.Errorf("state must be open or closed (got %q)", r.State)
	}
	return nil
}

// IsDraft reports whether the record is a local draft awaiting a remote number.
func (r *Record) IsDraft() bool {
	return r.Number == 0
}

// Equal reports whether two records carry the same content.
// Labels compare as an unordered set.
func (r *Record) Equal(other *Record) bool {
	if other == nil {
		return false
	}
	if r.Number != other.Number || r.Title != other.Title ||
		r.State != other.State || r.Body != other.Body {
		return false
	}
	return labelSetEqual(r.Labels, other.Labels)
}

// SortedLabels returns a defensively copied, sorted label list.
// Useful for deterministic encoding and logging.
func (r *Record) SortedLabels() []string {
	out := make([]string, len(r.Labels))
	copy(out, r.Labels)
	sort.Strings(out)
	return out
}

func labelSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, l := range a {
		seen[l]++
	}
	for _, l := range b {
		seen[l]--
		if seen[l] < 0 {
			return false
		}
	}
	return true
}
