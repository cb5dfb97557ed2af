package issue

import (
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
	}{
		{
			name: "basic open issue",
			rec: Record{
				Number: 42,
				Title:  "Bug",
				State:  StateOpen,
				Labels: []string{"bug", "ui"},
				Body:   "Something is broken.",
			},
		},
		{
			name: "closed issue without labels",
			rec: Record{
				Number: 7,
				Title:  "Done already",
				State:  StateClosed,
				Labels: []string{},
				Body:   "",
			},
		},
		{
			name: "draft with number zero",
			rec: Record{
				Number: 0,
				Title:  "New idea",
				State:  StateOpen,
				Body:   "Draft body",
			},
		},
		{
			name: "title with yaml special characters",
			rec: Record{
				Number: 3,
				Title:  "panic: runtime error: index out of range",
				State:  StateOpen,
				Body:   "stack trace below",
			},
		},
		{
			name: "multiline body",
			rec: Record{
				Number: 9,
				Title:  "Docs",
				State:  StateOpen,
				Labels: []string{"docs"},
				Body:   "First paragraph.\n\nSecond paragraph with `code`.",
			},
		},
		{
			name: "body containing horizontal rule",
			rec: Record{
				Number: 11,
				Title:  "Formatting",
				State:  StateOpen,
				Body:   "above\n\n---\n\nbelow",
			},
		},
		{
			name: "body with trailing newline",
			rec: Record{
				Number: 12,
				Title:  "Trailing",
				State:  StateOpen,
				Body:   "line\n",
			},
		},
		{
			name: "body with trailing blank line",
			rec: Record{
				Number: 13,
				Title:  "Trailing blank",
				State:  StateOpen,
				Body:   "line\n\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(tt.rec)
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}

			got, err := Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v\nencoded:\n%s", err, data)
			}

			if !got.Equal(&tt.rec) {
				t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", tt.rec, got)
			}
		})
	}
}

func TestEncodeLayout(t *testing.T) {
	data, err := Encode(Record{
		Number: 42,
		Title:  "Bug",
		State:  StateOpen,
		Labels: []string{"ui", "bug"},
		Body:   "body text",
	})
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	text := string(data)
	if !strings.HasPrefix(text, "---\n") {
		t.Errorf("encoded file must start with frontmatter delimiter, got:\n%s", text)
	}
	if !strings.Contains(text, "number: 42") {
		t.Errorf("missing number field:\n%s", text)
	}
	// Labels are sorted for deterministic output.
	if !strings.Contains(text, "labels: [bug, ui]") {
		t.Errorf("labels should be a sorted flow sequence:\n%s", text)
	}
	if !strings.HasSuffix(text, "body text\n") {
		t.Errorf("body should follow the header:\n%s", text)
	}
}

func TestEncodeRejectsInvalid(t *testing.T) {
	if _, err := Encode(Record{Number: 1, State: StateOpen}); err == nil {
		t.Error("expected error for record without title")
	}
	if _, err := Encode(Record{Number: 1, Title: "x", State: "reopened"}); err == nil {
		t.Error("expected error for unknown state")
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  ParseErrorKind
		field string
	}{
		{
			name:  "no frontmatter at all",
			input: "just a plain markdown file\n",
			kind:  MalformedFrontmatter,
		},
		{
			name:  "unterminated frontmatter",
			input: "---\nnumber: 1\ntitle: x\n",
			kind:  MalformedFrontmatter,
		},
		{
			name:  "invalid yaml header",
			input: "---\nnumber: [1\n---\n\nbody",
			kind:  MalformedFrontmatter,
		},
		{
			name:  "missing number",
			input: "---\ntitle: No number here\n---\n\nbody",
			kind:  MissingRequiredField,
			field: "number",
		},
		{
			name:  "missing title",
			input: "---\nnumber: 5\n---\n\nbody",
			kind:  MissingRequiredField,
			field: "title",
		},
		{
			name:  "unknown state",
			input: "---\nnumber: 5\ntitle: x\nstate: reopened\n---\n\nbody",
			kind:  MalformedFrontmatter,
			field: "state",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.input))
			if err == nil {
				t.Fatal("expected decode error, got nil")
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T: %v", err, err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", pe.Kind, tt.kind)
			}
			if pe.Field != tt.field {
				t.Errorf("field = %q, want %q", pe.Field, tt.field)
			}
		})
	}
}

func TestDecodeDefaults(t *testing.T) {
	rec, err := Decode([]byte("---\nnumber: 8\ntitle: Minimal\n---\n\nbody"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rec.State != StateOpen {
		t.Errorf("state should default to open, got %q", rec.State)
	}
	if rec.Labels == nil || len(rec.Labels) != 0 {
		t.Errorf("labels should default to empty set, got %v", rec.Labels)
	}
}

func TestRecordEqualIgnoresLabelOrder(t *testing.T) {
	a := Record{Number: 1, Title: "t", State: StateOpen, Labels: []string{"x", "y"}}
	b := Record{Number: 1, Title: "t", State: StateOpen, Labels: []string{"y", "x"}}
	if !a.Equal(&b) {
		t.Error("records with the same label set should be equal")
	}

	c := Record{Number: 1, Title: "t", State: StateOpen, Labels: []string{"x", "x"}}
	if a.Equal(&c) {
		t.Error("records with different label multiplicity should differ")
	}
}
