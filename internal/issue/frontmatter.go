package issue

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseErrorKind classifies frontmatter decoding failures.
type ParseErrorKind int

const (
	// MalformedFrontmatter indicates the structured header is absent or unparsable.
	MalformedFrontmatter ParseErrorKind = iota
	// MissingRequiredField indicates the number or title key is absent.
	MissingRequiredField
	// PathMismatch indicates the filename and the encoded issue number disagree.
	PathMismatch
)

// String returns a human-readable representation of the kind.
func (k ParseErrorKind) String() string {
	switch k {
	case MalformedFrontmatter:
		return "malformed frontmatter"
	case MissingRequiredField:
		return "missing required field"
	case PathMismatch:
		return "path mismatch"
	default:
		return "unknown"
	}
}

// ParseError describes why a local issue file could not be decoded.
// Path is set by callers that read from disk; Field names the offending
// frontmatter key when known.
type ParseError struct {
	Kind  ParseErrorKind
	Path  string
	Field string
	Err   error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

const frontmatterDelim = "---"

// frontmatter is the YAML header persisted at the top of each issue file.
// Pointer fields distinguish an absent key from a zero value so that
// `number: 0` can legally mark a draft while a missing number is an error.
type frontmatter struct {
	Number *int     `yaml:"number"`
	Title  *string  `yaml:"title"`
	State  string   `yaml:"state,omitempty"`
	Labels []string `yaml:"labels,flow"`
}

// Encode renders a record as a Markdown file: YAML frontmatter block
// followed by a blank line and the free-text body. Exactly one
// terminator newline is appended after the body; Decode strips exactly
// one, so bodies round-trip byte for byte, trailing newlines included.
func Encode(r Record) ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("cannot encode invalid record: %w", err)
	}

	labels := r.SortedLabels()
	if labels == nil {
		labels = []string{}
	}

	fm := frontmatter{
		Number: &r.Number,
		Title:  &r.Title,
		State:  string(r.State),
		Labels: labels,
	}

	header, err := yaml.Marshal(&fm)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(frontmatterDelim + "\n")
	buf.Write(header)
	buf.WriteString(frontmatterDelim + "\n\n")
	buf.WriteString(r.Body)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

// Decode parses a Markdown issue file back into a Record.
//
// Failure modes:
//   - MalformedFrontmatter: no leading --- block, no closing ---, YAML
//     syntax errors, or an unrecognized state value.
//   - MissingRequiredField: the number or title key is absent.
func Decode(data []byte) (Record, error) {
	text := string(data)

	if !strings.HasPrefix(text, frontmatterDelim+"\n") {
		return Record{}, &ParseError{Kind: MalformedFrontmatter}
	}

	rest := text[len(frontmatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end < 0 {
		return Record{}, &ParseError{Kind: MalformedFrontmatter}
	}

	headerText := rest[:end+1]
	body := rest[end+1+len(frontmatterDelim):]

	var fm frontmatter
	if err := yaml.Unmarshal([]byte(headerText), &fm); err != nil {
		return Record{}, &ParseError{Kind: MalformedFrontmatter, Err: err}
	}

	if fm.Number == nil {
		return Record{}, &ParseError{Kind: MissingRequiredField, Field: "number"}
	}
	if fm.Title == nil || *fm.Title == "" {
		return Record{}, &ParseError{Kind: MissingRequiredField, Field: "title"}
	}

	state := State(fm.State)
	if fm.State == "" {
		state = StateOpen
	}
	if !state.Valid() {
		return Record{}, &ParseError{Kind: MalformedFrontmatter, Field: "state"}
	}

	labels := fm.Labels
	if labels == nil {
		labels = []string{}
	}

	// Everything after the closing delimiter is body text. Strip the
	// single blank line Encode emits between header and body, and the
	// single terminator newline it appends after the body.
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimPrefix(body, "\n")
	body = strings.TrimSuffix(body, "\n")

	return Record{
		Number: *fm.Number,
		Title:  *fm.Title,
		State:  state,
		Labels: labels,
		Body:   body,
	}, nil
}
