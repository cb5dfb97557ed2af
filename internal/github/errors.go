package github

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrorKind classifies remote API failures. The scheduler treats
// AuthFailed as fatal; everything else is retried on the next poll tick.
type ErrorKind int

const (
	// ErrNetwork is a transport-level failure or an unexpected server error.
	ErrNetwork ErrorKind = iota
	// ErrRateLimited indicates the API rate limit was exhausted.
	ErrRateLimited
	// ErrNotFound indicates the repository or issue does not exist.
	ErrNotFound
	// ErrAuthFailed indicates the token was rejected.
	ErrAuthFailed
)

// String returns a human-readable representation of the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrNetwork:
		return "network"
	case ErrRateLimited:
		return "rate limited"
	case ErrNotFound:
		return "not found"
	case ErrAuthFailed:
		return "auth failed"
	default:
		return "unknown"
	}
}

// RemoteError describes a failed remote API call.
type RemoteError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	msg := fmt.Sprintf("github: %s", e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap returns the underlying cause, if any.
func (e *RemoteError) Unwrap() error {
	return e.Err
}

// IsAuthFailed reports whether err is a fatal authentication failure.
func IsAuthFailed(err error) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Kind == ErrAuthFailed
}

// errorFromResponse maps an HTTP error response onto the RemoteError taxonomy.
func errorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	kind := ErrNetwork
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		kind = ErrAuthFailed
	case resp.StatusCode == http.StatusTooManyRequests:
		kind = ErrRateLimited
	case resp.StatusCode == http.StatusForbidden:
		// GitHub reports rate limiting as 403: primary with a drained
		// quota, secondary with a Retry-After header. Only a plain 403
		// means the token lacks access.
		if resp.Header.Get("X-RateLimit-Remaining") == "0" ||
			resp.Header.Get("Retry-After") != "" {
			kind = ErrRateLimited
		} else {
			kind = ErrAuthFailed
		}
	case resp.StatusCode == http.StatusNotFound:
		kind = ErrNotFound
	}

	return &RemoteError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Message:    string(body),
	}
}
