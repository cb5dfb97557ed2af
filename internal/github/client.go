// Package github implements the remote issue tracker client over the
// GitHub REST v3 API. Only the three operations the sync engine needs
// are exposed: list, create, and update.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/steveyegge/ghsync/internal/issue"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "ghsync"
	perPage        = 100
)

// Client talks to one repository's issue endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	owner      string
	repo       string
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API root.
// Used for GitHub Enterprise and for tests.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a client for the given "owner/repo" and token.
func NewClient(repo, token string, opts ...Option) (*Client, error) {
	owner, name, err := SplitRepo(repo)
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		token:      token,
		owner:      owner,
		repo:       name,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SplitRepo splits "owner/repo" into its two components.
func SplitRepo(repo string) (owner, name string, err error) {
	parts := strings.SplitN(repo, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid repo format %q: must be owner/repo", repo)
	}
	return parts[0], parts[1], nil
}

// wireIssue is the subset of the GitHub issue payload we consume.
type wireIssue struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	UpdatedAt   time.Time       `json:"updated_at"`
	PullRequest json.RawMessage `json:"pull_request,omitempty"`
}

func (w *wireIssue) toRemote() issue.Remote {
	labels := make([]string, 0, len(w.Labels))
	for _, l := range w.Labels {
		labels = append(labels, l.Name)
	}
	return issue.Remote{
		Record: issue.Record{
			Number: w.Number,
			Title:  w.Title,
			State:  issue.State(w.State),
			Labels: labels,
			Body:   w.Body,
		},
		UpdatedAt: w.UpdatedAt,
	}
}

// ListIssues fetches every issue in the repository, open and closed,
// following pagination. Pull requests (which the issues endpoint also
// returns) are filtered out.
func (c *Client) ListIssues(ctx context.Context) ([]issue.Remote, error) {
	var out []issue.Remote

	for page := 1; ; page++ {
		path := fmt.Sprintf("/repos/%s/%s/issues?state=all&per_page=%d&page=%d",
			c.owner, c.repo, perPage, page)

		var batch []wireIssue
		if err := c.do(ctx, http.MethodGet, path, nil, &batch); err != nil {
			return nil, err
		}

		for _, wi := range batch {
			if wi.PullRequest != nil {
				continue
			}
			out = append(out, wi.toRemote())
		}

		if len(batch) < perPage {
			return out, nil
		}
	}
}

// issueRequest is the create/update payload.
type issueRequest struct {
	Title  string   `json:"title"`
	Body   string   `json:"body"`
	State  string   `json:"state,omitempty"`
	Labels []string `json:"labels"`
}

// CreateIssue creates a new issue and returns the record with the
// server-assigned number and timestamp. The create endpoint has no
// state field, so a closed draft is closed with a follow-up patch.
func (c *Client) CreateIssue(ctx context.Context, rec issue.Record) (issue.Remote, error) {
	req := issueRequest{
		Title:  rec.Title,
		Body:   rec.Body,
		Labels: rec.SortedLabels(),
	}

	path := fmt.Sprintf("/repos/%s/%s/issues", c.owner, c.repo)
	var wi wireIssue
	if err := c.do(ctx, http.MethodPost, path, &req, &wi); err != nil {
		return issue.Remote{}, err
	}

	if rec.State == issue.StateClosed && issue.State(wi.State) != issue.StateClosed {
		patch := struct {
			State string `json:"state"`
		}{State: string(issue.StateClosed)}
		closePath := fmt.Sprintf("%s/%d", path, wi.Number)
		if err := c.do(ctx, http.MethodPatch, closePath, &patch, &wi); err != nil {
			return issue.Remote{}, fmt.Errorf("issue #%d created but not closed: %w", wi.Number, err)
		}
	}
	return wi.toRemote(), nil
}

// UpdateIssue pushes a record's fields to an existing issue and returns
// the remote's resulting updated_at timestamp.
func (c *Client) UpdateIssue(ctx context.Context, number int, rec issue.Record) (time.Time, error) {
	req := issueRequest{
		Title:  rec.Title,
		Body:   rec.Body,
		State:  string(rec.State),
		Labels: rec.SortedLabels(),
	}

	path := fmt.Sprintf("/repos/%s/%s/issues/%d", c.owner, c.repo, number)
	var wi wireIssue
	if err := c.do(ctx, http.MethodPatch, path, &req, &wi); err != nil {
		return time.Time{}, err
	}
	return wi.UpdatedAt, nil
}

// do performs one API request and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RemoteError{Kind: ErrNetwork, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return errorFromResponse(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &RemoteError{Kind: ErrNetwork, StatusCode: resp.StatusCode,
				Err: fmt.Errorf("failed to decode response: %w", err)}
		}
	}
	return nil
}
