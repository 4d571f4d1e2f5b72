package bitbucket

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	logger "github.com/sirupsen/logrus"
)

const (
	// DefaultMaxPages bounds every pagination loop.
	DefaultMaxPages = 100

	bodySnippetLength = 500
	requestTimeout    = 60 * time.Second
	snippetType       = "snippet"
)

var (
	// ErrTransient is returned when retryable failures exhausted every attempt.
	ErrTransient = errors.New("transient network failure")
	// ErrNotFound is returned for a 404 response.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned for 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrHTTPStatus is returned for any other non-retryable status.
	ErrHTTPStatus = errors.New("unexpected HTTP status")
	// ErrMalformedPayload is returned when a response body cannot be decoded.
	ErrMalformedPayload = errors.New("malformed response payload")
	// ErrUnexpectedType is returned when a resolved item does not report the snippet type.
	ErrUnexpectedType = errors.New("unexpected item type")
	// ErrRequest is returned when a request cannot be built.
	ErrRequest = errors.New("invalid request")
)

// Client represents a Bitbucket Cloud 2.0 API client limited to snippets.
// Every call is authenticated with HTTP basic auth and retried per policy.
type Client struct {
	baseURL    string
	user       string
	password   string
	httpClient *http.Client
	policy     RetryPolicy
	sleeper    Sleeper
	maxPages   int
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(policy RetryPolicy) Option {
	return func(c *Client) { c.policy = policy }
}

// WithSleeper replaces the timer used between attempts.
func WithSleeper(sleeper Sleeper) Option {
	return func(c *Client) { c.sleeper = sleeper }
}

// WithMaxPages changes the pagination cap.
func WithMaxPages(maxPages int) Option {
	return func(c *Client) { c.maxPages = maxPages }
}

// NewClient creates a new Bitbucket client.
func NewClient(baseURL, user, password string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		user:     user,
		password: password,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		policy:   DefaultRetryPolicy(),
		sleeper:  TimerSleeper{},
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListSnippets returns every snippet of a workspace, optionally filtered by role.
func (c *Client) ListSnippets(ctx context.Context, workspace, role string) ([]Snippet, error) {
	endpoint := "/snippets/" + url.PathEscape(workspace)
	if role != "" {
		endpoint += "?role=" + url.QueryEscape(role)
	}
	return Paginate[Snippet](ctx, c, endpoint)
}

// GetSnippet returns the detail of one snippet. Items that do not report the
// snippet type are rejected.
func (c *Client) GetSnippet(ctx context.Context, workspace, id string) (*Snippet, error) {
	endpoint := fmt.Sprintf("/snippets/%s/%s", url.PathEscape(workspace), url.PathEscape(id))

	var snippet Snippet
	if err := c.getJSON(ctx, c.baseURL+endpoint, &snippet); err != nil {
		return nil, err
	}
	if snippet.Type != snippetType {
		return nil, goerr.Wrap(ErrUnexpectedType, "item is not a snippet",
			goerr.V("id", id),
			goerr.V("type", snippet.Type),
		)
	}
	return &snippet, nil
}

// ListCommits returns the revisions of a snippet.
func (c *Client) ListCommits(ctx context.Context, workspace, id string) ([]Commit, error) {
	endpoint := fmt.Sprintf("/snippets/%s/%s/commits", url.PathEscape(workspace), url.PathEscape(id))
	return Paginate[Commit](ctx, c, endpoint)
}

// GetSnippetAt returns a snippet as it was at the given revision.
func (c *Client) GetSnippetAt(ctx context.Context, workspace, id, revision string) (*Snippet, error) {
	endpoint := fmt.Sprintf("/snippets/%s/%s/%s",
		url.PathEscape(workspace), url.PathEscape(id), url.PathEscape(revision))

	var snippet Snippet
	if err := c.getJSON(ctx, c.baseURL+endpoint, &snippet); err != nil {
		return nil, err
	}
	return &snippet, nil
}

// GetFile returns the raw content of a file at a revision.
func (c *Client) GetFile(ctx context.Context, workspace, id, revision, name string) ([]byte, error) {
	endpoint := fmt.Sprintf("/snippets/%s/%s/%s/files/%s",
		url.PathEscape(workspace), url.PathEscape(id), url.PathEscape(revision), escapePath(name))

	target := c.baseURL + endpoint
	logger.Debugf("Fetching file: %s", target)
	return c.fetch(ctx, target)
}

// getJSON fetches target and decodes it into out. Undecodable bodies are not retried.
func (c *Client) getJSON(ctx context.Context, target string, out any) error {
	logger.Debugf("Fetching single: %s", target)

	body, err := c.fetch(ctx, target)
	if err != nil {
		return err
	}
	return decode(target, body, out)
}

// fetch performs a GET with the retry policy applied.
func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	return WithRetry(ctx, c.policy, c.sleeper, target, func(ctx context.Context) ([]byte, error) {
		body, _, err := c.doRequest(ctx, target)
		return body, err
	})
}

// doRequest performs exactly one request. Failures carrying a response status
// or a transport error are returned as *AttemptError.
func (c *Client) doRequest(ctx context.Context, target string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, nil, goerr.Wrap(ErrRequest, "failed to create request",
			goerr.V("url", target), goerr.V("cause", err.Error()))
	}

	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, &AttemptError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &AttemptError{URL: target, Err: fmt.Errorf("failed to read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, &AttemptError{
			URL:        target,
			StatusCode: resp.StatusCode,
			RetryAfter: resp.Header.Get("Retry-After"),
			Err:        fmt.Errorf("API error: %s", truncate(respBody)),
		}
	}

	return respBody, resp.Header, nil
}

func decode(target string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		logger.Errorf("Error decoding JSON from %s: %v\nResponse text: %s...", target, err, truncate(body))
		return goerr.Wrap(ErrMalformedPayload, "failed to decode response",
			goerr.V("url", target), goerr.V("cause", err.Error()))
	}
	return nil
}

func truncate(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) > bodySnippetLength {
		body = body[:bodySnippetLength]
	}
	return string(body)
}

// escapePath escapes every segment of a slash-separated file name.
func escapePath(name string) string {
	parts := strings.Split(name, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
