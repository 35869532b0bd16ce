package gigon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConnectionAPI defines the collaborator calls the connection manager needs.
// This interface is implemented by *Client and can be used for testing.
type ConnectionAPI interface {
	FetchConnection(ctx context.Context, viewer, other string) ([]Connection, error)
	ListConnections(ctx context.Context, username string) ([]Connection, error)
	CreateConnection(ctx context.Context, requester, acceptor string) (*Connection, error)
	AcceptConnection(ctx context.Context, id int64) error
	DeleteConnection(ctx context.Context, id int64) error
}

// Ensure Client implements ConnectionAPI at compile time.
var _ ConnectionAPI = (*Client)(nil)

// Client talks to the Gig-On collaborator API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     string
	userAgent string
}

// Options configure a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	HTTPClient *http.Client
}

const (
	DefaultBaseURL   = "https://gig-onapi.sarath-s2022cse.workers.dev"
	defaultUserAgent = "gigon/0.1"
	requestTimeout   = 10 * time.Second
	maxErrorBody     = 512
)

// NewClient builds a Client for the collaborator at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := parseBaseURL(opts.BaseURL)
	if err != nil {
		return nil, err
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = requestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL:   base,
		http:      httpClient,
		token:     strings.TrimSpace(opts.Token),
		userAgent: defaultUserAgent,
	}, nil
}

// FetchConnection returns the records linking viewer and other. An empty
// slice means the pair has no relationship.
func (c *Client) FetchConnection(ctx context.Context, viewer, other string) ([]Connection, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if err := checkUsernames(viewer, other); err != nil {
		return nil, err
	}
	var payload ConnectionList
	if err := c.do(ctx, http.MethodGet, connectionsPath(viewer, other), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// ListConnections returns every record involving username.
func (c *Client) ListConnections(ctx context.Context, username string) ([]Connection, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if err := checkUsernames(username); err != nil {
		return nil, err
	}
	var payload ConnectionList
	if err := c.do(ctx, http.MethodGet, connectionsPath(username), nil, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// CreateConnection issues a request from requester to acceptor. The returned
// record may be nil when the collaborator answers without a body.
func (c *Client) CreateConnection(ctx context.Context, requester, acceptor string) (*Connection, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	body := CreateConnectionRequest{Requester: requester, Acceptor: acceptor}
	var payload ConnectionList
	if err := c.do(ctx, http.MethodPost, "/connections", body, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, nil
	}
	conn := payload.Results[0]
	return &conn, nil
}

// AcceptConnection moves record id to StatusConnected.
func (c *Client) AcceptConnection(ctx context.Context, id int64) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if id <= 0 {
		return fmt.Errorf("connection id required")
	}
	body := UpdateConnectionRequest{Status: StatusConnected}
	return c.do(ctx, http.MethodPut, connectionsPath(strconv.FormatInt(id, 10)), body, nil)
}

// DeleteConnection removes record id.
func (c *Client) DeleteConnection(ctx context.Context, id int64) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if id <= 0 {
		return fmt.Errorf("connection id required")
	}
	return c.do(ctx, http.MethodDelete, connectionsPath(strconv.FormatInt(id, 10)), nil, nil)
}

// checkUsernames rejects names that cannot be a single path segment. "." and
// ".." would be cleaned away by url.JoinPath and hit another endpoint.
func checkUsernames(names ...string) error {
	for _, name := range names {
		switch strings.TrimSpace(name) {
		case "", ".", "..":
			return fmt.Errorf("invalid username %q", name)
		}
	}
	return nil
}

func connectionsPath(segments ...string) string {
	var b strings.Builder
	b.WriteString("/connections")
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(strings.TrimSpace(s)))
	}
	return b.String()
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	// path segments are already escaped; JoinPath keeps any base prefix such as /api.
	reqURL := c.baseURL.JoinPath(strings.Split(strings.TrimPrefix(path, "/"), "/")...)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return classifyStatus(method, path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if dest == nil {
		return nil
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_base %q: %w", raw, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_base %q: missing host", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
