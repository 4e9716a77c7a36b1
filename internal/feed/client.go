package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Remote is the contract the triage engines consume. It is implemented by
// *Client and by fakes in tests.
type Remote interface {
	FetchVideos(ctx context.Context, filter Filter) ([]Video, error)
	FetchDaily(ctx context.Context) ([]Video, error)
	SetVideoState(ctx context.Context, id string, state State) error
	FetchCreators(ctx context.Context) ([]Creator, error)
	SetCreatorFields(ctx context.Context, patch CreatorPatch) error
	FetchCreatorGroups(ctx context.Context) ([]string, error)
}

// Ensure Client implements Remote at compile time.
var _ Remote = (*Client)(nil)

// RemoteError reports a non-success response from the feed API.
type RemoteError struct {
	Op     string
	Status int
	Reason string
}

func (e *RemoteError) Error() string {
	if e == nil {
		return "remote error"
	}
	if e.Op == "" {
		return e.Reason
	}
	return e.Op + ": " + e.Reason
}

// Reason extracts the human-readable failure reason from err.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var remote *RemoteError
	if errors.As(err, &remote) && strings.TrimSpace(remote.Reason) != "" {
		return remote.Reason
	}
	return err.Error()
}

// Client talks to the feed HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAPIURL         = "127.0.0.1:9000"
	defaultUserAgent      = "sieve/0.1"
	defaultRequestTimeout = 10 * time.Second
	maxErrorBody          = 4 << 10
)

// NewClient builds a Client for the API at apiURL (host:port or full URL).
// A non-positive timeout uses the default.
func NewClient(apiURL string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the API root the client talks to.
func (c *Client) BaseURL() string {
	if c == nil || c.baseURL == nil {
		return ""
	}
	return c.baseURL.String()
}

// FetchVideos retrieves the filtered video list.
func (c *Client) FetchVideos(ctx context.Context, filter Filter) ([]Video, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	rel := &url.URL{Path: "/api/videos", RawQuery: filterValues(filter).Encode()}
	var payload []Video
	if err := c.doURL(ctx, "fetch videos", http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchDaily retrieves the curated daily subset.
func (c *Client) FetchDaily(ctx context.Context) ([]Video, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Video
	if err := c.do(ctx, "fetch daily", http.MethodGet, "/api/daily", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// SetVideoState persists a video's workflow state.
func (c *Client) SetVideoState(ctx context.Context, id string, state State) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("video id required")
	}
	if !state.Valid() {
		return fmt.Errorf("invalid state %q", state)
	}
	var out StateRecord
	return c.do(ctx, "set state", http.MethodPost, "/api/state", StateUpdate{ID: id, State: state}, &out)
}

// FetchCreators retrieves all creators.
func (c *Client) FetchCreators(ctx context.Context) ([]Creator, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []Creator
	if err := c.do(ctx, "fetch creators", http.MethodGet, "/api/creators", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// SetCreatorFields applies a partial update to one creator.
func (c *Client) SetCreatorFields(ctx context.Context, patch CreatorPatch) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	if patch.UID <= 0 {
		return fmt.Errorf("creator uid required")
	}
	return c.do(ctx, "set creator", http.MethodPost, "/api/creators", []CreatorPatch{patch}, nil)
}

// FetchCreatorGroups retrieves the distinct creator group names.
func (c *Client) FetchCreatorGroups(ctx context.Context) ([]string, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload []string
	if err := c.do(ctx, "fetch groups", http.MethodGet, "/api/creator-groups", nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// StateQuery configures GET /api/state requests.
type StateQuery struct {
	ID     string
	State  State
	Limit  int
	Offset int
}

// FetchStates lists recorded state changes, newest first.
func (c *Client) FetchStates(ctx context.Context, query StateQuery) ([]StateRecord, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	values := url.Values{}
	if id := strings.TrimSpace(query.ID); id != "" {
		values.Set("bvid", id)
	}
	if query.State != "" {
		values.Set("state", string(query.State))
	}
	if query.Limit > 0 {
		values.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Offset > 0 {
		values.Set("offset", strconv.Itoa(query.Offset))
	}
	rel := &url.URL{Path: "/api/state", RawQuery: values.Encode()}
	var payload []StateRecord
	if err := c.doURL(ctx, "fetch states", http.MethodGet, rel, nil, &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func filterValues(filter Filter) url.Values {
	values := url.Values{}
	if q := strings.TrimSpace(filter.Query); q != "" {
		values.Set("q", q)
	}
	if tag := strings.TrimSpace(filter.Tag); tag != "" {
		values.Set("tag", tag)
	}
	if filter.ViewMin > 0 {
		values.Set("view_min", strconv.FormatInt(filter.ViewMin, 10))
	}
	if filter.ViewMax > 0 {
		values.Set("view_max", strconv.FormatInt(filter.ViewMax, 10))
	}
	if group := strings.TrimSpace(filter.Group); group != "" {
		values.Set("group", group)
	}
	values.Set("only_whitelist", strconv.FormatBool(filter.WhitelistOnly))
	if filter.State != "" {
		values.Set("state", string(filter.State))
	}
	values.Set("sort", string(ParseSortKey(string(filter.Sort))))
	if filter.Limit > 0 {
		values.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.Offset > 0 {
		values.Set("offset", strconv.Itoa(filter.Offset))
	}
	return values
}

func (c *Client) do(ctx context.Context, op, method, path string, body, dest any) error {
	rel := &url.URL{Path: path}
	return c.doURL(ctx, op, method, rel, body, dest)
}

func (c *Client) doURL(ctx context.Context, op, method string, rel *url.URL, body, dest any) error {
	reqURL := c.baseURL.JoinPath(rel.Path)
	reqURL.RawQuery = rel.RawQuery

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
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: execute request: %w", op, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &RemoteError{Op: op, Status: resp.StatusCode, Reason: errorReason(resp)}
	}
	if dest == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	decoder := json.NewDecoder(resp.Body)
	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

// errorReason prefers a JSON {"detail": ...} body, then the raw body text,
// then the HTTP status.
func errorReason(resp *http.Response) string {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	text := strings.TrimSpace(string(raw))
	if text != "" {
		var payload struct {
			Detail json.RawMessage `json:"detail"`
		}
		if err := json.Unmarshal(raw, &payload); err == nil && len(payload.Detail) > 0 {
			var detail string
			if err := json.Unmarshal(payload.Detail, &detail); err == nil {
				if detail = strings.TrimSpace(detail); detail != "" {
					return detail
				}
			} else {
				return string(payload.Detail)
			}
		}
		return text
	}
	if status := http.StatusText(resp.StatusCode); status != "" {
		return fmt.Sprintf("HTTP %d %s", resp.StatusCode, status)
	}
	return fmt.Sprintf("HTTP %d", resp.StatusCode)
}

// parseBaseURL normalizes api_url. A path is kept as a prefix for every
// /api route, so an API mounted under /bili works.
func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
