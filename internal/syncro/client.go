// Package syncro is a small client for the Syncro MSP REST API.
package syncro

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

const (
	// DefaultDelay keeps the client under Syncro's rate limit.
	DefaultDelay   = 380 * time.Millisecond
	defaultTimeout = 30 * time.Second
)

// BaseURL returns the API root for a Syncro subdomain.
func BaseURL(subdomain string) string {
	return fmt.Sprintf("https://%s.syncromsp.com/api/v1", strings.TrimSpace(subdomain))
}

// APIError is returned for non-2xx responses.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 500 {
		body = body[:500] + "..."
	}
	return fmt.Sprintf("syncro API error %d on %s %s: %s", e.Status, e.Method, e.Path, body)
}

// Options configures a Client.
type Options struct {
	// BaseURL overrides the URL derived from Subdomain.
	BaseURL   string
	Subdomain string
	APIKey    string
	// Delay is slept before every request. Zero means DefaultDelay; a
	// negative value disables the delay.
	Delay   time.Duration
	Timeout time.Duration
	// HTTPClient is the transport the bearer token is layered on.
	HTTPClient *http.Client
	Logger     *zerolog.Logger
}

// Client is an authenticated Syncro API client. It is not safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	baseURL    string
	delay      time.Duration
	calls      int
	log        zerolog.Logger
}

// NewClient creates a client that sends the API key as a bearer token.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		if strings.TrimSpace(opts.Subdomain) == "" {
			return nil, fmt.Errorf("syncro subdomain is not configured")
		}
		base = BaseURL(opts.Subdomain)
	}
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("syncro API key is not configured")
	}

	if opts.HTTPClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, opts.HTTPClient)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(opts.APIKey), TokenType: "Bearer"})
	hc := oauth2.NewClient(ctx, ts)
	hc.Timeout = opts.Timeout
	if hc.Timeout == 0 {
		hc.Timeout = defaultTimeout
	}

	delay := opts.Delay
	switch {
	case delay == 0:
		delay = DefaultDelay
	case delay < 0:
		delay = 0
	}

	c := &Client{
		httpClient: hc,
		baseURL:    base,
		delay:      delay,
		log:        zerolog.Nop(),
	}
	if opts.Logger != nil {
		c.log = opts.Logger.With().Str("component", "syncro").Logger()
	}
	return c, nil
}

// Calls returns the number of requests issued so far.
func (c *Client) Calls() int { return c.calls }

func (c *Client) wait(ctx context.Context) error {
	if c.delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(c.delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// do sends one request. in is encoded as the JSON body when non-nil; the
// response is decoded into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	if err := c.wait(ctx); err != nil {
		return err
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.calls++
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("syncro API request failed: %w", err)
	}
	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Int("call", c.calls).
		Msg("api call")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(respBody)}
	}
	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding syncro response from %s: %w", path, err)
	}
	return nil
}

type pageMeta struct {
	NextPage any `json:"next_page"`
}

// getAll follows Syncro's page counter until meta.next_page is empty and
// returns the raw items found under key.
func (c *Client) getAll(ctx context.Context, path, key string, query url.Values) ([]json.RawMessage, error) {
	q := url.Values{}
	for k, v := range query {
		q[k] = v
	}

	var all []json.RawMessage
	for page := 1; ; page++ {
		q.Set("page", fmt.Sprint(page))

		var resp map[string]json.RawMessage
		if err := c.do(ctx, http.MethodGet, path, q, nil, &resp); err != nil {
			return nil, err
		}

		var items []json.RawMessage
		if raw, ok := resp[key]; ok && len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("decoding %s page %d: %w", key, page, err)
			}
		}
		all = append(all, items...)

		var meta pageMeta
		if raw, ok := resp["meta"]; ok && string(raw) != "null" {
			if err := json.Unmarshal(raw, &meta); err != nil {
				return nil, fmt.Errorf("decoding %s page %d meta: %w", key, page, err)
			}
		}
		if !hasNext(meta.NextPage) || len(items) == 0 {
			break
		}
	}
	c.log.Debug().Str("path", path).Int("records", len(all)).Msg("fetched all pages")
	return all, nil
}

func hasNext(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case float64:
		return x > 0
	case string:
		return x != ""
	case bool:
		return x
	}
	return true
}
