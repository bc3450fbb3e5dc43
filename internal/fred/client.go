// Package fred retrieves daily observation series from the St. Louis Fed
// FRED API.
package fred

import (
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

	"ratesDashboard/internal/observability"
	"ratesDashboard/internal/series"
)

const (
	DefaultBaseURL = "https://api.stlouisfed.org/fred"
	DefaultTimeout = 30 * time.Second
)

// DefaultBackoffs are the waits between attempts; len+1 attempts in total.
var DefaultBackoffs = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}

// Client implements series.Source against the FRED REST API.
type Client struct {
	apiKey           string
	baseURL          string
	client           *http.Client
	backoffs         []time.Duration
	observationStart string
	timeout          time.Duration
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithBaseURL overrides the API root, e.g. for tests.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient sets a custom http.Client. It is copied, never modified.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		c.client = h
	}
}

// WithTimeout sets the per-request timeout, whatever the option order.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithBackoffs replaces the retry schedule. An empty schedule disables retries.
func WithBackoffs(b ...time.Duration) ClientOption {
	return func(c *Client) {
		c.backoffs = b
	}
}

// WithObservationStart limits retrieval to dates on or after start (YYYY-MM-DD).
func WithObservationStart(start string) ClientOption {
	return func(c *Client) {
		c.observationStart = start
	}
}

// NewClient creates a FRED client for apiKey.
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:   apiKey,
		baseURL:  DefaultBaseURL,
		client:   &http.Client{Timeout: DefaultTimeout},
		backoffs: DefaultBackoffs,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 {
		hc := *c.client
		hc.Timeout = c.timeout
		c.client = &hc
	}
	return c
}

// permanentError marks a failure that retrying cannot fix (bad key, unknown id).
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Retrieve fetches all observations of the series id. Every failure is
// returned as a *series.SourceError.
func (c *Client) Retrieve(ctx context.Context, id string) (*series.Series, error) {
	start := time.Now()
	s, err := c.retrieve(ctx, id)
	observability.RecordFetch(id, err, time.Since(start).Seconds())
	if err != nil {
		return nil, series.Unavailable(id, err)
	}
	return s, nil
}

func (c *Client) retrieve(ctx context.Context, id string) (*series.Series, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("empty series identifier")
	}
	var lastErr error
	for attempt := 0; attempt < len(c.backoffs)+1; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.backoffs[attempt-1]):
			}
		}
		body, err := c.get(ctx, id)
		if err == nil {
			return parseObservations(id, body)
		}
		lastErr = err
		var perm *permanentError
		if errors.As(err, &perm) || ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("giving up after %d attempts: %w", len(c.backoffs)+1, lastErr)
}

func (c *Client) get(ctx context.Context, id string) ([]byte, error) {
	q := url.Values{}
	q.Set("series_id", id)
	q.Set("api_key", c.apiKey)
	q.Set("file_type", "json")
	if c.observationStart != "" {
		q.Set("observation_start", c.observationStart)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/series/observations?"+q.Encode(), nil)
	if err != nil {
		return nil, &permanentError{fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("fred request: %w", redactKey(err, c.apiKey))
	}
	body, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return nil, fmt.Errorf("failed to read fred response: %w", readErr)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("fred returned 429: %s", describe(body))
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("fred returned %d: %s", resp.StatusCode, describe(body))
	default:
		return nil, &permanentError{fmt.Errorf("fred returned %d: %s", resp.StatusCode, describe(body))}
	}
}

func parseObservations(id string, body []byte) (*series.Series, error) {
	if strings.HasPrefix(strings.TrimSpace(string(body)), "<") {
		return nil, fmt.Errorf("fred returned non-json body: %s", preview(body))
	}
	var r observationsResp
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to parse fred json: %v; body: %s", err, preview(body))
	}
	s := &series.Series{ID: id, Observations: make([]series.Observation, 0, len(r.Observations))}
	for _, o := range r.Observations {
		d, err := time.Parse(dateLayout, o.Date)
		if err != nil {
			return nil, fmt.Errorf("bad observation date %q: %w", o.Date, err)
		}
		v := series.Missing()
		if raw := strings.TrimSpace(o.Value); raw != missingValue {
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("bad observation value %q on %s: %w", raw, o.Date, err)
			}
			v = f
		}
		s.Observations = append(s.Observations, series.Observation{Date: d, Value: v})
	}
	return s, nil
}

// describe prefers FRED's error_message over the raw body.
func describe(body []byte) string {
	var e errorResp
	if err := json.Unmarshal(body, &e); err == nil && e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return preview(body)
}

func preview(body []byte) string {
	p := string(body)
	if len(p) > 120 {
		p = p[:120]
	}
	return p
}

// redactKey strips the API key from transport errors, which embed the URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return &url.Error{Op: ue.Op, URL: strings.ReplaceAll(ue.URL, key, "REDACTED"), Err: ue.Err}
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
