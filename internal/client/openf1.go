package client

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

	"f1picks/ingestion/internal/metrics"
	"f1picks/ingestion/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
)

// Provider endpoints
const (
	EndpointMeetings    = "meetings"
	EndpointSessions    = "sessions"
	EndpointDrivers     = "drivers"
	EndpointPositions   = "position"
	EndpointRaceControl = "race_control"
	EndpointWeather     = "weather"
)

// FetchError is returned for every failed provider call: transport errors,
// non-success statuses and undecodable bodies alike.
type FetchError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// IsFetchError reports whether err came from a failed provider call
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

var errNoResults = errors.New("no results")

// Client is the OpenF1-compatible API client
type Client struct {
	baseURL     string
	apiKey      string
	httpClient  *http.Client
	rateLimiter chan struct{} // Rate limiting semaphore
	maxRetries  int
	retryDelay  time.Duration
	cache       *expirable.LRU[string, []byte]
}

// Option customizes a Client
type Option func(*Client)

// WithMaxRetries sets how many times a retryable request is repeated
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryDelay sets the base delay of the exponential backoff
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// WithMaxConcurrency bounds the number of in-flight requests
func WithMaxConcurrency(n int) Option {
	return func(c *Client) {
		if n < 1 {
			n = 1
		}
		c.rateLimiter = make(chan struct{}, n)
		for i := 0; i < n; i++ {
			c.rateLimiter <- struct{}{}
		}
	}
}

// WithResponseCache caches successful response bodies by URL. A non-positive
// ttl disables the cache.
func WithResponseCache(size int, ttl time.Duration) Option {
	return func(c *Client) {
		if ttl <= 0 || size <= 0 {
			c.cache = nil
			return
		}
		c.cache = expirable.NewLRU[string, []byte](size, nil, ttl)
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a new provider API client
func NewClient(baseURL, apiKey string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		maxRetries: 3,
		retryDelay: 1 * time.Second,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	WithMaxConcurrency(4)(c)

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// get performs a GET request against the provider with retry logic and rate limiting
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s", c.baseURL, endpoint)
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	if c.cache != nil {
		if body, ok := c.cache.Get(reqURL); ok {
			log.Debug().Str("url", reqURL).Msg("Provider response served from cache")
			return body, nil
		}
	}

	start := time.Now()
	body, status, err := c.doWithRetry(ctx, reqURL)
	metrics.RecordAPICall(endpoint, statusLabel(status, err), time.Since(start).Seconds())
	if errors.Is(err, errNoResults) {
		return []byte("[]"), nil
	}
	if err != nil {
		return nil, &FetchError{Endpoint: endpoint, StatusCode: status, Err: err}
	}

	if c.cache != nil {
		c.cache.Add(reqURL, body)
	}
	return body, nil
}

func (c *Client) doWithRetry(ctx context.Context, reqURL string) ([]byte, int, error) {
	var lastErr error
	lastStatus := 0

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff: 1s, 2s, 4s
			backoff := c.retryDelay * time.Duration(1<<uint(attempt-1))
			log.Info().
				Str("url", reqURL).
				Int("attempt", attempt).
				Dur("backoff", backoff).
				Msg("Retrying API request after backoff")

			select {
			case <-ctx.Done():
				return nil, lastStatus, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, status, retryable, err := c.attempt(ctx, reqURL, attempt)
		if err == nil {
			return body, status, nil
		}
		lastErr, lastStatus = err, status
		if !retryable || attempt == c.maxRetries {
			break
		}
	}

	return nil, lastStatus, lastErr
}

// attempt performs one request while holding a rate limiter slot
func (c *Client) attempt(ctx context.Context, reqURL string, attempt int) ([]byte, int, bool, error) {
	select {
	case <-ctx.Done():
		return nil, 0, false, ctx.Err()
	case <-c.rateLimiter:
	}
	defer func() { c.rateLimiter <- struct{}{} }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, 0, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "f1picks-ingestion/1.0")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	log.Debug().
		Str("url", reqURL).
		Int("attempt", attempt+1).
		Msg("Making API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Retry on network errors unless the caller gave up
		return nil, 0, ctx.Err() == nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, true, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		log.Debug().
			Str("url", reqURL).
			Int("status", resp.StatusCode).
			Int("size", len(body)).
			Msg("API request successful")
		return body, resp.StatusCode, false, nil

	case http.StatusNotFound:
		// The provider answers an empty filter with 404 "No results found."
		if isNoResults(body) {
			return nil, resp.StatusCode, false, errNoResults
		}
		return nil, resp.StatusCode, false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))

	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		log.Warn().
			Str("url", reqURL).
			Int("status", resp.StatusCode).
			Int("attempt", attempt+1).
			Msg("Received retryable error, will retry")
		return nil, resp.StatusCode, true, fmt.Errorf("API returned retryable status %d: %s", resp.StatusCode, string(body))

	case http.StatusUnauthorized, http.StatusForbidden:
		// Don't retry auth errors
		return nil, resp.StatusCode, false, fmt.Errorf("API authentication failed (status %d): %s", resp.StatusCode, string(body))

	default:
		return nil, resp.StatusCode, false, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
}

func isNoResults(body []byte) bool {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}
	return strings.HasPrefix(strings.ToLower(payload.Detail), "no results")
}

func statusLabel(status int, err error) string {
	switch {
	case err == nil, errors.Is(err, errNoResults):
		return "success"
	case status != 0:
		return strconv.Itoa(status)
	default:
		return "error"
	}
}

// fetchList decodes a JSON array response; an empty array is a valid result
func fetchList[T any](ctx context.Context, c *Client, endpoint string, params url.Values) ([]T, error) {
	body, err := c.get(ctx, endpoint, params)
	if err != nil {
		return nil, err
	}

	var records []T
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, &FetchError{Endpoint: endpoint, Err: fmt.Errorf("failed to unmarshal %s: %w", endpoint, err)}
	}
	if records == nil {
		records = []T{}
	}

	return records, nil
}

// FetchMeetings fetches every meeting of a season
func (c *Client) FetchMeetings(ctx context.Context, year int) ([]models.MeetingInput, error) {
	return fetchList[models.MeetingInput](ctx, c, EndpointMeetings, url.Values{"year": {strconv.Itoa(year)}})
}

// FetchSessions fetches the sessions of one meeting
func (c *Client) FetchSessions(ctx context.Context, meetingKey int) ([]models.SessionInput, error) {
	return fetchList[models.SessionInput](ctx, c, EndpointSessions, url.Values{"meeting_key": {strconv.Itoa(meetingKey)}})
}

// FetchDrivers fetches the driver roster attached to a session
func (c *Client) FetchDrivers(ctx context.Context, sessionKey int) ([]models.DriverInput, error) {
	return fetchList[models.DriverInput](ctx, c, EndpointDrivers, sessionParams(sessionKey))
}

// FetchPositions fetches the raw position time series of a session
func (c *Client) FetchPositions(ctx context.Context, sessionKey int) ([]models.PositionInput, error) {
	return fetchList[models.PositionInput](ctx, c, EndpointPositions, sessionParams(sessionKey))
}

// FetchFinalPositions resolves the last observed position of every driver in a session
func (c *Client) FetchFinalPositions(ctx context.Context, sessionKey int) ([]models.PositionInput, error) {
	records, err := c.FetchPositions(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return LatestPositions(records), nil
}

// FetchRaceControl fetches race-control messages of a session
func (c *Client) FetchRaceControl(ctx context.Context, sessionKey int) ([]models.RaceControlInput, error) {
	return fetchList[models.RaceControlInput](ctx, c, EndpointRaceControl, sessionParams(sessionKey))
}

// FetchWeather fetches weather readings of a session
func (c *Client) FetchWeather(ctx context.Context, sessionKey int) ([]models.WeatherInput, error) {
	return fetchList[models.WeatherInput](ctx, c, EndpointWeather, sessionParams(sessionKey))
}

func sessionParams(sessionKey int) url.Values {
	return url.Values{"session_key": {strconv.Itoa(sessionKey)}}
}
