package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/damon-houk/mock-rate-server/internal/domain/entity"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/cache"
	"github.com/damon-houk/mock-rate-server/internal/infrastructure/logger"
)

// DefaultBaseURL points at a locally running mock server
const DefaultBaseURL = "http://localhost:8080"

var (
	// ErrUnauthorized is returned when the server rejects the access key
	ErrUnauthorized = errors.New("access key rejected")
	// ErrInvalidEndpoint is returned when the server does not recognise the requested path
	ErrInvalidEndpoint = errors.New("invalid endpoint")
)

// StatusError describes any other non-200 response
type StatusError struct {
	StatusCode int
	Body       string
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status: %d, URL: %s, body: %s", e.StatusCode, e.URL, e.Body)
}

// FetchOptions are the optional query parameters of a quote request
type FetchOptions struct {
	Base    string
	Symbols []string
}

// RateAPIClient fetches quotes from a rate server
type RateAPIClient struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client
	cache      *cache.QuoteCache
	logger     logger.Logger
	maxRetries int
	backoff    func(attempt int) time.Duration
}

// NewRateAPIClient creates a new rate API client
func NewRateAPIClient(baseURL, accessKey string, httpClient *http.Client, log logger.Logger) *RateAPIClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 10 * time.Second,
		}
	}

	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &RateAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		accessKey:  accessKey,
		httpClient: httpClient,
		cache:      cache.NewQuoteCache(),
		logger:     log,
		maxRetries: 3,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*attempt) * time.Second
		},
	}
}

// SetCacheTTL changes how long historical quotes are served from the cache
func (c *RateAPIClient) SetCacheTTL(ttl time.Duration) {
	c.cache.SetExpiration(ttl)
}

// Latest retrieves today's quote; it is never cached
func (c *RateAPIClient) Latest(ctx context.Context, opts FetchOptions) (*entity.RateQuote, error) {
	return c.fetch(ctx, "latest", opts)
}

// Historical retrieves the quote for a date, serving repeats from the cache
func (c *RateAPIClient) Historical(ctx context.Context, date time.Time, opts FetchOptions) (*entity.RateQuote, error) {
	key := cache.Key(date, opts.Base, opts.Symbols)
	if cached := c.cache.Get(key); cached != nil {
		return cached, nil
	}

	quote, err := c.fetch(ctx, date.Format(entity.DateLayout), opts)
	if err != nil {
		return nil, err
	}

	c.cache.Put(key, quote)
	return quote, nil
}

// fetch performs the GET, retrying transport failures with quadratic backoff
func (c *RateAPIClient) fetch(ctx context.Context, path string, opts FetchOptions) (*entity.RateQuote, error) {
	query := url.Values{}
	if c.accessKey != "" {
		query.Set("access_key", c.accessKey)
	}
	if opts.Base != "" {
		query.Set("base", opts.Base)
	}
	if opts.Symbols != nil {
		query.Set("symbols", strings.Join(opts.Symbols, ","))
	}

	reqURL := c.baseURL + "/" + path
	if encoded := query.Encode(); encoded != "" {
		reqURL += "?" + encoded
	}

	c.logger.Debug("Fetching rate quote", map[string]interface{}{
		"path": path,
	})

	var (
		resp *http.Response
		err  error
	)

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Add("Accept", "application/json")

		resp, err = c.httpClient.Do(req)
		if err == nil {
			break
		}

		if attempt < c.maxRetries {
			backoffTime := c.backoff(attempt)
			c.logger.Warn("Request failed, retrying", map[string]interface{}{
				"attempt":     attempt,
				"max_retries": c.maxRetries,
				"backoff":     backoffTime.String(),
				"error":       err.Error(),
			})

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("failed to execute request: %w", ctx.Err())
			case <-time.After(backoffTime):
			}
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to execute request after %d attempts: %w", c.maxRetries, err)
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Error closing response body", map[string]interface{}{
				"error": closeErr.Error(),
			})
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		return nil, ErrUnauthorized
	case http.StatusBadRequest:
		return nil, fmt.Errorf("%w: %s", ErrInvalidEndpoint, path)
	default:
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body)), URL: reqURL}
	}

	var quote entity.RateQuote
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &quote, nil
}
