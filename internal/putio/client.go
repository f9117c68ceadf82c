package putio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the put.io v2 API root.
const DefaultBaseURL = "https://api.put.io/v2"

// DefaultUserAgent is sent when the caller does not configure one.
const DefaultUserAgent = "putiodown/0.1"

// Retry and backoff constants.
const (
	maxRetries     = 5
	baseBackoff    = 1 * time.Second
	maxBackoff     = 60 * time.Second
	backoffFactor  = 2.0
	jitterFraction = 0.25
)

// maxErrorBody caps how much of an error response is kept for messages.
const maxErrorBody = 4096

// TokenSource provides the put.io access token for each request.
type TokenSource interface {
	Token() (string, error)
}

// Client is an HTTP client for the put.io API. It handles request
// construction, authentication, retry with exponential backoff, and error
// classification.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	logger     *slog.Logger
	userAgent  string
	perPage    int

	// sleepFunc waits between retries. Tests override it to avoid delays.
	sleepFunc func(ctx context.Context, d time.Duration) error
}

// NewClient creates a put.io API client. baseURL is typically
// DefaultBaseURL; an empty userAgent selects DefaultUserAgent.
func NewClient(baseURL string, httpClient *http.Client, token TokenSource, logger *slog.Logger, userAgent string) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		token:      token,
		logger:     logger,
		userAgent:  userAgent,
		perPage:    defaultPerPage,
		sleepFunc:  timeSleep,
	}
}

// SetPerPage sets the page size used by ListChildren. Values outside
// 1..maxPerPage are clamped.
func (c *Client) SetPerPage(n int) {
	c.perPage = min(max(n, 1), maxPerPage)
}

// Do executes a request against the API. path is appended to the base URL
// and may carry a query string. A non-nil form is sent as an
// application/x-www-form-urlencoded body. The caller closes the response
// body on success.
func (c *Client) Do(ctx context.Context, method, path string, form url.Values) (*http.Response, error) {
	var body string
	if form != nil {
		body = form.Encode()
	}

	var attempt int
	for {
		// Token errors are returned without retrying.
		tok, err := c.token.Token()
		if err != nil {
			return nil, fmt.Errorf("putio: obtaining token: %w", err)
		}

		resp, err := c.doOnce(ctx, method, c.baseURL+path, tok, body, form != nil)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("putio: request canceled: %w", ctx.Err())
			}

			if attempt < maxRetries {
				backoff := c.calcBackoff(attempt)
				c.logger.Warn("retrying after network error",
					slog.String("method", method),
					slog.String("path", path),
					slog.Int("attempt", attempt+1),
					slog.Duration("backoff", backoff),
					slog.String("error", err.Error()),
				)

				if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
					return nil, fmt.Errorf("putio: request canceled: %w", sleepErr)
				}

				attempt++

				continue
			}

			return nil, fmt.Errorf("putio: %s %s failed after %d retries: %w", method, path, maxRetries, err)
		}

		if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
			c.logger.Debug("request succeeded",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
			)

			return resp, nil
		}

		errBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()

		if readErr != nil {
			errBody = []byte("(failed to read response body)")
		}

		if isRetryable(resp.StatusCode) && attempt < maxRetries {
			backoff := c.retryBackoff(resp, attempt)
			c.logger.Warn("retrying after HTTP error",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempt", attempt+1),
				slog.Duration("backoff", backoff),
			)

			if err := c.sleepFunc(ctx, backoff); err != nil {
				return nil, fmt.Errorf("putio: request canceled: %w", err)
			}

			attempt++

			continue
		}

		if attempt > 0 {
			c.logger.Error("request failed after retries",
				slog.String("method", method),
				slog.String("path", path),
				slog.Int("status", resp.StatusCode),
				slog.Int("attempts", attempt+1),
			)
		}

		return nil, newAPIError(resp.StatusCode, errBody)
	}
}

// errorResponse is the JSON body put.io returns with failed requests.
type errorResponse struct {
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: status,
		Message:    string(body),
		Err:        classifyStatus(status),
	}

	var er errorResponse
	if json.Unmarshal(body, &er) == nil && er.ErrorType != "" {
		apiErr.ErrorType = er.ErrorType
		if er.ErrorMessage != "" {
			apiErr.Message = er.ErrorMessage
		}
	}

	return apiErr
}

// doOnce executes a single HTTP request (no retry).
func (c *Client) doOnce(ctx context.Context, method, url, tok, body string, isForm bool) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if isForm {
		reader = strings.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("Authorization", "token "+tok)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if isForm {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return c.httpClient.Do(req)
}

// getJSON performs a GET and decodes the JSON response into v.
func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	return c.doJSON(ctx, http.MethodGet, path, nil, v)
}

// doJSON performs a request and decodes the JSON response into v.
func (c *Client) doJSON(ctx context.Context, method, path string, form url.Values, v any) error {
	resp, err := c.Do(ctx, method, path, form)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("putio: decoding %s response: %w", path, err)
	}

	return nil
}

// retryBackoff returns the backoff duration for a retryable response.
// For 429 responses with a Retry-After header, that value is used.
func (c *Client) retryBackoff(resp *http.Response, attempt int) time.Duration {
	if resp.StatusCode == http.StatusTooManyRequests {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
				return time.Duration(seconds) * time.Second
			}
		}
	}

	return c.calcBackoff(attempt)
}

// calcBackoff computes exponential backoff with ±25% jitter.
func (c *Client) calcBackoff(attempt int) time.Duration {
	backoff := float64(baseBackoff) * math.Pow(backoffFactor, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}

	jitter := backoff * jitterFraction * (rand.Float64()*2 - 1) //nolint:gosec // jitter does not need crypto rand
	backoff += jitter

	return time.Duration(backoff)
}

// timeSleep waits for the given duration or until the context is canceled.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
