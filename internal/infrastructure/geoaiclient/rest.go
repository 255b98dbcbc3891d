package geoaiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
)

const (
	defaultTimeout       = 10 * time.Second
	defaultRetryAttempts = 3
	defaultRetryDelay    = 200 * time.Millisecond
)

// StatusError is returned when the backend answers with a non-200 status.
type StatusError struct {
	Path       string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GeoAI backend returned status %d for %s", e.StatusCode, e.Path)
}

type Options struct {
	Timeout       time.Duration
	RetryAttempts uint
	RetryDelay    time.Duration
	// RateLimit is the maximum requests per second; 0 disables limiting.
	RateLimit float64
	Logger    *zap.Logger
}

type HTTPClient struct {
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
	attempts uint
	delay    time.Duration
	logger   *zap.Logger
}

func NewHTTPClient(baseURL string, opts Options) *HTTPClient {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = defaultRetryAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}

	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: opts.Timeout,
		},
		limiter:  rate.NewLimiter(limit, 1),
		attempts: opts.RetryAttempts,
		delay:    opts.RetryDelay,
		logger:   opts.Logger,
	}
}

func (c *HTTPClient) GetChange(ctx context.Context, period model.Period) (*model.ChangeResponse, error) {
	var resp model.ChangeResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/change/%d/%d", period.Start, period.End), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetLULC(ctx context.Context, year int) (*model.LULCResponse, error) {
	var resp model.LULCResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/lulc/%d", year), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetConfidence(ctx context.Context, year int) (*model.ConfidenceSummary, error) {
	var resp model.ConfidenceSummary
	if err := c.getJSON(ctx, fmt.Sprintf("/confidence/%d", year), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetConfidenceByClass(ctx context.Context, year int) (*model.ConfidenceByClass, error) {
	var resp model.ConfidenceByClass
	if err := c.getJSON(ctx, fmt.Sprintf("/confidence/lulc/%d", year), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetChangeConfidence(ctx context.Context, period model.Period) (*model.ChangeConfidence, error) {
	var resp model.ChangeConfidence
	if err := c.getJSON(ctx, fmt.Sprintf("/confidence/change/%d/%d", period.Start, period.End), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) GetMapBounds(ctx context.Context) (*model.MapBounds, error) {
	var resp struct {
		Bounds model.MapBounds `json:"bounds"`
	}
	if err := c.getJSON(ctx, "/map/bounds", &resp); err != nil {
		return nil, err
	}
	return &resp.Bounds, nil
}

// getJSON performs a GET and decodes the body into out.
// Transport failures, 429 and 5xx are retried; other statuses and decode errors are not.
func (c *HTTPClient) getJSON(ctx context.Context, path string, out any) error {
	return retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return retry.Unrecoverable(fmt.Errorf("rate limiter: %w", err))
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to create GeoAI request: %w", err))
			}
			req.Header.Set("Accept", "application/json")

			resp, err := c.client.Do(req)
			if err != nil {
				return fmt.Errorf("GeoAI request failed: %w", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				statusErr := &StatusError{Path: path, StatusCode: resp.StatusCode}
				if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
					return statusErr
				}
				return retry.Unrecoverable(statusErr)
			}

			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return retry.Unrecoverable(fmt.Errorf("failed to decode GeoAI response for %s: %w", path, err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying GeoAI request", zap.String("path", path), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}
