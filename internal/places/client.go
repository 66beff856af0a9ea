// Package places is a small client for the Google Places web service. It
// passes response bodies through untouched and guards the upstream with a
// token-bucket limiter and a circuit breaker.
package places

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"bizzy/internal/middleware"
	"bizzy/internal/observability"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// Defaults used when the caller omits nearby-search parameters.
const (
	DefaultLocation = "39.9526,-75.1652"
	DefaultRadius   = "5000"
	DefaultType     = "tourist_attraction"

	DefaultPhotoMaxWidth = "400"
	DefaultBaseURL       = "https://maps.googleapis.com/maps/api/place"

	maxBodyBytes = 10 << 20
)

// ErrNotConfigured is returned by every call when no API key is set.
var ErrNotConfigured = errors.New("places: api key not configured")

// UpstreamError is a non-2xx HTTP response from Google.
type UpstreamError struct {
	StatusCode int
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("Google API responded with status: %d", e.StatusCode)
}

// Config configures a Client.
type Config struct {
	APIKey        string
	BaseURL       string
	RatePerSecond float64
	Burst         int
	Timeout       time.Duration
	HTTPClient    *http.Client
}

type response struct {
	ContentType string
	Body        []byte
}

// Client calls the Places API.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[*response]
}

// New builds a Client. A zero RatePerSecond disables outbound throttling.
func New(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		http:    httpClient,
		limiter: rate.NewLimiter(limit, burst),
		breaker: newBreaker("google-places"),
	}
}

func newBreaker(name string) *gobreaker.CircuitBreaker[*response] {
	observability.PlacesBreakerState.Set(0)
	return gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			middleware.Logger.Warn("places circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			observability.PlacesBreakerState.Set(breakerGauge(to))
		},
	})
}

func breakerGauge(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// get performs one GET against baseURL+path. Non-2xx responses and transport
// errors count as breaker failures.
func (c *Client) get(ctx context.Context, endpoint, path string, query url.Values) (*response, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	ctx, span := observability.StartClientSpan(ctx, "google-places", endpoint)
	var err error
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	if err = c.limiter.Wait(ctx); err != nil {
		observability.ObservePlaces(endpoint, "throttled", start)
		return nil, fmt.Errorf("places rate limit: %w", err)
	}

	query.Set("key", c.apiKey)
	target := c.baseURL + path + "?" + query.Encode()

	resp, err := c.breaker.Execute(func() (*response, error) {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if reqErr != nil {
			return nil, stripURL(endpoint, reqErr)
		}
		res, doErr := c.http.Do(req)
		if doErr != nil {
			return nil, stripURL(endpoint, doErr)
		}
		defer res.Body.Close()

		if res.StatusCode < 200 || res.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBodyBytes))
			return nil, &UpstreamError{StatusCode: res.StatusCode}
		}
		body, readErr := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
		if readErr != nil {
			return nil, stripURL(endpoint, readErr)
		}
		return &response{ContentType: res.Header.Get("Content-Type"), Body: body}, nil
	})

	span.SetAttributes(attribute.String("places.endpoint", endpoint))
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		observability.ObservePlaces(endpoint, "rejected", start)
	case err != nil:
		observability.ObservePlaces(endpoint, "error", start)
	default:
		observability.ObservePlaces(endpoint, "ok", start)
	}
	return resp, err
}

// stripURL drops the request URL from transport errors. The URL carries the
// API key in its query string.
func stripURL(endpoint string, err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	return fmt.Errorf("places %s: %w", endpoint, err)
}
