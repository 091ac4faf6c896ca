package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/i474232898/irrigation-advisor/internal/metrics"
)

// BackoffConfig controls exponential backoff behaviour.
type BackoffConfig struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsedTime  time.Duration
}

// HTTPClientConfig bundles HTTP client and resilience settings.
type HTTPClientConfig struct {
	Client  *http.Client
	Backoff BackoffConfig
	// RequestsPerMinute caps outbound calls per provider. Zero disables the limit.
	RequestsPerMinute int
}

// DefaultHTTPConfig returns the settings used by the service binary.
func DefaultHTTPConfig(client *http.Client, requestsPerMinute int) HTTPClientConfig {
	return HTTPClientConfig{
		Client: client,
		Backoff: BackoffConfig{
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
			MaxElapsedTime:  30 * time.Second,
		},
		RequestsPerMinute: requestsPerMinute,
	}
}

var (
	errRateLimited  = errors.New("rate limited")
	errServerError  = errors.New("server error")
	errUnexpected   = errors.New("unexpected status code")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
	errNoAPIKey     = errors.New("api key is not configured")
)

// resilientClient wraps outbound provider calls with a rate limiter, a
// circuit breaker and exponential backoff retries.
type resilientClient struct {
	provider string
	cfg      HTTPClientConfig
	limiter  *rate.Limiter
	circuit  *gobreaker.CircuitBreaker
}

func newResilientClient(provider string, cfg HTTPClientConfig) *resilientClient {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &resilientClient{
		provider: provider,
		cfg:      cfg,
		limiter:  rate.NewLimiter(limit, 1),
		circuit: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        provider,
			MaxRequests: 5,
			Interval:    1 * time.Minute,
			Timeout:     2 * time.Minute,
		}),
	}
}

func (c *resilientClient) newBackOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	if c.cfg.Backoff.InitialInterval > 0 {
		bo.InitialInterval = c.cfg.Backoff.InitialInterval
	}
	if c.cfg.Backoff.MaxInterval > 0 {
		bo.MaxInterval = c.cfg.Backoff.MaxInterval
	}
	if c.cfg.Backoff.MaxElapsedTime > 0 {
		bo.MaxElapsedTime = c.cfg.Backoff.MaxElapsedTime
	}
	return backoff.WithContext(bo, ctx)
}

// getJSON performs a GET against rawURL and decodes the JSON body into out.
// endpoint only labels metrics.
func (c *resilientClient) getJSON(ctx context.Context, endpoint, rawURL string, out any) error {
	if c.cfg.Client == nil {
		return errNoHTTPClient
	}

	var body []byte
	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		start := time.Now()
		result, err := c.circuit.Execute(func() (interface{}, error) {
			return c.do(ctx, rawURL)
		})
		metrics.ProviderLatency.WithLabelValues(c.provider, endpoint).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.ProviderCallsTotal.WithLabelValues(c.provider, endpoint, statusLabel(err)).Inc()
			switch {
			case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
				return backoff.Permanent(fmt.Errorf("%w: %v", errCircuitOpen, err))
			case errors.Is(err, errRateLimited), errors.Is(err, errServerError):
				return err
			case ctx.Err() != nil:
				return backoff.Permanent(ctx.Err())
			case errors.Is(err, errUnexpected):
				return backoff.Permanent(err)
			default:
				// Transport errors are worth another attempt.
				return err
			}
		}

		metrics.ProviderCallsTotal.WithLabelValues(c.provider, endpoint, "ok").Inc()
		body = result.([]byte)
		return nil
	}

	if err := backoff.Retry(operation, c.newBackOff(ctx)); err != nil {
		return fmt.Errorf("%s %s: %w", c.provider, endpoint, err)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", c.provider, endpoint, err)
	}
	return nil
}

func (c *resilientClient) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.cfg.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: %d: %s", errUnexpected, resp.StatusCode, string(b))
	}

	return io.ReadAll(resp.Body)
}

func statusLabel(err error) string {
	switch {
	case errors.Is(err, errRateLimited):
		return strconv.Itoa(http.StatusTooManyRequests)
	case errors.Is(err, errServerError):
		return "5xx"
	case errors.Is(err, errUnexpected):
		return "4xx"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	default:
		return "error"
	}
}

// ptr returns a pointer to v.
func ptr(v float64) *float64 {
	return &v
}

// hpaToKPa converts the hectopascals most APIs report into the kilopascals
// the engine expects.
func hpaToKPa(hpa float64) *float64 {
	if hpa <= 0 {
		return nil
	}
	return ptr(hpa / 10)
}

// msToKmh converts wind speed from m/s to km/h.
func msToKmh(ms float64) float64 {
	return ms * 3.6
}
