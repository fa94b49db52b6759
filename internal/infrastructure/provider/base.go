package provider

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/arabella/vidforge/internal/metrics"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// httpStatusError tags an HTTP response so retry policy can distinguish
// a non-retryable 4xx from a retryable 5xx/network failure.
type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return http.StatusText(e.StatusCode) + ": " + e.Body
}

func isClientError(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 400 && statusErr.StatusCode < 500
	}
	return false
}

// baseAdapter is embedded by every provider adapter. It wraps HTTP calls
// with capped exponential backoff, a circuit breaker, and a per-call
// timeout, per the retry contract every adapter shares.
type baseAdapter struct {
	name       string
	httpClient *http.Client
	logger     *zap.Logger
	apiKey     string
	baseURL    string
	breaker    *gobreaker.CircuitBreaker
	timeout    time.Duration
	retryMax   int
	retryWait  time.Duration
}

// baseAdapterConfig configures a new baseAdapter.
type baseAdapterConfig struct {
	Name      string
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	RetryMax  int
	RetryWait time.Duration
	Logger    *zap.Logger
}

func newBaseAdapter(cfg baseAdapterConfig) *baseAdapter {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			cfg.Logger.Warn("provider circuit breaker state change",
				zap.String("provider", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	}

	return &baseAdapter{
		name:       cfg.Name,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     cfg.Logger,
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		breaker:    gobreaker.NewCircuitBreaker(settings),
		timeout:    cfg.Timeout,
		retryMax:   cfg.RetryMax,
		retryWait:  cfg.RetryWait,
	}
}

// call executes fn under the circuit breaker with capped exponential
// backoff. fn is expected to wrap *httpStatusError around non-2xx
// responses so the retry policy can abort on 4xx.
func (b *baseAdapter) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	defer func() {
		metrics.ProviderAdapterLatency.WithLabelValues(b.name, operation).Observe(time.Since(start).Seconds())
	}()

	_, err := b.breaker.Execute(func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, b.timeout)
		defer cancel()

		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = b.retryWait
		bo.Multiplier = 2
		bo.MaxElapsedTime = b.timeout
		boCtx := backoff.WithContext(bo, ctx)

		attempts := 0
		operation := func() error {
			attempts++
			err := fn(ctx)
			if err == nil {
				return nil
			}
			if isClientError(err) {
				return backoff.Permanent(err)
			}
			if attempts >= b.retryMax {
				return backoff.Permanent(err)
			}
			return err
		}

		return nil, backoff.Retry(operation, boCtx)
	})
	return err
}
