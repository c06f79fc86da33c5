// Package httpclient holds the rate limited, retrying HTTP client every remote call goes through.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/meza/vintage-story-mod-manager/internal/perf"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
)

// The public mod repository tolerates short bursts; anything beyond is throttled client side.
const (
	defaultRequestsPerSecond = 10
	defaultBurst             = 5
)

type Doer interface {
	Do(request *http.Request) (*http.Response, error)
}

type RetryConfig struct {
	MaxRetries int
	Interval   time.Duration
}

type RLHTTPClient struct {
	client      *http.Client
	Ratelimiter *rate.Limiter
	RetryConfig *RetryConfig
	// Headers are added to every request that does not already set them.
	Headers http.Header
}

func (client *RLHTTPClient) Do(request *http.Request) (*http.Response, error) {
	ctx, requestSpan := perf.StartSpan(request.Context(), "net.http.request",
		perf.WithAttributes(
			attribute.String("url", request.URL.String()),
			attribute.String("method", request.Method),
			attribute.String("host", request.URL.Host),
		),
	)
	defer requestSpan.End()

	client.applyHeaders(request)
	retryConfig := client.retryConfig()

	var response *http.Response
	attempts := 0
	for attempt := 0; attempt <= retryConfig.MaxRetries; attempt++ {
		var retry bool
		var err error
		attempts++
		response, retry, err = client.doAttempt(ctx, request, attempt, retryConfig)
		if err != nil {
			requestSpan.SetAttributes(
				attribute.Bool("success", false),
				attribute.String("error_type", fmt.Sprintf("%T", err)),
			)
			return nil, err
		}
		if !retry {
			break
		}
	}

	requestSpan.SetAttributes(
		attribute.Bool("success", true),
		attribute.Int("status", response.StatusCode),
		attribute.Int("attempts", attempts),
	)
	return response, nil
}

func (client *RLHTTPClient) applyHeaders(request *http.Request) {
	for key, values := range client.Headers {
		if request.Header.Get(key) != "" || len(values) == 0 {
			continue
		}
		request.Header.Set(key, values[0])
	}
}

func (client *RLHTTPClient) retryConfig() RetryConfig {
	if client.RetryConfig != nil {
		return *client.RetryConfig
	}
	return RetryConfig{
		MaxRetries: 3,
		Interval:   1 * time.Second,
	}
}

func (client *RLHTTPClient) doAttempt(ctx context.Context, request *http.Request, attempt int, retryConfig RetryConfig) (*http.Response, bool, error) {
	attemptCtx, attemptSpan := perf.StartSpan(ctx, "net.http.request.attempt",
		perf.WithAttributes(attribute.Int("attempt", attempt)),
	)
	defer attemptSpan.End()

	if err := client.waitForRateLimit(attemptCtx); err != nil {
		attemptSpan.RecordError(err)
		if IsTimeoutError(err) {
			return nil, false, WrapTimeoutError(err)
		}
		return nil, false, fmt.Errorf("rate limit burst exceeded %w", err)
	}

	response, err := client.client.Do(request.WithContext(attemptCtx))
	if err != nil {
		attemptSpan.RecordError(err)
		return nil, false, WrapTimeoutError(err)
	}

	attemptSpan.SetAttributes(attribute.Int("status", response.StatusCode))
	if !shouldRetry(response, attempt, retryConfig) {
		return response, false, nil
	}

	if drainErr := drainAndClose(response.Body); drainErr != nil {
		attemptSpan.SetAttributes(attribute.String("cleanup_error", drainErr.Error()))
	}
	if err := sleepContext(ctx, retryConfig.Interval); err != nil {
		return nil, false, WrapTimeoutError(err)
	}
	return nil, true, nil
}

func (client *RLHTTPClient) waitForRateLimit(ctx context.Context) error {
	if client.Ratelimiter == nil {
		return nil
	}
	_, waitSpan := perf.StartSpan(ctx, "net.http.ratelimit.wait")
	defer waitSpan.End()
	return client.Ratelimiter.Wait(ctx)
}

func shouldRetry(response *http.Response, attempt int, retryConfig RetryConfig) bool {
	if attempt >= retryConfig.MaxRetries {
		return false
	}
	if response.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return response.StatusCode >= 500 && response.StatusCode < 600
}

func sleepContext(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func NewRLClient(limiter *rate.Limiter) *RLHTTPClient {
	return &RLHTTPClient{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		Ratelimiter: limiter,
		Headers:     make(http.Header),
	}
}

// NewDefaultClient is the client used against the public mod repository.
func NewDefaultClient(userAgent string) *RLHTTPClient {
	client := NewRLClient(rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst))
	client.Headers.Set("User-Agent", userAgent)
	return client
}

func NoRetries() *RetryConfig {
	return &RetryConfig{
		MaxRetries: 0,
		Interval:   0,
	}
}

func drainAndClose(body io.ReadCloser) error {
	if body == nil {
		return nil
	}

	_, readErr := io.Copy(io.Discard, body)
	closeErr := body.Close()
	return errors.Join(readErr, closeErr)
}
