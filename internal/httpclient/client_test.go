package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (roundTripper roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return roundTripper(req)
}

type trackingBody struct {
	reader *strings.Reader
	closed bool
}

func newTrackingBody(payload string) *trackingBody {
	return &trackingBody{reader: strings.NewReader(payload)}
}

func (body *trackingBody) Read(p []byte) (int, error) {
	return body.reader.Read(p)
}

func (body *trackingBody) Close() error {
	body.closed = true
	return nil
}

type errorBody struct {
	readErr  error
	closeErr error
	closed   bool
}

func (body *errorBody) Read(_ []byte) (int, error) {
	if body.readErr != nil {
		return 0, body.readErr
	}
	return 0, errors.New("EOF expected")
}

func (body *errorBody) Close() error {
	body.closed = true
	return body.closeErr
}

func newRequest(t *testing.T, url string) *http.Request {
	t.Helper()
	request, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	return request
}

func unlimitedClient(transport http.RoundTripper) *RLHTTPClient {
	client := NewRLClient(rate.NewLimiter(rate.Inf, 0))
	client.RetryConfig = &RetryConfig{MaxRetries: 3, Interval: 0}
	client.client = &http.Client{Transport: transport}
	return client
}

func TestRLHTTPClient_EnforcesRateLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := NewRLClient(rate.NewLimiter(rate.Every(200*time.Millisecond), 1))
	start := time.Now()
	for i := 0; i < 3; i++ {
		response, err := client.Do(newRequest(t, server.URL))
		require.NoError(t, err)
		assert.NoError(t, response.Body.Close())
	}
	assert.GreaterOrEqual(t, time.Since(start), 400*time.Millisecond)
}

func TestRLHTTPClient_RetriesServerErrorsAndTooManyRequests(t *testing.T) {
	var calls int32
	statuses := []int{http.StatusInternalServerError, http.StatusTooManyRequests, http.StatusOK}
	client := unlimitedClient(roundTripFunc(func(_ *http.Request) (*http.Response, error) {
		index := atomic.AddInt32(&calls, 1) - 1
		return &http.Response{StatusCode: statuses[index], Body: newTrackingBody("body"), Header: make(http.Header)}, nil
	}))

	response, err := client.Do(newRequest(t, "https://mods.example.test/api/mod/1"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRLHTTPClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	client := unlimitedClient(roundTripFunc(func(_ *http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return &http.Response{StatusCode: http.StatusNotFound, Body: newTrackingBody(""), Header: make(http.Header)}, nil
	}))

	response, err := client.Do(newRequest(t, "https://mods.example.test"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, response.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRLHTTPClient_ReturnsLastServerErrorWhenRetriesExhausted(t *testing.T) {
	client := unlimitedClient(roundTripFunc(func(_ *http.Request) (*http.Response, error) {
		return &http.Response{StatusCode: http.StatusBadGateway, Body: newTrackingBody(""), Header: make(http.Header)}, nil
	}))
	client.RetryConfig = &RetryConfig{MaxRetries: 1}

	response, err := client.Do(newRequest(t, "https://mods.example.test"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, response.StatusCode)
}

func TestRLHTTPClient_ClosesBodiesBeforeRetry(t *testing.T) {
	failed := newTrackingBody("failure")
	responses := []*http.Response{
		{StatusCode: http.StatusServiceUnavailable, Body: failed, Header: make(http.Header)},
		{StatusCode: http.StatusOK, Body: newTrackingBody("ok"), Header: make(http.Header)},
	}
	var calls int32
	client := unlimitedClient(roundTripFunc(func(_ *http.Request) (*http.Response, error) {
		return responses[atomic.AddInt32(&calls, 1)-1], nil
	}))

	response, err := client.Do(newRequest(t, "https://mods.example.test"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.True(t, failed.closed)
}

func TestRLHTTPClient_RetriesWhenDrainFails(t *testing.T) {
	broken := &errorBody{readErr: errors.New("read failed")}
	responses := []*http.Response{
		{StatusCode: http.StatusInternalServerError, Body: broken, Header: make(http.Header)},
		{StatusCode: http.StatusOK, Body: newTrackingBody("ok"), Header: make(http.Header)},
	}
	var calls int32
	client := unlimitedClient(roundTripFunc(func(_ *http.Request) (*http.Response, error) {
		return responses[atomic.AddInt32(&calls, 1)-1], nil
	}))

	response, err := client.Do(newRequest(t, "https://mods.example.test"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, response.StatusCode)
	assert.True(t, broken.closed)
}

func TestRLHTTPClient_AppliesDefaultHeadersWithoutOverriding(t *testing.T) {
	var seen http.Header
	client := unlimitedClient(roundTripFunc(func(req *http.Request) (*http.Response, error) {
		seen = req.Header.Clone()
		return &http.Response{StatusCode: http.StatusOK, Body: newTrackingBody(""), Header: make(http.Header)}, nil
	}))
	client.Headers.Set("User-Agent", "vintage-story-mod-manager/test")
	client.Headers.Set("Accept", "application/json")

	request := newRequest(t, "https://mods.example.test")
	request.Header.Set("Accept", "application/zip")
	_, err := client.Do(request)
	require.NoError(t, err)

	assert.Equal(t, "vintage-story-mod-manager/test", seen.Get("User-Agent"))
	assert.Equal(t, "application/zip", seen.Get("Accept"))
}

func TestNewDefaultClient_SetsUserAgentAndLimiter(t *testing.T) {
	client := NewDefaultClient("vintage-story-mod-manager/1.0.0")
	assert.Equal(t, "vintage-story-mod-manager/1.0.0", client.Headers.Get("User-Agent"))
	assert.NotNil(t, client.Ratelimiter)
	assert.Equal(t, defaultBurst, client.Ratelimiter.Burst())
}

func TestRLHTTPClient_RateLimitBurstError(t *testing.T) {
	client := NewRLClient(rate.NewLimiter(1, 0))
	client.RetryConfig = NoRetries()

	response, err := client.Do(newRequest(t, "https://mods.example.test"))
	assert.Nil(t, response)
	assert.ErrorContains(t, err, "rate limit burst exceeded")
}

func TestRLHTTPClient_TransportError(t *testing.T) {
	client := unlimitedClient(roundTripFunc(func(_ *http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("connection refused")
	}))

	response, err := client.Do(newRequest(t, "https://mods.example.test"))
	assert.Nil(t, response)
	assert.ErrorContains(t, err, "connection refused")
}

func TestRLHTTPClient_WrapsTimeouts(t *testing.T) {
	t.Run("from the limiter", func(t *testing.T) {
		client := NewRLClient(rate.NewLimiter(rate.Inf, 0))
		ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
		defer cancel()

		request, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://mods.example.test", nil)
		require.NoError(t, err)

		_, err = client.Do(request)
		var timeoutErr *TimeoutError
		assert.ErrorAs(t, err, &timeoutErr)
	})

	t.Run("from the transport", func(t *testing.T) {
		client := unlimitedClient(roundTripFunc(func(_ *http.Request) (*http.Response, error) {
			return nil, context.DeadlineExceeded
		}))

		_, err := client.Do(newRequest(t, "https://mods.example.test"))
		var timeoutErr *TimeoutError
		assert.ErrorAs(t, err, &timeoutErr)
	})

	t.Run("while waiting to retry", func(t *testing.T) {
		client := unlimitedClient(roundTripFunc(func(_ *http.Request) (*http.Response, error) {
			return &http.Response{StatusCode: http.StatusInternalServerError, Body: newTrackingBody(""), Header: make(http.Header)}, nil
		}))
		client.RetryConfig = &RetryConfig{MaxRetries: 2, Interval: time.Minute}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		request, err := http.NewRequestWithContext(ctx, http.MethodGet, "https://mods.example.test", nil)
		require.NoError(t, err)

		_, err = client.Do(request)
		var timeoutErr *TimeoutError
		assert.ErrorAs(t, err, &timeoutErr)
	})
}

func TestRLHTTPClientRetryConfigDefaultsAndOverrides(t *testing.T) {
	client := &RLHTTPClient{}
	assert.Equal(t, RetryConfig{MaxRetries: 3, Interval: time.Second}, client.retryConfig())

	overridden := RetryConfig{MaxRetries: 5, Interval: 2 * time.Second}
	client.RetryConfig = &overridden
	assert.Equal(t, overridden, client.retryConfig())
}

func TestDrainAndClose(t *testing.T) {
	assert.NoError(t, drainAndClose(nil))

	readErr := errors.New("read failed")
	closeErr := errors.New("close failed")
	body := &errorBody{readErr: readErr, closeErr: closeErr}

	err := drainAndClose(body)
	assert.ErrorIs(t, err, readErr)
	assert.ErrorIs(t, err, closeErr)
	assert.True(t, body.closed)
}
