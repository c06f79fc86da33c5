package httpclient

import (
	"context"
	"errors"
	"net"
	"net/url"
	"time"

	"github.com/meza/vintage-story-mod-manager/internal/i18n"
)

// Request budgets for the mod database: JSON lookups are small, archives are not.
const (
	DefaultMetadataTimeout = 15 * time.Second
	DefaultDownloadTimeout = 5 * time.Minute
)

// TimeoutError reports a request that ran out of time. URL is empty when the
// deadline passed before any request was sent.
type TimeoutError struct {
	URL string
	Err error
}

func (e *TimeoutError) Error() string {
	if e.URL == "" {
		return i18n.T("error.network_timeout")
	}
	return i18n.T("error.network_timeout_url", i18n.Tvars{Data: &i18n.TData{"url": e.URL}})
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsTimeoutError matches passed deadlines and network errors that say they timed out.
func IsTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// WrapTimeoutError returns err unchanged unless it is a timeout, in which case
// the result is a *TimeoutError naming the request URL when one is known.
func WrapTimeoutError(err error) error {
	if !IsTimeoutError(err) {
		return err
	}
	var existing *TimeoutError
	if errors.As(err, &existing) {
		return existing
	}
	wrapped := &TimeoutError{Err: err}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		wrapped.URL = redactQuery(urlErr.URL)
	}
	return wrapped
}

// redactQuery drops the query string so search terms stay out of error output.
func redactQuery(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String()
}

func WithMetadataTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultMetadataTimeout)
}

func WithDownloadTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, DefaultDownloadTimeout)
}
