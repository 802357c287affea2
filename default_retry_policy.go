package acsemail

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// DefaultRetryPolicy is the retry condition installed when the caller
// opts in via [WithRetryCount]; with the default retry count of zero it
// is never consulted. It retries on HTTP 408, 429, and 5xx responses and
// on transient connection errors. It does not retry on context
// cancellation, deadline exceeded, or DNS resolution failures.
//
// Supply a custom function via [WithRetryPolicy] to override this
// behaviour.
func DefaultRetryPolicy(r *resty.Response, err error) bool {
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return false
		}

		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return false
		}

		// Other connection errors are worth another attempt.
		return true
	}

	switch {
	case r.StatusCode() == http.StatusRequestTimeout:
		return true
	case r.StatusCode() == http.StatusTooManyRequests:
		return true
	case r.StatusCode() >= http.StatusInternalServerError:
		return true
	}

	return false
}
