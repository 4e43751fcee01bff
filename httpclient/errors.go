package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Kind classifies a failed request.
type Kind string

const (
	KindTimeout    Kind = "timeout"
	KindConnection Kind = "connection"
	KindRequest    Kind = "request"
	KindNotFound   Kind = "not_found"
	KindRateLimit  Kind = "rate_limit"
	KindRejected   Kind = "rejected"
	KindServer     Kind = "server"
)

// retryableKinds are the failures a release endpoint may recover from.
var retryableKinds = map[Kind]bool{
	KindTimeout:    true,
	KindConnection: true,
	KindRateLimit:  true,
	KindServer:     true,
}

// Error is a classified request failure.
type Error struct {
	Kind Kind
	// Status is the HTTP status, 0 when no response arrived.
	Status int
	// Body is at most the first few KB of the error response.
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Status > 0:
		return fmt.Sprintf("httpclient: %s: HTTP %d %s", e.Kind, e.Status, http.StatusText(e.Status))
	case e.Err != nil:
		return fmt.Sprintf("httpclient: %s: %v", e.Kind, e.Err)
	default:
		return "httpclient: " + string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether repeating the request may succeed.
func (e *Error) Retryable() bool { return retryableKinds[e.Kind] }

// transportError classifies a failure before any response arrived. A
// request whose context ended is a timeout.
func transportError(ctx context.Context, err error) *Error {
	var netErr net.Error
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindConnection, Err: err}
}

// statusError classifies a response status. It returns nil for 2xx and 3xx.
func statusError(status int, body []byte) *Error {
	var kind Kind
	switch {
	case status < 400:
		return nil
	case status == http.StatusNotFound:
		kind = KindNotFound
	case status == http.StatusTooManyRequests:
		kind = KindRateLimit
	case status < 500:
		kind = KindRejected
	default:
		kind = KindServer
	}
	return &Error{Kind: kind, Status: status, Body: body}
}

func kindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func isKind(err error, k Kind) bool {
	got, ok := kindOf(err)
	return ok && got == k
}

// IsTimeout reports a request that ran out of time.
func IsTimeout(err error) bool { return isKind(err, KindTimeout) }

// IsConnection reports a request that never got a response.
func IsConnection(err error) bool { return isKind(err, KindConnection) }

// IsNotFound reports a 404.
func IsNotFound(err error) bool { return isKind(err, KindNotFound) }

// IsRateLimit reports a 429.
func IsRateLimit(err error) bool { return isKind(err, KindRateLimit) }

// IsServerError reports a 5xx.
func IsServerError(err error) bool { return isKind(err, KindServer) }

// IsRetryable is the retry predicate used for manifest requests.
func IsRetryable(err error) bool {
	k, ok := kindOf(err)
	return ok && retryableKinds[k]
}
