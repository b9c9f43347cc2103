package classify

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"

	"aiscout/internal/llm"
)

// ErrorKind categorizes a failed semantic-classifier call. Each kind maps to
// a distinct degrade action in the gateway.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindConnection  ErrorKind = "connection_error"
	KindMalformed   ErrorKind = "malformed_response"
	KindUpstream    ErrorKind = "upstream_error"
	KindRateLimited ErrorKind = "rate_limited"
	KindModel       ErrorKind = "model_error"
)

// errMalformed marks a provider response that could not be parsed into a
// classification.
var errMalformed = errors.New("malformed classifier response")

// classifyError maps a call failure onto the taxonomy. Order matters:
// timeouts surface as url.Error too, so they are tested first.
func classifyError(err error) ErrorKind {
	if errors.Is(err, errMalformed) {
		return KindMalformed
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return KindTimeout
	}

	var apiErr *llm.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return KindRateLimited
		case apiErr.StatusCode >= 500:
			return KindUpstream
		default:
			return KindModel
		}
	}

	var oe *net.OpError
	if errors.As(err, &oe) {
		return KindConnection
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return KindConnection
	}

	return KindModel
}
