package classify

import (
	"context"
	"errors"
	"net"
	"testing"

	"aiscout/internal/llm"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"malformed", errMalformed, KindMalformed},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"rate limited", &llm.APIError{StatusCode: 429}, KindRateLimited},
		{"server error", &llm.APIError{StatusCode: 503}, KindUpstream},
		{"client error", &llm.APIError{StatusCode: 400}, KindModel},
		{"connection refused", &net.OpError{Op: "dial", Err: errors.New("connection refused")}, KindConnection},
		{"unknown", errors.New("something odd"), KindModel},
	}
	for _, tt := range tests {
		if got := classifyError(tt.err); got != tt.want {
			t.Errorf("%s: classifyError = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestClassifyErrorWrapped(t *testing.T) {
	wrapped := errors.Join(errors.New("calling model"), context.DeadlineExceeded)
	if got := classifyError(wrapped); got != KindTimeout {
		t.Errorf("wrapped deadline should map to timeout, got %q", got)
	}
}
