package collect

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	userAgent   = "aiscout/1.0 (news aggregator)"
	maxBodySize = 2 << 20
)

// httpError is a non-2xx status from an upstream. 5xx and 429 are transient,
// other 4xx are permanent.
type httpError struct {
	code int
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP %d %s", e.code, http.StatusText(e.code))
}

// isTransient reports whether a fetch error is worth retrying. Timeouts,
// connection resets, and 5xx/429 responses are; other status codes and
// malformed payloads are not.
func isTransient(err error) bool {
	var he *httpError
	if errors.As(err, &he) {
		return he.code >= 500 || he.code == http.StatusTooManyRequests
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return true
	}
	var ue *url.Error
	return errors.As(err, &ue)
}

// fetchBytes GETs a URL through the admission gate with a per-attempt
// timeout and bounded exponential-backoff retry on transient failures.
func (c *Collector) fetchBytes(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing URL: %w", err)
	}
	host := strings.ToLower(u.Host)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.cfg.RetryDelay() << (attempt - 1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.acquire(ctx, host); err != nil {
			return nil, err
		}
		data, err := c.doRequest(ctx, rawURL)
		c.limiter.release(host)

		if err == nil {
			return data, nil
		}
		lastErr = err

		// The batch deadline is not a per-request hiccup.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !isTransient(err) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Collector) doRequest(ctx context.Context, rawURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, "GET", rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, &httpError{code: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading body: %w", err)
	}
	return data, nil
}

// fetchJSON fetches and decodes a JSON payload into v. A body that does not
// decode is a permanent failure for this source.
func (c *Collector) fetchJSON(ctx context.Context, rawURL string, v any) error {
	data, err := c.fetchBytes(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding JSON from %s: %w", rawURL, err)
	}
	return nil
}
