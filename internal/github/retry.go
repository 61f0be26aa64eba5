package github

import (
	"context"
	"errors"
	"math"
	"net"
	"net/http"
	"time"
)

const (
	maxRetries = 3
	baseDelay  = 500 * time.Millisecond
	maxDelay   = 10 * time.Second
)

func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

func backoffDelay(attempt int) time.Duration {
	return min(time.Duration(float64(baseDelay)*math.Pow(2, float64(attempt))), maxDelay)
}

// doRequestWithRetry performs the request, retrying transient network
// failures and 5xx responses with capped exponential backoff. Rate-limit
// responses are not retried here: quota exhaustion needs the caller's
// remediation path, not more requests.
func doRequestWithRetry(ctx context.Context, client *http.Client, req *http.Request) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffDelay(attempt - 1)):
			}
		}

		resp, err := client.Do(req.Clone(ctx))
		if err != nil {
			lastErr = err
			if !isRetryable(err) {
				return nil, err
			}
			continue
		}

		if isRetryableStatus(resp.StatusCode) && attempt < maxRetries {
			resp.Body.Close()
			lastErr = errors.New(http.StatusText(resp.StatusCode))
			continue
		}

		return resp, nil
	}

	return nil, lastErr
}
