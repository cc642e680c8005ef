package clouds

import (
	"fmt"
	"io"
	"net/http"
	"time"
)

// RetryConfig bounds the HTTP fetch retries of a file cloud. The pipeline
// core never retries; a plugin that wants retry handles it itself.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig retries three times with exponential backoff.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  500 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

// fetchWithRetry GETs url, retrying on transport errors and 5xx responses.
// The caller owns the returned body.
func fetchWithRetry(url string, cfg RetryConfig) (io.ReadCloser, error) {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	delay := cfg.InitialDelay
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(delay)
			delay = time.Duration(float64(delay) * cfg.BackoffFactor)
		}

		resp, err := http.Get(url)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("server returned %s", resp.Status)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("unexpected status %s for %s", resp.Status, url)
		}
		return resp.Body, nil
	}
	return nil, fmt.Errorf("fetching %s after %d retries: %w", url, cfg.MaxRetries, lastErr)
}
