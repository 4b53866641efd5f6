// Package feed retrieves raw datalogger files from the station network and
// caches their text for the life of the process.
package feed

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/landslide-feed-etl/internal/domain"
	"golang.org/x/time/rate"
)

// maxFeedBytes bounds a single feed body. Daily tables stay well under 1 MiB.
const maxFeedBytes = 16 << 20

// Source returns the raw text of a feed file.
type Source interface {
	Fetch(ctx context.Context, fileName string) (string, error)
}

// StatusError reports a non-2xx response from the feed server.
type StatusError struct {
	FileName   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: status %d", e.FileName, e.StatusCode)
}

// Unwrap classifies every bad status as a network failure.
func (e *StatusError) Unwrap() error { return domain.ErrNetwork }

// Client fetches feed files over HTTP from a base directory URL.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxBytes   int64
	logger     *slog.Logger
}

// NewClient creates a feed client. timeout bounds each request; a positive
// requestsPerSecond throttles outgoing requests across all callers.
func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64, logger *slog.Logger) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBytes: maxFeedBytes,
		logger:   logger,
	}
	if requestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}
	return c
}

// Fetch downloads fileName from the base URL. Transport failures, non-2xx
// responses, and bodies over the size limit are returned wrapping
// domain.ErrNetwork.
func (c *Client) Fetch(ctx context.Context, fileName string) (string, error) {
	u, err := url.JoinPath(c.baseURL, fileName)
	if err != nil {
		return "", fmt.Errorf("build feed url for %s: %w", fileName, err)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("fetch %s: %w: %w", fileName, domain.ErrNetwork, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w: %w", fileName, domain.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return "", &StatusError{FileName: fileName, StatusCode: resp.StatusCode}
	}

	// Read one byte past the limit so an oversized body is rejected rather
	// than truncated to a partial last row.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w: %w", fileName, domain.ErrNetwork, err)
	}
	if int64(len(body)) > c.maxBytes {
		return "", fmt.Errorf("read %s: %w: body exceeds %d bytes", fileName, domain.ErrNetwork, c.maxBytes)
	}

	c.logger.Debug("feed fetched", "file", fileName, "bytes", len(body))
	return string(body), nil
}
