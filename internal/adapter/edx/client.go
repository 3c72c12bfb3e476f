// Package edx fetches raw course structure documents from the edX content
// API. Authentication and pagination are handled upstream of this service;
// the client performs a single authenticated-by-proxy GET per course.
package edx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/heartmarshall/coursesync-backend/internal/config"
	"github.com/heartmarshall/coursesync-backend/internal/domain"
)

// Client fetches course structure documents over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client from EdxConfig.
func NewClient(cfg config.EdxConfig, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger.With("adapter", "edx"),
	}
}

// NewClientWithURL creates a Client with a custom base URL (for testing).
func NewClientWithURL(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        logger.With("adapter", "edx"),
	}
}

// FetchCourseStructure fetches the raw nested course document for a course.
// Returns domain.ErrNotFound for HTTP 404.
// Retries once on 5xx or network errors with a short backoff.
func (c *Client) FetchCourseStructure(ctx context.Context, courseKey string) (map[string]any, error) {
	reqURL := c.baseURL + "/course_structures/" + url.PathEscape(courseKey)

	c.log.DebugContext(ctx, "edx request", slog.String("course_key", courseKey))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("edx: create request: %w", err)
	}

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		c.log.ErrorContext(ctx, "edx request failed",
			slog.String("course_key", courseKey),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("edx: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("edx: course %s: %w", courseKey, domain.ErrNotFound)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("edx: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("edx: read body: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("edx: decode json: %w", err)
	}

	c.log.DebugContext(ctx, "edx response",
		slog.String("course_key", courseKey),
		slog.Int("status", resp.StatusCode),
	)

	return doc, nil
}

// doWithRetry performs the request, retrying once on 5xx responses or
// transport errors with a 500ms backoff.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err == nil && resp.StatusCode < http.StatusInternalServerError {
		return resp, nil
	}

	if resp != nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}

	select {
	case <-time.After(500 * time.Millisecond):
	case <-ctx.Done():
		if err != nil {
			return nil, errors.Join(err, ctx.Err())
		}
		return nil, ctx.Err()
	}

	return c.httpClient.Do(req)
}
