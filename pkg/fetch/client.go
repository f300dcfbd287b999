package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/errors"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/logger"
	"github.com/Alessandro201/bulk-downloader-for-reddit/pkg/models"
)

// Client retrieves resource bytes over HTTP. It classifies failures so
// the pipeline can tell rate limiting apart from everything else.
type Client struct {
	httpClient *http.Client
	userAgent  string
	logger     logger.Logger
}

// NewClient creates a resource download client. The timeout bounds the
// whole request unless a shorter context deadline applies.
func NewClient(timeout time.Duration, userAgent string, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: userAgent,
		logger:    log,
	}
}

// Download retrieves the bytes at url. Status 429 comes back as a
// retryable rate-limit error; every other failure is classified as a
// remote protocol error carrying the status code when one exists.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrapf(errors.KindRemoteProtocol, err, "failed to create request for %s", url)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.DebugWithFields("downloading resource", map[string]interface{}{
		"url": url,
	})

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.DebugWithFields("resource request failed", map[string]interface{}{
			"url":      url,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errors.Wrapf(errors.KindRemoteProtocol, err, "request to %s failed", url)
	}
	defer resp.Body.Close()

	logger.LogRequest(http.MethodGet, url, resp.StatusCode, duration)

	if err := classifyStatus(resp.StatusCode, url); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(errors.KindRemoteProtocol, err, "failed to read body of %s", url)
	}
	return body, nil
}

// Fetcher returns a lazy fetch function bound to url, in the shape
// resources expect.
func (c *Client) Fetcher(url string) models.FetchFunc {
	return func(ctx context.Context) ([]byte, error) {
		return c.Download(ctx, url)
	}
}

func classifyStatus(status int, url string) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusTooManyRequests:
		return errors.WithCode(errors.KindTransientRemote, status, fmt.Sprintf("rate limited fetching %s", url))
	case status == http.StatusNotFound:
		return errors.WithCode(errors.KindRemoteProtocol, status, fmt.Sprintf("resource not found: %s", url))
	case status >= 500:
		return errors.WithCode(errors.KindRemoteProtocol, status, fmt.Sprintf("server error fetching %s", url))
	default:
		return errors.WithCode(errors.KindRemoteProtocol, status, fmt.Sprintf("unexpected status fetching %s", url))
	}
}
