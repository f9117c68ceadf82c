package putio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/tonimelisma/putiodown/internal/walk"
)

// ErrNoDownloadURL is returned when put.io answers a URL request without one.
var ErrNoDownloadURL = errors.New("putio: no download URL")

// Download streams the content of a file to w and returns the number of
// bytes written. It first obtains a pre-signed URL, then streams directly
// from it. Only the request/response cycle is retried; a stream that breaks
// midway is reported to the caller, which owns the partial output.
func (c *Client) Download(ctx context.Context, id walk.FileID, w io.Writer) (int64, error) {
	downloadURL, err := c.FileURL(ctx, id)
	if err != nil {
		return 0, err
	}

	resp, err := c.doPreSigned(ctx, downloadURL)
	if err != nil {
		return 0, fmt.Errorf("putio: downloading %d: %w", id, err)
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		c.logger.Error("streaming download content failed",
			slog.Int64("file_id", int64(id)),
			slog.Int64("bytes_before_error", n),
			slog.String("error", err.Error()),
		)

		return n, fmt.Errorf("putio: streaming %d: %w", id, err)
	}

	c.logger.Debug("download complete",
		slog.Int64("file_id", int64(id)),
		slog.Int64("bytes_written", n),
	)

	return n, nil
}

// doPreSigned GETs a pre-signed URL with the same retry policy as Do but
// without the Authorization header. The URL is never logged.
func (c *Client) doPreSigned(ctx context.Context, downloadURL string) (*http.Response, error) {
	var attempt int
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("creating download request: %w", err)
		}

		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)

		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, fmt.Errorf("download canceled: %w", ctx.Err())
			}
		case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
			return resp, nil
		default:
			resp.Body.Close()

			if !isRetryable(resp.StatusCode) {
				return nil, &APIError{
					StatusCode: resp.StatusCode,
					Message:    http.StatusText(resp.StatusCode),
					Err:        classifyStatus(resp.StatusCode),
				}
			}

			err = fmt.Errorf("HTTP %d", resp.StatusCode)
		}

		if attempt >= maxRetries {
			return nil, fmt.Errorf("download failed after %d retries: %w", maxRetries, err)
		}

		backoff := c.calcBackoff(attempt)
		c.logger.Warn("retrying download request",
			slog.Int("attempt", attempt+1),
			slog.Duration("backoff", backoff),
			slog.String("error", err.Error()),
		)

		if sleepErr := c.sleepFunc(ctx, backoff); sleepErr != nil {
			return nil, fmt.Errorf("download canceled: %w", sleepErr)
		}

		attempt++
	}
}
