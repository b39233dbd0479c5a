// Package fetcher downloads daily price files over plain HTTP GET.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/guttosm/debpulse/internal/logger"
)

const (
	urlDateLayout  = "060102"   // yymmdd
	fileDateLayout = "20060102" // YYYYMMDD
	fileExt        = ".txt"
)

// BuildURL returns base + prefix + yymmdd + ".txt" for the given date.
func BuildURL(base, prefix string, d time.Time) string {
	return base + prefix + d.Format(urlDateLayout) + fileExt
}

// FileName returns the local name a date's file is saved under (YYYYMMDD.txt).
func FileName(d time.Time) string {
	return d.Format(fileDateLayout) + fileExt
}

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Options tunes a Client.
//
// Fields:
//   - Timeout: per-request timeout (0 means no timeout).
//   - MaxAttempts: total attempts per file, at least 1.
//   - InitialBackoff: wait before the second attempt; doubles afterwards.
type Options struct {
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
}

// Client downloads files to disk.
type Client struct {
	http *http.Client
	opts Options
}

// New builds a Client. A nil httpClient gets a default one using opts.Timeout.
func New(httpClient *http.Client, opts Options) *Client {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.InitialBackoff <= 0 {
		opts.InitialBackoff = time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{http: httpClient, opts: opts}
}

// Fetch downloads url into dest, overwriting any existing file.
//
// Behavior:
//   - 2xx: the body is written to a temp file next to dest, then renamed over it.
//   - non-2xx / network error / timeout: dest is left untouched and an error is returned.
//   - 4xx responses are not retried; other failures are retried up to MaxAttempts
//     with exponential backoff. Retry warnings go to the logger carried by ctx
//     (see logger.FromContext), so they keep the caller's run_id.
func (c *Client) Fetch(ctx context.Context, url, dest string) error {
	attempt := 0
	op := func() error {
		attempt++
		err := c.fetchOnce(ctx, url, dest)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && se.StatusCode >= 400 && se.StatusCode < 500 {
			return backoff.Permanent(err)
		}
		if ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialBackoff
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(c.opts.MaxAttempts-1)), ctx)

	notify := func(err error, wait time.Duration) {
		logger.FromContext(ctx).Warn().Str("url", url).Int("attempt", attempt).Dur("retry_in", wait).Err(err).Msg("download attempt failed")
	}

	return backoff.RetryNotify(op, policy, notify)
}

func (c *Client) fetchOnce(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	return writeAtomic(dest, resp.Body)
}

// writeAtomic streams r into a temp file in dest's directory and renames it
// over dest, so a failed transfer never leaves a partial dest behind.
func writeAtomic(dest string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		cleanup()
		return fmt.Errorf("rename into place: %w", err)
	}
	return nil
}
