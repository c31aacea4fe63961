package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/papercomputeco/flagsnap/pkg/logger"
)

// DefaultTimeout bounds a single feed fetch.
const DefaultTimeout = 30 * time.Second

// DefaultMaxSize caps how much of a feed body is read. Appcasts with full
// release notes are rarely more than a few hundred kilobytes.
const DefaultMaxSize int64 = 8 << 20

// Fetcher performs a single timed GET against a feed URL.
type Fetcher struct {
	client  *http.Client
	timeout time.Duration
	maxSize int64
	logger  *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient overrides the HTTP client. Defaults to a client with no
// timeout of its own; the fetch deadline is applied per request.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		f.client = c
	}
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithMaxSize overrides DefaultMaxSize. Non-positive values are ignored.
func WithMaxSize(n int64) FetcherOption {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxSize = n
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// NewFetcher returns a Fetcher with the given options applied.
func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:  &http.Client{},
		timeout: DefaultTimeout,
		maxSize: DefaultMaxSize,
		logger:  logger.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch retrieves the feed body as text. When the deadline expires the
// in-flight request is aborted and a NetworkError with Timeout set is
// returned.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	start := time.Now()
	f.logger.Debug("fetching feed", "url", url, "timeout", f.timeout)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", f.wrap(ctx, url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &NetworkError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxSize+1))
	if err != nil {
		return "", f.wrap(ctx, url, err)
	}
	if int64(len(body)) > f.maxSize {
		return "", &NetworkError{URL: url, Err: fmt.Errorf("feed body exceeds %d bytes", f.maxSize)}
	}

	f.logger.Debug("fetched feed",
		"url", url,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	return string(body), nil
}

func (f *Fetcher) wrap(ctx context.Context, url string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &NetworkError{URL: url, Timeout: true, Err: err}
	}
	return &NetworkError{URL: url, Err: err}
}
