// Package lifecycle runs one snapshot capture: resolve the endpoint, open
// the event stream, feed it through the frame parser and hand the first
// complete snapshot to a sink.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/flagsnap/pkg/endpoint"
	"github.com/papercomputeco/flagsnap/pkg/logger"
	"github.com/papercomputeco/flagsnap/pkg/snapshot"
	"github.com/papercomputeco/flagsnap/pkg/sse"
	"github.com/papercomputeco/flagsnap/pkg/utils"
)

// Resolver picks the stream endpoint. *endpoint.Resolver implements it.
type Resolver interface {
	Resolve(ctx context.Context, cfg endpoint.Config) (*endpoint.Descriptor, error)
}

// Controller owns the state of a single run. A Controller runs once.
type Controller struct {
	config   Config
	resolver Resolver
	sink     snapshot.Sink
	logger   *slog.Logger
	client   *http.Client
	now      func() time.Time

	mu      sync.Mutex
	started bool
	stopped bool
	cancel  context.CancelFunc
	body    io.Closer

	shutdownOnce sync.Once
	deliverOnce  sync.Once
}

// New creates a Controller. logger may be nil.
func New(config Config, resolver Resolver, sink snapshot.Sink, log *slog.Logger) (*Controller, error) {
	if resolver == nil {
		return nil, errors.New("resolver is required")
	}
	if sink == nil {
		return nil, errors.New("sink is required")
	}

	if config.RunID == "" {
		config.RunID = uuid.NewString()
	}
	if config.ReadSize <= 0 {
		config.ReadSize = defaultReadSize
	}
	if log == nil {
		log = logger.Nop()
	}

	client := config.HTTPClient
	if client == nil {
		client = &http.Client{}
	}

	return &Controller{
		config:   config,
		resolver: resolver,
		sink:     sink,
		logger:   log.With("run_id", config.RunID),
		client:   client,
		now:      time.Now,
	}, nil
}

// RunID returns the identifier of this run.
func (c *Controller) RunID() string {
	return c.config.RunID
}

// Run performs the capture. It returns nil once a snapshot has been handed
// to the sink, or the first fatal error. Cancelling ctx shuts the
// controller down the same way Shutdown does.
func (c *Controller) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	switch {
	case c.started:
		c.mu.Unlock()
		cancel()
		return ErrAlreadyStarted
	case c.stopped:
		c.mu.Unlock()
		cancel()
		return ErrShutdown
	}
	c.started = true
	c.cancel = cancel
	c.mu.Unlock()

	defer c.Shutdown()
	stop := context.AfterFunc(ctx, c.Shutdown)
	defer stop()

	desc, err := c.resolver.Resolve(ctx, c.config.Endpoint)
	if err != nil {
		return err
	}

	body, err := c.open(ctx, desc)
	if err != nil {
		return err
	}

	delivered, err := c.consume(ctx, body, hostOf(desc.URL))
	if delivered || err != nil {
		return err
	}
	if ctx.Err() != nil {
		return fmt.Errorf("run interrupted: %w", context.Cause(ctx))
	}
	return ErrStreamEnded
}

// Shutdown cancels the run and closes the stream. It may be called any
// number of times, from any goroutine, before, during or after Run.
func (c *Controller) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.mu.Lock()
		c.stopped = true
		cancel, body := c.cancel, c.body
		c.mu.Unlock()

		if cancel != nil {
			cancel()
		}
		if body != nil {
			_ = body.Close()
		}
		c.logger.Debug("controller shut down")
	})
}

func (c *Controller) open(ctx context.Context, desc *endpoint.Descriptor) (io.Reader, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, desc.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Connection", "keep-alive")
	if desc.AuthHeader != "" {
		req.Header.Set("Authorization", desc.AuthHeader)
	}
	if desc.TagsHeader != "" {
		req.Header.Set("X-LaunchDarkly-Tags", desc.TagsHeader)
	}

	c.logger.Info("opening stream", "url", utils.Truncate(desc.URL, 80))

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("run interrupted: %w", context.Cause(ctx))
		}
		return nil, fmt.Errorf("opening stream: %w", err)
	}

	if !c.attach(resp.Body) {
		return nil, fmt.Errorf("run interrupted: %w", context.Cause(ctx))
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("stream rejected", "status", resp.StatusCode)
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}

	c.logger.Debug("stream open", "status", resp.StatusCode)
	return resp.Body, nil
}

// attach records the body so Shutdown can close it. It reports false, and
// closes the body, when the controller was stopped in the meantime.
func (c *Controller) attach(body io.ReadCloser) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		_ = body.Close()
		return false
	}
	c.body = body
	return true
}

// consume reads the stream until a snapshot is delivered, the stream ends
// or the run is cancelled.
func (c *Controller) consume(ctx context.Context, body io.Reader, host string) (bool, error) {
	parser := sse.NewParser(c.config.ParserOptions...)
	buf := make([]byte, c.config.ReadSize)
	total := 0

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			total += n
			if delivered, err := c.feed(ctx, parser, buf[:n], host); delivered || err != nil {
				return delivered, err
			}
		}

		if readErr == nil {
			continue
		}
		if ctx.Err() != nil {
			return false, nil
		}
		if errors.Is(readErr, io.EOF) {
			c.logger.Warn("stream closed by server", "bytes", total)
			return false, nil
		}
		return false, fmt.Errorf("reading stream: %w", readErr)
	}
}

// feed pushes one chunk through the parser. A document that fails to
// decode is logged and dropped; the parser is reset and the run waits for
// the next put event.
func (c *Controller) feed(ctx context.Context, parser *sse.Parser, chunk []byte, host string) (bool, error) {
	data, ok := parser.Feed(chunk)
	for ok {
		snap, err := snapshot.New(data, snapshot.Meta{
			RunID:        c.config.RunID,
			EndpointHost: host,
			CapturedAt:   c.now().UTC(),
		})
		if err == nil {
			return true, c.deliver(ctx, snap)
		}

		var perr *snapshot.ParseError
		if !errors.As(err, &perr) {
			return false, err
		}
		c.logger.Warn("discarding undecodable snapshot, waiting for next put event",
			"error", err,
			"bytes", len(data),
		)
		parser.Reset()
		data, ok = parser.Feed(nil)
	}
	return false, nil
}

func (c *Controller) deliver(ctx context.Context, snap *snapshot.Snapshot) error {
	var err error
	c.deliverOnce.Do(func() {
		c.logger.Info("snapshot received",
			"flags", snap.FlagCount,
			"digest", snap.Digest,
			"bytes", len(snap.Raw),
		)
		err = c.sink.Deliver(ctx, snap)
		c.Shutdown()
	})
	if err != nil {
		return fmt.Errorf("delivering snapshot: %w", err)
	}
	return nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return u.Host
}
