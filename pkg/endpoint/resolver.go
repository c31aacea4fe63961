package endpoint

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/flagsnap/pkg/feed"
	"github.com/papercomputeco/flagsnap/pkg/logger"
)

// FeedFetcher retrieves a feed body. *feed.Fetcher implements it.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Config is the input to Resolve.
type Config struct {
	Mode Mode

	// Static is the pre-supplied descriptor. It is used directly in static
	// mode and as the fallback target when dynamic derivation fails.
	Static *Descriptor

	FeedURL  string
	BaseURL  string
	Identity Identity

	// Auth is the Authorization value attached to dynamically derived
	// descriptors.
	Auth string
}

// Resolver resolves a Config into a Descriptor.
type Resolver struct {
	fetcher FeedFetcher
	logger  *slog.Logger
	now     func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger.
func WithResolverLogger(l *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = l
	}
}

// WithClock overrides the clock used for the payload timestamp.
func WithClock(now func() time.Time) ResolverOption {
	return func(r *Resolver) {
		r.now = now
	}
}

// NewResolver creates a Resolver that fetches feeds with fetcher.
func NewResolver(fetcher FeedFetcher, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		fetcher: fetcher,
		logger:  logger.Nop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve picks the connection target for a run.
//
// Static mode, or auto mode with a static descriptor, returns the static
// descriptor without network access. Otherwise the feed is fetched and the
// descriptor derived from it. Missing settings fail with a
// *ConfigurationError. Feed failures fall back to the static descriptor
// when there is one and fail with a *ResolutionError when there is not.
func (r *Resolver) Resolve(ctx context.Context, cfg Config) (*Descriptor, error) {
	mode := cfg.Mode
	if mode == "" {
		mode = ModeAuto
	}

	hasStatic := !cfg.Static.IsZero()
	log := r.logger.With("mode", mode.String())

	if mode == ModeStatic || (mode == ModeAuto && hasStatic) {
		if !hasStatic {
			return nil, &ConfigurationError{Missing: []string{"static endpoint url"}}
		}
		log.Debug("using static endpoint")
		return cfg.Static, nil
	}

	if missing := cfg.missingDynamic(); len(missing) > 0 {
		return nil, &ConfigurationError{Missing: missing}
	}

	desc, err := r.derive(ctx, cfg)
	if err == nil {
		return desc, nil
	}

	if hasStatic {
		log.Warn("dynamic endpoint resolution failed, falling back to static endpoint", "error", err)
		return cfg.Static, nil
	}

	return nil, &ResolutionError{Err: err}
}

func (r *Resolver) derive(ctx context.Context, cfg Config) (*Descriptor, error) {
	body, err := r.fetcher.Fetch(ctx, cfg.FeedURL)
	if err != nil {
		return nil, err
	}

	info, err := feed.Parse([]byte(body))
	if err != nil {
		return nil, err
	}

	r.logger.Info("resolved release from feed",
		"build_number", info.BuildNumber,
		"short_version", info.ShortVersion,
		"published_at", info.PublishedAt,
	)

	return Derive(info, cfg.Identity, cfg.BaseURL, cfg.Auth, r.now())
}

func (c *Config) missingDynamic() []string {
	var missing []string
	check := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}

	check("feed url", c.FeedURL)
	check("user key", c.Identity.UserKey)
	check("device key", c.Identity.DeviceKey)
	check("device model", c.Identity.DeviceModel)
	check("app key", c.Identity.AppKey)
	check("base url", c.BaseURL)

	return missing
}
