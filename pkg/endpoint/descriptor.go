// Package endpoint decides which streaming endpoint and header set a run
// connects to. A static descriptor can be supplied directly; otherwise the
// connection URL and tag header are derived from the newest release in an
// appcast feed.
package endpoint

// Descriptor is the resolved connection target. It is treated as opaque and
// immutable by consumers.
type Descriptor struct {
	// URL is the full stream URL.
	URL string

	// AuthHeader is the Authorization header value, if any.
	AuthHeader string

	// TagsHeader is the identifying-tags header value, if any.
	TagsHeader string
}

// IsZero reports whether d carries no connection target.
func (d *Descriptor) IsZero() bool {
	return d == nil || d.URL == ""
}
