// Package feed fetches and parses release feeds following the Sparkle
// appcast convention: an RSS channel whose items carry a build number
// (sparkle:version), a marketing version (sparkle:shortVersionString) and one
// or more enclosures, some of which may be delta patches.
package feed

// BuildInfo is the normalized description of the newest release found in a
// feed. It is immutable once returned by Parse.
type BuildInfo struct {
	// BuildNumber is the feed's own build identifier, usually an integer
	// rendered as a string (e.g. "52118").
	BuildNumber string `json:"build_number"`

	// ShortVersion is the dot-separated marketing version (e.g. "1.4.2").
	ShortVersion string `json:"short_version"`

	// Description is the item description, typically release notes HTML.
	Description string `json:"description,omitempty"`

	// PublishedAt is the raw pubDate text of the item.
	PublishedAt string `json:"published_at,omitempty"`

	// DownloadURL is the url of the selected full-release (non-delta)
	// enclosure, if the item had one.
	DownloadURL string `json:"download_url,omitempty"`
}
