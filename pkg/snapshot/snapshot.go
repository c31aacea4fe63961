// Package snapshot turns the raw JSON text delivered by the stream parser
// into a validated flag mapping and routes it to sinks: version reporting,
// files on disk, the history store and the event stream.
package snapshot

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// Snapshot is a validated flag mapping plus capture metadata.
type Snapshot struct {
	// Raw is the document text exactly as received.
	Raw []byte

	// Canonical is Raw re-encoded with recursively sorted keys.
	Canonical []byte

	// Digest is the hex sha256 of Canonical.
	Digest string

	// FlagCount is the number of top-level flag entries.
	FlagCount int

	RunID        string
	EndpointHost string
	CapturedAt   time.Time
}

// Meta is the capture metadata attached to a snapshot.
type Meta struct {
	RunID        string
	EndpointHost string
	CapturedAt   time.Time
}

// New validates raw as a JSON object and builds a Snapshot. Invalid
// documents fail with a *ParseError.
func New(raw []byte, meta Meta) (*Snapshot, error) {
	flags, err := decodeFlags(raw)
	if err != nil {
		return nil, err
	}

	canonical, err := encodeCanonical(flags)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(canonical)
	return &Snapshot{
		Raw:          raw,
		Canonical:    canonical,
		Digest:       hex.EncodeToString(sum[:]),
		FlagCount:    len(flags),
		RunID:        meta.RunID,
		EndpointHost: meta.EndpointHost,
		CapturedAt:   meta.CapturedAt,
	}, nil
}

// Canonicalize re-encodes a JSON document with recursively sorted keys and
// two-space indentation. Numbers are preserved verbatim.
func Canonicalize(raw []byte) ([]byte, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}
	return encodeCanonical(v)
}

// decode parses exactly one JSON value, keeping numbers as json.Number.
func decode(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, &ParseError{Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &ParseError{Err: errors.New("trailing data after document")}
	}
	return v, nil
}

func decodeFlags(raw []byte) (map[string]any, error) {
	v, err := decode(raw)
	if err != nil {
		return nil, err
	}

	flags, ok := v.(map[string]any)
	if !ok {
		return nil, &ParseError{Err: fmt.Errorf("expected a JSON object, got %T", v)}
	}
	return flags, nil
}

// encodeCanonical relies on encoding/json sorting map keys at every level.
func encodeCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding snapshot: %w", err)
	}
	return buf.Bytes(), nil
}
