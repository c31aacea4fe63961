package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// versionFields are stripped from each flag in filtered output.
var versionFields = []string{"version", "flagVersion"}

// FirstVersion returns the version of the first flag entry in document
// order: its "version" field, or "flagVersion" when that is absent or null. Numbers
// are returned as their JSON text and strings unquoted.
func FirstVersion(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return "", &ParseError{Err: err}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return "", &ParseError{Err: fmt.Errorf("expected a JSON object")}
	}

	if !dec.More() {
		return "", ErrNoFlags
	}

	// Skip the flag key; the entry follows.
	if _, err := dec.Token(); err != nil {
		return "", &ParseError{Err: err}
	}

	var entry map[string]json.RawMessage
	if err := dec.Decode(&entry); err != nil {
		return "", &ParseError{Err: err}
	}

	for _, field := range versionFields {
		v, ok := entry[field]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			continue
		}
		return renderScalar(v)
	}
	return "", ErrNoVersion
}

func renderScalar(v json.RawMessage) (string, error) {
	text := strings.TrimSpace(string(v))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return "", &ParseError{Err: err}
		}
		return s, nil
	}
	return text, nil
}

// StripVersions returns the canonical form of raw with the version fields
// removed from every flag entry.
func StripVersions(raw []byte) ([]byte, error) {
	flags, err := decodeFlags(raw)
	if err != nil {
		return nil, err
	}

	for _, entry := range flags {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		for _, f := range versionFields {
			delete(fields, f)
		}
	}
	return encodeCanonical(flags)
}
