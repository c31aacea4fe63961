package feed

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// item mirrors the fields of an appcast <item> that matter for version
// selection. Tags carry no namespace so both "sparkle:version" and a bare
// "version" element match.
type item struct {
	Version      text        `xml:"version"`
	ShortVersion text        `xml:"shortVersionString"`
	Description  text        `xml:"description"`
	PubDate      text        `xml:"pubDate"`
	Enclosures   []enclosure `xml:"enclosure"`
}

// text collects all character data below an element, regardless of how
// deeply a producer wraps it (CDATA sections, <![CDATA[...]]> inside a
// <div>, and so on).
type text string

func (t *text) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	var sb strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := d.Token()
		if err != nil {
			return err
		}

		switch tt := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			sb.Write(tt)
		}
	}

	*t = text(strings.TrimSpace(sb.String()))
	return nil
}

type enclosure struct {
	URL          string
	Delta        bool
	Version      string
	ShortVersion string
}

func (e *enclosure) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		switch attr.Name.Local {
		case "url":
			e.URL = strings.TrimSpace(attr.Value)
		case "deltaFrom":
			e.Delta = true
		case "version":
			e.Version = strings.TrimSpace(attr.Value)
		case "shortVersionString":
			e.ShortVersion = strings.TrimSpace(attr.Value)
		}
	}
	return d.Skip()
}

// Parse extracts the newest release from an appcast document. Items are
// assumed newest-first, so the first item in document order with a build
// number, a short version and a full-release enclosure wins.
//
// The decoder runs in non-strict mode: real-world appcasts ship with bogus
// default namespace declarations and unescaped entities.
func Parse(data []byte) (*BuildInfo, error) {
	d := xml.NewDecoder(bytes.NewReader(data))
	d.Strict = false
	d.Entity = xml.HTMLEntity
	d.CharsetReader = charset.NewReaderLabel

	items := 0
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Reason: "malformed document", Err: err}
		}

		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "item" {
			continue
		}

		var it item
		if err := d.DecodeElement(&it, &start); err != nil {
			return nil, &ParseError{Reason: "malformed item", Err: err}
		}
		items++

		if info, ok := it.buildInfo(); ok {
			return info, nil
		}
	}

	if items == 0 {
		return nil, &ParseError{Reason: "no items in feed"}
	}
	return nil, &ParseError{Reason: "no item carries a build number, a short version and a full release"}
}

// buildInfo normalizes an item. An item is usable only when it has a full
// (non-delta) enclosure; version fields missing from the item body are taken
// from that enclosure's attributes, which older appcasts use exclusively.
func (it *item) buildInfo() (*BuildInfo, bool) {
	enc := it.selectEnclosure()
	if enc == nil {
		return nil, false
	}

	info := &BuildInfo{
		BuildNumber:  string(it.Version),
		ShortVersion: string(it.ShortVersion),
		Description:  string(it.Description),
		PublishedAt:  string(it.PubDate),
		DownloadURL:  enc.URL,
	}
	if info.BuildNumber == "" {
		info.BuildNumber = enc.Version
	}
	if info.ShortVersion == "" {
		info.ShortVersion = enc.ShortVersion
	}

	if info.BuildNumber == "" || info.ShortVersion == "" {
		return nil, false
	}
	return info, true
}

// selectEnclosure returns the first enclosure with a url that is not a
// delta patch.
func (it *item) selectEnclosure() *enclosure {
	for i := range it.Enclosures {
		if !it.Enclosures[i].Delta && it.Enclosures[i].URL != "" {
			return &it.Enclosures[i]
		}
	}
	return nil
}
