package sse

import (
	"bytes"
	"strings"
)

const (
	// EventPut is the event name that carries a full flag snapshot.
	EventPut = "put"

	eventPrefix = "event:"
	dataPrefix  = "data:"
)

// Parser is a stateful, single-shot SSE frame parser. It is not safe for
// concurrent use; a single reader goroutine owns it.
//
// After a snapshot has been returned the parser is latched: further input is
// buffered but not interpreted until Reset is called.
type Parser struct {
	// lineBuf holds bytes past the last line terminator seen.
	lineBuf []byte

	// event is the most recent event name.
	event string

	// data accumulates data fragments of the current put event.
	data []byte

	depth      int
	collecting bool
	delivered  bool

	stringAware bool
	inString    bool
	escaped     bool
}

// Option configures a Parser.
type Option func(*Parser)

// WithStringAware makes the brace counter skip braces inside JSON string
// literals, honouring backslash escapes. Without it a flag value containing
// a literal "{" or "}" desynchronizes the counter.
func WithStringAware(enabled bool) Option {
	return func(p *Parser) {
		p.stringAware = enabled
	}
}

// NewParser returns an empty Parser.
func NewParser(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Feed appends chunk to the stream and processes every complete line in
// arrival order. It returns the snapshot text and true when a put event
// completes; this happens at most once until Reset. Bytes after the
// completing line stay buffered.
//
// Feed(nil) processes already buffered lines, which is how a caller resumes
// after Reset.
func (p *Parser) Feed(chunk []byte) ([]byte, bool) {
	p.lineBuf = append(p.lineBuf, chunk...)
	if p.delivered {
		return nil, false
	}

	for {
		i := bytes.IndexByte(p.lineBuf, '\n')
		if i < 0 {
			return nil, false
		}

		line := bytes.TrimSuffix(p.lineBuf[:i], []byte{'\r'})
		snapshot, ok := p.processLine(string(line))

		// Shift instead of reslicing so a long-lived stream does not pin
		// the backing array of every chunk ever received.
		n := copy(p.lineBuf, p.lineBuf[i+1:])
		p.lineBuf = p.lineBuf[:n]

		if ok {
			p.delivered = true
			return snapshot, true
		}
	}
}

// Reset clears the collection state and the delivery latch. Buffered bytes
// that have not been processed yet are kept so line framing survives.
func (p *Parser) Reset() {
	p.event = ""
	p.delivered = false
	p.clearCollection()
}

// Collecting reports whether a put event is being accumulated.
func (p *Parser) Collecting() bool {
	return p.collecting
}

// Delivered reports whether a snapshot was returned since the last Reset.
func (p *Parser) Delivered() bool {
	return p.delivered
}

// Event returns the most recently seen event name.
func (p *Parser) Event() string {
	return p.event
}

func (p *Parser) processLine(line string) ([]byte, bool) {
	switch {
	case line == "":
		// A blank line terminates the event per SSE framing. It completes a
		// snapshot whose braces already balance, e.g. one that opened with
		// no brace at all.
		if p.collecting && p.depth == 0 && len(p.data) > 0 {
			return p.complete(), true
		}
		return nil, false

	case strings.HasPrefix(line, eventPrefix):
		p.event = strings.TrimSpace(line[len(eventPrefix):])
		if p.event == EventPut {
			p.clearCollection()
			p.collecting = true
			return nil, false
		}

		// Any other event abandons a put that was still collecting.
		if p.collecting {
			p.clearCollection()
		}
		return nil, false

	case strings.HasPrefix(line, dataPrefix):
		if !p.collecting {
			return nil, false
		}

		fragment := strings.TrimPrefix(line[len(dataPrefix):], " ")
		p.data = append(p.data, fragment...)
		if p.scan(fragment) && p.depth == 0 && len(p.data) > 0 {
			return p.complete(), true
		}
		return nil, false

	default:
		// id:, retry:, comments and unknown fields are not needed here.
		return nil, false
	}
}

// scan updates the brace depth for a data fragment and reports whether a
// closing brace was seen.
func (p *Parser) scan(fragment string) bool {
	closed := false
	for i := 0; i < len(fragment); i++ {
		c := fragment[i]

		if p.stringAware {
			if p.inString {
				switch {
				case p.escaped:
					p.escaped = false
				case c == '\\':
					p.escaped = true
				case c == '"':
					p.inString = false
				}
				continue
			}
			if c == '"' {
				p.inString = true
				continue
			}
		}

		switch c {
		case '{':
			p.depth++
		case '}':
			p.depth--
			closed = true
		}
	}
	return closed
}

func (p *Parser) complete() []byte {
	snapshot := p.data
	p.data = nil
	p.clearCollection()
	return snapshot
}

func (p *Parser) clearCollection() {
	p.collecting = false
	p.depth = 0
	p.data = nil
	p.inString = false
	p.escaped = false
}
