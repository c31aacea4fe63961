// Package sse provides a minimal, purpose-built incremental SSE
// (Server-Sent Events) frame parser for flag streams. Bytes are pushed in as
// they arrive off the wire, in arbitrary chunk sizes, and the parser reports
// the moment the JSON document carried by a "put" event is syntactically
// complete.
//
// The parser never decodes the document: completion is detected by brace
// depth over the concatenation of every data fragment of the event, so a
// provider may split one document across any number of data lines and
// network writes.
//
// This package intentionally does NOT provide SSE writer or server
// capabilities.
//
// See the SSE specification:
// https://html.spec.whatwg.org/multipage/server-sent-events.html
package sse
