// Package sse provides line framing for server-sent-event style streams.
//
// Decoded text fragments arrive with no relation to line boundaries: a
// fragment may hold a partial line, one line, or several. LineScanner
// buffers the trailing partial line between calls so callers only ever see
// complete lines.
package sse

import "strings"

// LineScanner assembles newline-terminated lines across fragments.
// The zero value is ready to use. Not safe for concurrent use.
type LineScanner struct {
	pending strings.Builder
}

// Feed appends a text fragment and returns every line completed by it,
// stripped of the trailing newline and any carriage return.
func (s *LineScanner) Feed(text string) []string {
	if text == "" {
		return nil
	}

	buf := s.pending.String() + text
	s.pending.Reset()

	var lines []string
	for {
		i := strings.IndexByte(buf, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, strings.TrimSuffix(buf[:i], "\r"))
		buf = buf[i+1:]
	}
	s.pending.WriteString(buf)
	return lines
}

// Rest returns the unterminated trailing line, clearing the buffer.
// Called once at end of stream so a final record without a newline is not
// silently dropped.
func (s *LineScanner) Rest() string {
	rest := s.pending.String()
	s.pending.Reset()
	return strings.TrimSuffix(rest, "\r")
}

// Field splits an SSE "name: value" line. The returned ok is false for
// lines without a colon. A single leading space in the value is removed per
// the SSE framing convention.
func Field(line string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	return name, strings.TrimPrefix(value, " "), true
}
