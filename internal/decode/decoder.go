// Package decode turns raw network chunks into correctly-bounded text.
//
// Providers deliver byte chunks with no alignment guarantee: a multi-byte
// UTF-8 sequence can be split across two reads. Decoder buffers the
// incomplete trailing sequence and emits it whole on the call where it
// completes, so downstream parsers only ever see valid rune boundaries.
package decode

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Decoder is a stateful incremental UTF-8 decoder. The zero value is ready
// to use. It is not safe for concurrent use; each stream owns its own.
type Decoder struct {
	pending []byte
}

// Append adds a raw chunk and returns all text that is known to end on a
// complete rune boundary. Bytes belonging to a trailing incomplete sequence
// stay buffered for the next call.
func (d *Decoder) Append(chunk []byte) string {
	if len(chunk) == 0 {
		return ""
	}
	d.pending = append(d.pending, chunk...)

	valid := 0
	for i := 0; i < len(d.pending); {
		r, size := utf8.DecodeRune(d.pending[i:])
		if r == utf8.RuneError && size == 1 {
			if len(d.pending)-i < utf8.UTFMax {
				// Could be the start of a sequence whose tail has not
				// arrived yet. Hold it back.
				break
			}
			// Four bytes available and still invalid: skip the byte so a
			// corrupt sequence cannot wedge the stream.
			slog.Debug("skipping invalid byte in stream", slog.Int("offset", i))
			i++
			valid = i
			continue
		}
		i += size
		valid = i
	}

	if valid == 0 {
		return ""
	}
	out := string(d.pending[:valid])
	d.pending = d.pending[valid:]
	return out
}

// Flush force-emits whatever is still buffered, used at end of stream.
// Trailing bytes that never completed a rune are decoded best effort; a
// garbled tail beats dropping the response.
func (d *Decoder) Flush() string {
	if len(d.pending) == 0 {
		return ""
	}
	out := strings.ToValidUTF8(string(d.pending), "�")
	d.pending = nil
	return out
}
