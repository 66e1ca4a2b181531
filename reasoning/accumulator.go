// Package reasoning accumulates the thinking trace of one generation.
//
// Providers emit reasoning in tiny deltas, often a handful of characters
// each. The trace is deliberately a single growing string, never a list of
// per-delta steps: a step per delta produces hundreds of near-empty
// entries that are unreadable and wasteful.
package reasoning

import "strings"

const (
	summaryRunes = 80

	// PlaceholderSummary labels a trace that is still being produced.
	PlaceholderSummary = "Thinking…"
)

// Trace is the finished reasoning output: the full text plus a short
// summary suitable for a collapsed view. Built once, read-only.
type Trace struct {
	Summary  string `json:"summary"`
	FullText string `json:"full_text"`
}

// Placeholder is the trace shown while reasoning is still streaming, so a
// consumer can surface a thinking indicator before completion.
func Placeholder() Trace {
	return Trace{Summary: PlaceholderSummary}
}

// Accumulator merges reasoning deltas for one generation. The zero value
// is ready to use. Not safe for concurrent use; each session owns its own.
type Accumulator struct {
	buf     strings.Builder
	started bool
}

// Append adds a delta to the trace. The first non-empty append marks the
// accumulator as started.
func (a *Accumulator) Append(delta string) {
	if delta == "" {
		return
	}
	a.started = true
	a.buf.WriteString(delta)
}

// Started reports whether any reasoning text has been seen.
func (a *Accumulator) Started() bool { return a.started }

// Len returns the accumulated length in bytes.
func (a *Accumulator) Len() int { return a.buf.Len() }

// Finalize trims the accumulated text and derives the summary. It is
// idempotent: calling it again without intervening appends returns the
// same trace.
func (a *Accumulator) Finalize() Trace {
	full := strings.TrimSpace(a.buf.String())
	return Trace{Summary: summarize(full), FullText: full}
}

func summarize(full string) string {
	if full == "" {
		return ""
	}
	runes := []rune(full)
	if len(runes) <= summaryRunes {
		return firstLine(full)
	}
	return firstLine(string(runes[:summaryRunes])) + "…"
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}
