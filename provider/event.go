package provider

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// Event is a normalized record parsed out of a provider's wire stream. The
// union is closed: every variant lives in this package and adding provider
// capabilities means adding a variant, not widening a dispatcher.
type Event interface {
	streamEvent()
}

// ContentDelta carries a fragment of the visible answer.
type ContentDelta struct {
	Text string
	// Raw is the provider record the delta came from, kept for provenance
	// and debugging only. It is never re-parsed.
	Raw gjson.Result
}

func (ContentDelta) streamEvent() {}

// ReasoningDelta carries a fragment of the reasoning/thinking trace, for
// providers that separate it at the protocol level.
type ReasoningDelta struct {
	Text string
	Raw  gjson.Result
}

func (ReasoningDelta) streamEvent() {}

// Done signals normal completion. Reason holds the provider's stop reason
// when one was given.
type Done struct {
	Reason string
	Raw    gjson.Result
}

func (Done) streamEvent() {}

// Error is an explicit error record emitted by the provider inside the
// stream, distinct from transport failures.
type Error struct {
	Err error
	Raw gjson.Result
}

func (Error) streamEvent() {}

func (e Error) Error() string {
	return fmt.Sprintf("provider error: %v", e.Err)
}

func (e Error) Unwrap() error { return e.Err }
