package provider

import "github.com/casualjim/rivulet/transport"

// Request carries everything an adapter needs to build one generation call.
type Request struct {
	Model       string
	Prompt      string
	System      string
	Temperature *float64
	MaxTokens   int
	// BaseURL overrides the adapter's default endpoint, for proxies and
	// self-hosted deployments.
	BaseURL string
	APIKey  string
}

// FrameParser turns decoded text fragments into normalized events. One
// parser instance serves one stream; implementations own their framing
// convention (SSE data lines, bare JSON objects, ...) and must buffer
// partial records across fragments.
//
// A malformed individual record is skipped, never fatal: one bad record
// must not lose the rest of the stream.
type FrameParser interface {
	// Parse consumes a decoded fragment and returns zero or more events.
	Parse(text string) []Event
	// Flush drains any buffered partial record at end of stream.
	Flush() []Event
}

// Adapter binds one provider wire format: it builds the outgoing request
// and supplies a parser for the response framing.
type Adapter interface {
	// Name is the stable identifier used for registry lookup and
	// credential resolution.
	Name() string
	NewRequest(req Request) (transport.Request, error)
	NewParser() FrameParser
}
