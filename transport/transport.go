// Package transport defines the byte-chunk boundary between a generation
// session and the network. A Source yields ordered raw chunks, signals end
// of stream, and aborts through context cancellation; nothing above it
// assumes anything else about the wire.
package transport

import "context"

// Request describes one provider call. The body is already encoded; the
// transport never inspects it.
type Request struct {
	URL     string
	Headers map[string]string
	Body    []byte
}

// Stream is an ordered sequence of raw byte chunks.
//
// The usual loop:
//
//	for stream.Next() {
//	    process(stream.Bytes())
//	}
//	if err := stream.Err(); err != nil { ... }
type Stream interface {
	// Next reports whether another chunk is available, blocking until one
	// arrives, the stream ends, or it fails.
	Next() bool
	// Bytes returns the current chunk. Only valid after a true Next and
	// until the following call to Next.
	Bytes() []byte
	// Err returns the terminal error, nil on a clean end of stream.
	Err() error
	Close() error
}

// Source opens streams. Implementations must honor ctx cancellation by
// aborting the underlying connection.
type Source interface {
	Open(ctx context.Context, req Request) (Stream, error)
}
