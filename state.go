package rivulet

import (
	"github.com/casualjim/rivulet/markdown"
	"github.com/casualjim/rivulet/reasoning"
)

// State is the consumer-visible snapshot attached to every callback.
// Snapshots are value copies: the session never mutates one after handing
// it out.
type State struct {
	// IsStreaming is true on intermediate updates, false on terminal ones.
	IsStreaming bool
	// IsDone is true only on the OnComplete callback.
	IsDone bool
	// Thinking is nil until reasoning text has been seen. While streaming
	// it is a placeholder trace; on completion it is the finished trace.
	Thinking *reasoning.Trace
	// Document is the structured conversion of the answer text so far.
	Document *markdown.Document
}
