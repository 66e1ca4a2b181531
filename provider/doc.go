// Package provider defines the contract between a generation session and
// the wire formats of the LLM APIs it consumes, normalizing each provider's
// stream into a single closed event union.
//
// Design decisions:
//   - Closed union: every event variant lives here; adding a provider means
//     adding an adapter subpackage, never widening a central dispatcher
//   - Streaming first: parsers consume decoded text fragments with no
//     alignment guarantee and buffer partial records across fragments
//   - Failure isolation: a malformed record is logged and skipped per
//     record, so one bad frame never loses the rest of the stream
//   - Provenance: every event retains the raw provider record (gjson) for
//     debugging, and the raw form is never re-parsed
//
// Key concepts:
//   - Adapter: binds one provider family (request building + parser)
//   - FrameParser: owns a stream's framing convention (SSE data lines,
//     event-typed SSE, newline-delimited JSON)
//   - Event: ContentDelta | ReasoningDelta | Done | Error
//   - Registry: name-keyed adapter lookup with deterministic listing order
//
// Example usage:
//
//	registry := provider.NewRegistry(openaichat.New(), anthropic.New(), ollama.New())
//	adapter, err := registry.Get("openai-chat")
//	if err != nil {
//	    return err
//	}
//
//	parser := adapter.NewParser()
//	for _, event := range parser.Parse(fragment) {
//	    switch e := event.(type) {
//	    case provider.ContentDelta:
//	        // visible answer text
//	    case provider.ReasoningDelta:
//	        // thinking trace text
//	    case provider.Done:
//	        // normal completion
//	    case provider.Error:
//	        // provider-signaled failure
//	    }
//	}
package provider
