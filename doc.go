/*
Package rivulet normalizes streamed responses from heterogeneous LLM HTTP
APIs into one incrementally growing answer plus a separated reasoning
trace, delivered through an ordered callback sequence.

Each provider speaks its own wire framing: SSE data lines, event-typed SSE
records, or bare newline-delimited JSON. A generation session runs the
whole pipeline per received chunk:

	network bytes → UTF-8 decode → frame parse → classify →
	    {reasoning accumulator, markdown converter} → throttle → callbacks

# Basic Usage

Start a session with a prompt and callbacks; the handle cancels it:

	handle, err := rivulet.Start(ctx,
		rivulet.WithProvider(openaichat.Name),
		rivulet.WithModel("gpt-4o-mini"),
		rivulet.WithPrompt("Summarize the attached notes"),
		rivulet.WithOnStream(func(answer string, state rivulet.State) {
			render(state.Document)
		}),
		rivulet.WithOnComplete(func(answer string, state rivulet.State) {
			if state.Thinking != nil {
				showTrace(*state.Thinking)
			}
			render(state.Document)
		}),
		rivulet.WithOnError(func(err error, partial rivulet.State) {
			warn(err, partial.Document)
		}),
	)
	if err != nil {
		return err
	}
	defer handle.Cancel()

# Guarantees

Within one session callbacks fire in strict arrival order of the
underlying chunks, the answer text passed to successive callbacks only
grows, a terminal callback fires exactly once, and no callback fires
after Cancel has been observed. Intermediate updates are throttled;
the final update always gets through.
*/
package rivulet
