package rivulet

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/casualjim/rivulet/throttle"
	"github.com/casualjim/rivulet/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptStream struct {
	ctx      context.Context
	chunks   [][]byte
	cur      []byte
	finalErr error
	hang     bool
}

func (s *scriptStream) Next() bool {
	if len(s.chunks) == 0 {
		if s.hang {
			<-s.ctx.Done()
			s.finalErr = s.ctx.Err()
		}
		return false
	}
	s.cur = s.chunks[0]
	s.chunks = s.chunks[1:]
	return true
}

func (s *scriptStream) Bytes() []byte { return s.cur }
func (s *scriptStream) Err() error    { return s.finalErr }
func (s *scriptStream) Close() error  { return nil }

// scriptSource replays a fixed chunk sequence, optionally failing the
// first openFailures connection attempts.
type scriptSource struct {
	mu           sync.Mutex
	opens        int
	openFailures int
	chunks       [][]byte
	finalErr     error
	hang         bool
}

func (s *scriptSource) Open(ctx context.Context, _ transport.Request) (transport.Stream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opens++
	if s.opens <= s.openFailures {
		return nil, errors.New("connection refused")
	}
	chunks := make([][]byte, len(s.chunks))
	copy(chunks, s.chunks)
	return &scriptStream{ctx: ctx, chunks: chunks, finalErr: s.finalErr, hang: s.hang}, nil
}

func (s *scriptSource) openCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

func sseChunks(records ...string) [][]byte {
	chunks := make([][]byte, 0, len(records))
	for _, r := range records {
		chunks = append(chunks, []byte("data: "+r+"\n\n"))
	}
	return chunks
}

func waitDone(t *testing.T, h *Handle) {
	t.Helper()
	select {
	case <-h.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("session did not finish in time")
	}
}

func TestStartStreamsToCompletion(t *testing.T) {
	source := &scriptSource{chunks: sseChunks(
		`{"choices":[{"delta":{"content":"He"}}]}`,
		`{"choices":[{"delta":{"content":"llo"}}]}`,
		`{"choices":[{"delta":{},"finish_reason":"stop"}]}`,
		`[DONE]`,
	)}

	var (
		finalAnswer string
		finalState  State
		completed   bool
		failed      bool
	)
	handle, err := Start(context.Background(),
		WithModel("gpt-4o"),
		WithPrompt("say hello"),
		WithSource(source),
		WithOnComplete(func(answer string, state State) {
			finalAnswer = answer
			finalState = state
			completed = true
		}),
		WithOnError(func(error, State) { failed = true }),
	)
	require.NoError(t, err)
	waitDone(t, handle)

	assert.True(t, completed)
	assert.False(t, failed)
	assert.Equal(t, "Hello", finalAnswer)
	assert.True(t, finalState.IsDone)
	assert.False(t, finalState.IsStreaming)
	assert.Nil(t, finalState.Thinking)
	require.NotNil(t, finalState.Document)
	assert.Equal(t, "Hello", finalState.Document.Text())
}

func TestStartValidation(t *testing.T) {
	_, err := Start(context.Background(), WithModel("gpt-4o"))
	require.EqualError(t, err, "prompt is required")

	_, err = Start(context.Background(), WithPrompt("hi"))
	require.EqualError(t, err, "model is required")

	_, err = Start(context.Background(),
		WithModel("m"), WithPrompt("p"), WithProvider("nope"),
	)
	require.EqualError(t, err, `unknown provider "nope"`)
}

func TestSplitRecordAcrossChunks(t *testing.T) {
	record := `{"choices":[{"delta":{"content":"whole"}}]}`
	source := &scriptSource{chunks: [][]byte{
		[]byte("data: " + record[:12]),
		[]byte(record[12:] + "\n\ndata: [DONE]\n\n"),
	}}

	var finalAnswer string
	handle, err := Start(context.Background(),
		WithModel("gpt-4o"),
		WithPrompt("p"),
		WithSource(source),
		WithOnComplete(func(answer string, _ State) { finalAnswer = answer }),
	)
	require.NoError(t, err)
	waitDone(t, handle)

	assert.Equal(t, "whole", finalAnswer)
}

func TestReasoningFieldAccumulates(t *testing.T) {
	source := &scriptSource{chunks: [][]byte{
		[]byte(`{"message":{"thinking":"consider the question"},"done":false}` + "\n"),
		[]byte(`{"message":{"thinking":" carefully"},"done":false}` + "\n"),
		[]byte(`{"message":{"content":"The answer is 4."},"done":false}` + "\n"),
		[]byte(`{"done":true,"done_reason":"stop"}` + "\n"),
	}}

	var (
		finalAnswer string
		finalState  State
	)
	handle, err := Start(context.Background(),
		WithModel("llama3"),
		WithPrompt("2+2?"),
		WithProvider("ollama"),
		WithSource(source),
		WithOnComplete(func(answer string, state State) {
			finalAnswer = answer
			finalState = state
		}),
	)
	require.NoError(t, err)
	waitDone(t, handle)

	assert.Equal(t, "The answer is 4.", finalAnswer)
	require.NotNil(t, finalState.Thinking)
	assert.Equal(t, "consider the question carefully", finalState.Thinking.FullText)
	assert.Equal(t, "consider the question carefully", finalState.Thinking.Summary)
}

func TestInlineTagExtraction(t *testing.T) {
	source := &scriptSource{chunks: sseChunks(
		`{"choices":[{"delta":{"content":"<thinking>step"}}]}`,
		`{"choices":[{"delta":{"content":" one</thinking>\n\nFinal"}}]}`,
		`{"choices":[{"delta":{"content":" answer text."}}]}`,
		`[DONE]`,
	)}

	var (
		finalAnswer string
		finalState  State
	)
	handle, err := Start(context.Background(),
		WithModel("gpt-4o"),
		WithPrompt("p"),
		WithSource(source),
		WithOnComplete(func(answer string, state State) {
			finalAnswer = answer
			finalState = state
		}),
	)
	require.NoError(t, err)
	waitDone(t, handle)

	assert.Equal(t, "Final answer text.", finalAnswer)
	require.NotNil(t, finalState.Thinking)
	assert.Equal(t, "step one", finalState.Thinking.FullText)
}

func TestCancelSuppressesCallbacks(t *testing.T) {
	source := &scriptSource{
		chunks: sseChunks(`{"choices":[{"delta":{"content":"part"}}]}`),
		hang:   true,
	}
	th := throttle.New(time.Nanosecond)

	var (
		mu        sync.Mutex
		streamed  int
		completed bool
		failed    bool
	)
	handle, err := Start(context.Background(),
		WithModel("gpt-4o"),
		WithPrompt("p"),
		WithSource(source),
		WithThrottle(th),
		WithOnStream(func(string, State) {
			mu.Lock()
			streamed++
			mu.Unlock()
		}),
		WithOnComplete(func(string, State) { completed = true }),
		WithOnError(func(error, State) { failed = true }),
	)
	require.NoError(t, err)

	// Let the first chunk arrive, then cancel while the stream hangs.
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return streamed > 0
	}, 2*time.Second, 5*time.Millisecond)

	handle.Cancel()
	handle.Cancel()
	waitDone(t, handle)

	assert.False(t, completed)
	assert.False(t, failed)
	assert.False(t, th.Tracked(handle.ID().String()))
}

func TestRetriesBeforeFirstByte(t *testing.T) {
	source := &scriptSource{
		openFailures: 2,
		chunks: sseChunks(
			`{"choices":[{"delta":{"content":"ok"}}]}`,
			`[DONE]`,
		),
	}

	var finalAnswer string
	handle, err := Start(context.Background(),
		WithModel("gpt-4o"),
		WithPrompt("p"),
		WithSource(source),
		WithOnComplete(func(answer string, _ State) { finalAnswer = answer }),
	)
	require.NoError(t, err)
	waitDone(t, handle)

	assert.Equal(t, "ok", finalAnswer)
	assert.Equal(t, 3, source.openCount())
}

func TestRetryBudgetExhausted(t *testing.T) {
	source := &scriptSource{openFailures: 10}

	var failure error
	handle, err := Start(context.Background(),
		WithModel("gpt-4o"),
		WithPrompt("p"),
		WithSource(source),
		WithRetryBudget(1),
		WithOnError(func(err error, _ State) { failure = err }),
	)
	require.NoError(t, err)
	waitDone(t, handle)

	require.Error(t, failure)
	rerr, ok := AsError(failure)
	require.True(t, ok)
	assert.Equal(t, ErrKindTransport, rerr.Kind)
	assert.Equal(t, 2, source.openCount())
}

func TestNoRetryAfterFirstByte(t *testing.T) {
	source := &scriptSource{
		chunks:   sseChunks(`{"choices":[{"delta":{"content":"par"}}]}`),
		finalErr: errors.New("connection reset"),
	}

	var (
		failure error
		partial State
	)
	handle, err := Start(context.Background(),
		WithModel("gpt-4o"),
		WithPrompt("p"),
		WithSource(source),
		WithOnError(func(err error, state State) {
			failure = err
			partial = state
		}),
	)
	require.NoError(t, err)
	waitDone(t, handle)

	require.Error(t, failure)
	rerr, ok := AsError(failure)
	require.True(t, ok)
	assert.Equal(t, ErrKindTransport, rerr.Kind)
	assert.Equal(t, 1, source.openCount())
	require.NotNil(t, partial.Document)
	assert.Equal(t, "par", partial.Document.Text())
}

func TestProviderErrorRecordFails(t *testing.T) {
	source := &scriptSource{chunks: sseChunks(
		`{"choices":[{"delta":{"content":"x"}}]}`,
		`{"error":{"message":"rate limited","type":"rate_limit_error"}}`,
	)}

	var failure error
	handle, err := Start(context.Background(),
		WithModel("gpt-4o"),
		WithPrompt("p"),
		WithSource(source),
		WithOnError(func(err error, _ State) { failure = err }),
	)
	require.NoError(t, err)
	waitDone(t, handle)

	require.Error(t, failure)
	rerr, ok := AsError(failure)
	require.True(t, ok)
	assert.Equal(t, ErrKindProvider, rerr.Kind)
	assert.Contains(t, failure.Error(), "rate limited")
	assert.Equal(t, 1, source.openCount(), "explicit provider errors are never retried")
}

func TestStreamUpdatesAreMonotonic(t *testing.T) {
	source := &scriptSource{chunks: sseChunks(
		`{"choices":[{"delta":{"content":"# Title\n\n"}}]}`,
		`{"choices":[{"delta":{"content":"First paragraph.\n\n"}}]}`,
		`{"choices":[{"delta":{"content":"Second paragraph."}}]}`,
		`[DONE]`,
	)}

	var answers []string
	handle, err := Start(context.Background(),
		WithModel("gpt-4o"),
		WithPrompt("p"),
		WithSource(source),
		WithThrottle(throttle.New(time.Nanosecond)),
		WithOnStream(func(answer string, state State) {
			assert.True(t, state.IsStreaming)
			assert.False(t, state.IsDone)
			answers = append(answers, answer)
		}),
		WithOnComplete(func(answer string, _ State) {
			answers = append(answers, answer)
		}),
	)
	require.NoError(t, err)
	waitDone(t, handle)

	require.NotEmpty(t, answers)
	for i := 1; i < len(answers); i++ {
		assert.True(t, len(answers[i]) >= len(answers[i-1]) && answers[i][:len(answers[i-1])] == answers[i-1],
			"update %d is not an extension of update %d", i, i-1)
	}
	assert.Equal(t, "# Title\n\nFirst paragraph.\n\nSecond paragraph.", answers[len(answers)-1])
}
