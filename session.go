package rivulet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/casualjim/rivulet/credentials"
	"github.com/casualjim/rivulet/internal/decode"
	"github.com/casualjim/rivulet/markdown"
	"github.com/casualjim/rivulet/provider"
	"github.com/casualjim/rivulet/pkg/uuidx"
	"github.com/casualjim/rivulet/pubsub"
	"github.com/casualjim/rivulet/reasoning"
	"github.com/casualjim/rivulet/throttle"
	"github.com/casualjim/rivulet/transport"
	"github.com/fogfish/opts"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// DefaultTopicID is the broker topic used when WithBroker is given an
// empty topic id.
const DefaultTopicID = "rivulet.sessions"

const initialRetryBackoff = 250 * time.Millisecond

var defaultThrottle = throttle.New(throttle.DefaultInterval)

// Start begins a generation session and returns immediately. The stream
// is consumed on a background goroutine; progress surfaces through the
// OnStream, OnComplete and OnError callbacks and, when a broker is
// configured, through published session events.
//
// Exactly one of OnComplete or OnError fires per session, unless the
// handle is cancelled first, in which case neither does.
func Start(ctx context.Context, options ...opts.Option[Options]) (*Handle, error) {
	o := Options{
		Provider:    "openai-chat",
		RetryBudget: 2,
		TopicID:     DefaultTopicID,
	}
	if err := opts.Apply(&o, options); err != nil {
		return nil, err
	}
	if o.Prompt == "" {
		return nil, errors.New("prompt is required")
	}
	if o.Model == "" {
		return nil, errors.New("model is required")
	}
	if o.Registry == nil {
		o.Registry = DefaultRegistry()
	}
	if o.Credentials == nil {
		o.Credentials = credentials.Optional{Store: credentials.Env{}}
	}
	if o.Source == nil {
		o.Source = transport.NewHTTP(nil)
	}
	if o.Throttle == nil {
		if o.Interval > 0 {
			o.Throttle = throttle.New(o.Interval)
		} else {
			o.Throttle = defaultThrottle
		}
	}
	if o.TopicID == "" {
		o.TopicID = DefaultTopicID
	}

	adapter, err := o.Registry.Get(o.Provider)
	if err != nil {
		return nil, err
	}
	key, err := o.Credentials.Get(adapter.Name())
	if err != nil {
		return nil, fmt.Errorf("resolving credential for %s: %w", adapter.Name(), err)
	}
	req, err := adapter.NewRequest(provider.Request{
		Model:       o.Model,
		Prompt:      o.Prompt,
		System:      o.System,
		Temperature: o.Temperature,
		MaxTokens:   o.MaxTokens,
		BaseURL:     o.BaseURL,
		APIKey:      key,
	})
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", adapter.Name(), err)
	}

	sess := &session{
		id:      uuidx.New(),
		opts:    o,
		adapter: adapter,
		req:     req,
		conv:    markdown.NewConverter(),
	}
	if o.Broker != nil {
		sess.topic = o.Broker.Topic(ctx, o.TopicID)
	}

	runCtx, cancel := context.WithCancel(ctx)
	handle := &Handle{
		id:   sess.id,
		done: make(chan struct{}),
		cancel: func() {
			sess.cancelled.Store(true)
			cancel()
			o.Throttle.Forget(sess.id.String())
		},
	}
	go func() {
		defer close(handle.done)
		defer cancel()
		sess.run(runCtx)
	}()
	return handle, nil
}

// session owns all mutable state of one generation. Everything runs on
// the single run goroutine; only the cancelled flag crosses goroutines.
type session struct {
	id      uuid.UUID
	opts    Options
	adapter provider.Adapter
	req     transport.Request
	topic   pubsub.Topic

	decoder decode.Decoder
	parser  provider.FrameParser
	acc     reasoning.Accumulator
	conv    *markdown.Converter
	answer  strings.Builder

	// fieldReasoning flips when the provider delivered reasoning through
	// a dedicated field. It suppresses the inline tag scan on completion.
	fieldReasoning bool

	cancelled atomic.Bool
	terminal  atomic.Bool
}

func (s *session) run(ctx context.Context) {
	log := slog.With(
		slog.String("session_id", s.id.String()),
		slog.String("provider", s.adapter.Name()),
	)
	backoff := initialRetryBackoff
	attempt := 0
	for {
		_, gotBytes, err := s.streamOnce(ctx)
		if s.cancelled.Load() {
			log.Debug("session cancelled")
			return
		}
		if err == nil {
			// A clean end of stream without an explicit stop record still
			// completes; the tail flush recovers any buffered text.
			s.complete(ctx)
			return
		}
		if !gotBytes && attempt < s.opts.RetryBudget {
			attempt++
			log.Warn("retrying before first byte",
				slog.Int("attempt", attempt),
				slog.Any("error", err),
			)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return
			}
			backoff *= 2
			continue
		}
		s.fail(ctx, err)
		return
	}
}

// streamOnce runs one connection attempt end to end. It reports whether
// an explicit stop record arrived and whether any response byte was
// received, which gates retry eligibility.
func (s *session) streamOnce(ctx context.Context) (done bool, gotBytes bool, err error) {
	s.parser = s.adapter.NewParser()
	s.decoder = decode.Decoder{}

	stream, err := s.opts.Source.Open(ctx, s.req)
	if err != nil {
		return false, false, &Error{Kind: ErrKindTransport, Err: err}
	}
	defer stream.Close()

	for stream.Next() {
		gotBytes = true
		text := s.decoder.Append(stream.Bytes())
		if text == "" {
			continue
		}
		for _, ev := range s.parser.Parse(text) {
			done, err = s.apply(ctx, ev)
			if done || err != nil {
				return done, gotBytes, err
			}
		}
		if s.cancelled.Load() {
			return false, gotBytes, nil
		}
	}
	if err := stream.Err(); err != nil {
		return false, gotBytes, &Error{Kind: ErrKindTransport, Err: err}
	}
	return false, gotBytes, nil
}

func (s *session) apply(ctx context.Context, ev provider.Event) (done bool, err error) {
	switch e := ev.(type) {
	case provider.ContentDelta:
		s.answer.WriteString(e.Text)
		s.publishDelta(ctx, pubsub.DeltaAnswer, e.Text)
		s.emitStream()
	case provider.ReasoningDelta:
		s.fieldReasoning = true
		s.acc.Append(e.Text)
		s.publishDelta(ctx, pubsub.DeltaReasoning, e.Text)
		s.emitStream()
	case provider.Done:
		return true, nil
	case provider.Error:
		return false, &Error{Kind: ErrKindProvider, Err: e}
	}
	return false, nil
}

// emitStream delivers a throttled intermediate update to OnStream.
func (s *session) emitStream() {
	if s.opts.OnStream == nil || s.cancelled.Load() {
		return
	}
	if !s.opts.Throttle.ShouldEmit(s.id.String(), false) {
		return
	}
	state := State{IsStreaming: true}
	if s.acc.Started() {
		trace := reasoning.Placeholder()
		state.Thinking = &trace
	}
	state.Document = s.conv.Convert(s.answer.String())
	s.opts.OnStream(s.answer.String(), state)
}

func (s *session) publishDelta(ctx context.Context, kind pubsub.DeltaKind, text string) {
	if s.topic == nil || s.cancelled.Load() {
		return
	}
	event := pubsub.Delta{
		SessionID: s.id,
		Kind:      kind,
		Text:      text,
		Timestamp: strfmt.DateTime(time.Now()),
	}
	if err := s.topic.Publish(ctx, event); err != nil {
		slog.Debug("publishing delta", slog.Any("error", err))
	}
}

// complete finalizes the session: flush tail bytes, resolve inline
// reasoning tags, and deliver the unthrottled final update.
func (s *session) complete(ctx context.Context) {
	if !s.terminal.CompareAndSwap(false, true) {
		return
	}
	if s.cancelled.Load() {
		return
	}
	s.finishTail(ctx)

	answer := s.answer.String()
	if !s.fieldReasoning && len(answer) >= reasoning.MinTagScanLen {
		if clean, thought, found := reasoning.ExtractTagged(answer); found {
			answer = clean
			s.acc.Append(thought)
		}
	}

	var thinking *reasoning.Trace
	var trace reasoning.Trace
	if s.acc.Started() {
		trace = s.acc.Finalize()
		thinking = &trace
	}
	doc := s.conv.Convert(answer)

	s.opts.Throttle.ShouldEmit(s.id.String(), true)
	if s.opts.OnComplete != nil {
		s.opts.OnComplete(answer, State{
			IsDone:   true,
			Thinking: thinking,
			Document: doc,
		})
	}
	if s.topic != nil {
		event := pubsub.Completed{
			SessionID: s.id,
			Answer:    answer,
			Thinking:  trace,
			Timestamp: strfmt.DateTime(time.Now()),
		}
		if err := s.topic.Publish(ctx, event); err != nil {
			slog.Debug("publishing completion", slog.Any("error", err))
		}
	}
}

// finishTail drains bytes held back by the decoder and any partial record
// buffered inside the parser. Terminal and error events are ignored here:
// the stream already ended.
func (s *session) finishTail(ctx context.Context) {
	if rest := s.decoder.Flush(); rest != "" {
		s.applyTail(ctx, s.parser.Parse(rest))
	}
	s.applyTail(ctx, s.parser.Flush())
}

func (s *session) applyTail(ctx context.Context, events []provider.Event) {
	for _, ev := range events {
		switch e := ev.(type) {
		case provider.ContentDelta:
			s.answer.WriteString(e.Text)
			s.publishDelta(ctx, pubsub.DeltaAnswer, e.Text)
		case provider.ReasoningDelta:
			s.fieldReasoning = true
			s.acc.Append(e.Text)
			s.publishDelta(ctx, pubsub.DeltaReasoning, e.Text)
		}
	}
}

func (s *session) fail(ctx context.Context, err error) {
	if !s.terminal.CompareAndSwap(false, true) {
		return
	}
	if s.cancelled.Load() {
		return
	}
	s.opts.Throttle.Forget(s.id.String())

	answer := s.answer.String()
	partial := State{}
	var trace reasoning.Trace
	if s.acc.Started() {
		trace = s.acc.Finalize()
		partial.Thinking = &trace
	}
	partial.Document = s.conv.Convert(answer)

	slog.Error("session failed",
		slog.String("session_id", s.id.String()),
		slog.String("provider", s.adapter.Name()),
		slog.Any("error", err),
	)
	if s.opts.OnError != nil {
		s.opts.OnError(err, partial)
	}
	if s.topic != nil {
		event := pubsub.Failed{
			SessionID:     s.id,
			Message:       err.Error(),
			PartialAnswer: answer,
			Timestamp:     strfmt.DateTime(time.Now()),
		}
		if perr := s.topic.Publish(ctx, event); perr != nil {
			slog.Debug("publishing failure", slog.Any("error", perr))
		}
	}
}
