// Package ollama adapts the Ollama chat wire format: newline-delimited bare
// JSON objects with no SSE envelope. Thinking-capable models carry the
// trace in message.thinking alongside message.content; done:true closes
// the stream.
package ollama

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/casualjim/rivulet/internal/sse"
	"github.com/casualjim/rivulet/provider"
	"github.com/casualjim/rivulet/transport"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

const (
	Name = "ollama"

	defaultBaseURL = "http://localhost:11434"
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() string { return Name }

func (*Adapter) NewParser() provider.FrameParser { return &parser{} }

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  *chatOptions  `json:"options,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict,omitempty"`
}

func (*Adapter) NewRequest(req provider.Request) (transport.Request, error) {
	if req.Model == "" {
		return transport.Request{}, errors.New("model is required")
	}

	msgs := make([]chatMessage, 0, 2)
	if req.System != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: req.System})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Prompt})

	var options *chatOptions
	if req.Temperature != nil || req.MaxTokens > 0 {
		options = &chatOptions{Temperature: req.Temperature, NumPredict: req.MaxTokens}
	}

	body, err := json.Marshal(chatRequest{
		Model:    req.Model,
		Messages: msgs,
		Stream:   true,
		Options:  options,
	})
	if err != nil {
		return transport.Request{}, err
	}

	base := req.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	// Local daemon by default, no credential header unless one was given.
	headers := map[string]string{}
	if req.APIKey != "" {
		headers["Authorization"] = "Bearer " + req.APIKey
	}

	return transport.Request{
		URL:     strings.TrimSuffix(base, "/") + "/api/chat",
		Headers: headers,
		Body:    body,
	}, nil
}

type parser struct {
	lines sse.LineScanner
}

func (p *parser) Parse(text string) []provider.Event {
	var events []provider.Event
	for _, line := range p.lines.Feed(text) {
		events = append(events, parseRecord(line)...)
	}
	return events
}

func (p *parser) Flush() []provider.Event {
	rest := strings.TrimSpace(p.lines.Rest())
	if rest == "" {
		return nil
	}
	return parseRecord(rest)
}

func parseRecord(line string) []provider.Event {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}
	if !gjson.Valid(line) {
		slog.Debug("skipping malformed chat record",
			slog.String("provider", Name), slog.String("data", line))
		return nil
	}

	root := gjson.Parse(line)
	if errField := root.Get("error"); errField.Exists() {
		return []provider.Event{provider.Error{Err: errors.New(errField.String()), Raw: root}}
	}

	var events []provider.Event
	msg := root.Get("message")

	if thinking := msg.Get("thinking"); thinking.Exists() && thinking.String() != "" {
		events = append(events, provider.ReasoningDelta{Text: thinking.String(), Raw: root})
	}
	if content := msg.Get("content"); content.Exists() && content.String() != "" {
		events = append(events, provider.ContentDelta{Text: content.String(), Raw: root})
	}
	if root.Get("done").Bool() {
		reason := root.Get("done_reason").String()
		if reason == "" {
			reason = "stop"
		}
		events = append(events, provider.Done{Reason: reason, Raw: root})
	}

	return events
}
