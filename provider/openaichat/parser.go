// Package openaichat adapts the OpenAI-compatible chat completion wire
// format: SSE "data:" lines each carrying one JSON chunk, terminated by a
// literal [DONE] sentinel. Reasoning-capable compatible backends surface
// thinking text through delta fields (reasoning_content, reasoning).
package openaichat

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
	// Name identifies this adapter in the registry.
	Name = "openai-chat"

	defaultBaseURL = "https://api.openai.com/v1"
	doneSentinel   = "[DONE]"
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() string { return Name }

func (*Adapter) NewParser() provider.FrameParser { return &parser{} }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
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

	body, err := json.Marshal(chatRequest{
		Model:       req.Model,
		Messages:    msgs,
		Stream:      true,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return transport.Request{}, err
	}

	base := req.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	headers := map[string]string{}
	if req.APIKey != "" {
		headers["Authorization"] = "Bearer " + req.APIKey
	}

	return transport.Request{
		URL:     strings.TrimSuffix(base, "/") + "/chat/completions",
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
		events = append(events, parseLine(line)...)
	}
	return events
}

func (p *parser) Flush() []provider.Event {
	rest := strings.TrimSpace(p.lines.Rest())
	if rest == "" {
		return nil
	}
	return parseLine(rest)
}

func parseLine(line string) []provider.Event {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ":") {
		return nil
	}

	name, value, ok := sse.Field(line)
	if !ok || name != "data" {
		// event:/id:/retry: lines carry nothing for this format
		return nil
	}

	payload := strings.TrimSpace(value)
	if payload == doneSentinel {
		return []provider.Event{provider.Done{Reason: "stop"}}
	}
	if !gjson.Valid(payload) {
		slog.Debug("skipping malformed chat completion record",
			slog.String("provider", Name), slog.String("data", payload))
		return nil
	}

	root := gjson.Parse(payload)
	if errField := root.Get("error"); errField.Exists() {
		msg := errField.Get("message").String()
		if msg == "" {
			msg = errField.String()
		}
		return []provider.Event{provider.Error{Err: errors.New(msg), Raw: root}}
	}

	var events []provider.Event
	delta := root.Get("choices.0.delta")

	for _, field := range []string{"reasoning_content", "reasoning"} {
		if r := delta.Get(field); r.Exists() && r.String() != "" {
			events = append(events, provider.ReasoningDelta{Text: r.String(), Raw: root})
			break
		}
	}

	if c := delta.Get("content"); c.Exists() && c.String() != "" {
		events = append(events, provider.ContentDelta{Text: c.String(), Raw: root})
	}

	if fr := root.Get("choices.0.finish_reason"); fr.Exists() && fr.Type == gjson.String && fr.String() != "" {
		events = append(events, provider.Done{Reason: fr.String(), Raw: root})
	}

	return events
}
