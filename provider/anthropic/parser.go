// Package anthropic adapts the Anthropic messages wire format: SSE records
// with an event name and a typed JSON payload. Thinking text arrives as
// content_block_delta records with delta.type == "thinking_delta", visible
// text as "text_delta", so classification is purely field-based.
package anthropic

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
	Name = "anthropic"

	defaultBaseURL   = "https://api.anthropic.com/v1"
	apiVersion       = "2023-06-01"
	defaultMaxTokens = 4096
)

type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (*Adapter) Name() string { return Name }

func (*Adapter) NewParser() provider.FrameParser { return &parser{} }

type messagesRequest struct {
	Model       string     `json:"model"`
	System      string     `json:"system,omitempty"`
	Messages    []msgParam `json:"messages"`
	MaxTokens   int        `json:"max_tokens"`
	Stream      bool       `json:"stream"`
	Temperature *float64   `json:"temperature,omitempty"`
}

type msgParam struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (*Adapter) NewRequest(req provider.Request) (transport.Request, error) {
	if req.Model == "" {
		return transport.Request{}, errors.New("model is required")
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	body, err := json.Marshal(messagesRequest{
		Model:       req.Model,
		System:      req.System,
		Messages:    []msgParam{{Role: "user", Content: req.Prompt}},
		MaxTokens:   maxTokens,
		Stream:      true,
		Temperature: req.Temperature,
	})
	if err != nil {
		return transport.Request{}, err
	}

	base := req.BaseURL
	if base == "" {
		base = defaultBaseURL
	}

	headers := map[string]string{"anthropic-version": apiVersion}
	if req.APIKey != "" {
		headers["x-api-key"] = req.APIKey
	}

	return transport.Request{
		URL:     strings.TrimSuffix(base, "/") + "/messages",
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

// parseLine handles one SSE line. The payload's own "type" field carries
// everything the event: line does, so event lines are skipped.
func parseLine(line string) []provider.Event {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, ":") {
		return nil
	}

	name, value, ok := sse.Field(line)
	if !ok || name != "data" {
		return nil
	}

	payload := strings.TrimSpace(value)
	if !gjson.Valid(payload) {
		slog.Debug("skipping malformed messages record",
			slog.String("provider", Name), slog.String("data", payload))
		return nil
	}

	root := gjson.Parse(payload)
	switch root.Get("type").String() {
	case "content_block_delta":
		delta := root.Get("delta")
		switch delta.Get("type").String() {
		case "text_delta":
			if text := delta.Get("text").String(); text != "" {
				return []provider.Event{provider.ContentDelta{Text: text, Raw: root}}
			}
		case "thinking_delta":
			if text := delta.Get("thinking").String(); text != "" {
				return []provider.Event{provider.ReasoningDelta{Text: text, Raw: root}}
			}
		}
	case "message_delta":
		if reason := root.Get("delta.stop_reason"); reason.Exists() && reason.String() != "" {
			return []provider.Event{provider.Done{Reason: reason.String(), Raw: root}}
		}
	case "message_stop":
		return []provider.Event{provider.Done{Reason: "end_turn", Raw: root}}
	case "error":
		msg := root.Get("error.message").String()
		if msg == "" {
			msg = root.Get("error").String()
		}
		return []provider.Event{provider.Error{Err: errors.New(msg), Raw: root}}
	}
	// message_start, content_block_start/stop, ping: nothing to surface
	return nil
}
