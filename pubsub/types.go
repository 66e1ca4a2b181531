package pubsub

import (
	"context"
	"errors"
	"fmt"

	"github.com/casualjim/rivulet/reasoning"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Pre-allocated type markers keep event marshaling cheap and the wire form
// self-describing.
var (
	deltaJSON     = []byte(`{"type":"delta"}`)
	completedJSON = []byte(`{"type":"completed"}`)
	failedJSON    = []byte(`{"type":"failed"}`)
)

// Event is a normalized session event published to subscribers. The union
// is closed to this package.
type Event interface {
	sessionEvent()
}

// DeltaKind distinguishes answer text from reasoning text in a Delta.
type DeltaKind string

const (
	DeltaAnswer    DeltaKind = "answer"
	DeltaReasoning DeltaKind = "reasoning"
)

// Delta is an incremental text fragment from a live session.
type Delta struct {
	SessionID uuid.UUID       `json:"session_id"`
	Kind      DeltaKind       `json:"kind"`
	Text      string          `json:"text"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Delta) sessionEvent() {}

// Completed carries the final answer and finished reasoning trace.
type Completed struct {
	SessionID uuid.UUID       `json:"session_id"`
	Answer    string          `json:"answer"`
	Thinking  reasoning.Trace `json:"thinking"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Completed) sessionEvent() {}

// Failed reports a session that ended in error, with whatever partial
// answer had accumulated.
type Failed struct {
	SessionID     uuid.UUID       `json:"session_id"`
	Message       string          `json:"message"`
	PartialAnswer string          `json:"partial_answer,omitempty"`
	Timestamp     strfmt.DateTime `json:"timestamp,omitempty"`
}

func (Failed) sessionEvent() {}

// Hook receives events for one subscription. Implementations must be
// non-blocking or quick; a persistently slow hook gets unsubscribed by the
// local broker.
type Hook interface {
	OnDelta(context.Context, Delta)
	OnCompleted(context.Context, Completed)
	OnFailed(context.Context, Failed)
}

type Broker interface {
	Topic(context.Context, string) Topic
}

type Topic interface {
	Publish(context.Context, Event) error
	Subscribe(context.Context, Hook) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}

// MarshalJSON implements custom JSON marshaling for Delta
func (d Delta) MarshalJSON() ([]byte, error) {
	result := deltaJSON

	var err error
	result, err = sjson.SetBytes(result, "session_id", d.SessionID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "kind", string(d.Kind))
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "text", d.Text)
	if err != nil {
		return nil, err
	}

	if !d.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", d.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Delta
func (d *Delta) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "delta" {
		return errors.New("missing or invalid type, expected 'delta'")
	}

	sessionID := gjson.GetBytes(data, "session_id")
	if !sessionID.Exists() {
		return errors.New("missing required field 'session_id'")
	}
	if err := d.SessionID.UnmarshalText([]byte(sessionID.String())); err != nil {
		return fmt.Errorf("invalid session_id: %w", err)
	}

	kind := gjson.GetBytes(data, "kind")
	if !kind.Exists() {
		return errors.New("missing required field 'kind'")
	}
	d.Kind = DeltaKind(kind.String())

	d.Text = gjson.GetBytes(data, "text").String()

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := d.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling for Completed
func (c Completed) MarshalJSON() ([]byte, error) {
	result := completedJSON

	var err error
	result, err = sjson.SetBytes(result, "session_id", c.SessionID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "answer", c.Answer)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "thinking.summary", c.Thinking.Summary)
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "thinking.full_text", c.Thinking.FullText)
	if err != nil {
		return nil, err
	}

	if !c.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", c.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Completed
func (c *Completed) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "completed" {
		return errors.New("missing or invalid type, expected 'completed'")
	}

	sessionID := gjson.GetBytes(data, "session_id")
	if !sessionID.Exists() {
		return errors.New("missing required field 'session_id'")
	}
	if err := c.SessionID.UnmarshalText([]byte(sessionID.String())); err != nil {
		return fmt.Errorf("invalid session_id: %w", err)
	}

	c.Answer = gjson.GetBytes(data, "answer").String()
	c.Thinking = reasoning.Trace{
		Summary:  gjson.GetBytes(data, "thinking.summary").String(),
		FullText: gjson.GetBytes(data, "thinking.full_text").String(),
	}

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := c.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}

// MarshalJSON implements custom JSON marshaling for Failed
func (f Failed) MarshalJSON() ([]byte, error) {
	result := failedJSON

	var err error
	result, err = sjson.SetBytes(result, "session_id", f.SessionID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "message", f.Message)
	if err != nil {
		return nil, err
	}

	if f.PartialAnswer != "" {
		result, err = sjson.SetBytes(result, "partial_answer", f.PartialAnswer)
		if err != nil {
			return nil, err
		}
	}

	if !f.Timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", f.Timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

// UnmarshalJSON implements custom JSON unmarshaling for Failed
func (f *Failed) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "failed" {
		return errors.New("missing or invalid type, expected 'failed'")
	}

	sessionID := gjson.GetBytes(data, "session_id")
	if !sessionID.Exists() {
		return errors.New("missing required field 'session_id'")
	}
	if err := f.SessionID.UnmarshalText([]byte(sessionID.String())); err != nil {
		return fmt.Errorf("invalid session_id: %w", err)
	}

	f.Message = gjson.GetBytes(data, "message").String()
	f.PartialAnswer = gjson.GetBytes(data, "partial_answer").String()

	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := f.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}

	return nil
}

// ToJSON serializes an event with its type marker for the wire.
func ToJSON(event Event) ([]byte, error) {
	switch e := event.(type) {
	case Delta:
		return e.MarshalJSON()
	case Completed:
		return e.MarshalJSON()
	case Failed:
		return e.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown event type: %T", event)
	}
}

// FromJSON deserializes a wire event by its type marker.
func FromJSON(data []byte) (Event, error) {
	switch gjson.GetBytes(data, "type").String() {
	case "delta":
		var d Delta
		if err := d.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return d, nil
	case "completed":
		var c Completed
		if err := c.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return c, nil
	case "failed":
		var f Failed
		if err := f.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unknown event type in payload: %s", data)
	}
}
