package pubsub

import (
	"context"
	"errors"
	"log/slog"

	"github.com/alphadose/haxmap"
	"github.com/casualjim/rivulet/pkg/slogx"
	"github.com/casualjim/rivulet/pkg/uuidx"
	"github.com/nats-io/nats.go"
)

type natsBroker struct {
	client *nats.Conn
	topics *haxmap.Map[string, *natsTopic]
}

// NATS returns a broker backed by a NATS connection, for fanning session
// events out to other processes.
func NATS(client *nats.Conn) Broker {
	return &natsBroker{
		client: client,
		topics: haxmap.New[string, *natsTopic](),
	}
}

func (b *natsBroker) Topic(_ context.Context, id string) Topic {
	top, _ := b.topics.GetOrCompute(id, func() *natsTopic {
		return &natsTopic{subject: id, client: b.client}
	})
	return top
}

type natsTopic struct {
	client  *nats.Conn
	subject string
}

func (t *natsTopic) Publish(_ context.Context, event Event) error {
	eb, err := ToJSON(event)
	if err != nil {
		return err
	}
	return t.client.Publish(t.subject, eb)
}

func (t *natsTopic) Subscribe(ctx context.Context, hook Hook) (Subscription, error) {
	if hook == nil {
		return nil, errors.New("hook is required")
	}

	nsub, err := t.client.Subscribe(t.subject, func(msg *nats.Msg) {
		event, err := FromJSON(msg.Data)
		if err != nil {
			slog.Error("failed to unmarshal session event", slogx.Error(err))
			return
		}
		dispatch(ctx, hook, event)
	})
	if err != nil {
		return nil, err
	}

	return &natsSubscription{id: uuidx.NewString(), sub: nsub}, nil
}

type natsSubscription struct {
	id  string
	sub *nats.Subscription
}

func (n *natsSubscription) ID() string { return n.id }

func (n *natsSubscription) Unsubscribe() {
	if err := n.sub.Unsubscribe(); err != nil {
		slog.Error("failed to unsubscribe", slogx.Error(err), slog.String("subscription", n.id))
	}
}
