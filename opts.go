package rivulet

import (
	"time"

	"github.com/casualjim/rivulet/credentials"
	"github.com/casualjim/rivulet/provider"
	"github.com/casualjim/rivulet/provider/anthropic"
	"github.com/casualjim/rivulet/provider/ollama"
	"github.com/casualjim/rivulet/provider/openaichat"
	"github.com/casualjim/rivulet/pubsub"
	"github.com/casualjim/rivulet/throttle"
	"github.com/casualjim/rivulet/transport"
	"github.com/fogfish/opts"
)

// Options configures one generation session. Build it through the With*
// options passed to Start; zero values fall back to the defaults noted on
// each field.
type Options struct {
	// Prompt is the user prompt. Required.
	Prompt string
	// System is an optional system instruction.
	System string
	// Model is the provider-side model name. Required.
	Model string
	// Provider selects the wire-format adapter by registry name.
	// Defaults to the OpenAI-compatible chat format.
	Provider string
	// BaseURL overrides the adapter's default endpoint.
	BaseURL string
	// Temperature is optional; nil leaves the provider default.
	Temperature *float64
	// MaxTokens caps the generation length, 0 for the provider default.
	MaxTokens int

	// OnStream receives throttled intermediate updates.
	OnStream func(answer string, state State)
	// OnComplete receives the final, unthrottled update. Fires at most
	// once, mutually exclusive with OnError.
	OnComplete func(answer string, state State)
	// OnError receives the normalized failure plus whatever partial state
	// had accumulated, so the caller can keep or discard it.
	OnError func(err error, partial State)

	// Registry resolves the Provider name. Defaults to DefaultRegistry.
	Registry *provider.Registry
	// Credentials resolves the adapter's API key. Defaults to environment
	// lookup where a missing key is allowed (local providers need none).
	Credentials credentials.Store
	// Source opens the byte stream. Defaults to an HTTP source.
	Source transport.Source
	// Throttle paces intermediate updates. Defaults to a process-wide
	// instance with the default interval.
	Throttle *throttle.Throttle
	// Interval overrides the throttle interval when Throttle is unset.
	Interval time.Duration
	// RetryBudget bounds automatic retries of pre-first-byte transport
	// failures. Defaults to 2.
	RetryBudget int

	// Broker, when set, receives normalized session events on TopicID.
	Broker pubsub.Broker
	// TopicID names the broker topic. Defaults to "rivulet.sessions".
	TopicID string
}

var (
	WithPrompt      = opts.ForName[Options, string]("Prompt")
	WithSystem      = opts.ForName[Options, string]("System")
	WithModel       = opts.ForName[Options, string]("Model")
	WithProvider    = opts.ForName[Options, string]("Provider")
	WithBaseURL     = opts.ForName[Options, string]("BaseURL")
	WithMaxTokens   = opts.ForName[Options, int]("MaxTokens")
	WithOnStream    = opts.ForName[Options, func(string, State)]("OnStream")
	WithOnComplete  = opts.ForName[Options, func(string, State)]("OnComplete")
	WithOnError     = opts.ForName[Options, func(error, State)]("OnError")
	WithRegistry    = opts.ForName[Options, *provider.Registry]("Registry")
	WithCredentials = opts.ForName[Options, credentials.Store]("Credentials")
	WithSource      = opts.ForName[Options, transport.Source]("Source")
	WithThrottle    = opts.ForName[Options, *throttle.Throttle]("Throttle")
	WithInterval    = opts.ForName[Options, time.Duration]("Interval")
	WithRetryBudget = opts.ForName[Options, int]("RetryBudget")
)

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) opts.Option[Options] {
	return opts.Type[Options](func(o *Options) error {
		o.Temperature = &t
		return nil
	})
}

// WithBroker publishes the session's normalized events to a pubsub topic.
// An empty topicID uses the default topic.
func WithBroker(broker pubsub.Broker, topicID string) opts.Option[Options] {
	return opts.Type[Options](func(o *Options) error {
		o.Broker = broker
		o.TopicID = topicID
		return nil
	})
}

// DefaultRegistry returns a registry with every built-in adapter.
func DefaultRegistry() *provider.Registry {
	return provider.NewRegistry(openaichat.New(), anthropic.New(), ollama.New())
}
