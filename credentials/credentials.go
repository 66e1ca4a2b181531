// Package credentials resolves provider API keys. From a session's point
// of view this is a synchronous lookup; secure storage lives behind the
// Store interface.
package credentials

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrNotFound marks a provider without a configured credential.
var ErrNotFound = errors.New("credential not found")

type Store interface {
	// Get returns the API key for a provider id, or an error wrapping
	// ErrNotFound when none is configured.
	Get(providerID string) (string, error)
}

// Env resolves keys from the environment: provider "openai-chat" maps to
// OPENAI_CHAT_API_KEY. Combined with godotenv autoloading in binaries this
// covers the usual .env workflow.
type Env struct{}

func (Env) Get(providerID string) (string, error) {
	key := EnvKey(providerID)
	if v := os.Getenv(key); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s (%s): %w", providerID, key, ErrNotFound)
}

// EnvKey returns the environment variable name for a provider id.
func EnvKey(providerID string) string {
	name := strings.ToUpper(strings.NewReplacer("-", "_", ".", "_").Replace(providerID))
	return name + "_API_KEY"
}

// Static is a fixed in-memory store, handy for tests and embedding hosts
// that manage secrets themselves.
type Static map[string]string

func (s Static) Get(providerID string) (string, error) {
	if v, ok := s[providerID]; ok && v != "" {
		return v, nil
	}
	return "", fmt.Errorf("%s: %w", providerID, ErrNotFound)
}

// Optional wraps a store, turning a missing credential into an empty key.
// Local providers (an ollama daemon) need no credential at all.
type Optional struct {
	Store Store
}

func (o Optional) Get(providerID string) (string, error) {
	v, err := o.Store.Get(providerID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	return v, nil
}
