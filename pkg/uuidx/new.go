// Package uuidx generates the time-ordered UUIDs used to identify
// sessions and subscriptions.
package uuidx

import "github.com/google/uuid"

// New returns a version 7 UUID. V7 sorts by creation time, which keeps
// session ids naturally ordered in logs. Panics if generation fails.
func New() uuid.UUID {
	return uuid.Must(uuid.NewV7())
}

// NewString returns a fresh version 7 UUID in string form.
func NewString() string {
	return New().String()
}
