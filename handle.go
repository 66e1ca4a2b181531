package rivulet

import (
	"sync"

	"github.com/google/uuid"
)

// Handle controls a running session. It is safe to share across
// goroutines; Cancel is idempotent.
type Handle struct {
	id     uuid.UUID
	once   sync.Once
	cancel func()
	done   chan struct{}
}

// ID is the session identifier, stable for the whole lifetime of the
// session and embedded in every published event.
func (h *Handle) ID() uuid.UUID { return h.id }

// Cancel stops the session. The network stream is torn down and no
// further callbacks fire, including OnComplete and OnError. Calling
// Cancel more than once, or after the session finished, is a no-op.
func (h *Handle) Cancel() {
	h.once.Do(h.cancel)
}

// Done is closed when the session goroutine has fully exited, whether it
// completed, failed, or was cancelled.
func (h *Handle) Done() <-chan struct{} { return h.done }
