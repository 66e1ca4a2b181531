package provider

import (
	"fmt"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Registry resolves adapters by name. Registration order is preserved so
// listings stay deterministic. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	adapters *orderedmap.OrderedMap[string, Adapter]
}

func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: orderedmap.New[string, Adapter]()}
	for _, a := range adapters {
		r.Register(a)
	}
	return r
}

func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters.Set(a.Name(), a)
}

func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", name)
	}
	return a, nil
}

// Names returns the registered provider names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, r.adapters.Len())
	for pair := r.adapters.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}
