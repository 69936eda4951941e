package source

import (
	"fmt"
	"sort"
	"sync"
)

// Factory constructs an event source from a Config.
type Factory func(cfg Config) (EventSource, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a factory discoverable under name.
// Registering the same name twice panics, as does a nil factory; both are
// programmer errors at init time.
func Register(name string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if factory == nil {
		panic("source: Register with nil factory")
	}
	if _, dup := registry[name]; dup {
		panic(fmt.Sprintf("source: Register called twice for %q", name))
	}
	registry[name] = factory
}

// New constructs the event source registered under name.
func New(name string, cfg Config) (EventSource, error) {
	registryMu.RLock()
	factory, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("source: unknown event source %q (registered: %v)", name, Names())
	}
	return factory(cfg)
}

// Names returns the registered source names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
