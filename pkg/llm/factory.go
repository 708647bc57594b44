package llm

import (
	"fmt"
	"sync"
	"time"
)

// Constructor builds a fresh provider adapter with the given timeout.
type Constructor func(timeout time.Duration) Provider

// Factory is a name-to-constructor registry. Adapters are created per call
// so no state leaks between requests; third-party adapters register at
// startup.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory returns a factory pre-populated with the built-in vendors.
func NewFactory() *Factory {
	f := &Factory{constructors: make(map[string]Constructor)}
	f.Register("openai", func(timeout time.Duration) Provider {
		return NewOpenAIProvider(timeout)
	})
	f.Register("anthropic", func(timeout time.Duration) Provider {
		return NewAnthropicProvider(timeout)
	})
	return f
}

// Register adds or replaces a provider constructor.
func (f *Factory) Register(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = ctor
}

// Get returns a fresh adapter for name.
func (f *Factory) Get(name string, timeout time.Duration) (Provider, error) {
	f.mu.RLock()
	ctor, ok := f.constructors[name]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return ctor(timeout), nil
}

// Names returns the registered provider names.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.constructors))
	for name := range f.constructors {
		names = append(names, name)
	}
	return names
}
