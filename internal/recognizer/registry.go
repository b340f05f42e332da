package recognizer

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Constructor creates a Recognizer from its configuration.
type Constructor func(cfg Config) (Recognizer, error)

// ErrUnknown is returned by Get for a name nothing registered.
var ErrUnknown = errors.New("unknown recognizer")

var (
	mu       sync.RWMutex
	registry = map[string]Constructor{}
)

// Register adds a recognizer constructor under the given name.
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	registry[name] = ctor
}

// Get returns the recognizer constructor for the given name.
func Get(name string) (Constructor, error) {
	mu.RLock()
	defer mu.RUnlock()
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	return ctor, nil
}

// Names returns the registered recognizer names, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
