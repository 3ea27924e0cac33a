package providers

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Constructor builds a provider from decoded options.
type Constructor func(opts Options, log Logger) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Constructor{}
)

// Register makes a provider implementation available to New under name.
// Federation packages call it from their init function.
func Register(name string, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(name)] = ctor
}

// Registered lists the registered implementation names, sorted.
func Registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New decodes raw options and builds the implementation matching their
// name, case-insensitively.
func New(raw interface{}, log Logger) (Provider, error) {
	opts, err := DecodeOptions(raw)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = NopLogger{}
	}
	registryMu.RLock()
	ctor, ok := registry[strings.ToLower(strings.TrimSpace(opts.Name))]
	registryMu.RUnlock()
	if !ok {
		return nil, &ValidationError{
			Field:  "name",
			Reason: fmt.Sprintf("must be one of %s, got %q", strings.Join(Registered(), ", "), opts.Name),
		}
	}
	return ctor(opts, log)
}
