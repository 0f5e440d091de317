package sasl

import (
	"fmt"
	"sort"
	"sync"
)

type mechanism struct {
	name       string
	priority   int
	sufficient func(Properties) bool
	factory    func() Client
}

var (
	regMu      sync.RWMutex
	mechanisms = make(map[string]mechanism)
)

// Register makes a client mechanism constructible under name. Higher priority
// means more preferred; the selection policy itself lives with the caller.
// sufficient reports whether a set of properties carries everything the
// mechanism needs; nil means always sufficient.
func Register(name string, priority int, sufficient func(Properties) bool, factory func() Client) {
	if factory == nil {
		panic("sasl: Register with nil factory")
	}
	regMu.Lock()
	defer regMu.Unlock()
	mechanisms[name] = mechanism{name, priority, sufficient, factory}
}

// New constructs a fresh client for the named mechanism.
func New(name string) (Client, error) {
	regMu.RLock()
	m, ok := mechanisms[name]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("sasl: unknown mechanism %q", name)
	}
	return m.factory(), nil
}

// Mechanisms returns the registered mechanism names usable with props,
// most preferred first.
func Mechanisms(props Properties) []string {
	regMu.RLock()
	usable := make([]mechanism, 0, len(mechanisms))
	for _, m := range mechanisms {
		if m.sufficient == nil || m.sufficient(props) {
			usable = append(usable, m)
		}
	}
	regMu.RUnlock()

	sort.Slice(usable, func(i, j int) bool {
		if usable[i].priority != usable[j].priority {
			return usable[i].priority > usable[j].priority
		}
		return usable[i].name < usable[j].name
	})

	names := make([]string, len(usable))
	for i, m := range usable {
		names[i] = m.name
	}
	return names
}
