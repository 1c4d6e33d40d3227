package commands

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps command names and aliases to commands.
type Registry struct {
	mu    sync.RWMutex
	names map[string]Command
	byKey map[string]Command // primary name only
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		names: make(map[string]Command),
		byKey: make(map[string]Command),
	}
}

// Register adds a command. A name or alias may only be claimed once.
func (r *Registry) Register(c Command) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys := append([]string{c.Name()}, c.Aliases()...)
	for _, k := range keys {
		if prev, exists := r.names[k]; exists {
			return fmt.Errorf("command %q: %q already taken by %q", c.Name(), k, prev.Name())
		}
	}
	for _, k := range keys {
		r.names[k] = c
	}
	r.byKey[c.Name()] = c
	return nil
}

// Find looks up a command by name or alias.
func (r *Registry) Find(name string) (Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.names[name]
	return cmd, ok
}

// All returns every command sorted by name.
func (r *Registry) All() []Command {
	return r.Listed(true)
}

// Listed returns the commands sorted by name, leaving out admin-only ones
// unless withAdmin is set.
func (r *Registry) Listed(withAdmin bool) []Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.byKey))
	for name, cmd := range r.byKey {
		if !withAdmin && adminOnly(cmd) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Command, len(names))
	for i, name := range names {
		result[i] = r.byKey[name]
	}
	return result
}

func adminOnly(cmd Command) bool {
	a, ok := cmd.(AdminCommand)
	return ok && a.AdminOnly()
}

// DefaultRegistry holds the commands registered from init.
var DefaultRegistry = NewRegistry()

// Register adds a command to the default registry and panics on a clash.
func Register(c Command) {
	if err := DefaultRegistry.Register(c); err != nil {
		panic(err)
	}
}
