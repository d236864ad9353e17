package prompts

import (
	"fmt"
	"slices"
	"sync"
)

// PromptRegistry holds the system instructions, each under an ID with one or
// more versions kept in ascending version order.
type PromptRegistry struct {
	mu      sync.RWMutex
	entries map[string][]*Prompt
}

var (
	defaultRegistry     *PromptRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the registry holding the built-in instructions.
func DefaultRegistry() *PromptRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewPromptRegistry()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

// NewPromptRegistry creates an empty registry.
func NewPromptRegistry() *PromptRegistry {
	return &PromptRegistry{entries: make(map[string][]*Prompt)}
}

// Register adds p, replacing any prompt with the same ID and version.
func (r *PromptRegistry) Register(p *Prompt) {
	if p == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	versions := slices.DeleteFunc(r.entries[p.ID], func(q *Prompt) bool { return q.Version == p.Version })
	versions = append(versions, p)
	slices.SortFunc(versions, func(a, b *Prompt) int {
		switch {
		case a.Version < b.Version:
			return -1
		case a.Version > b.Version:
			return 1
		}
		return 0
	})
	r.entries[p.ID] = versions
}

// Get returns one version of a prompt.
func (r *PromptRegistry) Get(id string, version PromptVersion) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.entries[id] {
		if p.Version == version {
			return p, nil
		}
	}
	return nil, fmt.Errorf("prompt %s version %s not found", id, version)
}

// GetLatest returns the newest non-deprecated version of a prompt, or the
// newest version when all are deprecated.
func (r *PromptRegistry) GetLatest(id string) (*Prompt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	versions := r.entries[id]
	if len(versions) == 0 {
		return nil, fmt.Errorf("prompt not found: %s", id)
	}
	for i := len(versions) - 1; i >= 0; i-- {
		if !versions[i].Deprecated {
			return versions[i], nil
		}
	}
	return versions[len(versions)-1], nil
}

// MustLatest returns the latest content of a built-in instruction.
// It panics if id was never registered.
func (r *PromptRegistry) MustLatest(id string) string {
	p, err := r.GetLatest(id)
	if err != nil {
		panic(err)
	}
	return p.Content
}
