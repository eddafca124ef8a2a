// Package condition holds the pluggable predicates that decide handler
// eligibility, and the registry they are discovered through.
package condition

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Evaluator is a named, stateless predicate. A handler condition whose key
// matches the evaluator's name (case-insensitively) is decided by it.
type Evaluator interface {
	Name() string
	IsConditionMatch(ctx context.Context, value string) (bool, error)
}

// Registry maps capability names to evaluators. It is populated once at
// process startup and read concurrently afterwards.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Evaluator
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Evaluator),
	}
}

func registryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Register adds an evaluator; duplicate names are rejected.
func (r *Registry) Register(evaluator Evaluator) error {
	key := registryKey(evaluator.Name())
	if key == "" {
		return fmt.Errorf("condition evaluator has an empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[key]; exists {
		return fmt.Errorf("condition evaluator %q already registered", evaluator.Name())
	}
	r.byName[key] = evaluator
	return nil
}

// Lookup resolves a condition key to its evaluator, case-insensitively.
func (r *Registry) Lookup(name string) (Evaluator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	evaluator, ok := r.byName[registryKey(name)]
	return evaluator, ok
}

// Names returns the registered evaluator names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for _, evaluator := range r.byName {
		names = append(names, evaluator.Name())
	}
	sort.Strings(names)
	return names
}
