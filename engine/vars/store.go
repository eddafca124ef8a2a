// Package vars implements the run-scoped variable store shared across a job.
// All access goes through the store's own synchronization; callers never get
// direct references to its backing map.
package vars

import (
	"os"
	"sync"

	"github.com/taskweave/taskweave/pkg/tplengine"
)

// ContextKey is the top-level template key variable references resolve
// under, e.g. `{{ .vars.buildDir }}`.
const ContextKey = "vars"

// Store is a synchronized key-value store with bulk text substitution over
// input maps. Other steps of the job may read it concurrently.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
	engine *tplengine.TemplateEngine
}

func NewStore() *Store {
	return &Store{
		values: make(map[string]string),
		engine: tplengine.New(),
	}
}

func (s *Store) Set(name, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[name] = value
}

func (s *Store) Get(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[name]
	return value, ok
}

// Snapshot returns a detached copy of the current variables.
func (s *Store) Snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]string, len(s.values))
	for name, value := range s.values {
		snapshot[name] = value
	}
	return snapshot
}

// ExpandValues substitutes variable references in every value of the map
// against a snapshot of the store. The input map is not mutated.
func (s *Store) ExpandValues(values map[string]string) map[string]string {
	snapshot := s.Snapshot()
	context := make(map[string]any, len(snapshot))
	for name, value := range snapshot {
		context[name] = value
	}
	return s.engine.ExpandMap(values, map[string]any{ContextKey: context})
}

// -----------------------------------------------------------------------------
// Environment expansion
// -----------------------------------------------------------------------------

// EnvExpander substitutes $NAME and ${NAME} references against the process
// or job environment.
type EnvExpander struct {
	lookup func(string) string
}

func NewEnvExpander() *EnvExpander {
	return &EnvExpander{lookup: os.Getenv}
}

// NewEnvExpanderWithLookup builds an expander over a custom environment,
// used by tests and by job-scoped environments.
func NewEnvExpanderWithLookup(lookup func(string) string) *EnvExpander {
	return &EnvExpander{lookup: lookup}
}

// ExpandEnvironmentVariables expands every value of the map. The input map
// is not mutated.
func (e *EnvExpander) ExpandEnvironmentVariables(values map[string]string) map[string]string {
	expanded := make(map[string]string, len(values))
	for key, value := range values {
		expanded[key] = os.Expand(value, e.lookup)
	}
	return expanded
}
