// Package inputs builds the effective input map for a task run.
package inputs

import (
	"sort"
	"strings"

	"dario.cat/mergo"

	"github.com/taskweave/taskweave/engine/task"
)

// Merge seeds the effective input map from declaration defaults and overlays
// the instance inputs on top. Names are trimmed and compared
// case-insensitively; blank names are dropped; instance values win on
// conflict, including explicit empty overrides. Pure function: neither
// argument is mutated.
func Merge(declarations []task.InputDeclaration, instanceInputs map[string]string) *task.InputMap {
	merged := task.NewInputMap()
	for _, declaration := range declarations {
		merged.Set(declaration.Name, declaration.Default)
	}

	defaults := merged.LowerValues()
	overrides := normalize(instanceInputs)
	if err := mergo.Merge(&defaults, overrides, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
		// plain overlay if mergo rejects the maps
		for key, value := range overrides {
			defaults[key] = value
		}
	}
	merged.ReplaceValues(defaults)

	// Instance inputs with no matching declaration still reach the handler.
	for _, name := range sortedNames(instanceInputs) {
		if _, declared := merged.Get(name); !declared {
			merged.Set(name, instanceInputs[name])
		}
	}
	return merged
}

func normalize(values map[string]string) map[string]string {
	normalized := make(map[string]string, len(values))
	for name, value := range values {
		key := strings.ToLower(strings.TrimSpace(name))
		if key == "" {
			continue
		}
		normalized[key] = strings.TrimSpace(value)
	}
	return normalized
}

func sortedNames(values map[string]string) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
