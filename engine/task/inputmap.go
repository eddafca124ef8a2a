package task

import "strings"

// InputMap is the effective input map handed to the chosen handler: a
// case-insensitive, trim-normalized mapping from input name to value.
// Blank names are dropped silently; values are never nil, absent values
// normalize to the empty string. Built fresh per run, never persisted.
type InputMap struct {
	order  []string          // lookup keys, first-seen order
	names  map[string]string // lookup key -> first-seen display name
	values map[string]string // lookup key -> value
}

func NewInputMap() *InputMap {
	return &InputMap{
		names:  make(map[string]string),
		values: make(map[string]string),
	}
}

func lookupKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Set stores a value under the trimmed, case-insensitive name. Blank names
// are dropped; later writes win, display casing keeps the first writer's.
func (m *InputMap) Set(name, value string) {
	key := lookupKey(name)
	if key == "" {
		return
	}
	if _, exists := m.values[key]; !exists {
		m.order = append(m.order, key)
		m.names[key] = strings.TrimSpace(name)
	}
	m.values[key] = strings.TrimSpace(value)
}

func (m *InputMap) Get(name string) (string, bool) {
	value, ok := m.values[lookupKey(name)]
	return value, ok
}

// GetOrEmpty returns the value for name, or "" when absent.
func (m *InputMap) GetOrEmpty(name string) string {
	return m.values[lookupKey(name)]
}

func (m *InputMap) Len() int {
	return len(m.order)
}

// Names returns the display names in first-seen order.
func (m *InputMap) Names() []string {
	names := make([]string, 0, len(m.order))
	for _, key := range m.order {
		names = append(names, m.names[key])
	}
	return names
}

// Values returns a detached name -> value snapshot keyed by display name.
func (m *InputMap) Values() map[string]string {
	snapshot := make(map[string]string, len(m.order))
	for _, key := range m.order {
		snapshot[m.names[key]] = m.values[key]
	}
	return snapshot
}

// LowerValues returns a detached snapshot keyed by lookup key. Template
// contexts use it so references resolve case-insensitively.
func (m *InputMap) LowerValues() map[string]string {
	snapshot := make(map[string]string, len(m.order))
	for _, key := range m.order {
		snapshot[key] = m.values[key]
	}
	return snapshot
}

// ReplaceValues overwrites values for existing keys from the given lookup-key
// -> value map, leaving names and ordering untouched. Unknown keys are
// ignored; stages that add keys go through Set.
func (m *InputMap) ReplaceValues(values map[string]string) {
	for key, value := range values {
		key = lookupKey(key)
		if _, exists := m.values[key]; exists {
			m.values[key] = value
		}
	}
}
