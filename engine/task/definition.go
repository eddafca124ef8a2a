package task

import (
	"github.com/taskweave/taskweave/engine/core"
)

// -----------------------------------------------------------------------------
// Handler Kind
// -----------------------------------------------------------------------------

// Kind discriminates the runtime a handler variant targets.
type Kind string

const (
	KindProcess    Kind = "process"
	KindShell      Kind = "shell"
	KindNode       Kind = "node"
	KindPowerShell Kind = "powershell"
)

func (k Kind) String() string {
	return string(k)
}

// SupportedKinds returns the handler kinds statically available on the given
// platform. The list feeds user-facing selection failures.
func SupportedKinds(p core.Platform) []Kind {
	if p.IsWindows() {
		return []Kind{KindProcess, KindShell, KindNode, KindPowerShell}
	}
	return []Kind{KindProcess, KindShell, KindNode}
}

// -----------------------------------------------------------------------------
// Input Declarations
// -----------------------------------------------------------------------------

// InputType tags how an input value is interpreted after merging.
type InputType string

const (
	InputTypeString   InputType = "string"
	InputTypeBoolean  InputType = "boolean"
	InputTypeFilePath InputType = "filePath"
)

// InputDeclaration declares one input a task accepts, with its default.
type InputDeclaration struct {
	Name    string    `json:"name"              yaml:"name"              validate:"required"`
	Default string    `json:"default,omitempty" yaml:"default,omitempty"`
	Type    InputType `json:"type,omitempty"    yaml:"type,omitempty"`
}

// -----------------------------------------------------------------------------
// Execution Declarations
// -----------------------------------------------------------------------------

// HandlerData is one candidate execution strategy, immutable once loaded.
type HandlerData struct {
	Kind Kind `json:"kind" yaml:"kind" validate:"required"`
	// Conditions maps condition-key to condition-value; empty means the
	// variant is unconditional.
	Conditions map[string]string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
	// Priority sorts candidates; lower wins.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`
	// Platforms lists the operating systems this variant natively fits.
	Platforms []core.Platform `json:"platforms,omitempty" yaml:"platforms,omitempty"`
	// Inputs are handler-specific overrides, expanded after the generic
	// inputs are resolved.
	Inputs map[string]string `json:"inputs,omitempty" yaml:"inputs,omitempty"`
}

// Preferred reports whether this variant natively fits the platform.
func (h *HandlerData) Preferred(p core.Platform) bool {
	for _, candidate := range h.Platforms {
		if candidate == p {
			return true
		}
	}
	return false
}

// Execution is the declared set of candidate handlers for a task.
type Execution struct {
	// SupportsConditions switches selection from static platform/priority
	// ordering to per-candidate condition evaluation.
	SupportsConditions bool           `json:"supports_conditions,omitempty" yaml:"supports_conditions,omitempty"`
	Handlers           []*HandlerData `json:"handlers,omitempty"            yaml:"handlers,omitempty" validate:"dive"`
}

// -----------------------------------------------------------------------------
// Definition
// -----------------------------------------------------------------------------

// Data is the declarative payload of a task definition.
type Data struct {
	Name      string             `json:"name"             yaml:"name"             validate:"required"`
	Inputs    []InputDeclaration `json:"inputs,omitempty" yaml:"inputs,omitempty" validate:"dive"`
	Execution *Execution         `json:"execution"        yaml:"execution"        validate:"required"`
}

// Definition is the loaded, on-disk form of a task: its directory plus the
// declarative payload. Owned by the dispatcher for one run, never mutated.
type Definition struct {
	Directory string
	Data      *Data
}
