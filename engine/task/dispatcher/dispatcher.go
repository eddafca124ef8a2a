// Package dispatcher sequences one task run: load the definition, select a
// handler, merge and expand inputs, resolve path-typed inputs, and hand off
// execution to the constructed handler.
package dispatcher

import (
	"context"
	"fmt"

	"github.com/taskweave/taskweave/engine/condition"
	"github.com/taskweave/taskweave/engine/core"
	"github.com/taskweave/taskweave/engine/runtime"
	"github.com/taskweave/taskweave/engine/task"
	"github.com/taskweave/taskweave/engine/task/inputs"
	"github.com/taskweave/taskweave/engine/task/selector"
	"github.com/taskweave/taskweave/pkg/logger"
	"github.com/taskweave/taskweave/pkg/tplengine"
)

// DisplayNameVariable is the variable-store key the running task's display
// name is published under, visible to later steps and to handlers.
const DisplayNameVariable = "task.displayName"

// inputsContextKey is the template key the effective inputs are exposed
// under while expanding handler overrides.
const inputsContextKey = "inputs"

// VariableStore is the run's shared variable store, as seen by the
// dispatcher: key-value writes plus bulk text substitution.
type VariableStore interface {
	Set(name, value string)
	ExpandValues(values map[string]string) map[string]string
}

// EnvironmentExpander substitutes process/job environment references over
// an input map.
type EnvironmentExpander interface {
	ExpandEnvironmentVariables(values map[string]string) map[string]string
}

// PathResolver converts one raw input value into an absolute path, best
// effort.
type PathResolver interface {
	Resolve(ctx context.Context, raw string) string
}

// Config wires the dispatcher's collaborators.
type Config struct {
	Platform   core.Platform
	Manager    task.Manager
	Store      VariableStore
	Env        EnvironmentExpander
	Resolver   PathResolver
	Evaluators *condition.Registry
	Factory    runtime.Factory
}

// Dispatcher runs a single task instance end to end. It owns no state
// across runs; every run builds its effective input map fresh.
type Dispatcher struct {
	platform   core.Platform
	manager    task.Manager
	store      VariableStore
	env        EnvironmentExpander
	resolver   PathResolver
	evaluators *condition.Registry
	factory    runtime.Factory
	engine     *tplengine.TemplateEngine
}

func New(cfg *Config) (*Dispatcher, error) {
	if cfg == nil {
		return nil, invalidState("config is nil")
	}
	if cfg.Manager == nil {
		return nil, invalidState("task manager is required")
	}
	if cfg.Store == nil {
		return nil, invalidState("variable store is required")
	}
	if cfg.Env == nil {
		return nil, invalidState("environment expander is required")
	}
	if cfg.Resolver == nil {
		return nil, invalidState("path resolver is required")
	}
	if cfg.Factory == nil {
		return nil, invalidState("handler factory is required")
	}
	platform := cfg.Platform
	if platform == "" {
		platform = core.CurrentPlatform()
	}
	return &Dispatcher{
		platform:   platform,
		manager:    cfg.Manager,
		store:      cfg.Store,
		env:        cfg.Env,
		resolver:   cfg.Resolver,
		evaluators: cfg.Evaluators,
		factory:    cfg.Factory,
		engine:     tplengine.New(),
	}, nil
}

// Run executes one task instance. The steps are strictly ordered: later
// stages depend on the exact string state produced by earlier ones.
func (d *Dispatcher) Run(ctx context.Context, instance *task.Instance) error {
	if instance == nil {
		return invalidState("task instance is nil")
	}
	runID := core.NewID()
	log := logger.FromContext(ctx).With("run_id", runID.String(), "task", instance.DisplayName)
	ctx = logger.ContextWithLogger(ctx, log)

	if !instance.Enabled {
		log.Info("task instance disabled, skipping")
		return nil
	}
	d.store.Set(DisplayNameVariable, instance.DisplayName)

	definition, err := d.manager.Load(ctx, instance)
	if err != nil {
		return fmt.Errorf("failed to load task definition: %w", err)
	}
	handler, err := selector.Select(ctx, definition.Data.Execution, d.platform, d.evaluators)
	if err != nil {
		return err
	}

	effective := d.buildEffectiveInputs(ctx, definition, instance)
	d.applyHandlerOverrides(effective, handler)

	filePathRoot := d.resolver.Resolve(ctx, "")
	built, err := d.factory.Create(ctx, handler, effective, definition.Directory, filePathRoot)
	if err != nil {
		return fmt.Errorf("failed to construct %q handler: %w", handler.Kind, err)
	}
	log.Info("dispatching task", "kind", handler.Kind, "inputs", effective.Len())
	return built.Run(ctx)
}

// buildEffectiveInputs merges declaration defaults with instance overrides,
// expands variables then environment references, and re-resolves every
// path-typed declaration through the path resolver.
func (d *Dispatcher) buildEffectiveInputs(
	ctx context.Context,
	definition *task.Definition,
	instance *task.Instance,
) *task.InputMap {
	effective := inputs.Merge(definition.Data.Inputs, instance.Inputs)
	effective.ReplaceValues(d.store.ExpandValues(effective.LowerValues()))
	effective.ReplaceValues(d.env.ExpandEnvironmentVariables(effective.LowerValues()))
	for _, declaration := range definition.Data.Inputs {
		if declaration.Type != task.InputTypeFilePath {
			continue
		}
		value, ok := effective.Get(declaration.Name)
		if !ok {
			continue
		}
		effective.Set(declaration.Name, d.resolver.Resolve(ctx, value))
	}
	return effective
}

// applyHandlerOverrides expands the selected handler's own input map in two
// passes, first against the effective inputs, then against the variable
// store (the second pass is authoritative for store references introduced
// by the first), and overlays the result.
func (d *Dispatcher) applyHandlerOverrides(effective *task.InputMap, handler *task.HandlerData) {
	if len(handler.Inputs) == 0 {
		return
	}
	pass1 := d.engine.ExpandMap(handler.Inputs, map[string]any{
		inputsContextKey: toAnyMap(effective.LowerValues()),
	})
	pass2 := d.store.ExpandValues(pass1)
	for name, value := range pass2 {
		effective.Set(name, value)
	}
}

func toAnyMap(values map[string]string) map[string]any {
	converted := make(map[string]any, len(values))
	for key, value := range values {
		converted[key] = value
	}
	return converted
}

func invalidState(reason string) error {
	return core.NewError(
		fmt.Errorf("dispatcher precondition violated: %s", reason),
		task.ErrCodeInvalidDispatcherState,
		map[string]any{"reason": reason},
	)
}
