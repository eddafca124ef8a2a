// Package runtime owns the handler abstraction the dispatcher hands off to,
// plus the reference process handler.
package runtime

import (
	"context"
	"fmt"

	"github.com/taskweave/taskweave/engine/core"
	"github.com/taskweave/taskweave/engine/task"
)

// Handler is a constructed execution strategy. Run blocks until the
// strategy completes and honors ctx cancellation; its error is the run's
// outcome, propagated verbatim by the dispatcher.
type Handler interface {
	Run(ctx context.Context) error
}

// Factory constructs a Handler for the selected handler data.
type Factory interface {
	Create(
		ctx context.Context,
		data *task.HandlerData,
		inputs *task.InputMap,
		taskDirectory string,
		filePathRoot string,
	) (Handler, error)
}

// DefaultFactory builds the handlers this agent ships. Interpreter-backed
// kinds (node, shell, powershell) are provided by the embedding process
// through Register.
type DefaultFactory struct {
	constructors map[task.Kind]Constructor
}

// Constructor builds a Handler for one kind.
type Constructor func(
	ctx context.Context,
	data *task.HandlerData,
	inputs *task.InputMap,
	taskDirectory string,
	filePathRoot string,
) (Handler, error)

func NewDefaultFactory() *DefaultFactory {
	factory := &DefaultFactory{
		constructors: make(map[task.Kind]Constructor),
	}
	factory.Register(task.KindProcess, newProcessHandler)
	return factory
}

// Register installs a constructor for a kind, replacing any previous one.
func (f *DefaultFactory) Register(kind task.Kind, constructor Constructor) {
	f.constructors[kind] = constructor
}

func (f *DefaultFactory) Create(
	ctx context.Context,
	data *task.HandlerData,
	inputs *task.InputMap,
	taskDirectory string,
	filePathRoot string,
) (Handler, error) {
	constructor, ok := f.constructors[data.Kind]
	if !ok {
		return nil, core.NewError(
			fmt.Errorf("no handler construction path for kind %q", data.Kind),
			task.ErrCodeUnsupportedKind,
			map[string]any{"kind": data.Kind.String()},
		)
	}
	return constructor(ctx, data, inputs, taskDirectory, filePathRoot)
}
