package dispatcher

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskweave/taskweave/engine/condition"
	"github.com/taskweave/taskweave/engine/core"
	"github.com/taskweave/taskweave/engine/runtime"
	"github.com/taskweave/taskweave/engine/task"
	"github.com/taskweave/taskweave/engine/task/pathres"
	"github.com/taskweave/taskweave/engine/vars"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeManager struct {
	definition *task.Definition
	err        error
	loads      int
}

func (m *fakeManager) Load(_ context.Context, _ *task.Instance) (*task.Definition, error) {
	m.loads++
	return m.definition, m.err
}

type capturedCreate struct {
	data         *task.HandlerData
	inputs       *task.InputMap
	taskDir      string
	filePathRoot string
}

type fakeFactory struct {
	captured  *capturedCreate
	runErr    error
	createErr error
	ran       bool
}

func (f *fakeFactory) Create(
	_ context.Context,
	data *task.HandlerData,
	inputs *task.InputMap,
	taskDirectory string,
	filePathRoot string,
) (runtime.Handler, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.captured = &capturedCreate{
		data:         data,
		inputs:       inputs,
		taskDir:      taskDirectory,
		filePathRoot: filePathRoot,
	}
	return &fakeHandler{factory: f}, nil
}

type fakeHandler struct {
	factory *fakeFactory
}

func (h *fakeHandler) Run(_ context.Context) error {
	h.factory.ran = true
	return h.factory.runErr
}

type falseEvaluator struct{ name string }

func (e *falseEvaluator) Name() string { return e.name }

func (e *falseEvaluator) IsConditionMatch(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func newTestDispatcher(t *testing.T, definition *task.Definition, factory *fakeFactory) (*Dispatcher, *vars.Store) {
	t.Helper()
	store := vars.NewStore()
	d, err := New(&Config{
		Platform: core.PlatformLinux,
		Manager:  &fakeManager{definition: definition},
		Store:    store,
		Env:      vars.NewEnvExpanderWithLookup(func(string) string { return "" }),
		Resolver: pathres.New(core.PlatformLinux, "build"),
		Factory:  factory,
	})
	require.NoError(t, err)
	return d, store
}

func instanceFor(taskName string) *task.Instance {
	return &task.Instance{
		Task:        taskName,
		DisplayName: taskName,
		Enabled:     true,
	}
}

// -----------------------------------------------------------------------------
// Construction
// -----------------------------------------------------------------------------

func TestNew(t *testing.T) {
	t.Run("Should fail fast on missing collaborators", func(t *testing.T) {
		_, err := New(nil)
		assert.True(t, core.IsCode(err, task.ErrCodeInvalidDispatcherState))

		_, err = New(&Config{})
		assert.True(t, core.IsCode(err, task.ErrCodeInvalidDispatcherState))

		_, err = New(&Config{
			Manager: &fakeManager{},
			Store:   vars.NewStore(),
			Env:     vars.NewEnvExpander(),
		})
		assert.True(t, core.IsCode(err, task.ErrCodeInvalidDispatcherState))
	})
}

// -----------------------------------------------------------------------------
// Run
// -----------------------------------------------------------------------------

func TestDispatcher_Run(t *testing.T) {
	ctx := context.Background()
	t.Run("Should reject a nil instance", func(t *testing.T) {
		d, _ := newTestDispatcher(t, nil, &fakeFactory{})
		err := d.Run(ctx, nil)
		assert.True(t, core.IsCode(err, task.ErrCodeInvalidDispatcherState))
	})
	t.Run("Should skip a disabled instance without loading its definition", func(t *testing.T) {
		manager := &fakeManager{}
		store := vars.NewStore()
		d, err := New(&Config{
			Platform: core.PlatformLinux,
			Manager:  manager,
			Store:    store,
			Env:      vars.NewEnvExpander(),
			Resolver: pathres.New(core.PlatformLinux, "build"),
			Factory:  &fakeFactory{},
		})
		require.NoError(t, err)
		require.NoError(t, d.Run(ctx, &task.Instance{Task: "build", DisplayName: "build"}))
		assert.Equal(t, 0, manager.loads)
	})
	t.Run("Should publish the display name into the variable store", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name:      "build",
				Execution: &task.Execution{Handlers: []*task.HandlerData{{Kind: task.KindProcess}}},
			},
		}
		d, store := newTestDispatcher(t, definition, &fakeFactory{})
		require.NoError(t, d.Run(ctx, &task.Instance{Task: "build", DisplayName: "Build It", Enabled: true}))
		published, ok := store.Get(DisplayNameVariable)
		require.True(t, ok)
		assert.Equal(t, "Build It", published)
	})
	t.Run("Should wrap definition load failures", func(t *testing.T) {
		store := vars.NewStore()
		d, err := New(&Config{
			Platform: core.PlatformLinux,
			Manager:  &fakeManager{err: fmt.Errorf("catalog offline")},
			Store:    store,
			Env:      vars.NewEnvExpander(),
			Resolver: pathres.New(core.PlatformLinux, "build"),
			Factory:  &fakeFactory{},
		})
		require.NoError(t, err)
		err = d.Run(ctx, instanceFor("build"))
		require.Error(t, err)
		assert.ErrorContains(t, err, "catalog offline")
	})
	t.Run("Should propagate handler run failures verbatim", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name:      "build",
				Execution: &task.Execution{Handlers: []*task.HandlerData{{Kind: task.KindProcess}}},
			},
		}
		factory := &fakeFactory{runErr: fmt.Errorf("exit status 3")}
		d, _ := newTestDispatcher(t, definition, factory)
		err := d.Run(ctx, instanceFor("build"))
		require.Error(t, err)
		assert.ErrorContains(t, err, "exit status 3")
		assert.True(t, factory.ran)
	})
	t.Run("Should wrap handler construction failures", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name:      "build",
				Execution: &task.Execution{Handlers: []*task.HandlerData{{Kind: task.KindProcess}}},
			},
		}
		factory := &fakeFactory{createErr: fmt.Errorf("kind not installed")}
		d, _ := newTestDispatcher(t, definition, factory)
		err := d.Run(ctx, instanceFor("build"))
		require.Error(t, err)
		assert.ErrorContains(t, err, "kind not installed")
	})
}

// -----------------------------------------------------------------------------
// End-to-end scenarios
// -----------------------------------------------------------------------------

func TestDispatcher_Scenarios(t *testing.T) {
	ctx := context.Background()
	t.Run("Should select the platform-preferred candidate in static mode", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name: "build",
				Execution: &task.Execution{Handlers: []*task.HandlerData{
					{Kind: task.KindProcess, Priority: 10},
					{Kind: task.KindNode, Priority: 5, Platforms: []core.Platform{core.PlatformLinux}},
				}},
			},
		}
		factory := &fakeFactory{}
		d, _ := newTestDispatcher(t, definition, factory)
		require.NoError(t, d.Run(ctx, instanceFor("build")))
		require.NotNil(t, factory.captured)
		assert.Equal(t, task.KindNode, factory.captured.data.Kind)
	})
	t.Run("Should fail with NO_MATCHING_HANDLER when only an unconditional candidate remains", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name: "build",
				Execution: &task.Execution{
					SupportsConditions: true,
					Handlers: []*task.HandlerData{
						{Kind: task.KindNode, Priority: 5, Conditions: map[string]string{"feature": "x"}},
						{Kind: task.KindProcess, Priority: 10},
					},
				},
			},
		}
		store := vars.NewStore()
		evaluators := condition.NewRegistry()
		require.NoError(t, evaluators.Register(&falseEvaluator{name: "feature"}))
		d, err := New(&Config{
			Platform:   core.PlatformLinux,
			Manager:    &fakeManager{definition: definition},
			Store:      store,
			Env:        vars.NewEnvExpander(),
			Resolver:   pathres.New(core.PlatformLinux, "build"),
			Evaluators: evaluators,
			Factory:    &fakeFactory{},
		})
		require.NoError(t, err)
		err = d.Run(ctx, instanceFor("build"))
		require.Error(t, err)
		assert.True(t, core.IsCode(err, task.ErrCodeNoMatchingHandler))
	})
	t.Run("Should pass an unresolvable path input through unchanged", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name: "build",
				Inputs: []task.InputDeclaration{
					{Name: "path", Default: "sub/dir", Type: task.InputTypeFilePath},
				},
				Execution: &task.Execution{Handlers: []*task.HandlerData{{Kind: task.KindProcess}}},
			},
		}
		factory := &fakeFactory{}
		d, _ := newTestDispatcher(t, definition, factory)
		require.NoError(t, d.Run(ctx, instanceFor("build")))
		require.NotNil(t, factory.captured)
		assert.Equal(t, "sub/dir", factory.captured.inputs.GetOrEmpty("path"))
	})
	t.Run("Should root path inputs through a matching root resolver", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name: "build",
				Inputs: []task.InputDeclaration{
					{Name: "path", Default: "sub/dir", Type: task.InputTypeFilePath},
				},
				Execution: &task.Execution{Handlers: []*task.HandlerData{{Kind: task.KindProcess}}},
			},
		}
		store := vars.NewStore()
		factory := &fakeFactory{}
		d, err := New(&Config{
			Platform: core.PlatformLinux,
			Manager:  &fakeManager{definition: definition},
			Store:    store,
			Env:      vars.NewEnvExpander(),
			Resolver: pathres.New(core.PlatformLinux, "build", pathres.NewWorkDirResolver("build", "/work")),
			Factory:  factory,
		})
		require.NoError(t, err)
		require.NoError(t, d.Run(ctx, instanceFor("build")))
		require.NotNil(t, factory.captured)
		assert.Equal(t, "/work/sub/dir", factory.captured.inputs.GetOrEmpty("path"))
		assert.Equal(t, "/work", factory.captured.filePathRoot)
		assert.Equal(t, "tasks/build", factory.captured.taskDir)
	})
	t.Run("Should merge a padded instance input under its trimmed name", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name:      "build",
				Execution: &task.Execution{Handlers: []*task.HandlerData{{Kind: task.KindProcess}}},
			},
		}
		factory := &fakeFactory{}
		d, _ := newTestDispatcher(t, definition, factory)
		instance := instanceFor("build")
		instance.Inputs = map[string]string{"  Greeting ": "Hello"}
		require.NoError(t, d.Run(ctx, instance))
		require.NotNil(t, factory.captured)
		value, ok := factory.captured.inputs.Get("Greeting")
		require.True(t, ok)
		assert.Equal(t, "Hello", value)
		assert.Contains(t, factory.captured.inputs.Names(), "Greeting")
	})
	t.Run("Should expand variables before environment references", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name: "build",
				Inputs: []task.InputDeclaration{
					{Name: "target", Default: "{{ .vars.flavor }}-$SUFFIX"},
				},
				Execution: &task.Execution{Handlers: []*task.HandlerData{{Kind: task.KindProcess}}},
			},
		}
		store := vars.NewStore()
		store.Set("flavor", "release")
		factory := &fakeFactory{}
		d, err := New(&Config{
			Platform: core.PlatformLinux,
			Manager:  &fakeManager{definition: definition},
			Store:    store,
			Env: vars.NewEnvExpanderWithLookup(func(name string) string {
				if name == "SUFFIX" {
					return "x64"
				}
				return ""
			}),
			Resolver: pathres.New(core.PlatformLinux, "build"),
			Factory:  factory,
		})
		require.NoError(t, err)
		require.NoError(t, d.Run(ctx, instanceFor("build")))
		require.NotNil(t, factory.captured)
		assert.Equal(t, "release-x64", factory.captured.inputs.GetOrEmpty("target"))
	})
	t.Run("Should overlay handler-specific inputs over the effective map", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name: "build",
				Inputs: []task.InputDeclaration{
					{Name: "command", Default: "make"},
				},
				Execution: &task.Execution{Handlers: []*task.HandlerData{{
					Kind: task.KindProcess,
					Inputs: map[string]string{
						"command": "{{ .inputs.command }} --keep-going",
						"retries": "3",
					},
				}}},
			},
		}
		factory := &fakeFactory{}
		d, _ := newTestDispatcher(t, definition, factory)
		require.NoError(t, d.Run(ctx, instanceFor("build")))
		require.NotNil(t, factory.captured)
		assert.Equal(t, "make --keep-going", factory.captured.inputs.GetOrEmpty("command"))
		assert.Equal(t, "3", factory.captured.inputs.GetOrEmpty("retries"))
	})
	t.Run("Should resolve store references introduced by the first override pass", func(t *testing.T) {
		definition := &task.Definition{
			Directory: "tasks/build",
			Data: &task.Data{
				Name: "build",
				Inputs: []task.InputDeclaration{
					{Name: "command", Default: "{{ .vars.commandTemplate }}"},
				},
				Execution: &task.Execution{Handlers: []*task.HandlerData{{
					Kind: task.KindProcess,
					Inputs: map[string]string{
						"command": "{{ .inputs.command }}",
					},
				}}},
			},
		}
		factory := &fakeFactory{}
		d, store := newTestDispatcher(t, definition, factory)
		// The generic expansion renders commandTemplate's value verbatim,
		// leaving a fresh store reference for the second override pass.
		store.Set("commandTemplate", "make --jobs {{ .vars.jobs }}")
		store.Set("jobs", "4")
		require.NoError(t, d.Run(ctx, instanceFor("build")))
		require.NotNil(t, factory.captured)
		assert.Equal(t, "make --jobs 4", factory.captured.inputs.GetOrEmpty("command"))
	})
}
