package task

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/taskweave/taskweave/engine/core"
)

// manifestName is the definition file looked up inside a task directory.
const manifestName = "task.yaml"

// Manager loads the Definition backing a task instance.
type Manager interface {
	Load(ctx context.Context, instance *Instance) (*Definition, error)
}

// FSManager loads definitions from a directory tree: one directory per task,
// named after Instance.Task, containing task.yaml.
type FSManager struct {
	fs       afero.Fs
	root     string
	validate *validator.Validate
}

func NewFSManager(fs afero.Fs, root string) *FSManager {
	return &FSManager{
		fs:       fs,
		root:     root,
		validate: validator.New(),
	}
}

func (m *FSManager) Load(_ context.Context, instance *Instance) (*Definition, error) {
	name := strings.TrimSpace(instance.Task)
	if name == "" {
		return nil, core.NewError(
			fmt.Errorf("task instance has no task reference"),
			ErrCodeDefinitionLoad,
			map[string]any{"display_name": instance.DisplayName},
		)
	}
	dir := filepath.Join(m.root, name)
	raw, err := afero.ReadFile(m.fs, filepath.Join(dir, manifestName))
	if err != nil {
		return nil, core.NewError(
			fmt.Errorf("failed to read task manifest: %w", err),
			ErrCodeDefinitionLoad,
			map[string]any{"task": name, "directory": dir},
		)
	}
	data := &Data{}
	if err := yaml.Unmarshal(raw, data); err != nil {
		return nil, core.NewError(
			fmt.Errorf("failed to decode task manifest: %w", err),
			ErrCodeDefinitionLoad,
			map[string]any{"task": name, "directory": dir},
		)
	}
	if err := m.validate.Struct(data); err != nil {
		return nil, core.NewError(
			fmt.Errorf("invalid task manifest: %w", err),
			ErrCodeDefinitionLoad,
			map[string]any{"task": name, "directory": dir},
		)
	}
	return &Definition{Directory: dir, Data: data}, nil
}
