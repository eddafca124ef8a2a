package runtime

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/shlex"

	"github.com/taskweave/taskweave/engine/task"
	"github.com/taskweave/taskweave/pkg/logger"
)

// inputEnvPrefix namespaces the effective inputs exported to the child
// process environment.
const inputEnvPrefix = "INPUT_"

// ProcessHandler executes the task's `command` input as a child process.
// Effective inputs are exported as INPUT_* environment variables.
type ProcessHandler struct {
	command    string
	workingDir string
	env        []string
}

func newProcessHandler(
	_ context.Context,
	_ *task.HandlerData,
	inputs *task.InputMap,
	taskDirectory string,
	filePathRoot string,
) (Handler, error) {
	command := inputs.GetOrEmpty("command")
	if command == "" {
		return nil, fmt.Errorf("process handler requires a %q input", "command")
	}
	workingDir := inputs.GetOrEmpty("workingDirectory")
	if workingDir == "" {
		workingDir = filePathRoot
	}
	if workingDir == "" {
		workingDir = taskDirectory
	}
	env := os.Environ()
	for name, value := range inputs.Values() {
		env = append(env, inputEnvName(name)+"="+value)
	}
	return &ProcessHandler{
		command:    command,
		workingDir: workingDir,
		env:        env,
	}, nil
}

func (h *ProcessHandler) Run(ctx context.Context) error {
	argv, err := shlex.Split(h.command)
	if err != nil {
		return fmt.Errorf("failed to split command line: %w", err)
	}
	if len(argv) == 0 {
		return fmt.Errorf("command line is empty after splitting")
	}
	logger.FromContext(ctx).Debug("starting process", "argv0", argv[0], "dir", h.workingDir)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = h.workingDir
	cmd.Env = h.env
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("process %q failed: %w", argv[0], err)
	}
	return nil
}

func inputEnvName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, name)
	return inputEnvPrefix + strings.ToUpper(sanitized)
}
