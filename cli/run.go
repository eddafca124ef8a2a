package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/taskweave/taskweave/engine/condition"
	"github.com/taskweave/taskweave/engine/core"
	"github.com/taskweave/taskweave/engine/runtime"
	"github.com/taskweave/taskweave/engine/task"
	"github.com/taskweave/taskweave/engine/task/dispatcher"
	"github.com/taskweave/taskweave/engine/task/pathres"
	"github.com/taskweave/taskweave/engine/vars"
	"github.com/taskweave/taskweave/pkg/config"
	"github.com/taskweave/taskweave/pkg/logger"
)

func RunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Dispatch a single task instance",
		RunE:  runTask,
	}
	cmd.Flags().String("task", "", "task name to run (required)")
	cmd.Flags().String("display-name", "", "display name for the task instance")
	cmd.Flags().String("task-dir", "", "directory task definitions are loaded from")
	cmd.Flags().String("work-dir", "", "working directory relative inputs are rooted under")
	cmd.Flags().StringArray("input", nil, "instance input override as name=value, repeatable")
	cmd.Flags().StringArray("var", nil, "run variable as name=value, repeatable")
	_ = cmd.MarkFlagRequired("task")
	return cmd
}

func runTask(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, cfg)

	log := logger.SetupLogger(cfg.LogLevel, cfg.LogJSON)
	ctx = logger.ContextWithLogger(ctx, log)

	platform := core.CurrentPlatform()
	store := vars.NewStore()
	if err := seedStore(cmd, store); err != nil {
		return err
	}

	evaluators := condition.NewRegistry()
	celEvaluator, err := condition.NewCELEvaluator(map[string]any{
		"os":       platform.String(),
		"hostType": cfg.HostType,
	})
	if err != nil {
		return err
	}
	if err := evaluators.Register(celEvaluator); err != nil {
		return err
	}
	if err := evaluators.Register(condition.NewCapabilityEvaluator(map[string]string{
		cfg.HostType: "true",
	})); err != nil {
		return err
	}

	instance, err := buildInstance(cmd)
	if err != nil {
		return err
	}
	d, err := dispatcher.New(&dispatcher.Config{
		Platform:   platform,
		Manager:    task.NewFSManager(afero.NewOsFs(), cfg.TaskDir),
		Store:      store,
		Env:        vars.NewEnvExpander(),
		Resolver:   pathres.New(platform, cfg.HostType, pathres.NewWorkDirResolver(cfg.HostType, cfg.WorkDir)),
		Evaluators: evaluators,
		Factory:    runtime.NewDefaultFactory(),
	})
	if err != nil {
		return err
	}
	return d.Run(ctx, instance)
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.LogLevel = level
	}
	if json, _ := cmd.Flags().GetBool("log-json"); json {
		cfg.LogJSON = true
	}
	if taskDir, _ := cmd.Flags().GetString("task-dir"); taskDir != "" {
		cfg.TaskDir = taskDir
	}
	if workDir, _ := cmd.Flags().GetString("work-dir"); workDir != "" {
		cfg.WorkDir = workDir
	}
}

func buildInstance(cmd *cobra.Command) (*task.Instance, error) {
	name, err := cmd.Flags().GetString("task")
	if err != nil {
		return nil, fmt.Errorf("failed to get task flag: %w", err)
	}
	displayName, err := cmd.Flags().GetString("display-name")
	if err != nil {
		return nil, fmt.Errorf("failed to get display-name flag: %w", err)
	}
	if displayName == "" {
		displayName = name
	}
	overrides, err := parsePairs(cmd, "input")
	if err != nil {
		return nil, err
	}
	return &task.Instance{
		Task:        name,
		DisplayName: displayName,
		Enabled:     true,
		Inputs:      overrides,
	}, nil
}

func seedStore(cmd *cobra.Command, store *vars.Store) error {
	pairs, err := parsePairs(cmd, "var")
	if err != nil {
		return err
	}
	for name, value := range pairs {
		store.Set(name, value)
	}
	return nil
}

func parsePairs(cmd *cobra.Command, flag string) (map[string]string, error) {
	raw, err := cmd.Flags().GetStringArray(flag)
	if err != nil {
		return nil, fmt.Errorf("failed to get %s flag: %w", flag, err)
	}
	pairs := make(map[string]string, len(raw))
	for _, entry := range raw {
		name, value, found := strings.Cut(entry, "=")
		if !found || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid %s %q, expected name=value", flag, entry)
		}
		pairs[name] = value
	}
	return pairs, nil
}
