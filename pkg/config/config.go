// Package config loads agent configuration from defaults and environment
// variables, in that precedence order, and validates the result.
package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the environment variables read by Load.
const envPrefix = "TASKWEAVE_"

type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"omitempty,oneof=debug info warn error"`
	// LogJSON switches the log formatter to JSON.
	LogJSON bool `koanf:"log_json"`
	// HostType tags this execution host; root resolvers are filtered by it.
	HostType string `koanf:"host_type" validate:"required"`
	// WorkDir is the directory relative inputs are rooted under.
	WorkDir string `koanf:"work_dir"`
	// TaskDir is the directory task definitions are loaded from.
	TaskDir string `koanf:"task_dir"`
}

func Default() *Config {
	return &Config{
		LogLevel: "info",
		HostType: "build",
		TaskDir:  "tasks",
	}
}

// Load builds the configuration: struct defaults first, then TASKWEAVE_*
// environment variables on top.
func Load(_ context.Context) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix: envPrefix,
		TransformFunc: func(key, value string) (string, any) {
			return strings.ToLower(strings.TrimPrefix(key, envPrefix)), value
		},
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
