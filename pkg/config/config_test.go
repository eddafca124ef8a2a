package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Should apply defaults", func(t *testing.T) {
		cfg, err := Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "build", cfg.HostType)
		assert.Equal(t, "tasks", cfg.TaskDir)
	})
	t.Run("Should let environment variables override defaults", func(t *testing.T) {
		t.Setenv("TASKWEAVE_LOG_LEVEL", "debug")
		t.Setenv("TASKWEAVE_HOST_TYPE", "deployment")
		cfg, err := Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "deployment", cfg.HostType)
	})
	t.Run("Should reject an invalid log level", func(t *testing.T) {
		t.Setenv("TASKWEAVE_LOG_LEVEL", "chatty")
		_, err := Load(context.Background())
		require.Error(t, err)
		assert.ErrorContains(t, err, "invalid configuration")
	})
}
