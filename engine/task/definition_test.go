package task

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taskweave/taskweave/engine/core"
)

func TestSupportedKinds(t *testing.T) {
	t.Run("Should include powershell only on windows", func(t *testing.T) {
		assert.Contains(t, SupportedKinds(core.PlatformWindows), KindPowerShell)
		assert.NotContains(t, SupportedKinds(core.PlatformLinux), KindPowerShell)
		assert.NotContains(t, SupportedKinds(core.PlatformDarwin), KindPowerShell)
	})
	t.Run("Should include process, shell and node everywhere", func(t *testing.T) {
		for _, platform := range []core.Platform{core.PlatformLinux, core.PlatformDarwin, core.PlatformWindows} {
			kinds := SupportedKinds(platform)
			assert.Contains(t, kinds, KindProcess)
			assert.Contains(t, kinds, KindShell)
			assert.Contains(t, kinds, KindNode)
		}
	})
}

func TestHandlerData_Preferred(t *testing.T) {
	t.Run("Should match a listed platform", func(t *testing.T) {
		handler := &HandlerData{Kind: KindNode, Platforms: []core.Platform{core.PlatformLinux}}
		assert.True(t, handler.Preferred(core.PlatformLinux))
		assert.False(t, handler.Preferred(core.PlatformWindows))
	})
	t.Run("Should never prefer with an empty platform list", func(t *testing.T) {
		handler := &HandlerData{Kind: KindProcess}
		assert.False(t, handler.Preferred(core.PlatformLinux))
	})
}
