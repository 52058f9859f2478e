package modkit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthMonitorSweep(t *testing.T) {
	mm, _, logger := newTestManager(t)
	registerTestModule(t, mm, "user", nil)
	require.NoError(t, mm.InitializeModules(context.Background()))

	hm := NewHealthMonitor(mm, logger)
	hm.Sweep()

	last, ran := hm.LastSweep()
	require.NotNil(t, last)
	assert.False(t, ran.IsZero())

	health, ok := last["user"]
	require.True(t, ok)
	assert.True(t, health.Initialized)
}

func TestHealthMonitorLogsStateTransitions(t *testing.T) {
	mm, hooks, logger := newTestManager(t)

	healthy := true
	require.NoError(t, hooks.RegisterHealth("flaky.health", func(ctx context.Context) (map[string]any, error) {
		if !healthy {
			return nil, assert.AnError
		}
		return map[string]any{"connections": 3}, nil
	}))

	config := &ModuleConfig{Name: "flaky", Version: "1.0.0", HealthCheck: "flaky.health"}
	module := NewGenericModule("flaky", "/modules/flaky", config, nil, mm.Hooks(), logger)
	require.NoError(t, mm.RegisterModule(module))
	require.NoError(t, mm.InitializeModules(context.Background()))

	hm := NewHealthMonitor(mm, logger)
	hm.Sweep()
	assert.False(t, logger.Contains("Module health changed"))

	healthy = false
	hm.Sweep()
	assert.True(t, logger.Contains("Module health changed"))
}

func TestHealthMonitorStartStop(t *testing.T) {
	mm, _, logger := newTestManager(t)
	registerTestModule(t, mm, "user", nil)

	hm := NewHealthMonitor(mm, logger)
	require.NoError(t, hm.Start("@every 1h"))
	defer hm.Stop()

	// Start runs an immediate sweep before the first tick.
	last, _ := hm.LastSweep()
	assert.NotNil(t, last)

	assert.ErrorIs(t, hm.Start("@every 1h"), ErrMonitorAlreadyStarted)
}

func TestHealthMonitorBadSchedule(t *testing.T) {
	mm, _, logger := newTestManager(t)
	hm := NewHealthMonitor(mm, logger)

	err := hm.Start("not a cron spec")
	require.Error(t, err)
}
