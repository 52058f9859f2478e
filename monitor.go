package modkit

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// HealthMonitor periodically collects every module's health snapshot on a
// cron schedule, logging state transitions and keeping the latest sweep for
// introspection. It is optional tooling outside the request-serving path.
type HealthMonitor struct {
	manager *ModuleManager
	logger  Logger
	timeout time.Duration

	mu       sync.RWMutex
	cron     *cron.Cron
	last     map[string]ModuleHealth
	lastRun  time.Time
	previous map[string]HealthState
}

// NewHealthMonitor creates a monitor over the manager. Each sweep runs
// under a 30 second timeout.
func NewHealthMonitor(manager *ModuleManager, logger Logger) *HealthMonitor {
	return &HealthMonitor{
		manager:  manager,
		logger:   logger,
		timeout:  30 * time.Second,
		previous: make(map[string]HealthState),
	}
}

// Start schedules sweeps with a cron spec such as "@every 1m" and runs one
// sweep immediately so LastSweep has data before the first tick.
func (hm *HealthMonitor) Start(spec string) error {
	hm.mu.Lock()
	if hm.cron != nil {
		hm.mu.Unlock()
		return ErrMonitorAlreadyStarted
	}
	c := cron.New()
	if _, err := c.AddFunc(spec, hm.Sweep); err != nil {
		hm.mu.Unlock()
		return err
	}
	hm.cron = c
	hm.mu.Unlock()

	hm.Sweep()
	c.Start()
	hm.logger.Info("Health monitor started", "schedule", spec)
	return nil
}

// Stop cancels the schedule. In-flight sweeps finish.
func (hm *HealthMonitor) Stop() {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	if hm.cron != nil {
		hm.cron.Stop()
		hm.cron = nil
	}
}

// Sweep collects one health snapshot of every module, logging any state
// transitions since the previous sweep.
func (hm *HealthMonitor) Sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), hm.timeout)
	defer cancel()

	health := hm.manager.ModulesHealth(ctx)

	hm.mu.Lock()
	defer hm.mu.Unlock()

	for name, snapshot := range health {
		if prev, seen := hm.previous[name]; seen && prev != snapshot.State {
			hm.logger.Info("Module health changed",
				"module", name, "from", prev.String(), "to", snapshot.State.String())
		}
		hm.previous[name] = snapshot.State
	}

	hm.last = health
	hm.lastRun = time.Now()
}

// LastSweep returns the most recent sweep result and when it ran. The map
// is nil before the first sweep.
func (hm *HealthMonitor) LastSweep() (map[string]ModuleHealth, time.Time) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	if hm.last == nil {
		return nil, hm.lastRun
	}
	snapshot := make(map[string]ModuleHealth, len(hm.last))
	for name, health := range hm.last {
		snapshot[name] = health
	}
	return snapshot, hm.lastRun
}
