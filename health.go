package modkit

import (
	"time"
)

// HealthState represents the overall health of a module.
type HealthState int

const (
	// HealthUnknown indicates the state cannot be determined, typically
	// because the module has not initialized yet.
	HealthUnknown HealthState = iota

	// HealthHealthy indicates the module initialized and its health hook,
	// if any, succeeded.
	HealthHealthy

	// HealthDegraded indicates the module is operational but its health
	// hook reported a failure or its configuration is invalid.
	HealthDegraded

	// HealthUnhealthy indicates the module is not functioning.
	HealthUnhealthy
)

// String returns the lower-case name of the state.
func (s HealthState) String() string {
	switch s {
	case HealthHealthy:
		return "healthy"
	case HealthDegraded:
		return "degraded"
	case HealthUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

// IsHealthy reports whether the state is HealthHealthy.
func (s HealthState) IsHealthy() bool {
	return s == HealthHealthy
}

// ModuleHealth is the health snapshot assembled for one module. The fixed
// fields are always populated; Details carries whatever the module's health
// hook returned, and HealthCheckError captures a hook failure instead of
// propagating it.
type ModuleHealth struct {
	Module           string         `json:"module"`
	Version          string         `json:"version"`
	Initialized      bool           `json:"initialized"`
	Path             string         `json:"path"`
	ConfigValid      bool           `json:"config_valid"`
	State            HealthState    `json:"-"`
	Status           string         `json:"status"`
	Dependencies     int            `json:"dependencies"`
	Services         int            `json:"services"`
	Events           int            `json:"events"`
	Details          map[string]any `json:"details,omitempty"`
	HealthCheckError string         `json:"health_check_error,omitempty"`
	CheckedAt        time.Time      `json:"checked_at"`
}
