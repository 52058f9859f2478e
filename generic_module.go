package modkit

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// semverPattern is the accepted module version shape.
var semverPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// GenericModule adapts a manifest and configuration file into the Module
// contract. It is the module type produced by discovery; manifest-based and
// legacy config-only modules are both represented by it, with accessors
// applying manifest-first, config-second, default-third precedence so the
// two forms behave identically.
//
// A GenericModule is owned exclusively by its ModuleManager. The only
// mutable state is the initialized flag, which flips once on the first Init
// call.
type GenericModule struct {
	name        string
	path        string
	config      *ModuleConfig
	manifest    *ModuleManifest
	hooks       *HookRegistry
	logger      Logger
	initialized bool
}

// NewGenericModule builds a module from its discovery inputs. manifest may
// be nil for legacy config-only modules; config must not be nil (use an
// empty ModuleConfig for manifest-only modules).
func NewGenericModule(name, path string, config *ModuleConfig, manifest *ModuleManifest, hooks *HookRegistry, logger Logger) *GenericModule {
	if config == nil {
		config = &ModuleConfig{}
	}
	return &GenericModule{
		name:     name,
		path:     path,
		config:   config,
		manifest: manifest,
		hooks:    hooks,
		logger:   logger,
	}
}

// Name returns the module name: manifest value, else config value, else the
// name given at construction.
func (m *GenericModule) Name() string {
	if m.manifest != nil && m.manifest.Name != "" {
		return m.manifest.Name
	}
	if m.config.Name != "" {
		return m.config.Name
	}
	return m.name
}

// Version returns the module version, defaulting to "1.0.0".
func (m *GenericModule) Version() string {
	if m.manifest != nil && m.manifest.Version != "" {
		return m.manifest.Version
	}
	if m.config.Version != "" {
		return m.config.Version
	}
	return "1.0.0"
}

// Description returns the module description, or empty.
func (m *GenericModule) Description() string {
	if m.manifest != nil && m.manifest.Description != "" {
		return m.manifest.Description
	}
	return m.config.Description
}

// Dependencies returns the modules that must initialize before this one.
func (m *GenericModule) Dependencies() []string {
	if m.manifest != nil && len(m.manifest.Dependencies) > 0 {
		return m.manifest.Dependencies
	}
	return m.config.Dependencies
}

// Path returns the module directory.
func (m *GenericModule) Path() string { return m.path }

// Config returns the module's configuration.
func (m *GenericModule) Config() *ModuleConfig { return m.config }

// Manifest returns the module's manifest, or nil for legacy modules.
func (m *GenericModule) Manifest() *ModuleManifest { return m.manifest }

// PublicServices returns the interface-to-service map the module exposes.
func (m *GenericModule) PublicServices() map[string]string { return m.config.PublicServices }

// PublishedEvents returns the events the module declares it emits.
func (m *GenericModule) PublishedEvents() map[string]string { return m.config.PublishedEvents }

// EventSubscriptions returns the module's event-type-to-handler map.
func (m *GenericModule) EventSubscriptions() map[string]string { return m.config.EventSubscriptions }

// Permissions returns the permissions the module declares.
func (m *GenericModule) Permissions() map[string]string { return m.config.Permissions }

// APIEndpoints returns the module's documented endpoint signatures.
func (m *GenericModule) APIEndpoints() map[string]string { return m.config.APIEndpoints }

// Middleware returns the module's middleware declarations.
func (m *GenericModule) Middleware() map[string]string { return m.config.Middleware }

// DatabaseTables returns the tables the module owns.
func (m *GenericModule) DatabaseTables() []string { return m.config.DatabaseTables }

// StatusBuckets returns the module's feature maturity buckets.
func (m *GenericModule) StatusBuckets() map[string][]string { return m.config.Status }

// IsInitialized reports whether Init has completed.
func (m *GenericModule) IsInitialized() bool { return m.initialized }

// Init runs the module's declared init hook and marks the module
// initialized. It is idempotent: repeated calls are no-ops.
//
// A declared hook name with no registered hook is logged and skipped and
// the module still becomes initialized; a registered hook returning an
// error is fatal and leaves the module uninitialized.
func (m *GenericModule) Init(ctx context.Context, container *Container) error {
	if m.initialized {
		return nil
	}

	if m.config.Initialize != "" {
		hook, ok := m.hooks.InitHook(m.config.Initialize)
		if !ok {
			m.logger.Warn("Init hook not registered, skipping",
				"module", m.Name(), "hook", m.config.Initialize)
		} else if err := hook(ctx, container); err != nil {
			return fmt.Errorf("init hook %s for module %s: %w", m.config.Initialize, m.Name(), err)
		}
	}

	m.initialized = true
	m.logger.Debug("Module initialized", "module", m.Name())
	return nil
}

// ValidateConfig checks the module's effective configuration: non-empty
// name, semver-shaped version, well-formed dependencies, and sound service
// definitions. It returns human-readable errors, empty when valid.
func (m *GenericModule) ValidateConfig() []string {
	var errs []string

	if strings.TrimSpace(m.Name()) == "" {
		errs = append(errs, "Module name is required")
	}
	if !semverPattern.MatchString(m.Version()) {
		errs = append(errs, fmt.Sprintf("Invalid version format: %s", m.Version()))
	}
	for i, dep := range m.Dependencies() {
		if strings.TrimSpace(dep) == "" {
			errs = append(errs, fmt.Sprintf("Dependency %d is empty", i))
		}
	}
	for id, def := range m.config.Services {
		if !def.IsFactory() && def.Value == nil {
			errs = append(errs, fmt.Sprintf("Service %s has neither value nor factory", id))
		}
	}

	return errs
}

// HealthStatus assembles the module's health snapshot. The declared health
// hook, if registered, contributes extra detail fields; a hook error is
// captured in HealthCheckError and degrades the state instead of
// propagating.
func (m *GenericModule) HealthStatus(ctx context.Context) ModuleHealth {
	configErrs := m.ValidateConfig()

	health := ModuleHealth{
		Module:       m.Name(),
		Version:      m.Version(),
		Initialized:  m.initialized,
		Path:         m.path,
		ConfigValid:  len(configErrs) == 0,
		Dependencies: len(m.Dependencies()),
		Services:     len(m.config.Services),
		Events:       len(m.config.PublishedEvents),
		CheckedAt:    time.Now(),
	}

	switch {
	case !m.initialized:
		health.State = HealthUnknown
	case len(configErrs) > 0:
		health.State = HealthDegraded
	default:
		health.State = HealthHealthy
	}

	if m.config.HealthCheck != "" {
		if hook, ok := m.hooks.HealthHook(m.config.HealthCheck); ok {
			details, err := hook(ctx)
			if err != nil {
				health.HealthCheckError = err.Error()
				health.State = HealthDegraded
			} else if len(details) > 0 {
				health.Details = details
			}
		} else {
			m.logger.Warn("Health hook not registered",
				"module", m.Name(), "hook", m.config.HealthCheck)
		}
	}

	health.Status = health.State.String()
	return health
}
