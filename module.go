// Package modkit provides module discovery, registration, and
// dependency-ordered initialization for modular applications.
//
// A module is a directory on disk carrying a declarative manifest
// (module.toml, module.yaml, or module.json) and an optional configuration
// file describing the services, routes, middleware, permissions, and events
// the module contributes. The ModuleManager discovers module directories,
// validates their manifests, registers module instances, and initializes
// them in dependency order using a depth-first topological sort with cycle
// detection. After initialization the ModuleServiceLoader registers each
// module's declared services into a Container and aggregates routes and
// middleware for the embedding application to mount.
//
// Basic usage:
//
//	hooks := modkit.NewHookRegistry()
//	hooks.RegisterInit("user.migrate", migrateUsers)
//
//	mgr := modkit.NewModuleManager("./modules", hooks, logger)
//	if err := mgr.DiscoverModules(ctx); err != nil {
//		log.Fatal(err)
//	}
//	if err := mgr.InitializeModules(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	loader := modkit.NewModuleServiceLoader(mgr, hooks, logger)
//	loader.LoadServices(ctx, container)
package modkit

import "context"

// Module represents a registrable component managed by the ModuleManager.
//
// Modules are usually GenericModule instances built during discovery from a
// manifest and configuration file, but any type implementing this interface
// can be registered directly.
type Module interface {
	// Name returns the unique identifier for this module. It is used for
	// dependency resolution and registry lookups and must be unique within
	// one ModuleManager.
	Name() string

	// Init initializes the module. It is called exactly once per module,
	// after all of the module's dependencies have been initialized. The
	// container carries the services registered so far.
	Init(ctx context.Context, container *Container) error
}

// DependencyAware is implemented by modules that depend on other modules.
// The manager initializes dependencies before dependents; a missing
// dependency is a fatal initialization error, and circular dependencies are
// detected and rejected.
type DependencyAware interface {
	// Dependencies returns the names of modules that must be initialized
	// before this one. Names must match the Name() of registered modules.
	Dependencies() []string
}

// ConfigValidator is implemented by modules whose configuration can be
// checked before registration. RegisterModule consults this interface and
// refuses modules reporting validation errors.
type ConfigValidator interface {
	// ValidateConfig returns human-readable problems with the module's
	// configuration, or an empty slice if the configuration is sound.
	ValidateConfig() []string
}

// HealthReporter is implemented by modules that can describe their own
// health. The manager aggregates these reports in ModulesHealth.
type HealthReporter interface {
	// HealthStatus returns a snapshot of the module's health. It must not
	// panic; hook failures are reported inside the snapshot.
	HealthStatus(ctx context.Context) ModuleHealth
}

// ModuleRegistry maps module names to registered module instances.
type ModuleRegistry map[string]Module
