package modkit

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
)

// ModuleManager discovers module directories on disk, registers module
// instances, and initializes them in dependency order. The registry is
// built once during bootstrap and only grows; there is no unload.
//
// Per-module lifecycle: undiscovered -> registered -> initializing ->
// initialized. A module never reaches initialized before every module in
// its dependency closure has.
type ModuleManager struct {
	root   string
	hooks  *HookRegistry
	logger Logger

	modules   ModuleRegistry
	configs   map[string]*ModuleConfig
	manifests map[string]*ModuleManifest

	// container, when set, is passed to module init hooks.
	container *Container

	// initialized doubles as the visited set for initialization; order is
	// the actual initialization order.
	initialized []string
}

// NewModuleManager creates a manager rooted at the given modules directory.
func NewModuleManager(root string, hooks *HookRegistry, logger Logger) *ModuleManager {
	if hooks == nil {
		hooks = NewHookRegistry()
	}
	return &ModuleManager{
		root:      root,
		hooks:     hooks,
		logger:    logger,
		modules:   make(ModuleRegistry),
		configs:   make(map[string]*ModuleConfig),
		manifests: make(map[string]*ModuleManifest),
	}
}

// Hooks returns the hook registry the manager resolves names against.
func (mm *ModuleManager) Hooks() *HookRegistry { return mm.hooks }

// DiscoverModules walks the modules root recursively and registers every
// module directory found. A directory is a module directory iff it directly
// contains a manifest file (module.toml/.yaml/.json, preferred) or a bare
// config file (config.toml/.yaml/.json, legacy).
//
// Discovery is resilient: a malformed manifest, a failing validation, a
// disabled flag, or any error loading one module's files is logged and that
// module is skipped. Only a missing modules root aborts discovery.
func (mm *ModuleManager) DiscoverModules(ctx context.Context) error {
	info, err := os.Stat(mm.root)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", ErrModulesRootMissing, mm.root)
	}

	mm.logger.Info("Discovering modules", "root", mm.root)

	walkErr := filepath.WalkDir(mm.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			mm.logger.Warn("Skipping unreadable path during discovery", "path", path, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if manifestPath, ok := findManifestFile(path); ok {
			mm.discoverManifestModule(path, manifestPath)
		} else if configPath, ok := findLegacyConfigFile(path); ok {
			mm.discoverLegacyModule(path, configPath)
		}
		return nil
	})
	if walkErr != nil {
		return fmt.Errorf("module discovery aborted: %w", walkErr)
	}

	mm.logger.Info("Module discovery complete", "modules", len(mm.modules))
	return nil
}

// discoverManifestModule loads, validates, and registers one manifest-based
// module. All failures are logged and the module is skipped.
func (mm *ModuleManager) discoverManifestModule(dir, manifestPath string) {
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		mm.logger.Error("Failed to load module manifest", "path", manifestPath, "error", err)
		return
	}

	if errs := manifest.Validate(); len(errs) > 0 {
		mm.logger.Warn("Invalid module manifest, skipping",
			"module", manifest.Name, "path", manifestPath, "errors", errs)
		return
	}

	if !manifest.Enabled {
		mm.logger.Debug("Module disabled, skipping", "module", manifest.Name)
		return
	}

	config := &ModuleConfig{}
	if manifest.ConfigFile != "" {
		if config, err = LoadModuleConfig(manifest.ConfigFile); err != nil {
			mm.logger.Error("Failed to load module config",
				"module", manifest.Name, "path", manifest.ConfigFile, "error", err)
			return
		}
	}

	module := NewGenericModule(manifest.Name, dir, config, manifest, mm.hooks, mm.logger)
	if err := mm.RegisterModule(module); err != nil {
		mm.logger.Error("Failed to register discovered module",
			"module", manifest.Name, "error", err)
		return
	}

	mm.logger.Debug("Discovered module", "module", manifest.Name, "manifest", manifestPath)
}

// discoverLegacyModule registers a config-only module named after its
// directory.
func (mm *ModuleManager) discoverLegacyModule(dir, configPath string) {
	config, err := LoadModuleConfig(configPath)
	if err != nil {
		mm.logger.Error("Failed to load legacy module config", "path", configPath, "error", err)
		return
	}

	name := filepath.Base(dir)
	module := NewGenericModule(name, dir, config, nil, mm.hooks, mm.logger)
	if err := mm.RegisterModule(module); err != nil {
		mm.logger.Error("Failed to register legacy module", "module", name, "error", err)
		return
	}

	mm.logger.Debug("Discovered legacy module", "module", name, "config", configPath)
}

// RegisterModule adds a module to the registry. Unlike discovery-time
// manifest problems, an invalid configuration here fails loudly: a module
// that reaches registration with a bad config is a programming error, not a
// deployment artifact to tolerate.
func (mm *ModuleManager) RegisterModule(module Module) error {
	if module == nil {
		return ErrModuleNil
	}

	if validator, ok := module.(ConfigValidator); ok {
		if errs := validator.ValidateConfig(); len(errs) > 0 {
			return fmt.Errorf("%w: module %s: %v", ErrInvalidModuleConfig, module.Name(), errs)
		}
	}

	name := module.Name()
	if _, exists := mm.modules[name]; exists {
		mm.logger.Warn("Replacing already registered module", "module", name)
	}
	mm.modules[name] = module

	if gm, ok := module.(*GenericModule); ok {
		mm.configs[name] = gm.Config()
		if gm.Manifest() != nil {
			mm.manifests[name] = gm.Manifest()
		}
	}

	mm.logger.Info("Registered module", "module", name)
	return nil
}

// InitializeModules initializes every registered module in dependency
// order. The order is computed up front with a full topological sort, so a
// cycle or a missing dependency anywhere in the graph fails before any
// module's init hook runs.
func (mm *ModuleManager) InitializeModules(ctx context.Context) error {
	order, err := mm.resolveDependencyOrder()
	if err != nil {
		return err
	}

	mm.logger.Debug("Module initialization order", "order", order)

	for _, name := range order {
		if err := mm.InitializeModule(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// InitializeModule initializes one module, recursively initializing its
// dependencies first. It is idempotent: a module already in the initialized
// list returns immediately. Referencing an unregistered module, directly or
// as a dependency, is fatal.
func (mm *ModuleManager) InitializeModule(ctx context.Context, name string) error {
	return mm.initializeModule(ctx, name, make(map[string]bool))
}

func (mm *ModuleManager) initializeModule(ctx context.Context, name string, visiting map[string]bool) error {
	if slices.Contains(mm.initialized, name) {
		return nil
	}
	if visiting[name] {
		return fmt.Errorf("%w: %s", ErrCircularDependency, name)
	}

	module, exists := mm.modules[name]
	if !exists {
		return fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}

	visiting[name] = true
	for _, dep := range moduleDependencies(module) {
		if _, exists := mm.modules[dep]; !exists {
			return fmt.Errorf("%w: %s required by %s", ErrModuleNotFound, dep, name)
		}
		if err := mm.initializeModule(ctx, dep, visiting); err != nil {
			return err
		}
	}
	visiting[name] = false

	if err := module.Init(ctx, mm.container); err != nil {
		return fmt.Errorf("failed to initialize module %s: %w", name, err)
	}

	mm.initialized = append(mm.initialized, name)
	mm.logger.Info("Initialized module", "module", name)
	return nil
}

// SetContainer supplies the container handed to module init hooks. Call it
// before InitializeModules when hooks need service access; without it hooks
// receive a nil container.
func (mm *ModuleManager) SetContainer(c *Container) {
	mm.container = c
}

// resolveDependencyOrder computes a full initialization order over all
// registered modules: a depth-first topological sort with a visiting set
// for cycle detection. It only computes order; no init hooks run.
func (mm *ModuleManager) resolveDependencyOrder() ([]string, error) {
	names := make([]string, 0, len(mm.modules))
	for name := range mm.modules {
		names = append(names, name)
	}
	sort.Strings(names)

	var result []string
	visited := make(map[string]bool)
	visiting := make(map[string]bool)

	var visit func(string) error
	visit = func(name string) error {
		if visiting[name] {
			return fmt.Errorf("%w: %s", ErrCircularDependency, name)
		}
		if visited[name] {
			return nil
		}
		visiting[name] = true

		module := mm.modules[name]
		for _, dep := range moduleDependencies(module) {
			if _, exists := mm.modules[dep]; !exists {
				return fmt.Errorf("%w: %s required by %s", ErrModuleNotFound, dep, name)
			}
			if err := visit(dep); err != nil {
				return err
			}
		}

		visiting[name] = false
		visited[name] = true
		result = append(result, name)
		return nil
	}

	for _, name := range names {
		if !visited[name] {
			if err := visit(name); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func moduleDependencies(module Module) []string {
	if aware, ok := module.(DependencyAware); ok {
		return aware.Dependencies()
	}
	return nil
}

// GetModule returns a registered module by name.
func (mm *ModuleManager) GetModule(name string) (Module, error) {
	module, exists := mm.modules[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	return module, nil
}

// AllModules returns a copy of the module registry.
func (mm *ModuleManager) AllModules() map[string]Module {
	result := make(map[string]Module, len(mm.modules))
	for name, module := range mm.modules {
		result[name] = module
	}
	return result
}

// ModuleConfig returns the registered configuration snapshot for a module.
func (mm *ModuleManager) ModuleConfig(name string) (*ModuleConfig, error) {
	config, exists := mm.configs[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrModuleNotFound, name)
	}
	return config, nil
}

// AllModuleConfigs returns a copy of the per-module configuration map.
func (mm *ModuleManager) AllModuleConfigs() map[string]*ModuleConfig {
	result := make(map[string]*ModuleConfig, len(mm.configs))
	for name, config := range mm.configs {
		result[name] = config
	}
	return result
}

// ModuleManifest returns the manifest for a module, if it has one.
func (mm *ModuleManager) ModuleManifest(name string) (*ModuleManifest, bool) {
	manifest, exists := mm.manifests[name]
	return manifest, exists
}

// AllModuleManifests returns a copy of the per-module manifest map. Legacy
// modules have no entry.
func (mm *ModuleManager) AllModuleManifests() map[string]*ModuleManifest {
	result := make(map[string]*ModuleManifest, len(mm.manifests))
	for name, manifest := range mm.manifests {
		result[name] = manifest
	}
	return result
}

// HasModule reports whether a module is registered.
func (mm *ModuleManager) HasModule(name string) bool {
	_, exists := mm.modules[name]
	return exists
}

// IsModuleInitialized reports whether a module has initialized.
func (mm *ModuleManager) IsModuleInitialized(name string) bool {
	return slices.Contains(mm.initialized, name)
}

// InitializedModules returns the names of initialized modules in the order
// they initialized.
func (mm *ModuleManager) InitializedModules() []string {
	return slices.Clone(mm.initialized)
}

// ModulesHealth maps every registered module to its health snapshot.
// Modules that do not report health get a minimal unknown-state entry.
func (mm *ModuleManager) ModulesHealth(ctx context.Context) map[string]ModuleHealth {
	result := make(map[string]ModuleHealth, len(mm.modules))
	for name, module := range mm.modules {
		if reporter, ok := module.(HealthReporter); ok {
			result[name] = reporter.HealthStatus(ctx)
			continue
		}
		state := HealthUnknown
		if mm.IsModuleInitialized(name) {
			state = HealthHealthy
		}
		result[name] = ModuleHealth{
			Module:      name,
			Initialized: mm.IsModuleInitialized(name),
			ConfigValid: true,
			State:       state,
			Status:      state.String(),
		}
	}
	return result
}

// ManagerStatistics summarizes the registry for introspection endpoints.
type ManagerStatistics struct {
	TotalModules        int `json:"total_modules"`
	InitializedModules  int `json:"initialized_modules"`
	PendingModules      int `json:"pending_modules"`
	ManifestModules     int `json:"manifest_modules"`
	LegacyModules       int `json:"legacy_modules"`
	FeaturesImplemented int `json:"features_implemented"`
	FeaturesPlanned     int `json:"features_planned"`
}

// Statistics returns aggregate counts over the registry, grouping declared
// feature status buckets across all modules.
func (mm *ModuleManager) Statistics() ManagerStatistics {
	stats := ManagerStatistics{
		TotalModules:       len(mm.modules),
		InitializedModules: len(mm.initialized),
		ManifestModules:    len(mm.manifests),
	}
	stats.PendingModules = stats.TotalModules - stats.InitializedModules
	stats.LegacyModules = stats.TotalModules - stats.ManifestModules

	for _, config := range mm.configs {
		stats.FeaturesImplemented += len(config.Status["implemented"])
		stats.FeaturesPlanned += len(config.Status["planned"])
	}
	return stats
}
