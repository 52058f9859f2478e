package modkit

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// ModuleServiceLoader consumes the modules registered with a ModuleManager
// after discovery: it bulk-registers their declared services into a
// Container and aggregates routes, middleware, permissions, and API
// endpoint metadata for the bootstrap layer.
//
// Loading degrades gracefully: one bad service definition or one malformed
// route is logged and skipped, never aborting the rest.
type ModuleServiceLoader struct {
	manager *ModuleManager
	hooks   *HookRegistry
	logger  Logger

	loadErrors []string
}

// AggregatedRoute is a module route tagged with its owning module for
// diagnostics.
type AggregatedRoute struct {
	Module      string `json:"module"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	Handler     string `json:"handler"`
	Description string `json:"description,omitempty"`
}

// AggregatedMiddleware is a module middleware declaration tagged with its
// owning module.
type AggregatedMiddleware struct {
	Module      string `json:"module"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewModuleServiceLoader creates a loader over an already-discovered
// manager.
func NewModuleServiceLoader(manager *ModuleManager, hooks *HookRegistry, logger Logger) *ModuleServiceLoader {
	if hooks == nil {
		hooks = manager.Hooks()
	}
	return &ModuleServiceLoader{
		manager: manager,
		hooks:   hooks,
		logger:  logger,
	}
}

// LoadServices registers every module's declared services into the
// container. Inline definitions are stored as-is; factory definitions
// invoke their factory hook and store the result. A failure registering one
// service is logged and skipped.
func (l *ModuleServiceLoader) LoadServices(ctx context.Context, container *Container) error {
	if container == nil {
		return ErrContainerNil
	}

	for _, moduleName := range l.sortedModuleNames() {
		config := l.manager.configs[moduleName]
		if config == nil || len(config.Services) == 0 {
			continue
		}

		ids := make([]string, 0, len(config.Services))
		for id := range config.Services {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		for _, id := range ids {
			if err := l.loadService(ctx, container, moduleName, id, config.Services[id]); err != nil {
				l.recordLoadError(moduleName, id, err)
				continue
			}
			l.logger.Debug("Loaded service", "module", moduleName, "service", id)
		}
	}

	l.logger.Info("Service loading complete",
		"services", container.Len(), "errors", len(l.loadErrors))
	return nil
}

func (l *ModuleServiceLoader) loadService(ctx context.Context, container *Container, moduleName, id string, def ServiceDef) error {
	if def.IsFactory() {
		factory, ok := l.hooks.Factory(def.Factory)
		if !ok {
			return fmt.Errorf("%w: factory %s", ErrHookNotFound, def.Factory)
		}
		instance, err := factory(ctx, container)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", ErrFactoryFailed, def.Factory, err)
		}
		return container.Set(id, instance)
	}

	if def.Value == nil {
		return fmt.Errorf("%w: %s", ErrServiceDefInvalid, id)
	}
	return container.Set(id, def.Value)
}

func (l *ModuleServiceLoader) recordLoadError(moduleName, id string, err error) {
	msg := fmt.Sprintf("%s/%s: %v", moduleName, id, err)
	l.loadErrors = append(l.loadErrors, msg)
	l.logger.Error("Failed to load service, skipping",
		"module", moduleName, "service", id, "error", err)
}

// LoadErrors returns the service load failures recorded so far.
func (l *ModuleServiceLoader) LoadErrors() []string {
	return append([]string(nil), l.loadErrors...)
}

// LoadRoutes flattens every module's declared routes into one aggregate
// list, each tagged with its owning module. Malformed entries (missing
// method, path, or handler) are logged and dropped.
func (l *ModuleServiceLoader) LoadRoutes() []AggregatedRoute {
	var routes []AggregatedRoute

	for _, moduleName := range l.sortedModuleNames() {
		config := l.manager.configs[moduleName]
		if config == nil {
			continue
		}
		for _, route := range config.Routes {
			if route.Method == "" || route.Path == "" || route.Handler == "" {
				l.logger.Warn("Dropping malformed route",
					"module", moduleName, "method", route.Method,
					"path", route.Path, "handler", route.Handler)
				continue
			}
			routes = append(routes, AggregatedRoute{
				Module:      moduleName,
				Method:      strings.ToUpper(route.Method),
				Path:        route.Path,
				Handler:     route.Handler,
				Description: route.Description,
			})
		}
	}

	return routes
}

// LoadMiddleware flattens every module's middleware declarations into one
// aggregate list tagged with the owning module.
func (l *ModuleServiceLoader) LoadMiddleware() []AggregatedMiddleware {
	var middleware []AggregatedMiddleware

	for _, moduleName := range l.sortedModuleNames() {
		config := l.manager.configs[moduleName]
		if config == nil {
			continue
		}
		names := make([]string, 0, len(config.Middleware))
		for name := range config.Middleware {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			middleware = append(middleware, AggregatedMiddleware{
				Module:      moduleName,
				Name:        name,
				Description: config.Middleware[name],
			})
		}
	}

	return middleware
}

// APIEndpoints aggregates each module's documented endpoint signatures into
// a per-module map. Used for documentation and introspection endpoints, not
// for dispatch.
func (l *ModuleServiceLoader) APIEndpoints() map[string]map[string]string {
	result := make(map[string]map[string]string)
	for name, config := range l.manager.configs {
		if config != nil && len(config.APIEndpoints) > 0 {
			result[name] = config.APIEndpoints
		}
	}
	return result
}

// Permissions aggregates each module's permission declarations into a
// per-module map.
func (l *ModuleServiceLoader) Permissions() map[string]map[string]string {
	result := make(map[string]map[string]string)
	for name, config := range l.manager.configs {
		if config != nil && len(config.Permissions) > 0 {
			result[name] = config.Permissions
		}
	}
	return result
}

// BuildRouter mounts every aggregated route whose handler hook is
// registered onto the given chi router, and attaches every declared
// middleware hook that resolves. Unresolvable handler or middleware names
// are logged and skipped so one missing hook never blocks the rest of the
// HTTP surface.
func (l *ModuleServiceLoader) BuildRouter(router chi.Router) {
	for _, mw := range l.LoadMiddleware() {
		hook, ok := l.hooks.Middleware(mw.Name)
		if !ok {
			l.logger.Warn("Middleware hook not registered, skipping",
				"module", mw.Module, "middleware", mw.Name)
			continue
		}
		router.Use(hook)
	}

	for _, route := range l.LoadRoutes() {
		handler, ok := l.hooks.Handler(route.Handler)
		if !ok {
			l.logger.Warn("Handler hook not registered, dropping route",
				"module", route.Module, "method", route.Method,
				"path", route.Path, "handler", route.Handler)
			continue
		}
		router.Method(route.Method, route.Path, handler)
		l.logger.Debug("Mounted route",
			"module", route.Module, "method", route.Method, "path", route.Path)
	}
}

// LoaderStatistics aggregates counts across all modules plus which modules
// contribute each kind of metadata.
type LoaderStatistics struct {
	Services    int `json:"services"`
	Routes      int `json:"routes"`
	Middleware  int `json:"middleware"`
	Permissions int `json:"permissions"`

	ModulesWithServices    []string `json:"modules_with_services"`
	ModulesWithRoutes      []string `json:"modules_with_routes"`
	ModulesWithMiddleware  []string `json:"modules_with_middleware"`
	ModulesWithPermissions []string `json:"modules_with_permissions"`

	LoadErrors []string `json:"load_errors,omitempty"`
}

// Statistics returns aggregate metadata counts across all registered
// modules.
func (l *ModuleServiceLoader) Statistics() LoaderStatistics {
	stats := LoaderStatistics{LoadErrors: l.LoadErrors()}

	for _, name := range l.sortedModuleNames() {
		config := l.manager.configs[name]
		if config == nil {
			continue
		}
		if n := len(config.Services); n > 0 {
			stats.Services += n
			stats.ModulesWithServices = append(stats.ModulesWithServices, name)
		}
		if n := len(config.Routes); n > 0 {
			stats.Routes += n
			stats.ModulesWithRoutes = append(stats.ModulesWithRoutes, name)
		}
		if n := len(config.Middleware); n > 0 {
			stats.Middleware += n
			stats.ModulesWithMiddleware = append(stats.ModulesWithMiddleware, name)
		}
		if n := len(config.Permissions); n > 0 {
			stats.Permissions += n
			stats.ModulesWithPermissions = append(stats.ModulesWithPermissions, name)
		}
	}

	return stats
}

func (l *ModuleServiceLoader) sortedModuleNames() []string {
	names := make([]string, 0, len(l.manager.configs))
	for name := range l.manager.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
