package modkit

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	cloudevents "github.com/cloudevents/sdk-go/v2"
)

// InitHook is invoked when a module initializes. The container carries the
// services registered so far.
type InitHook func(ctx context.Context, container *Container) error

// HealthHook supplies additional fields merged into a module's health
// snapshot. An error is captured into the snapshot, never propagated.
type HealthHook func(ctx context.Context) (map[string]any, error)

// FactoryHook produces a service instance for a factory-typed ServiceDef.
type FactoryHook func(ctx context.Context, container *Container) (any, error)

// EventHook handles an event published through the EventRouter.
type EventHook func(ctx context.Context, event cloudevents.Event) error

// MiddlewareHook wraps an http.Handler, chi-style.
type MiddlewareHook func(next http.Handler) http.Handler

// HookRegistry resolves the hook names used in module configuration files
// to Go functions. Hooks are registered by the embedding application before
// discovery runs, so configuration stays declarative data and no code is
// ever loaded from module directories.
//
// The registry is safe for concurrent use, though in practice all mutation
// happens during bootstrap.
type HookRegistry struct {
	mu          sync.RWMutex
	initHooks   map[string]InitHook
	healthHooks map[string]HealthHook
	factories   map[string]FactoryHook
	handlers    map[string]http.HandlerFunc
	eventHooks  map[string]EventHook
	middleware  map[string]MiddlewareHook
}

// NewHookRegistry creates an empty hook registry.
func NewHookRegistry() *HookRegistry {
	return &HookRegistry{
		initHooks:   make(map[string]InitHook),
		healthHooks: make(map[string]HealthHook),
		factories:   make(map[string]FactoryHook),
		handlers:    make(map[string]http.HandlerFunc),
		eventHooks:  make(map[string]EventHook),
		middleware:  make(map[string]MiddlewareHook),
	}
}

// RegisterInit registers an init hook under name.
func (r *HookRegistry) RegisterInit(name string, hook InitHook) error {
	if hook == nil {
		return fmt.Errorf("%w: init hook %s", ErrHookNil, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.initHooks[name]; exists {
		return fmt.Errorf("%w: init hook %s", ErrHookAlreadyRegistered, name)
	}
	r.initHooks[name] = hook
	return nil
}

// RegisterHealth registers a health hook under name.
func (r *HookRegistry) RegisterHealth(name string, hook HealthHook) error {
	if hook == nil {
		return fmt.Errorf("%w: health hook %s", ErrHookNil, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.healthHooks[name]; exists {
		return fmt.Errorf("%w: health hook %s", ErrHookAlreadyRegistered, name)
	}
	r.healthHooks[name] = hook
	return nil
}

// RegisterFactory registers a service factory hook under name.
func (r *HookRegistry) RegisterFactory(name string, hook FactoryHook) error {
	if hook == nil {
		return fmt.Errorf("%w: factory hook %s", ErrHookNil, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("%w: factory hook %s", ErrHookAlreadyRegistered, name)
	}
	r.factories[name] = hook
	return nil
}

// RegisterHandler registers an HTTP handler hook under name.
func (r *HookRegistry) RegisterHandler(name string, handler http.HandlerFunc) error {
	if handler == nil {
		return fmt.Errorf("%w: handler %s", ErrHookNil, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return fmt.Errorf("%w: handler %s", ErrHookAlreadyRegistered, name)
	}
	r.handlers[name] = handler
	return nil
}

// RegisterEventHandler registers an event handler hook under name.
func (r *HookRegistry) RegisterEventHandler(name string, hook EventHook) error {
	if hook == nil {
		return fmt.Errorf("%w: event handler %s", ErrHookNil, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.eventHooks[name]; exists {
		return fmt.Errorf("%w: event handler %s", ErrHookAlreadyRegistered, name)
	}
	r.eventHooks[name] = hook
	return nil
}

// RegisterMiddleware registers a middleware hook under name.
func (r *HookRegistry) RegisterMiddleware(name string, hook MiddlewareHook) error {
	if hook == nil {
		return fmt.Errorf("%w: middleware %s", ErrHookNil, name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.middleware[name]; exists {
		return fmt.Errorf("%w: middleware %s", ErrHookAlreadyRegistered, name)
	}
	r.middleware[name] = hook
	return nil
}

// InitHook looks up an init hook by name.
func (r *HookRegistry) InitHook(name string) (InitHook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hook, ok := r.initHooks[name]
	return hook, ok
}

// HealthHook looks up a health hook by name.
func (r *HookRegistry) HealthHook(name string) (HealthHook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hook, ok := r.healthHooks[name]
	return hook, ok
}

// Factory looks up a factory hook by name.
func (r *HookRegistry) Factory(name string) (FactoryHook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hook, ok := r.factories[name]
	return hook, ok
}

// Handler looks up an HTTP handler hook by name.
func (r *HookRegistry) Handler(name string) (http.HandlerFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[name]
	return handler, ok
}

// EventHandler looks up an event handler hook by name.
func (r *HookRegistry) EventHandler(name string) (EventHook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hook, ok := r.eventHooks[name]
	return hook, ok
}

// Middleware looks up a middleware hook by name.
func (r *HookRegistry) Middleware(name string) (MiddlewareHook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	hook, ok := r.middleware[name]
	return hook, ok
}
