package modkit

import (
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// Container is the service registry populated by the ModuleServiceLoader
// during bootstrap and read-only thereafter. Services are stored under
// string identifiers; retrieval is either untyped via Get or typed via
// GetInto, which assigns the service to a pointer target using interface
// and assignability matching.
type Container struct {
	mu       sync.RWMutex
	services map[string]any
	logger   Logger
}

// NewContainer creates an empty service container.
func NewContainer(logger Logger) *Container {
	return &Container{
		services: make(map[string]any),
		logger:   logger,
	}
}

// Set registers a service under name. Registering the same name twice is an
// error; definitions are expected to be unique across modules.
func (c *Container) Set(name string, service any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.services[name]; exists {
		return fmt.Errorf("%w: %s", ErrServiceAlreadyRegistered, name)
	}

	c.services[name] = service
	if c.logger != nil {
		c.logger.Debug("Registered service", "name", name, "type", fmt.Sprintf("%T", service))
	}
	return nil
}

// Get retrieves a service by name.
func (c *Container) Get(name string) (any, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	service, exists := c.services[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrServiceNotFound, name)
	}
	return service, nil
}

// Has reports whether a service is registered under name.
func (c *Container) Has(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.services[name]
	return exists
}

// Names returns the sorted identifiers of all registered services.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.services))
	for name := range c.services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered services.
func (c *Container) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.services)
}

// GetInto retrieves a service and assigns it to target, which must be a
// non-nil pointer. The assignment succeeds when the target is an interface
// the service implements, when the service is directly assignable, or when
// a pointer service dereferences to an assignable value.
func (c *Container) GetInto(name string, target any) error {
	service, err := c.Get(name)
	if err != nil {
		return err
	}
	if service == nil {
		return fmt.Errorf("%w: %s", ErrServiceNil, name)
	}

	targetValue := reflect.ValueOf(target)
	if targetValue.Kind() != reflect.Ptr || targetValue.IsNil() {
		return ErrTargetNotPointer
	}
	if !targetValue.Elem().IsValid() {
		return ErrTargetValueInvalid
	}

	serviceType := reflect.TypeOf(service)
	targetType := targetValue.Elem().Type()

	switch {
	case targetType.Kind() == reflect.Interface && serviceType.Implements(targetType):
		targetValue.Elem().Set(reflect.ValueOf(service))
		return nil
	case serviceType.AssignableTo(targetType):
		targetValue.Elem().Set(reflect.ValueOf(service))
		return nil
	case serviceType.Kind() == reflect.Ptr && serviceType.Elem().AssignableTo(targetType):
		targetValue.Elem().Set(reflect.ValueOf(service).Elem())
		return nil
	}

	return fmt.Errorf("%w: service '%s' of type %s cannot be assigned to %s",
		ErrServiceIncompatible, name, serviceType, targetType)
}
