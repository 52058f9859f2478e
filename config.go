package modkit

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/golobby/cast"
	"gopkg.in/yaml.v3"
)

// ModuleConfig is the declarative per-module configuration decoded from the
// module's config file. All fields are optional; a module may consist of a
// manifest alone.
//
// Configuration is data, never code: service factories, initialization,
// health checks, route handlers, and event handlers are referenced by hook
// name and resolved through the HookRegistry.
type ModuleConfig struct {
	Name         string   `toml:"name" yaml:"name" json:"name"`
	Version      string   `toml:"version" yaml:"version" json:"version"`
	Description  string   `toml:"description" yaml:"description" json:"description"`
	Dependencies []string `toml:"dependencies" yaml:"dependencies" json:"dependencies"`

	// Services maps container service IDs to definitions. Values are either
	// inline data or factory hook references.
	Services map[string]ServiceDef `toml:"services" yaml:"services" json:"services"`

	// Settings holds free-form module settings; typed access goes through
	// SettingValue.
	Settings map[string]any `toml:"settings" yaml:"settings" json:"settings"`

	// PublicServices maps interface names to implementing service IDs.
	PublicServices map[string]string `toml:"public_services" yaml:"public_services" json:"public_services"`

	// PublishedEvents maps event types this module emits to descriptions.
	PublishedEvents map[string]string `toml:"published_events" yaml:"published_events" json:"published_events"`

	// EventSubscriptions maps event types to the handler hook invoked when
	// the event is published.
	EventSubscriptions map[string]string `toml:"event_subscriptions" yaml:"event_subscriptions" json:"event_subscriptions"`

	// Permissions maps permission names to descriptions.
	Permissions map[string]string `toml:"permissions" yaml:"permissions" json:"permissions"`

	// APIEndpoints maps route signatures ("GET /api/users") to descriptions.
	// Documentation metadata only; dispatch uses Routes.
	APIEndpoints map[string]string `toml:"api_endpoints" yaml:"api_endpoints" json:"api_endpoints"`

	// Middleware maps middleware hook names to descriptions.
	Middleware map[string]string `toml:"middleware" yaml:"middleware" json:"middleware"`

	// Routes lists HTTP routes the module contributes.
	Routes []RouteDef `toml:"routes" yaml:"routes" json:"routes"`

	// DatabaseTables lists tables owned by the module.
	DatabaseTables []string `toml:"database_tables" yaml:"database_tables" json:"database_tables"`

	// Status buckets features by maturity, conventionally "implemented" and
	// "planned".
	Status map[string][]string `toml:"status" yaml:"status" json:"status"`

	// Initialize names the init hook run when the module initializes.
	Initialize string `toml:"initialize" yaml:"initialize" json:"initialize"`

	// HealthCheck names the health hook merged into the module's health
	// snapshot.
	HealthCheck string `toml:"health_check" yaml:"health_check" json:"health_check"`
}

// RouteDef describes one HTTP route contributed by a module. Handler names
// a handler hook in the HookRegistry.
type RouteDef struct {
	Method      string `toml:"method" yaml:"method" json:"method"`
	Path        string `toml:"path" yaml:"path" json:"path"`
	Handler     string `toml:"handler" yaml:"handler" json:"handler"`
	Description string `toml:"description" yaml:"description" json:"description"`
}

// ServiceDef is a tagged variant: either an inline value decoded straight
// from the config file, or a reference to a factory hook that produces the
// service instance at load time.
//
// In the config file an inline value is written as any scalar, list, or
// mapping; a factory reference is a mapping with the single key "factory":
//
//	services:
//	  user.default_role: "user"          # inline
//	  user.repository:
//	    factory: "user.repository"       # factory hook reference
type ServiceDef struct {
	// Factory is the factory hook name, or empty for inline definitions.
	Factory string

	// Value is the inline value, nil for factory definitions.
	Value any
}

// IsFactory reports whether the definition references a factory hook.
func (d ServiceDef) IsFactory() bool {
	return d.Factory != ""
}

// UnmarshalYAML implements yaml.Unmarshaler for the tagged-variant form.
func (d *ServiceDef) UnmarshalYAML(node *yaml.Node) error {
	var probe map[string]string
	if node.Kind == yaml.MappingNode {
		if err := node.Decode(&probe); err == nil {
			if factory, ok := factoryRef(probe); ok {
				d.Factory = factory
				d.Value = nil
				return nil
			}
		}
	}

	var value any
	if err := node.Decode(&value); err != nil {
		return fmt.Errorf("failed to decode service definition: %w", err)
	}
	d.Factory = ""
	d.Value = value
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for the tagged-variant form.
func (d *ServiceDef) UnmarshalJSON(data []byte) error {
	var probe map[string]string
	if err := json.Unmarshal(data, &probe); err == nil {
		if factory, ok := factoryRef(probe); ok {
			d.Factory = factory
			d.Value = nil
			return nil
		}
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return fmt.Errorf("failed to decode service definition: %w", err)
	}
	d.Factory = ""
	d.Value = value
	return nil
}

// UnmarshalTOML implements toml.Unmarshaler for the tagged-variant form.
func (d *ServiceDef) UnmarshalTOML(data any) error {
	if m, ok := data.(map[string]any); ok {
		probe := make(map[string]string, len(m))
		allStrings := true
		for k, v := range m {
			s, ok := v.(string)
			if !ok {
				allStrings = false
				break
			}
			probe[k] = s
		}
		if allStrings {
			if factory, ok := factoryRef(probe); ok {
				d.Factory = factory
				d.Value = nil
				return nil
			}
		}
	}

	d.Factory = ""
	d.Value = data
	return nil
}

// factoryRef recognizes the {"factory": name} form. Mappings with extra
// keys are inline values, not references.
func factoryRef(m map[string]string) (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	factory, ok := m["factory"]
	if !ok || factory == "" {
		return "", false
	}
	return factory, true
}

// LoadModuleConfig reads and decodes a module configuration file. The
// format is chosen by file extension (TOML, YAML, or JSON).
func LoadModuleConfig(path string) (*ModuleConfig, error) {
	cfg := &ModuleConfig{}
	if err := decodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SettingValue returns the named setting coerced to T. Values already of
// type T pass through; everything else is converted through its string
// form, so "8080" coerces to int and "true" to bool.
func SettingValue[T any](cfg *ModuleConfig, name string) (T, error) {
	var zero T

	if cfg == nil || cfg.Settings == nil {
		return zero, fmt.Errorf("%w: %s", ErrSettingNotFound, name)
	}
	raw, ok := cfg.Settings[name]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrSettingNotFound, name)
	}

	if typed, ok := raw.(T); ok {
		return typed, nil
	}

	converted, err := cast.FromType(fmt.Sprintf("%v", raw), reflect.TypeOf(zero))
	if err != nil {
		return zero, fmt.Errorf("%w: %s: %w", ErrSettingNotCoercible, name, err)
	}
	typed, ok := converted.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrSettingNotCoercible, name)
	}
	return typed, nil
}
