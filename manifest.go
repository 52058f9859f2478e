package modkit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ModuleManifest is the immutable declarative record describing a
// discoverable module. It is built once from the module's manifest file
// during discovery and never mutated afterward; manifests failing Validate
// are discarded before registration.
type ModuleManifest struct {
	// Name uniquely identifies the module. Defaults to the directory
	// basename when the manifest omits it.
	Name string

	// Version is the module's semantic version ("x.y.z"). Defaults to
	// "1.0.0". Shape is checked by GenericModule.ValidateConfig, not here.
	Version string

	// Dependencies lists module names that must initialize first.
	Dependencies []string

	// ConfigFile is the resolved absolute path of the module's
	// configuration file, or empty when the manifest declares none.
	ConfigFile string

	// RoutesFile is the resolved absolute path of a supplemental routes
	// file, or empty.
	RoutesFile string

	Description string
	Authors     []string
	Tags        []string

	// Provides lists capability tags other modules can require.
	Provides []string

	// Requires maps runtime requirement names to constraint expressions.
	Requires map[string]string

	// Enabled controls whether discovery registers the module. Defaults to
	// true; disabled modules are discovered but never registered.
	Enabled bool

	// Dir is the module directory the manifest was loaded from.
	Dir string
}

// LoadManifest reads and constructs a manifest from a module.toml,
// module.yaml, or module.json file. Construction fails on undecodable data
// or on file references escaping the module directory; semantic problems
// are reported by Validate instead.
func LoadManifest(path string) (*ModuleManifest, error) {
	data, err := decodeFileToMap(path)
	if err != nil {
		return nil, err
	}
	return ManifestFromMap(data, filepath.Dir(path))
}

// ManifestFromMap builds a manifest from decoded manifest data. Non-string
// members of string-list fields are filtered out defensively. The "config"
// and "routes" entries are resolved against moduleDir; relative paths must
// stay inside the module directory.
func ManifestFromMap(data map[string]any, moduleDir string) (*ModuleManifest, error) {
	absDir, err := filepath.Abs(moduleDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve module directory %s: %w", moduleDir, err)
	}

	m := &ModuleManifest{
		Name:         stringValue(data, "name", filepath.Base(absDir)),
		Version:      stringValue(data, "version", "1.0.0"),
		Description:  stringValue(data, "description", ""),
		Dependencies: stringSlice(data["dependencies"]),
		Authors:      stringSlice(data["authors"]),
		Tags:         stringSlice(data["tags"]),
		Provides:     stringSlice(data["provides"]),
		Requires:     stringMap(data["requires"]),
		Enabled:      boolValue(data, "enabled", true),
		Dir:          absDir,
	}

	if m.ConfigFile, err = resolveManifestPath(data, "config", absDir); err != nil {
		return nil, err
	}
	if m.RoutesFile, err = resolveManifestPath(data, "routes", absDir); err != nil {
		return nil, err
	}

	return m, nil
}

// Validate reports human-readable problems with the manifest: an empty
// name or version, or declared files that do not exist on disk. It never
// returns an error value; the caller decides whether to skip the module.
func (m *ModuleManifest) Validate() []string {
	var errs []string

	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, "Module name is required")
	}
	if strings.TrimSpace(m.Version) == "" {
		errs = append(errs, "Module version is required")
	}
	if m.ConfigFile != "" {
		if _, err := os.Stat(m.ConfigFile); err != nil {
			errs = append(errs, fmt.Sprintf("Config file does not exist: %s", m.ConfigFile))
		}
	}
	if m.RoutesFile != "" {
		if _, err := os.Stat(m.RoutesFile); err != nil {
			errs = append(errs, fmt.Sprintf("Routes file does not exist: %s", m.RoutesFile))
		}
	}

	return errs
}

func resolveManifestPath(data map[string]any, key, moduleDir string) (string, error) {
	raw, ok := data[key].(string)
	if !ok || raw == "" {
		return "", nil
	}
	resolved, err := secureJoin(moduleDir, raw)
	if err != nil {
		return "", fmt.Errorf("invalid %s path %q: %w", key, raw, err)
	}
	return resolved, nil
}

// secureJoin resolves path against base. Absolute paths are accepted as-is
// (cleaned); relative paths are joined with base and must resolve to a
// descendant of base. Containment is checked on the canonicalized result
// rather than by substring matching.
func secureJoin(base, path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}

	joined := filepath.Clean(filepath.Join(base, path))
	rel, err := filepath.Rel(base, joined)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, path)
	}

	return joined, nil
}

func stringValue(data map[string]any, key, fallback string) string {
	if v, ok := data[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func boolValue(data map[string]any, key string, fallback bool) bool {
	if v, ok := data[key].(bool); ok {
		return v
	}
	return fallback
}

// stringSlice converts a decoded list into a string slice, dropping any
// non-string members.
func stringSlice(value any) []string {
	list, ok := value.([]any)
	if !ok {
		if typed, ok := value.([]string); ok {
			return append([]string(nil), typed...)
		}
		return nil
	}

	result := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			result = append(result, s)
		}
	}
	return result
}

// stringMap converts a decoded mapping into map[string]string, stringifying
// scalar values and dropping everything else.
func stringMap(value any) map[string]string {
	raw, ok := value.(map[string]any)
	if !ok {
		if typed, ok := value.(map[string]string); ok {
			result := make(map[string]string, len(typed))
			for k, v := range typed {
				result[k] = v
			}
			return result
		}
		return nil
	}

	result := make(map[string]string, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case string:
			result[k] = val
		case bool, int, int64, float64:
			result[k] = fmt.Sprintf("%v", val)
		}
	}
	return result
}
