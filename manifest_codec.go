package modkit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Manifest and legacy config file names probed during discovery, in
// preference order. A directory containing one of manifestFileNames is a
// manifest module; a directory containing only one of legacyConfigFileNames
// is a legacy config-only module.
var (
	manifestFileNames     = []string{"module.toml", "module.yaml", "module.yml", "module.json"}
	legacyConfigFileNames = []string{"config.toml", "config.yaml", "config.yml", "config.json"}
)

// findManifestFile returns the manifest file in dir, if any.
func findManifestFile(dir string) (string, bool) {
	return findFirstFile(dir, manifestFileNames)
}

// findLegacyConfigFile returns the legacy config file in dir, if any.
func findLegacyConfigFile(dir string) (string, bool) {
	return findFirstFile(dir, legacyConfigFileNames)
}

func findFirstFile(dir string, names []string) (string, bool) {
	for _, name := range names {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

// decodeFile decodes a TOML, YAML, or JSON file into target based on the
// file extension.
func decodeFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to decode toml %s: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to decode yaml %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, target); err != nil {
			return fmt.Errorf("failed to decode json %s: %w", path, err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedManifestFormat, path)
	}

	return nil
}

// decodeFileToMap decodes a manifest file into a generic map so defaults and
// defensive filtering can be applied before constructing typed values.
func decodeFileToMap(path string) (map[string]any, error) {
	var data map[string]any
	if err := decodeFile(path, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = make(map[string]any)
	}
	return data, nil
}
