package modkit

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerModuleAt(t *testing.T, mm *ModuleManager, name, dir string) {
	t.Helper()
	config := &ModuleConfig{Name: name, Version: "1.0.0"}
	module := NewGenericModule(name, dir, config, nil, mm.Hooks(), NewTestLogger())
	require.NoError(t, mm.RegisterModule(module))
}

func TestModuleIsolationInfo(t *testing.T) {
	mm, _, _ := newTestManager(t)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/user\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# user\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "user_test.go"), []byte("package user\n"), 0o644))
	registerModuleAt(t, mm, "user", dir)

	info, err := mm.ModuleIsolationInfo("user")
	require.NoError(t, err)
	assert.True(t, info.HasGoMod)
	assert.True(t, info.HasReadme)
	assert.True(t, info.HasTests)
	assert.False(t, info.HasMakefile)
	assert.False(t, info.HasCIConfig)
	assert.True(t, info.SelfContained)

	assert.True(t, mm.HasIsolatedConfig("user"))
}

func TestModuleIsolationInfoBareModule(t *testing.T) {
	mm, _, _ := newTestManager(t)
	registerModuleAt(t, mm, "bare", t.TempDir())

	info, err := mm.ModuleIsolationInfo("bare")
	require.NoError(t, err)
	assert.False(t, info.SelfContained)
	assert.False(t, mm.HasIsolatedConfig("bare"))
}

func TestModuleIsolationInfoUnknownModule(t *testing.T) {
	mm, _, _ := newTestManager(t)

	_, err := mm.ModuleIsolationInfo("ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrModuleNotFound))
}

func TestRunModuleTestsRequiresTests(t *testing.T) {
	mm, _, _ := newTestManager(t)
	registerModuleAt(t, mm, "bare", t.TempDir())

	_, err := mm.RunModuleTests(context.Background(), "bare")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoTestCommand))
}
