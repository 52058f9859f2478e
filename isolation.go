package modkit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// IsolationInfo describes how self-contained a module directory is:
// whether it carries its own build manifest, CI configuration, tests, and
// documentation next to its module files.
type IsolationInfo struct {
	Module        string `json:"module"`
	Dir           string `json:"dir"`
	HasGoMod      bool   `json:"has_go_mod"`
	HasMakefile   bool   `json:"has_makefile"`
	HasCIConfig   bool   `json:"has_ci_config"`
	HasReadme     bool   `json:"has_readme"`
	HasTests      bool   `json:"has_tests"`
	SelfContained bool   `json:"self_contained"`
}

// TestRunResult captures one RunModuleTests invocation.
type TestRunResult struct {
	Module   string        `json:"module"`
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
}

// HasIsolatedConfig reports whether the module directory carries its own
// go.mod, marking it as an independently buildable unit.
func (mm *ModuleManager) HasIsolatedConfig(name string) bool {
	info, err := mm.ModuleIsolationInfo(name)
	return err == nil && info.HasGoMod
}

// ModuleIsolationInfo inspects the filesystem around a module's directory
// and reports which self-containment markers are present. This is developer
// tooling, not part of the request-serving path.
func (mm *ModuleManager) ModuleIsolationInfo(name string) (IsolationInfo, error) {
	module, err := mm.GetModule(name)
	if err != nil {
		return IsolationInfo{}, err
	}

	gm, ok := module.(*GenericModule)
	if !ok {
		return IsolationInfo{Module: name}, nil
	}

	dir := gm.Path()
	info := IsolationInfo{
		Module:      name,
		Dir:         dir,
		HasGoMod:    fileExists(filepath.Join(dir, "go.mod")),
		HasMakefile: fileExists(filepath.Join(dir, "Makefile")),
		HasCIConfig: dirExists(filepath.Join(dir, ".github")) || fileExists(filepath.Join(dir, ".gitlab-ci.yml")),
		HasReadme:   fileExists(filepath.Join(dir, "README.md")),
		HasTests:    hasTestFiles(dir),
	}
	info.SelfContained = info.HasGoMod && info.HasReadme && info.HasTests

	return info, nil
}

// RunModuleTests runs the module's own test suite in its directory and
// captures output and exit code. Modules without a go.mod are tested
// through the enclosing module instead.
func (mm *ModuleManager) RunModuleTests(ctx context.Context, name string) (TestRunResult, error) {
	info, err := mm.ModuleIsolationInfo(name)
	if err != nil {
		return TestRunResult{}, err
	}
	if !info.HasTests {
		return TestRunResult{}, fmt.Errorf("%w: %s", ErrNoTestCommand, name)
	}

	cmd := exec.CommandContext(ctx, "go", "test", "./...")
	cmd.Dir = info.Dir

	start := time.Now()
	output, runErr := cmd.CombinedOutput()
	result := TestRunResult{
		Module:   name,
		Command:  strings.Join(cmd.Args, " "),
		Output:   string(output),
		Duration: time.Since(start),
	}

	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		return result, fmt.Errorf("failed to run module tests for %s: %w", name, runErr)
	}

	return result, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func hasTestFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), "_test.go") {
			return true
		}
	}
	return false
}
