package modkit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"
)

// Module lifecycle BDD test context
type lifecycleBDDTestContext struct {
	root    string
	manager *ModuleManager
	logger  *TestLogger
	lastErr error
}

func (ctx *lifecycleBDDTestContext) resetContext() error {
	root, err := os.MkdirTemp("", "modkit-bdd-*")
	if err != nil {
		return err
	}
	ctx.root = root
	ctx.logger = NewTestLogger()
	ctx.manager = NewModuleManager(root, NewHookRegistry(), ctx.logger)
	ctx.lastErr = nil
	return nil
}

func (ctx *lifecycleBDDTestContext) writeManifest(name string, deps []string, enabled bool) error {
	dir := filepath.Join(ctx.root, strings.ToLower(name))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "name = %q\n", name)
	fmt.Fprintf(&b, "version = \"1.0.0\"\n")
	if len(deps) > 0 {
		quoted := make([]string, len(deps))
		for i, dep := range deps {
			quoted[i] = fmt.Sprintf("%q", dep)
		}
		fmt.Fprintf(&b, "dependencies = [%s]\n", strings.Join(quoted, ", "))
	}
	if !enabled {
		fmt.Fprintf(&b, "enabled = false\n")
	}

	return os.WriteFile(filepath.Join(dir, "module.toml"), []byte(b.String()), 0o644)
}

func (ctx *lifecycleBDDTestContext) aModulesRootWithAModule(name string) error {
	if err := ctx.resetContext(); err != nil {
		return err
	}
	return ctx.writeManifest(name, nil, true)
}

func (ctx *lifecycleBDDTestContext) aModulesRootWithAModuleDependingOn(name, dep string) error {
	if err := ctx.resetContext(); err != nil {
		return err
	}
	return ctx.writeManifest(name, []string{dep}, true)
}

func (ctx *lifecycleBDDTestContext) aModuleDependingOn(name, dep string) error {
	return ctx.writeManifest(name, []string{dep}, true)
}

func (ctx *lifecycleBDDTestContext) aModuleDependingOnBoth(name, dep1, dep2 string) error {
	return ctx.writeManifest(name, []string{dep1, dep2}, true)
}

func (ctx *lifecycleBDDTestContext) aDisabledModule(name string) error {
	return ctx.writeManifest(name, nil, false)
}

func (ctx *lifecycleBDDTestContext) iDiscoverModules() error {
	ctx.lastErr = ctx.manager.DiscoverModules(context.Background())
	return nil
}

func (ctx *lifecycleBDDTestContext) iInitializeAllModules() error {
	if err := ctx.manager.DiscoverModules(context.Background()); err != nil {
		ctx.lastErr = err
		return nil
	}
	ctx.lastErr = ctx.manager.InitializeModules(context.Background())
	return nil
}

func (ctx *lifecycleBDDTestContext) initializationShouldSucceed() error {
	if ctx.lastErr != nil {
		return fmt.Errorf("expected success, got: %w", ctx.lastErr)
	}
	return nil
}

func (ctx *lifecycleBDDTestContext) shouldInitializeBefore(first, second string) error {
	order := ctx.manager.InitializedModules()
	firstPos, secondPos := -1, -1
	for i, name := range order {
		switch name {
		case first:
			firstPos = i
		case second:
			secondPos = i
		}
	}
	if firstPos < 0 || secondPos < 0 {
		return fmt.Errorf("modules %s and %s not both initialized; order: %v", first, second, order)
	}
	if firstPos >= secondPos {
		return fmt.Errorf("%s initialized at %d, after %s at %d", first, firstPos, second, secondPos)
	}
	return nil
}

func (ctx *lifecycleBDDTestContext) allModulesShouldBeInitialized(count int) error {
	if got := len(ctx.manager.InitializedModules()); got != count {
		return fmt.Errorf("expected %d initialized modules, got %d", count, got)
	}
	return nil
}

func (ctx *lifecycleBDDTestContext) initializationShouldFailWithCircularDependency() error {
	if !errors.Is(ctx.lastErr, ErrCircularDependency) {
		return fmt.Errorf("expected circular dependency error, got: %v", ctx.lastErr)
	}
	return nil
}

func (ctx *lifecycleBDDTestContext) initializationShouldFailWithModuleNotFound() error {
	if !errors.Is(ctx.lastErr, ErrModuleNotFound) {
		return fmt.Errorf("expected module not found error, got: %v", ctx.lastErr)
	}
	return nil
}

func (ctx *lifecycleBDDTestContext) noModuleShouldBeInitialized() error {
	if got := ctx.manager.InitializedModules(); len(got) != 0 {
		return fmt.Errorf("expected no initialized modules, got %v", got)
	}
	return nil
}

func (ctx *lifecycleBDDTestContext) onlyShouldBeRegistered(name string) error {
	if ctx.lastErr != nil {
		return fmt.Errorf("discovery failed: %w", ctx.lastErr)
	}
	modules := ctx.manager.AllModules()
	if len(modules) != 1 {
		return fmt.Errorf("expected exactly one registered module, got %d", len(modules))
	}
	if !ctx.manager.HasModule(name) {
		return fmt.Errorf("module %s not registered", name)
	}
	return nil
}

func InitializeModuleLifecycleScenario(sc *godog.ScenarioContext) {
	testCtx := &lifecycleBDDTestContext{}

	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if testCtx.root != "" {
			_ = os.RemoveAll(testCtx.root)
			testCtx.root = ""
		}
		return ctx, err
	})

	sc.Step(`^a modules root with a "([^"]*)" module$`, testCtx.aModulesRootWithAModule)
	sc.Step(`^a modules root with a "([^"]*)" module depending on "([^"]*)"$`, testCtx.aModulesRootWithAModuleDependingOn)
	sc.Step(`^a "([^"]*)" module depending on "([^"]*)"$`, testCtx.aModuleDependingOn)
	sc.Step(`^a "([^"]*)" module depending on "([^"]*)" and "([^"]*)"$`, testCtx.aModuleDependingOnBoth)
	sc.Step(`^a disabled "([^"]*)" module$`, testCtx.aDisabledModule)

	sc.Step(`^I discover modules$`, testCtx.iDiscoverModules)
	sc.Step(`^I initialize all modules$`, testCtx.iInitializeAllModules)

	sc.Step(`^initialization should succeed$`, testCtx.initializationShouldSucceed)
	sc.Step(`^"([^"]*)" should initialize before "([^"]*)"$`, testCtx.shouldInitializeBefore)
	sc.Step(`^all (\d+) modules should be initialized$`, testCtx.allModulesShouldBeInitialized)
	sc.Step(`^initialization should fail with a circular dependency error$`, testCtx.initializationShouldFailWithCircularDependency)
	sc.Step(`^initialization should fail with a module not found error$`, testCtx.initializationShouldFailWithModuleNotFound)
	sc.Step(`^no module should be initialized$`, testCtx.noModuleShouldBeInitialized)
	sc.Step(`^only "([^"]*)" should be registered$`, testCtx.onlyShouldBeRegistered)
}

// TestModuleLifecycle runs the BDD tests for discovery and initialization.
func TestModuleLifecycle(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeModuleLifecycleScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/module_lifecycle.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
