package modkit

import (
	"errors"
)

// Package-level errors
var (
	// Manifest errors
	ErrManifestNotFound          = errors.New("module manifest not found")
	ErrManifestInvalid           = errors.New("module manifest is invalid")
	ErrUnsupportedManifestFormat = errors.New("unsupported manifest format")
	ErrPathTraversal             = errors.New("path escapes module directory")
	ErrModuleDirEmpty            = errors.New("module directory is empty")

	// Registration errors
	ErrInvalidModuleConfig = errors.New("module configuration is invalid")
	ErrModuleNil           = errors.New("module is nil")

	// Dependency resolution errors
	ErrModuleNotFound     = errors.New("module not found")
	ErrCircularDependency = errors.New("circular dependency detected")

	// Discovery errors
	ErrModulesRootMissing = errors.New("modules root directory does not exist")

	// Container errors
	ErrServiceAlreadyRegistered = errors.New("service already registered")
	ErrServiceNotFound          = errors.New("service not found")
	ErrServiceNil               = errors.New("service is nil")
	ErrTargetNotPointer         = errors.New("target must be a non-nil pointer")
	ErrTargetValueInvalid       = errors.New("target value is invalid")
	ErrServiceIncompatible      = errors.New("service cannot be assigned to target")

	// Hook registry errors
	ErrHookAlreadyRegistered = errors.New("hook already registered")
	ErrHookNotFound          = errors.New("hook not found")
	ErrHookNil               = errors.New("hook is nil")

	// Service loading errors
	ErrContainerNil      = errors.New("container is nil")
	ErrFactoryFailed     = errors.New("service factory failed")
	ErrServiceDefInvalid = errors.New("service definition has neither value nor factory")

	// Setting errors
	ErrSettingNotFound     = errors.New("setting not found")
	ErrSettingNotCoercible = errors.New("setting cannot be coerced to requested type")

	// Watcher errors
	ErrWatcherAlreadyStarted = errors.New("manifest watcher already started")
	ErrWatcherNotStarted     = errors.New("manifest watcher not started")

	// Monitor errors
	ErrMonitorAlreadyStarted = errors.New("health monitor already started")

	// Isolation/test-runner errors
	ErrNoTestCommand = errors.New("module declares no test command and has no test files")
)
