package cli

import (
	"github.com/localdev/apachedev/internal/config"
	"github.com/localdev/apachedev/internal/executor"
	"github.com/localdev/apachedev/internal/input"
	"github.com/localdev/apachedev/internal/platform"
)

// Dependencies aggregates all CLI external dependencies for testability
type Dependencies struct {
	SettingsLoader   SettingsLoader
	PlatformDetector PlatformDetector
	Executor         executor.CommandExecutor
	RootChecker      RootChecker
	StdinReader      input.Reader
}

// SettingsLoader handles configuration loading and saving
type SettingsLoader interface {
	Load() (*config.Settings, error)
	Save(cfg *config.Settings) error
}

// PlatformDetector handles Homebrew path detection
type PlatformDetector interface {
	Detect() (*platform.Paths, error)
}

// RootChecker reports whether the process runs with root privileges
type RootChecker interface {
	IsRoot() bool
}

// Package-level dependencies (can be overridden for testing)
var deps = &Dependencies{
	SettingsLoader:   &realSettingsLoader{},
	PlatformDetector: &realPlatformDetector{},
	Executor:         executor.NewSystemExecutor(),
	RootChecker:      &realRootChecker{},
	StdinReader:      input.NewStdinReader(),
}

// SetDeps replaces the package dependencies (for testing)
func SetDeps(d *Dependencies) {
	deps = d
}

// GetDeps returns the current dependencies (for testing)
func GetDeps() *Dependencies {
	return deps
}

// Real implementations that delegate to existing functions

type realSettingsLoader struct{}

func (r *realSettingsLoader) Load() (*config.Settings, error) {
	return config.Load()
}

func (r *realSettingsLoader) Save(cfg *config.Settings) error {
	return cfg.Save()
}

type realPlatformDetector struct{}

func (r *realPlatformDetector) Detect() (*platform.Paths, error) {
	return platform.Detect()
}

type realRootChecker struct{}

func (r *realRootChecker) IsRoot() bool {
	return platform.IsRoot()
}
