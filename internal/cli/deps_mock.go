package cli

import (
	"github.com/localdev/apachedev/internal/config"
	"github.com/localdev/apachedev/internal/executor"
	"github.com/localdev/apachedev/internal/input"
	"github.com/localdev/apachedev/internal/platform"
)

// MockSettingsLoader is a test double for SettingsLoader
type MockSettingsLoader struct {
	Settings  *config.Settings
	LoadErr   error
	SaveErr   error
	SaveCalls int
}

func (m *MockSettingsLoader) Load() (*config.Settings, error) {
	if m.LoadErr != nil {
		return nil, m.LoadErr
	}
	if m.Settings == nil {
		m.Settings = config.New()
	}
	return m.Settings, nil
}

func (m *MockSettingsLoader) Save(cfg *config.Settings) error {
	m.SaveCalls++
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.Settings = cfg
	return nil
}

// MockPlatformDetector is a test double for PlatformDetector
type MockPlatformDetector struct {
	Paths *platform.Paths
	Err   error
}

func (m *MockPlatformDetector) Detect() (*platform.Paths, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Paths != nil {
		return m.Paths, nil
	}
	return platform.PathsForPrefix("/opt/homebrew", "dev"), nil
}

// MockRootChecker is a test double for RootChecker
type MockRootChecker struct {
	Root  bool
	Calls int
}

func (m *MockRootChecker) IsRoot() bool {
	m.Calls++
	return m.Root
}

// MockDependenciesBuilder helps create mock dependencies for tests
type MockDependenciesBuilder struct {
	deps *Dependencies
}

// NewMockDeps creates a new MockDependenciesBuilder with sensible defaults
func NewMockDeps() *MockDependenciesBuilder {
	return &MockDependenciesBuilder{
		deps: &Dependencies{
			SettingsLoader:   &MockSettingsLoader{Settings: config.New()},
			PlatformDetector: &MockPlatformDetector{},
			Executor:         &executor.MockExecutor{},
			RootChecker:      &MockRootChecker{},
			StdinReader:      input.NewStringReader("y\n"),
		},
	}
}

// WithSettings sets the settings for the mock
func (b *MockDependenciesBuilder) WithSettings(cfg *config.Settings) *MockDependenciesBuilder {
	b.deps.SettingsLoader = &MockSettingsLoader{Settings: cfg}
	return b
}

// WithSettingsLoader sets a custom settings loader
func (b *MockDependenciesBuilder) WithSettingsLoader(loader SettingsLoader) *MockDependenciesBuilder {
	b.deps.SettingsLoader = loader
	return b
}

// WithPaths sets the platform paths for the mock
func (b *MockDependenciesBuilder) WithPaths(paths *platform.Paths) *MockDependenciesBuilder {
	b.deps.PlatformDetector = &MockPlatformDetector{Paths: paths}
	return b
}

// WithPlatformError sets an error for platform detection
func (b *MockDependenciesBuilder) WithPlatformError(err error) *MockDependenciesBuilder {
	b.deps.PlatformDetector = &MockPlatformDetector{Err: err}
	return b
}

// WithExecutor sets the command executor for the mock
func (b *MockDependenciesBuilder) WithExecutor(exec executor.CommandExecutor) *MockDependenciesBuilder {
	b.deps.Executor = exec
	return b
}

// WithRoot sets whether the process appears to run as root
func (b *MockDependenciesBuilder) WithRoot(root bool) *MockDependenciesBuilder {
	b.deps.RootChecker = &MockRootChecker{Root: root}
	return b
}

// WithStdinInput sets the canned stdin answers for the mock, one per prompt
func (b *MockDependenciesBuilder) WithStdinInput(answers ...string) *MockDependenciesBuilder {
	b.deps.StdinReader = input.NewStringReader(answers...)
	return b
}

// Build returns the configured Dependencies
func (b *MockDependenciesBuilder) Build() *Dependencies {
	return b.deps
}
