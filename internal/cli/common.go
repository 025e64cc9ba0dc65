package cli

import (
	"fmt"
	"os"
	"os/user"
	"strings"

	"github.com/localdev/apachedev/internal/brew"
	"github.com/localdev/apachedev/internal/config"
	apperrors "github.com/localdev/apachedev/internal/errors"
	"github.com/localdev/apachedev/internal/httpd"
	"github.com/localdev/apachedev/internal/output"
	"github.com/localdev/apachedev/internal/platform"
	"github.com/localdev/apachedev/internal/template"
)

// loadEnvironment loads validated settings and detects the Homebrew paths.
func loadEnvironment() (*config.Settings, *platform.Paths, error) {
	cfg, err := deps.SettingsLoader.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, apperrors.Wrap(apperrors.ErrCodeValidation, "invalid configuration", err)
	}

	paths, err := deps.PlatformDetector.Detect()
	if err != nil {
		return nil, nil, err
	}
	return cfg, paths, nil
}

// newBrewClient builds a brew client bound to the detected binary.
func newBrewClient(paths *platform.Paths) *brew.Client {
	return brew.NewClient(paths.Brew, deps.Executor)
}

// newConfigurator builds the Apache configurator for the detected paths.
func newConfigurator(paths *platform.Paths) *httpd.Configurator {
	return httpd.NewConfigurator(paths, deps.Executor)
}

// refuseRoot rejects running the whole tool as root. Homebrew refuses to run
// as root, and the few operations that need privileges use sudo themselves.
func refuseRoot() error {
	if deps.RootChecker.IsRoot() {
		return apperrors.ErrRunningAsRoot
	}
	return nil
}

// templateData assembles the values rendered into config and site templates.
func templateData(cfg *config.Settings, paths *platform.Paths) (template.Data, error) {
	root, err := cfg.ExpandedRoot()
	if err != nil {
		return template.Data{}, err
	}

	return template.Data{
		ServerName:   cfg.ServerName,
		HTTPPort:     cfg.HTTPPort,
		HTTPSPort:    cfg.HTTPSPort,
		DocumentRoot: root,
		CertFile:     paths.CertFile(cfg.ServerName),
		KeyFile:      paths.KeyFile(cfg.ServerName),
		Username:     currentUsername(),
		ErrorLog:     paths.ErrorLog,
		AccessLog:    paths.AccessLog,
	}, nil
}

func currentUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}

// confirm asks a yes/no question on stdin and returns true for y/yes.
func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	answer, _ := deps.StdinReader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// outputResult handles JSON or human-readable output
func outputResult(data interface{}, successMsg string, args ...interface{}) error {
	if jsonOutput {
		return output.JSON(data)
	}
	output.Success(successMsg, args...)
	return nil
}

// DryRunOperation describes one action a command would take.
type DryRunOperation struct {
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
}

// outputDryRun prints the planned operations without executing them.
func outputDryRun(ops []DryRunOperation) error {
	if jsonOutput {
		return output.JSON(map[string]interface{}{
			"dry_run":    true,
			"operations": ops,
		})
	}
	output.Info("Dry run; no changes will be made")
	for _, op := range ops {
		if op.Target != "" {
			output.Print("  would %s (%s)", op.Action, op.Target)
		} else {
			output.Print("  would %s", op.Action)
		}
	}
	return nil
}
