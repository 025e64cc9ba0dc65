// Package brew wraps the Homebrew CLI for package and service management.
package brew

import (
	"fmt"
	"strings"

	"github.com/localdev/apachedev/internal/executor"
	"github.com/localdev/apachedev/internal/logger"
)

// Client runs Homebrew commands through an injectable executor.
type Client struct {
	brewPath string
	exec     executor.CommandExecutor
}

// NewClient creates a brew client for the given brew binary path.
func NewClient(brewPath string, exec executor.CommandExecutor) *Client {
	return &Client{brewPath: brewPath, exec: exec}
}

// Version returns the Homebrew version string (first output line).
func (c *Client) Version() (string, error) {
	out, err := c.exec.Execute(c.brewPath, "--version")
	if err != nil {
		return "", fmt.Errorf("brew --version failed: %s", strings.TrimSpace(string(out)))
	}
	lines := strings.SplitN(string(out), "\n", 2)
	return strings.TrimSpace(lines[0]), nil
}

// IsInstalled reports whether a formula is installed.
func (c *Client) IsInstalled(formula string) bool {
	out, err := c.exec.Execute(c.brewPath, "list", "--versions", formula)
	if err != nil {
		return false
	}
	// brew list --versions prints nothing when the formula is unknown
	return strings.TrimSpace(string(out)) != ""
}

// Install installs a formula. Installing an already-installed formula is not
// an error on the brew side, but callers should prefer IsInstalled to skip
// the slow no-op.
func (c *Client) Install(formula string) error {
	logger.Info("Installing %s via Homebrew", formula)
	out, err := c.exec.Execute(c.brewPath, "install", formula)
	if err != nil {
		return fmt.Errorf("brew install %s failed: %s", formula, strings.TrimSpace(string(out)))
	}
	return nil
}

// InstalledVersion returns the installed version of a formula, or an empty
// string when it is not installed.
func (c *Client) InstalledVersion(formula string) string {
	out, err := c.exec.Execute(c.brewPath, "list", "--versions", formula)
	if err != nil {
		return ""
	}
	// Output: "httpd 2.4.62"
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// ServiceRestart restarts a brew-managed service.
func (c *Client) ServiceRestart(name string) error {
	logger.Info("Restarting service %s", name)
	out, err := c.exec.Execute(c.brewPath, "services", "restart", name)
	if err != nil {
		return fmt.Errorf("brew services restart %s failed: %s", name, strings.TrimSpace(string(out)))
	}
	return nil
}

// ServiceStop stops a brew-managed service.
func (c *Client) ServiceStop(name string) error {
	out, err := c.exec.Execute(c.brewPath, "services", "stop", name)
	if err != nil {
		return fmt.Errorf("brew services stop %s failed: %s", name, strings.TrimSpace(string(out)))
	}
	return nil
}

// ServiceState returns the state column from `brew services list` for the
// named service ("started", "stopped", "error", "none"). An unknown service
// reports "none".
func (c *Client) ServiceState(name string) (string, error) {
	out, err := c.exec.Execute(c.brewPath, "services", "list")
	if err != nil {
		return "", fmt.Errorf("brew services list failed: %s", strings.TrimSpace(string(out)))
	}

	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[0] == name {
			return fields[1], nil
		}
	}
	return "none", nil
}
