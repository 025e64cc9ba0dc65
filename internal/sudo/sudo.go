// Package sudo manages selective privilege escalation.
//
// The tool itself never runs as root (Homebrew refuses to). The few
// operations that need it, such as registering a certificate in the System
// keychain, go through sudo. Prime validates the cached credentials once,
// prompting for a password if needed, and Keepalive refreshes them in the
// background so a long provisioning run never prompts twice.
package sudo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/localdev/apachedev/internal/executor"
	"github.com/localdev/apachedev/internal/logger"
)

// DefaultRefreshInterval is how often cached credentials are revalidated.
// The sudo timestamp timeout defaults to 5 minutes; refreshing every minute
// leaves plenty of slack.
const DefaultRefreshInterval = time.Minute

// Session holds a primed sudo credential cache.
type Session struct {
	exec     executor.CommandExecutor
	interval time.Duration
}

// NewSession creates a Session using the given executor.
func NewSession(exec executor.CommandExecutor) *Session {
	return &Session{exec: exec, interval: DefaultRefreshInterval}
}

// NewSessionWithInterval creates a Session with a custom refresh interval,
// used by tests to avoid minute-long waits.
func NewSessionWithInterval(exec executor.CommandExecutor, interval time.Duration) *Session {
	return &Session{exec: exec, interval: interval}
}

// Prime validates the sudo credential cache, prompting for a password on the
// terminal when the cache is cold.
func (s *Session) Prime() error {
	out, err := s.exec.Execute("sudo", "-v")
	if err != nil {
		return fmt.Errorf("sudo validation failed: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// Keepalive refreshes the credential cache every interval until ctx is
// canceled. It returns immediately; the refresh loop runs in a goroutine.
// Refresh failures are logged and the loop keeps going.
func (s *Session) Keepalive(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("sudo keep-alive stopped")
				return
			case <-ticker.C:
				// -n: never prompt from the background loop
				if out, err := s.exec.ExecuteContext(ctx, "sudo", "-n", "-v"); err != nil {
					logger.Warn("sudo keep-alive refresh failed: %s", strings.TrimSpace(string(out)))
				}
			}
		}
	}()
}

// Run executes a command under sudo without prompting. Prime must have been
// called first so the credential cache is warm.
func (s *Session) Run(name string, args ...string) ([]byte, error) {
	sudoArgs := append([]string{"-n", name}, args...)
	out, err := s.exec.Execute("sudo", sudoArgs...)
	if err != nil {
		return out, fmt.Errorf("sudo %s failed: %s", name, strings.TrimSpace(string(out)))
	}
	return out, nil
}
