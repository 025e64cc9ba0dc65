// Package platform provides macOS and Homebrew installation detection for the
// Apache development environment.
package platform

import (
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
)

// Paths contains the detected locations of everything the provisioner touches.
type Paths struct {
	Prefix        string // Homebrew prefix (/opt/homebrew or /usr/local)
	Brew          string // brew binary
	Apachectl     string // apachectl binary shipped with the httpd formula
	HTTPDConf     string // main Apache config
	SSLConf       string // extra/httpd-ssl.conf
	VHostsConf    string // extra/httpd-vhosts.conf
	UserDirConf   string // extra/httpd-userdir.conf
	UserConf      string // users/<username>.conf
	CertDir       string // directory for the generated key/cert pair
	PHPModule     string // libphp.so for the current php formula
	ErrorLog      string // Apache error log
	AccessLog     string // Apache access log
}

// goos is swapped in tests to simulate other platforms.
var goos = runtime.GOOS

// Detect returns the paths for the local Homebrew Apache installation.
// It fails on anything other than macOS and when no Homebrew prefix exists.
func Detect() (*Paths, error) {
	if goos != "darwin" {
		return nil, fmt.Errorf("unsupported platform: %s (macOS required)", goos)
	}

	// Apple Silicon prefix first, then Intel
	prefix := ""
	for _, candidate := range []string{"/opt/homebrew", "/usr/local"} {
		if pathExists(filepath.Join(candidate, "bin", "brew")) {
			prefix = candidate
			break
		}
	}
	if prefix == "" {
		return nil, fmt.Errorf("homebrew installation not found (checked /opt/homebrew and /usr/local)")
	}

	username, err := currentUsername()
	if err != nil {
		return nil, err
	}

	return PathsForPrefix(prefix, username), nil
}

// PathsForPrefix derives all managed paths from a Homebrew prefix. Split out
// from Detect so tests can build paths against a temp directory.
func PathsForPrefix(prefix, username string) *Paths {
	etc := filepath.Join(prefix, "etc", "httpd")
	return &Paths{
		Prefix:      prefix,
		Brew:        filepath.Join(prefix, "bin", "brew"),
		Apachectl:   filepath.Join(prefix, "bin", "apachectl"),
		HTTPDConf:   filepath.Join(etc, "httpd.conf"),
		SSLConf:     filepath.Join(etc, "extra", "httpd-ssl.conf"),
		VHostsConf:  filepath.Join(etc, "extra", "httpd-vhosts.conf"),
		UserDirConf: filepath.Join(etc, "extra", "httpd-userdir.conf"),
		UserConf:    filepath.Join(etc, "users", username+".conf"),
		CertDir:     filepath.Join(etc, "certs"),
		PHPModule:   filepath.Join(prefix, "opt", "php", "lib", "httpd", "modules", "libphp.so"),
		ErrorLog:    filepath.Join(prefix, "var", "log", "httpd", "error_log"),
		AccessLog:   filepath.Join(prefix, "var", "log", "httpd", "access_log"),
	}
}

// ManagedConfigs returns the four configuration files the provisioner edits,
// in the order they are touched during setup.
func (p *Paths) ManagedConfigs() []string {
	return []string{p.HTTPDConf, p.SSLConf, p.VHostsConf, p.UserConf}
}

// CertFile returns the certificate path for the given server name.
func (p *Paths) CertFile(serverName string) string {
	return filepath.Join(p.CertDir, serverName+".crt")
}

// KeyFile returns the private key path for the given server name.
func (p *Paths) KeyFile(serverName string) string {
	return filepath.Join(p.CertDir, serverName+".key")
}

// IsRoot reports whether the process runs with effective uid 0. Homebrew
// refuses to run as root, so the CLI refuses too and escalates selectively.
func IsRoot() bool {
	return os.Geteuid() == 0
}

// currentUsername returns the login name of the invoking user.
func currentUsername() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("failed to determine current user: %w", err)
	}
	return u.Username, nil
}

// pathExists checks if a path exists on the filesystem.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Platform returns a string describing the current platform.
func Platform() string {
	return fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH)
}
