package httpd

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/localdev/apachedev/internal/confedit"
	"github.com/localdev/apachedev/internal/executor"
	"github.com/localdev/apachedev/internal/logger"
	"github.com/localdev/apachedev/internal/platform"
	"github.com/localdev/apachedev/internal/template"
)

// Markers delimiting the managed PHP handler block in httpd.conf.
const (
	phpBlockBegin = "# BEGIN apachedev php handler"
	phpBlockEnd   = "# END apachedev php handler"
)

// Modules activated in the main config. mod_ssl and mod_socache_shmcb are
// required for the SSL vhost, mod_rewrite for typical PHP apps, and
// mod_userdir for the per-user include.
var uncommentModules = []string{
	"LoadModule ssl_module",
	"LoadModule socache_shmcb_module",
	"LoadModule rewrite_module",
	"LoadModule userdir_module",
}

// Includes activated in the main config.
var uncommentIncludes = []string{
	`Include .*extra/httpd-ssl\.conf`,
	`Include .*extra/httpd-vhosts\.conf`,
	`Include .*extra/httpd-userdir\.conf`,
}

// Configurator applies the managed edit set to the Homebrew Apache
// configuration and drives apachectl.
type Configurator struct {
	paths *platform.Paths
	exec  executor.CommandExecutor
}

// NewConfigurator creates a Configurator for the detected paths.
func NewConfigurator(paths *platform.Paths, exec executor.CommandExecutor) *Configurator {
	return &Configurator{paths: paths, exec: exec}
}

// Paths returns the platform paths the configurator operates on.
func (c *Configurator) Paths() *platform.Paths {
	return c.paths
}

// ConfigureMain applies all edits to httpd.conf: listen port, module and
// include activation, server name, document root, directory index, and the
// PHP handler block. The file is backed up once before the first edit.
func (c *Configurator) ConfigureMain(data template.Data) error {
	path := c.paths.HTTPDConf
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("httpd.conf not found at %s (is httpd installed?): %w", path, err)
	}

	if _, err := confedit.BackupOnce(path); err != nil {
		return err
	}

	if _, err := confedit.ReplaceLine(path, `Listen \d+`, fmt.Sprintf("Listen %d", data.HTTPPort)); err != nil {
		return err
	}

	for _, module := range uncommentModules {
		if _, err := confedit.Uncomment(path, module); err != nil {
			return err
		}
	}

	phpLine := fmt.Sprintf("LoadModule php_module %s", c.paths.PHPModule)
	if _, err := confedit.EnsureLine(path, `^LoadModule php_module `, phpLine); err != nil {
		return err
	}

	// Only the directive form. The stock file carries a doc comment starting
	// with "# ServerName gives the name..." that must survive the edit.
	serverName := fmt.Sprintf("ServerName %s:%d", data.ServerName, data.HTTPPort)
	if _, err := confedit.ReplaceLine(path, `#?ServerName \S+`, serverName); err != nil {
		return err
	}

	if err := c.redirectDocumentRoot(path, data.DocumentRoot); err != nil {
		return err
	}

	// Only the document root block gets AllowOverride All; the cgi-bin block
	// spells it the same way and must keep its stock setting.
	docDir := regexp.QuoteMeta(fmt.Sprintf(`<Directory "%s">`, data.DocumentRoot))
	if _, err := confedit.ReplaceLineWithin(path, docDir, `</Directory>`, `\s*AllowOverride None`, "    AllowOverride All"); err != nil {
		return err
	}

	if _, err := confedit.ReplaceLine(path, `\s+DirectoryIndex index\.html`, "    DirectoryIndex index.php index.html"); err != nil {
		return err
	}

	phpBody := "<FilesMatch \\.php$>\n    SetHandler application/x-httpd-php\n</FilesMatch>"
	if _, err := confedit.EnsureBlock(path, phpBlockBegin, phpBlockEnd, phpBody); err != nil {
		return err
	}

	for _, include := range uncommentIncludes {
		if _, err := confedit.Uncomment(path, include); err != nil {
			return err
		}
	}

	logger.DebugFields("main config edits applied", map[string]interface{}{
		"file": path,
		"port": data.HTTPPort,
	})
	return nil
}

// ConfigureSSL edits extra/httpd-ssl.conf: HTTPS listen port, server name,
// certificate paths, and document root.
func (c *Configurator) ConfigureSSL(data template.Data) error {
	path := c.paths.SSLConf
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("httpd-ssl.conf not found at %s: %w", path, err)
	}

	if _, err := confedit.BackupOnce(path); err != nil {
		return err
	}

	if _, err := confedit.ReplaceLine(path, `Listen \d+`, fmt.Sprintf("Listen %d", data.HTTPSPort)); err != nil {
		return err
	}

	serverName := fmt.Sprintf("ServerName %s:%d", data.ServerName, data.HTTPSPort)
	if _, err := confedit.ReplaceLine(path, `#?ServerName \S+`, serverName); err != nil {
		return err
	}

	// Only the active directive. The stock file ships commented server-dsa
	// and server-ecc alternatives that must stay commented.
	certLine := fmt.Sprintf("SSLCertificateFile \"%s\"", data.CertFile)
	if _, err := confedit.ReplaceLine(path, `SSLCertificateFile ".*"`, certLine); err != nil {
		return err
	}

	keyLine := fmt.Sprintf("SSLCertificateKeyFile \"%s\"", data.KeyFile)
	if _, err := confedit.ReplaceLine(path, `SSLCertificateKeyFile ".*"`, keyLine); err != nil {
		return err
	}

	if err := c.redirectDocumentRoot(path, data.DocumentRoot); err != nil {
		return err
	}

	logger.Debug("ssl config edits applied to %s", path)
	return nil
}

// WriteVHosts rewrites extra/httpd-vhosts.conf from the embedded template,
// backing up the stock file once.
func (c *Configurator) WriteVHosts(data template.Data) error {
	path := c.paths.VHostsConf
	if _, err := os.Stat(path); err == nil {
		if _, err := confedit.BackupOnce(path); err != nil {
			return err
		}
	}

	content, err := template.Render(template.VHosts, data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// WriteUserConf writes the per-user include granting Apache access to the
// document root. The users directory is created when missing; an existing
// file is backed up once before being rewritten.
func (c *Configurator) WriteUserConf(data template.Data) error {
	path := c.paths.UserConf
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create users directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := confedit.BackupOnce(path); err != nil {
			return err
		}
	}

	content, err := template.Render(template.UserConf, data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// ConfigureUserDir uncomments the users/*.conf include inside
// extra/httpd-userdir.conf so the per-user file takes effect.
func (c *Configurator) ConfigureUserDir() error {
	path := c.paths.UserDirConf
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("httpd-userdir.conf not found at %s: %w", path, err)
	}

	if _, err := confedit.BackupOnce(path); err != nil {
		return err
	}

	_, err := confedit.Uncomment(path, `Include .*users/\*\.conf`)
	return err
}

// Configtest validates the configuration syntax via apachectl.
func (c *Configurator) Configtest() error {
	out, err := c.exec.Execute(c.paths.Apachectl, "configtest")
	// apachectl reports "Syntax OK" on stderr with exit 0; any other exit
	// code carries the parse error in the combined output.
	if err != nil {
		return fmt.Errorf("apachectl configtest failed: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// LoadedModules returns the module names reported by apachectl -M.
func (c *Configurator) LoadedModules() ([]string, error) {
	out, err := c.exec.Execute(c.paths.Apachectl, "-M")
	if err != nil {
		return nil, fmt.Errorf("apachectl -M failed: %s", strings.TrimSpace(string(out)))
	}

	var modules []string
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		// Lines look like " php_module (shared)"
		if fields := strings.Fields(line); len(fields) >= 1 && strings.HasSuffix(fields[0], "_module") {
			modules = append(modules, fields[0])
		}
	}
	return modules, nil
}

// VerifyPHPModule checks that Apache actually loads php_module after the
// configuration edits.
func (c *Configurator) VerifyPHPModule() error {
	modules, err := c.LoadedModules()
	if err != nil {
		return err
	}
	for _, m := range modules {
		if m == "php_module" {
			return nil
		}
	}
	return fmt.Errorf("php_module not loaded; check the LoadModule line in %s", c.paths.HTTPDConf)
}

// Restore copies every existing .backup over its config file. Files without
// a backup (never touched) are skipped. Returns the restored paths.
func (c *Configurator) Restore() ([]string, error) {
	candidates := append(c.paths.ManagedConfigs(), c.paths.UserDirConf)

	var restored []string
	for _, path := range candidates {
		if !confedit.HasBackup(path) {
			continue
		}
		if err := confedit.RestoreBackup(path); err != nil {
			return restored, err
		}
		restored = append(restored, path)
	}
	return restored, nil
}

// docRootRe extracts the current document root from a config file.
var docRootRe = regexp.MustCompile(`(?m)^DocumentRoot "(.*)"$`)

// redirectDocumentRoot points the DocumentRoot directive and its matching
// <Directory> block at newRoot. The current root is read from the file so
// the matching Directory line can be rewritten without touching the other
// Directory blocks.
func (c *Configurator) redirectDocumentRoot(path, newRoot string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	m := docRootRe.FindStringSubmatch(string(data))
	if m == nil {
		return fmt.Errorf("no DocumentRoot directive in %s", path)
	}
	oldRoot := m[1]

	if _, err := confedit.ReplaceLine(path, `DocumentRoot ".*"`, fmt.Sprintf("DocumentRoot \"%s\"", newRoot)); err != nil {
		return err
	}

	oldDir := fmt.Sprintf("<Directory \"%s\">", oldRoot)
	newDir := fmt.Sprintf("<Directory \"%s\">", newRoot)
	if _, err := confedit.ReplaceLine(path, regexp.QuoteMeta(oldDir), newDir); err != nil {
		return err
	}
	return nil
}
