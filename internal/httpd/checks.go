package httpd

import (
	"fmt"
	"os"

	"github.com/localdev/apachedev/internal/confedit"
	"github.com/localdev/apachedev/internal/template"
)

// Check reports whether a single managed edit is in place.
type Check struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Applied bool   `json:"applied"`
}

// EditChecks inspects the configuration files and reports which managed
// edits have been applied. Used by the status and doctor commands; a missing
// file simply reports the check as not applied.
func (c *Configurator) EditChecks(data template.Data) []Check {
	checks := []Check{
		c.lineCheck("listen port", c.paths.HTTPDConf, fmt.Sprintf(`^Listen %d$`, data.HTTPPort)),
		c.lineCheck("ssl module", c.paths.HTTPDConf, `^LoadModule ssl_module `),
		c.lineCheck("php module", c.paths.HTTPDConf, `^LoadModule php_module `),
		c.lineCheck("server name", c.paths.HTTPDConf, fmt.Sprintf(`^ServerName %s:%d$`, data.ServerName, data.HTTPPort)),
		c.lineCheck("document root", c.paths.HTTPDConf, fmt.Sprintf(`^DocumentRoot "%s"$`, data.DocumentRoot)),
		c.lineCheck("php handler block", c.paths.HTTPDConf, `^`+phpBlockBegin+`$`),
		c.lineCheck("ssl include", c.paths.HTTPDConf, `^Include .*extra/httpd-ssl\.conf`),
		c.lineCheck("vhosts include", c.paths.HTTPDConf, `^Include .*extra/httpd-vhosts\.conf`),
		c.lineCheck("https listen port", c.paths.SSLConf, fmt.Sprintf(`^Listen %d$`, data.HTTPSPort)),
		c.lineCheck("certificate path", c.paths.SSLConf, `^SSLCertificateFile .*`+data.ServerName+`\.crt"$`),
		c.lineCheck("managed vhosts file", c.paths.VHostsConf, `Managed by apachedev`),
	}

	userConf := Check{Name: "per-user include", File: c.paths.UserConf}
	if _, err := os.Stat(c.paths.UserConf); err == nil {
		userConf.Applied = true
	}
	checks = append(checks, userConf)

	return checks
}

// BackupChecks reports which managed files have a pristine backup copy.
func (c *Configurator) BackupChecks() []Check {
	var checks []Check
	for _, path := range c.paths.ManagedConfigs() {
		checks = append(checks, Check{
			Name:    "backup",
			File:    path,
			Applied: confedit.HasBackup(path),
		})
	}
	return checks
}

func (c *Configurator) lineCheck(name, path, pattern string) Check {
	check := Check{Name: name, File: path}
	if _, err := os.Stat(path); err != nil {
		return check
	}
	applied, err := confedit.Contains(path, pattern)
	if err != nil {
		return check
	}
	check.Applied = applied
	return check
}
