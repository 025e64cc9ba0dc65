package template

import (
	"bytes"
	"fmt"
	"text/template"
)

// Data contains the values rendered into configuration and site templates.
type Data struct {
	ServerName   string
	HTTPPort     int
	HTTPSPort    int
	DocumentRoot string
	CertFile     string
	KeyFile      string
	Username     string
	ErrorLog     string
	AccessLog    string
}

// Names of the available templates.
const (
	VHosts    = "httpd/vhosts.conf.tmpl"
	UserConf  = "httpd/user.conf.tmpl"
	IndexHTML = "site/index.html.tmpl"
	InfoPHP   = "site/info.php.tmpl"
	TestPHP   = "site/test.php.tmpl"
)

// SiteFiles maps document-root file names to their templates, in the order
// they are written during setup.
func SiteFiles() []struct{ Name, Template string } {
	return []struct{ Name, Template string }{
		{"index.html", IndexHTML},
		{"info.php", InfoPHP},
		{"test.php", TestPHP},
	}
}

// Render renders the named template with the given data.
func Render(name string, data Data) (string, error) {
	fs := httpdTemplates
	if len(name) > 5 && name[:5] == "site/" {
		fs = siteTemplates
	}

	content, err := fs.ReadFile(name)
	if err != nil {
		return "", fmt.Errorf("template not found: %s", name)
	}

	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", name, err)
	}

	return buf.String(), nil
}
