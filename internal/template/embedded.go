package template

import (
	"embed"
)

//go:embed httpd/*.tmpl
var httpdTemplates embed.FS

//go:embed site/*.tmpl
var siteTemplates embed.FS
