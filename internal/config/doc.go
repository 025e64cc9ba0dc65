// Package config manages the apachedev settings stored in YAML format.
//
// Settings live in the user's home directory at ~/.config/apachedev/config.yaml
// and describe the single managed development environment: listen ports,
// document root, PHP version, server name, and certificate validity.
//
// Example config.yaml:
//
//	http_port: 8080
//	https_port: 443
//	document_root: ~/Sites
//	php_version: "8.4"
//	server_name: localhost
//	cert_days: 825
//
// # Defaults
//
// When the file is absent, Load returns the fixed defaults the provisioner
// was designed around: HTTP on 8080, HTTPS on 443, ~/Sites as the document
// root, and the PHP 8.4 line. Command-line flags override file values,
// and file values override the defaults.
//
// # Path Expansion
//
// The document root may be written with a leading ~, which ExpandedRoot
// resolves against the current user's home directory. The expanded form is
// what gets written into the Apache configuration, since Apache does not
// perform tilde expansion in DocumentRoot directives.
package config
