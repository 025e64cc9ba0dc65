// Package httpd applies the managed configuration to a Homebrew Apache
// installation and drives apachectl.
//
// Four files are managed, each backed up once before its first edit:
//
//   - httpd.conf: listen port, module activation (including the PHP module
//     line), server name, document root, directory index, the PHP handler
//     block, and the extra/* includes.
//   - extra/httpd-ssl.conf: HTTPS listen port, server name, and the paths
//     of the generated certificate pair.
//   - extra/httpd-vhosts.conf: rewritten wholesale from the embedded
//     template with one HTTP and one SSL vhost.
//   - users/<username>.conf: the per-user Directory include granting access
//     to the document root.
//
// Every edit goes through the confedit package and is idempotent: a second
// setup run leaves all four files byte-identical. Restore copies the .backup
// files back, returning the installation to its pre-provisioning state.
package httpd
