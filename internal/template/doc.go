// Package template renders the embedded configuration and site-file
// templates used during provisioning.
//
// Two template groups are embedded at build time:
//
//   - httpd/: the virtual-host file (one HTTP and one SSL vhost for the
//     configured server name) and the per-user Directory include.
//   - site/: the three files written under the document root for smoke
//     testing (index.html, info.php, test.php).
//
// All templates render from a single Data struct carrying the server name,
// ports, document root, certificate paths, and log locations. Templates use
// text/template; there is no user-provided template input.
package template
