package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/localdev/apachedev/internal/executor"
	"github.com/localdev/apachedev/internal/platform"
)

// errMock stands in for any command failure in tests.
var errMock = errors.New("exit status 1")

// Stock Homebrew httpd config content, reduced to the directives the
// provisioner touches.
const (
	testHTTPDConf = `ServerRoot "/opt/homebrew/opt/httpd"
Listen 8080
LoadModule mpm_prefork_module lib/httpd/modules/mod_mpm_prefork.so
#LoadModule ssl_module lib/httpd/modules/mod_ssl.so
#LoadModule socache_shmcb_module lib/httpd/modules/mod_socache_shmcb.so
#LoadModule rewrite_module lib/httpd/modules/mod_rewrite.so
#LoadModule userdir_module lib/httpd/modules/mod_userdir.so
<Directory />
    AllowOverride none
    Require all denied
</Directory>
# ServerName gives the name and port that the server uses to identify itself.
#ServerName www.example.com:8080
DocumentRoot "/opt/homebrew/var/www"
<Directory "/opt/homebrew/var/www">
    Options Indexes FollowSymLinks
    AllowOverride None
    Require all granted
</Directory>
<IfModule dir_module>
    DirectoryIndex index.html
</IfModule>
<Directory "/opt/homebrew/var/www/cgi-bin">
    AllowOverride None
    Require all granted
</Directory>
#Include /opt/homebrew/etc/httpd/extra/httpd-vhosts.conf
#Include /opt/homebrew/etc/httpd/extra/httpd-userdir.conf
#Include /opt/homebrew/etc/httpd/extra/httpd-ssl.conf
`

	testSSLConf = `Listen 443
<VirtualHost _default_:443>
DocumentRoot "/opt/homebrew/var/www"
ServerName www.example.com:443
SSLEngine on
SSLCertificateFile "/opt/homebrew/etc/httpd/server.crt"
#SSLCertificateFile "/opt/homebrew/etc/httpd/server-dsa.crt"
SSLCertificateKeyFile "/opt/homebrew/etc/httpd/server.key"
#SSLCertificateKeyFile "/opt/homebrew/etc/httpd/server-dsa.key"
</VirtualHost>
`

	testUserDirConf = `UserDir Sites
#Include /opt/homebrew/etc/httpd/users/*.conf
`

	testVHostsConf = `<VirtualHost *:8080>
    DocumentRoot "/opt/homebrew/docs/dummy-host.example.com"
</VirtualHost>
`
)

// newStockPaths lays a stock httpd config tree under a temp dir.
func newStockPaths(t *testing.T) *platform.Paths {
	t.Helper()
	paths := platform.PathsForPrefix(t.TempDir(), "dev")

	if err := os.MkdirAll(filepath.Dir(paths.SSLConf), 0755); err != nil {
		t.Fatalf("failed to create extra dir: %v", err)
	}
	files := map[string]string{
		paths.HTTPDConf:   testHTTPDConf,
		paths.SSLConf:     testSSLConf,
		paths.UserDirConf: testUserDirConf,
		paths.VHostsConf:  testVHostsConf,
	}
	for path, content := range files {
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}
	return paths
}

// newBrewExecutor fakes the brew and apachectl commands a successful
// provisioning run shells out to.
func newBrewExecutor() *executor.MockExecutor {
	return &executor.MockExecutor{
		ExecuteFunc: func(name string, args ...string) ([]byte, error) {
			joined := strings.Join(args, " ")
			switch {
			case strings.Contains(joined, "--version"):
				return []byte("Homebrew 4.4.20\n"), nil
			case strings.Contains(joined, "list --versions httpd"):
				return []byte("httpd 2.4.62\n"), nil
			case strings.Contains(joined, "list --versions php"):
				return []byte("php 8.4.1\n"), nil
			case strings.Contains(joined, "services list"):
				return []byte("Name  Status  User File\nhttpd started dev ~/Library/LaunchAgents/homebrew.mxcl.httpd.plist\n"), nil
			case strings.Contains(joined, "services"):
				return []byte(""), nil
			case strings.HasSuffix(name, "apachectl") && joined == "configtest":
				return []byte("Syntax OK\n"), nil
			case strings.HasSuffix(name, "apachectl") && joined == "-M":
				return []byte("Loaded Modules:\n core_module (static)\n php_module (shared)\n"), nil
			}
			return []byte(""), nil
		},
	}
}

// findCall reports whether the executor recorded a call whose name and args
// contain every given fragment.
func findCall(exec *executor.MockExecutor, fragments ...string) bool {
	for _, call := range exec.Calls {
		line := call.Name + " " + strings.Join(call.Args, " ")
		match := true
		for _, fragment := range fragments {
			if !strings.Contains(line, fragment) {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
