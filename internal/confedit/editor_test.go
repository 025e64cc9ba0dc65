package confedit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeFile creates a file under a temp dir and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestBackupOnce(t *testing.T) {
	path := writeFile(t, "httpd.conf", "Listen 80\n")

	t.Run("creates backup on first call", func(t *testing.T) {
		created, err := BackupOnce(path)
		if err != nil {
			t.Fatalf("BackupOnce failed: %v", err)
		}
		if !created {
			t.Error("expected backup to be created")
		}
		if readFile(t, path+BackupSuffix) != "Listen 80\n" {
			t.Error("backup content mismatch")
		}
	})

	t.Run("never overwrites an existing backup", func(t *testing.T) {
		// Mutate the original, then back up again
		if err := os.WriteFile(path, []byte("Listen 8080\n"), 0644); err != nil {
			t.Fatalf("failed to modify file: %v", err)
		}
		created, err := BackupOnce(path)
		if err != nil {
			t.Fatalf("BackupOnce failed: %v", err)
		}
		if created {
			t.Error("backup should not be recreated")
		}
		if readFile(t, path+BackupSuffix) != "Listen 80\n" {
			t.Error("backup should keep the pristine content")
		}
	})

	t.Run("missing source file", func(t *testing.T) {
		if _, err := BackupOnce(filepath.Join(t.TempDir(), "missing.conf")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestRestoreBackup(t *testing.T) {
	t.Run("restores pristine content", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", "Listen 80\n")
		if _, err := BackupOnce(path); err != nil {
			t.Fatalf("BackupOnce failed: %v", err)
		}
		if err := os.WriteFile(path, []byte("Listen 8080\n"), 0644); err != nil {
			t.Fatalf("failed to modify file: %v", err)
		}

		if err := RestoreBackup(path); err != nil {
			t.Fatalf("RestoreBackup failed: %v", err)
		}
		if readFile(t, path) != "Listen 80\n" {
			t.Error("original content not restored")
		}
		// Backup stays so restore can run again
		if !HasBackup(path) {
			t.Error("backup should survive a restore")
		}
	})

	t.Run("errors without backup", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", "Listen 80\n")
		err := RestoreBackup(path)
		if err == nil {
			t.Fatal("expected error without backup")
		}
		if !strings.Contains(err.Error(), "no backup") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestReplaceLine(t *testing.T) {
	const content = "ServerRoot \"/opt/homebrew\"\nListen 80\nServerAdmin you@example.com\n"

	t.Run("replaces matching line", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", content)

		changed, err := ReplaceLine(path, `Listen \d+`, "Listen 8080")
		if err != nil {
			t.Fatalf("ReplaceLine failed: %v", err)
		}
		if !changed {
			t.Error("expected change")
		}
		if !strings.Contains(readFile(t, path), "Listen 8080\n") {
			t.Error("replacement missing")
		}
		if strings.Contains(readFile(t, path), "Listen 80\n") {
			t.Error("original line should be gone")
		}
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", content)
		if _, err := ReplaceLine(path, `Listen \d+`, "Listen 8080"); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		before := readFile(t, path)

		changed, err := ReplaceLine(path, `Listen \d+`, "Listen 8080")
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if changed {
			t.Error("second run should not change the file")
		}
		if readFile(t, path) != before {
			t.Error("file content must be byte-identical after re-run")
		}
	})

	t.Run("no match leaves file untouched", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", content)
		changed, err := ReplaceLine(path, `ProxyPass .*`, "ProxyPass /")
		if err != nil {
			t.Fatalf("ReplaceLine failed: %v", err)
		}
		if changed {
			t.Error("expected no change")
		}
		if readFile(t, path) != content {
			t.Error("file modified without a match")
		}
	})

	t.Run("pattern anchored to full line", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", "# Listen 80 is the default\nListen 80\n")
		if _, err := ReplaceLine(path, `Listen \d+`, "Listen 8080"); err != nil {
			t.Fatalf("ReplaceLine failed: %v", err)
		}
		got := readFile(t, path)
		if !strings.Contains(got, "# Listen 80 is the default\n") {
			t.Error("comment line should not be touched")
		}
		if !strings.Contains(got, "Listen 8080\n") {
			t.Error("directive line should be replaced")
		}
	})

	t.Run("invalid pattern", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", content)
		if _, err := ReplaceLine(path, `Listen [`, "x"); err == nil {
			t.Error("expected error for invalid regexp")
		}
	})
}

func TestReplaceLineWithin(t *testing.T) {
	const content = "<Directory />\n" +
		"    AllowOverride None\n" +
		"</Directory>\n" +
		"<Directory \"/opt/homebrew/var/www\">\n" +
		"    AllowOverride None\n" +
		"</Directory>\n" +
		"<Directory \"/opt/homebrew/var/www/cgi-bin\">\n" +
		"    AllowOverride None\n" +
		"</Directory>\n"

	t.Run("replaces only inside the section", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", content)

		changed, err := ReplaceLineWithin(path,
			`<Directory "/opt/homebrew/var/www">`, `</Directory>`,
			`\s*AllowOverride None`, "    AllowOverride All")
		if err != nil {
			t.Fatalf("ReplaceLineWithin failed: %v", err)
		}
		if !changed {
			t.Error("expected change")
		}
		got := readFile(t, path)
		if strings.Count(got, "AllowOverride All") != 1 {
			t.Errorf("expected one replacement, got %d", strings.Count(got, "AllowOverride All"))
		}
		if strings.Count(got, "AllowOverride None") != 2 {
			t.Error("lines outside the section should be untouched")
		}
	})

	t.Run("second run is a no-op", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", content)
		if _, err := ReplaceLineWithin(path,
			`<Directory "/opt/homebrew/var/www">`, `</Directory>`,
			`\s*AllowOverride None`, "    AllowOverride All"); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		before := readFile(t, path)

		changed, err := ReplaceLineWithin(path,
			`<Directory "/opt/homebrew/var/www">`, `</Directory>`,
			`\s*AllowOverride None`, "    AllowOverride All")
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if changed {
			t.Error("second run should not change the file")
		}
		if readFile(t, path) != before {
			t.Error("file content must be byte-identical after re-run")
		}
	})

	t.Run("no section match leaves file untouched", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", content)
		changed, err := ReplaceLineWithin(path,
			`<Directory "/missing">`, `</Directory>`,
			`\s*AllowOverride None`, "    AllowOverride All")
		if err != nil {
			t.Fatalf("ReplaceLineWithin failed: %v", err)
		}
		if changed {
			t.Error("expected no change")
		}
		if readFile(t, path) != content {
			t.Error("file modified without a section match")
		}
	})

	t.Run("invalid patterns", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", content)
		if _, err := ReplaceLineWithin(path, `<Dir [`, `</Directory>`, `x`, "y"); err == nil {
			t.Error("expected error for invalid begin regexp")
		}
		if _, err := ReplaceLineWithin(path, `<Directory />`, `</Dir [`, `x`, "y"); err == nil {
			t.Error("expected error for invalid end regexp")
		}
		if _, err := ReplaceLineWithin(path, `<Directory />`, `</Directory>`, `Allow [`, "y"); err == nil {
			t.Error("expected error for invalid line regexp")
		}
	})
}

func TestUncomment(t *testing.T) {
	const content = "#LoadModule ssl_module lib/httpd/modules/mod_ssl.so\n" +
		"LoadModule mpm_prefork_module lib/httpd/modules/mod_mpm_prefork.so\n" +
		"#Include /opt/homebrew/etc/httpd/extra/httpd-ssl.conf\n"

	t.Run("activates commented directive", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", content)

		changed, err := Uncomment(path, `LoadModule ssl_module`)
		if err != nil {
			t.Fatalf("Uncomment failed: %v", err)
		}
		if !changed {
			t.Error("expected change")
		}
		got := readFile(t, path)
		if !strings.Contains(got, "\nLoadModule mpm_prefork_module") {
			t.Error("active line should be untouched")
		}
		if strings.Contains(got, "#LoadModule ssl_module") {
			t.Error("directive still commented")
		}
		if !strings.HasPrefix(got, "LoadModule ssl_module") {
			t.Errorf("expected uncommented directive first, got %q", got)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", content)
		if _, err := Uncomment(path, `LoadModule ssl_module`); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		before := readFile(t, path)

		changed, err := Uncomment(path, `LoadModule ssl_module`)
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if changed {
			t.Error("second run should be a no-op")
		}
		if readFile(t, path) != before {
			t.Error("file must be byte-identical after re-run")
		}
	})

	t.Run("handles hash space prefix", func(t *testing.T) {
		path := writeFile(t, "httpd-userdir.conf", "# Include /opt/homebrew/etc/httpd/users/*.conf\n")
		if _, err := Uncomment(path, `Include .*users/\*\.conf`); err != nil {
			t.Fatalf("Uncomment failed: %v", err)
		}
		if readFile(t, path) != "Include /opt/homebrew/etc/httpd/users/*.conf\n" {
			t.Errorf("unexpected content: %q", readFile(t, path))
		}
	})
}

func TestEnsureLine(t *testing.T) {
	t.Run("appends missing line", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", "Listen 8080\n")

		changed, err := EnsureLine(path, `^LoadModule php_module `, "LoadModule php_module /opt/homebrew/opt/php/lib/httpd/modules/libphp.so")
		if err != nil {
			t.Fatalf("EnsureLine failed: %v", err)
		}
		if !changed {
			t.Error("expected change")
		}
		if !strings.HasSuffix(readFile(t, path), "libphp.so\n") {
			t.Error("line not appended")
		}
	})

	t.Run("replaces stale line", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", "LoadModule php_module /usr/local/opt/php/lib/httpd/modules/libphp.so\nListen 8080\n")

		if _, err := EnsureLine(path, `^LoadModule php_module `, "LoadModule php_module /opt/homebrew/opt/php/lib/httpd/modules/libphp.so"); err != nil {
			t.Fatalf("EnsureLine failed: %v", err)
		}
		got := readFile(t, path)
		if strings.Contains(got, "/usr/local/opt/php") {
			t.Error("stale line should be deleted")
		}
		if strings.Count(got, "LoadModule php_module") != 1 {
			t.Error("managed line must appear exactly once")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", "Listen 8080\n")
		line := "LoadModule php_module /opt/homebrew/opt/php/lib/httpd/modules/libphp.so"

		if _, err := EnsureLine(path, `^LoadModule php_module `, line); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		before := readFile(t, path)

		changed, err := EnsureLine(path, `^LoadModule php_module `, line)
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if changed {
			t.Error("second run should be a no-op")
		}
		if readFile(t, path) != before {
			t.Error("file must be byte-identical after re-run")
		}
	})

	t.Run("rejects marker that misses the line", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", "Listen 8080\n")
		if _, err := EnsureLine(path, `^ServerName `, "Listen 9090"); err == nil {
			t.Error("expected error when marker does not match managed line")
		}
	})
}

func TestEnsureBlock(t *testing.T) {
	const begin = "# BEGIN apachedev php handler"
	const end = "# END apachedev php handler"
	const body = "<FilesMatch \\.php$>\n    SetHandler application/x-httpd-php\n</FilesMatch>"

	t.Run("appends block", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", "Listen 8080\n")

		changed, err := EnsureBlock(path, begin, end, body)
		if err != nil {
			t.Fatalf("EnsureBlock failed: %v", err)
		}
		if !changed {
			t.Error("expected change")
		}
		got := readFile(t, path)
		if !strings.Contains(got, begin+"\n<FilesMatch") {
			t.Errorf("block missing or malformed: %q", got)
		}
		if !strings.HasSuffix(got, end+"\n") {
			t.Errorf("expected block at end of file: %q", got)
		}
	})

	t.Run("replaces existing block", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", "Listen 8080\n"+begin+"\nold content\n"+end+"\nServerName localhost\n")

		if _, err := EnsureBlock(path, begin, end, body); err != nil {
			t.Fatalf("EnsureBlock failed: %v", err)
		}
		got := readFile(t, path)
		if strings.Contains(got, "old content") {
			t.Error("old block content should be removed")
		}
		if strings.Count(got, begin) != 1 || strings.Count(got, end) != 1 {
			t.Error("block markers must appear exactly once")
		}
		if !strings.Contains(got, "ServerName localhost") {
			t.Error("content after the old block must survive")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		path := writeFile(t, "httpd.conf", "Listen 8080\n")
		if _, err := EnsureBlock(path, begin, end, body); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		before := readFile(t, path)

		changed, err := EnsureBlock(path, begin, end, body)
		if err != nil {
			t.Fatalf("second run failed: %v", err)
		}
		if changed {
			t.Error("second run should be a no-op")
		}
		if readFile(t, path) != before {
			t.Error("file must be byte-identical after re-run")
		}
	})
}

func TestContains(t *testing.T) {
	path := writeFile(t, "httpd.conf", "Listen 8080\nServerName localhost:8080\n")

	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"present directive", `^Listen 8080$`, true},
		{"absent directive", `^Listen 443$`, false},
		{"partial match", `ServerName`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Contains(path, tt.pattern)
			if err != nil {
				t.Fatalf("Contains failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Contains(%q) = %v, want %v", tt.pattern, got, tt.want)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := Contains(filepath.Join(t.TempDir(), "nope.conf"), "x"); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func TestPreservesFileMode(t *testing.T) {
	path := writeFile(t, "httpd.conf", "Listen 80\n")
	if err := os.Chmod(path, 0600); err != nil {
		t.Fatalf("chmod failed: %v", err)
	}

	if _, err := ReplaceLine(path, `Listen \d+`, "Listen 8080"); err != nil {
		t.Fatalf("ReplaceLine failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("expected mode 0600 preserved, got %v", info.Mode().Perm())
	}
}
