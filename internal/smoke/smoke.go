// Package smoke verifies a provisioned environment end to end: it installs
// the probe files into the document root and issues HTTP, HTTPS and PHP
// requests against the running server.
package smoke

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/localdev/apachedev/internal/logger"
	"github.com/localdev/apachedev/internal/template"
)

// marker is embedded in the generated index.html so the HTTP probe can tell
// our page apart from a stock or stale document root.
const marker = "apachedev-smoke-marker"

// DefaultTimeout bounds each individual probe request.
const DefaultTimeout = 5 * time.Second

// Result reports the outcome of a single probe.
type Result struct {
	Name   string `json:"name"`
	URL    string `json:"url"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// Runner issues the smoke probes against a host. The HTTPS client trusts
// exactly the provisioned certificate, so a probe failure means the served
// certificate is not the one we generated.
type Runner struct {
	host        string
	httpClient  *http.Client
	httpsClient *http.Client
}

// NewRunner creates a Runner for the given host. certFile is loaded into the
// HTTPS trust pool; pass "" to skip certificate pinning and accept whatever
// the system trusts.
func NewRunner(host, certFile string) (*Runner, error) {
	httpsClient := &http.Client{Timeout: DefaultTimeout}
	if certFile != "" {
		pem, err := os.ReadFile(certFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read certificate %s: %w", certFile, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificate found in %s", certFile)
		}
		httpsClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		}
	}

	return &Runner{
		host:        host,
		httpClient:  &http.Client{Timeout: DefaultTimeout},
		httpsClient: httpsClient,
	}, nil
}

// CheckHTTP fetches the index page over plain HTTP and verifies that our
// generated page is the one being served.
func (r *Runner) CheckHTTP(ctx context.Context, port int) Result {
	url := fmt.Sprintf("http://%s:%d/", r.host, port)
	return r.fetchIndex(ctx, r.httpClient, "http", url)
}

// CheckHTTPS fetches the index page over TLS using the pinned certificate.
func (r *Runner) CheckHTTPS(ctx context.Context, port int) Result {
	url := fmt.Sprintf("https://%s:%d/", r.host, port)
	return r.fetchIndex(ctx, r.httpsClient, "https", url)
}

// CheckPHP fetches the version probe script and verifies that PHP executed
// it instead of Apache serving the raw source.
func (r *Runner) CheckPHP(ctx context.Context, port int) Result {
	url := fmt.Sprintf("http://%s:%d/test.php", r.host, port)
	result := Result{Name: "php", URL: url}

	body, status, err := r.get(ctx, r.httpClient, url)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	if status != http.StatusOK {
		result.Detail = fmt.Sprintf("unexpected status %d", status)
		return result
	}
	if strings.Contains(body, "<?php") {
		result.Detail = "raw PHP source returned; php_module is not handling .php files"
		return result
	}
	if !strings.Contains(body, "PHP") {
		result.Detail = "probe output missing PHP version"
		return result
	}

	result.OK = true
	result.Detail = strings.TrimSpace(body)
	return result
}

// Run executes all probes and returns their results. Probes keep running
// after a failure so the caller can report every problem at once.
func (r *Runner) Run(ctx context.Context, httpPort, httpsPort int) []Result {
	results := []Result{
		r.CheckHTTP(ctx, httpPort),
		r.CheckHTTPS(ctx, httpsPort),
		r.CheckPHP(ctx, httpPort),
	}
	for _, res := range results {
		logger.DebugFields("smoke probe finished", map[string]interface{}{
			"name": res.Name,
			"url":  res.URL,
			"ok":   res.OK,
		})
	}
	return results
}

// Failed returns the names of probes that did not pass.
func Failed(results []Result) []string {
	var names []string
	for _, res := range results {
		if !res.OK {
			names = append(names, res.Name)
		}
	}
	return names
}

func (r *Runner) fetchIndex(ctx context.Context, client *http.Client, name, url string) Result {
	result := Result{Name: name, URL: url}

	body, status, err := r.get(ctx, client, url)
	if err != nil {
		result.Detail = err.Error()
		return result
	}
	if status != http.StatusOK {
		result.Detail = fmt.Sprintf("unexpected status %d", status)
		return result
	}
	if !strings.Contains(body, marker) {
		result.Detail = "index page is not the generated one"
		return result
	}

	result.OK = true
	return result
}

func (r *Runner) get(ctx context.Context, client *http.Client, url string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", 0, err
	}
	return string(body), resp.StatusCode, nil
}

// WriteSiteFiles renders the probe files (index.html, info.php, test.php)
// into the document root, creating it when missing. Existing files are left
// alone so reruns never clobber a page the user has since replaced. Returns
// the names of the files actually written.
func WriteSiteFiles(docRoot string, data template.Data) ([]string, error) {
	if err := os.MkdirAll(docRoot, 0755); err != nil {
		return nil, fmt.Errorf("failed to create document root %s: %w", docRoot, err)
	}

	var written []string
	for _, file := range template.SiteFiles() {
		path := filepath.Join(docRoot, file.Name)
		if _, err := os.Stat(path); err == nil {
			continue
		}

		content, err := template.Render(file.Template, data)
		if err != nil {
			return written, err
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, file.Name)
	}
	return written, nil
}
