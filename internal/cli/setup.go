package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/localdev/apachedev/internal/cert"
	"github.com/localdev/apachedev/internal/config"
	apperrors "github.com/localdev/apachedev/internal/errors"
	"github.com/localdev/apachedev/internal/output"
	"github.com/localdev/apachedev/internal/platform"
	"github.com/localdev/apachedev/internal/smoke"
	"github.com/localdev/apachedev/internal/sudo"
	"github.com/spf13/cobra"
)

var (
	setupHTTPPort  int
	setupHTTPSPort int
	setupRoot      string
	setupPHP       string
	setupNoRestart bool
	setupSkipTrust bool
	setupSkipSmoke bool
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Provision the local Apache + PHP environment",
	Long: `Install and configure the Homebrew httpd and php formulas for local
development.

The command is idempotent: every config edit checks the current state first,
and each managed file gets a one-time .backup copy before its first edit.
Run it again after changing ports or the document root and only the affected
lines are rewritten.

sudo is requested once, solely to add the generated certificate to the
System keychain; pass --skip-trust to avoid the prompt entirely.

Examples:
  apachedev setup
  apachedev setup --http-port 8888 --root ~/Projects/www
  apachedev setup --skip-trust --no-restart`,
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().IntVar(&setupHTTPPort, "http-port", 0, "HTTP port (default from config, 8080)")
	setupCmd.Flags().IntVar(&setupHTTPSPort, "https-port", 0, "HTTPS port (default from config, 443)")
	setupCmd.Flags().StringVar(&setupRoot, "root", "", "Document root (default from config, ~/Sites)")
	setupCmd.Flags().StringVar(&setupPHP, "php", "", "PHP version, e.g. 8.4 (default from config)")
	setupCmd.Flags().BoolVar(&setupNoRestart, "no-restart", false, "Configure only; do not restart the httpd service")
	setupCmd.Flags().BoolVar(&setupSkipTrust, "skip-trust", false, "Do not add the certificate to the System keychain")
	setupCmd.Flags().BoolVar(&setupSkipSmoke, "skip-smoke", false, "Skip the HTTP/HTTPS/PHP smoke tests")

	rootCmd.AddCommand(setupCmd)
}

// SetupResult is the JSON shape of a completed setup run.
type SetupResult struct {
	Success      bool           `json:"success"`
	HTTPURL      string         `json:"http_url"`
	HTTPSURL     string         `json:"https_url"`
	DocumentRoot string         `json:"document_root"`
	SiteFiles    []string       `json:"site_files_written,omitempty"`
	Smoke        []smoke.Result `json:"smoke,omitempty"`
}

const setupSteps = 7

func runSetup(cmd *cobra.Command, args []string) error {
	if err := refuseRoot(); err != nil {
		return err
	}

	cfg, paths, err := loadEnvironment()
	if err != nil {
		return err
	}

	// Apply flag overrides on top of the stored settings.
	if cmd.Flags().Changed("http-port") {
		cfg.HTTPPort = setupHTTPPort
	}
	if cmd.Flags().Changed("https-port") {
		cfg.HTTPSPort = setupHTTPSPort
	}
	if setupRoot != "" {
		cfg.DocumentRoot = setupRoot
	}
	if setupPHP != "" {
		cfg.PHPVersion = setupPHP
	}
	if err := cfg.Validate(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeValidation, "invalid settings", err)
	}

	data, err := templateData(cfg, paths)
	if err != nil {
		return err
	}

	if dryRun {
		return outputDryRun(setupPlan(cfg, paths, data.DocumentRoot))
	}

	brewClient := newBrewClient(paths)
	configurator := newConfigurator(paths)

	// 1. Preflight
	output.Step(1, setupSteps, "Checking Homebrew")
	brewVersion, err := brewClient.Version()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeBrew, "Homebrew not usable", err)
	}
	output.Info("Found %s at %s", brewVersion, paths.Brew)

	// 2. Formulas
	output.Step(2, setupSteps, "Installing formulas")
	for _, formula := range []string{"httpd", cfg.PHPFormula()} {
		if brewClient.IsInstalled(formula) {
			output.Info("%s %s already installed", formula, brewClient.InstalledVersion(formula))
			continue
		}
		output.Info("Installing %s (this can take a while)", formula)
		if err := brewClient.Install(formula); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeBrew, "failed to install "+formula, err)
		}
	}

	// 3. Certificate
	output.Step(3, setupSteps, "Generating certificate")
	certFile := paths.CertFile(cfg.ServerName)
	keyFile := paths.KeyFile(cfg.ServerName)
	if err := ensureCertificate(cfg.ServerName, cfg.CertDays, certFile, keyFile, false); err != nil {
		return err
	}
	if setupSkipTrust {
		output.Warn("Skipping keychain trust; browsers will warn about the certificate")
	} else if err := trustCertificate(certFile); err != nil {
		return err
	}

	// 4. Apache configuration
	output.Step(4, setupSteps, "Configuring Apache")
	if err := configurator.ConfigureMain(data); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigEdit, "failed to edit httpd.conf", err)
	}
	if err := configurator.ConfigureSSL(data); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigEdit, "failed to edit httpd-ssl.conf", err)
	}
	if err := configurator.WriteVHosts(data); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigEdit, "failed to write vhosts file", err)
	}
	if err := configurator.WriteUserConf(data); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigEdit, "failed to write per-user config", err)
	}
	if err := configurator.ConfigureUserDir(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigEdit, "failed to edit httpd-userdir.conf", err)
	}

	// 5. Validation
	output.Step(5, setupSteps, "Validating configuration")
	if err := configurator.Configtest(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeHTTPD, "configuration rejected by apachectl", err)
	}
	output.Info("Syntax OK")

	// 6. Site files and service restart
	output.Step(6, setupSteps, "Writing site files and restarting")
	written, err := smoke.WriteSiteFiles(data.DocumentRoot, data)
	if err != nil {
		return err
	}
	for _, name := range written {
		output.Info("Wrote %s", name)
	}
	if setupNoRestart {
		output.Warn("Skipping restart; run 'brew services restart httpd' to apply")
	} else {
		if err := brewClient.ServiceRestart("httpd"); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeHTTPD, "failed to restart httpd", err)
		}
		if err := configurator.VerifyPHPModule(); err != nil {
			return apperrors.Wrap(apperrors.ErrCodeHTTPD, "PHP module check failed", err)
		}
	}

	// Persist the settings the environment was provisioned with.
	if err := deps.SettingsLoader.Save(cfg); err != nil {
		output.Warn("Could not save settings: %v", err)
	}

	result := SetupResult{
		Success:      true,
		HTTPURL:      fmt.Sprintf("http://%s:%d/", cfg.ServerName, cfg.HTTPPort),
		HTTPSURL:     fmt.Sprintf("https://%s:%d/", cfg.ServerName, cfg.HTTPSPort),
		DocumentRoot: data.DocumentRoot,
		SiteFiles:    written,
	}

	// 7. Smoke tests
	output.Step(7, setupSteps, "Running smoke tests")
	if setupNoRestart || setupSkipSmoke {
		output.Warn("Skipping smoke tests")
		return outputResult(result, "Environment configured; serving %s at %s", data.DocumentRoot, result.HTTPURL)
	}

	results, err := runSmokeProbes(cfg, certFile)
	if err != nil {
		return err
	}
	result.Smoke = results

	return outputResult(result, "Environment ready: %s and %s serving %s",
		result.HTTPURL, result.HTTPSURL, data.DocumentRoot)
}

// ensureCertificate generates the key/cert pair when it is missing, expired
// or force is set.
func ensureCertificate(serverName string, days int, certFile, keyFile string, force bool) error {
	if !force && cert.Exists(certFile, keyFile) {
		if valid, err := cert.IsValid(certFile); err == nil && valid {
			output.Info("Certificate %s is valid, keeping it", certFile)
			return nil
		}
		output.Info("Certificate expired or unreadable, regenerating")
	}

	opts := cert.Options{
		CommonName: serverName,
		Days:       days,
		CertPath:   certFile,
		KeyPath:    keyFile,
	}
	if err := cert.Generate(opts); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCert, "certificate generation failed", err)
	}
	output.Info("Generated %s (%d days)", certFile, days)
	return nil
}

// trustCertificate adds the certificate to the System keychain, keeping the
// sudo timestamp fresh while the security command runs.
func trustCertificate(certFile string) error {
	if cert.IsTrusted(certFile) {
		output.Info("Certificate already trusted")
		return nil
	}

	session := sudo.NewSession(deps.Executor)
	output.Info("sudo is required to trust the certificate in the System keychain")
	if err := session.Prime(); err != nil {
		return apperrors.Wrap(apperrors.ErrCodePermission, "sudo authentication failed", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	session.Keepalive(ctx)

	if err := cert.Trust(certFile); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeCert, "failed to trust certificate", err)
	}
	output.Info("Certificate trusted in System keychain")
	return nil
}

// runSmokeProbes executes the HTTP, HTTPS and PHP probes against the
// configured host and reports failures as command output.
func runSmokeProbes(cfg *config.Settings, certFile string) ([]smoke.Result, error) {
	runner, err := smoke.NewRunner(cfg.ServerName, certFile)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeSmoke, "could not build smoke test client", err)
	}

	results := runner.Run(context.Background(), cfg.HTTPPort, cfg.HTTPSPort)
	if !jsonOutput {
		for _, res := range results {
			if res.OK {
				output.Success("%s %s", res.Name, res.URL)
			} else {
				output.Error("%s %s: %s", res.Name, res.URL, res.Detail)
			}
		}
	}

	if failed := smoke.Failed(results); len(failed) > 0 {
		return results, apperrors.Wrap(apperrors.ErrCodeSmoke,
			fmt.Sprintf("smoke tests failed: %s", strings.Join(failed, ", ")), nil)
	}
	return results, nil
}

// setupPlan lists the operations a setup run would perform.
func setupPlan(cfg *config.Settings, paths *platform.Paths, docRoot string) []DryRunOperation {
	ops := []DryRunOperation{
		{Action: "install formula httpd if missing"},
		{Action: "install formula " + cfg.PHPFormula() + " if missing"},
		{Action: "generate certificate if missing or expired", Target: paths.CertFile(cfg.ServerName)},
		{Action: fmt.Sprintf("edit Listen/ServerName/DocumentRoot/modules for port %d", cfg.HTTPPort), Target: paths.HTTPDConf},
		{Action: fmt.Sprintf("edit HTTPS port %d and certificate paths", cfg.HTTPSPort), Target: paths.SSLConf},
		{Action: "rewrite managed virtual hosts", Target: paths.VHostsConf},
		{Action: "write per-user config", Target: paths.UserConf},
		{Action: "enable users/*.conf include", Target: paths.UserDirConf},
		{Action: "write index.html, info.php, test.php if missing", Target: docRoot},
	}
	if !setupSkipTrust {
		ops = append(ops, DryRunOperation{Action: "trust certificate in System keychain (sudo)", Target: paths.CertFile(cfg.ServerName)})
	}
	if !setupNoRestart {
		ops = append(ops, DryRunOperation{Action: "run apachectl configtest and restart the httpd service"})
	}
	return ops
}
