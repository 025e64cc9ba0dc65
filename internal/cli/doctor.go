package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/localdev/apachedev/internal/cert"
	"github.com/localdev/apachedev/internal/confedit"
	"github.com/localdev/apachedev/internal/config"
	"github.com/localdev/apachedev/internal/output"
	"github.com/localdev/apachedev/internal/platform"
	"github.com/localdev/apachedev/internal/smoke"
	"github.com/spf13/cobra"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check system status and diagnose issues",
	Long: `Run diagnostic checks on the provisioned environment.

Checks:
  - macOS and Homebrew availability
  - httpd and php formula installation and service state
  - Managed Apache config edits and backups
  - Certificate validity and keychain trust
  - Document root and site files
  - Smoke requests when the service is running

Examples:
  apachedev doctor
  apachedev doctor --json`,
	RunE: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// CheckResult represents a single diagnostic check result
type CheckResult struct {
	Status  string `json:"status"` // "success", "warning", "error"
	Message string `json:"message"`
}

// DoctorReport contains all diagnostic results
type DoctorReport struct {
	System        []CheckResult `json:"system"`
	Formulas      []CheckResult `json:"formulas"`
	Configuration []CheckResult `json:"configuration"`
	Certificate   []CheckResult `json:"certificate"`
	DocumentRoot  []CheckResult `json:"document_root"`
	Smoke         []CheckResult `json:"smoke"`
}

func runDoctor(cmd *cobra.Command, args []string) error {
	cfg, paths, err := loadEnvironment()
	if err != nil {
		return err
	}

	report := &DoctorReport{
		System:        checkSystem(paths),
		Formulas:      checkFormulas(cfg, paths),
		Configuration: checkConfiguration(cfg, paths),
		Certificate:   checkCertificate(cfg, paths),
		DocumentRoot:  checkDocumentRoot(cfg),
		Smoke:         checkSmoke(cfg, paths),
	}

	if jsonOutput {
		return output.JSON(report)
	}

	displayDoctorResults(report)
	return nil
}

func checkSystem(paths *platform.Paths) []CheckResult {
	results := []CheckResult{
		{Status: "success", Message: fmt.Sprintf("Running on %s", platform.Platform())},
	}

	brewClient := newBrewClient(paths)
	if version, err := brewClient.Version(); err == nil {
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("%s at %s", version, paths.Brew),
		})
	} else {
		results = append(results, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("Homebrew not usable: %v", err),
		})
	}

	if deps.RootChecker.IsRoot() {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: "Running as root; Homebrew commands will fail",
		})
	}

	return results
}

func checkFormulas(cfg *config.Settings, paths *platform.Paths) []CheckResult {
	results := []CheckResult{}
	brewClient := newBrewClient(paths)

	for _, formula := range []string{"httpd", cfg.PHPFormula()} {
		if brewClient.IsInstalled(formula) {
			results = append(results, CheckResult{
				Status:  "success",
				Message: fmt.Sprintf("%s %s installed", formula, brewClient.InstalledVersion(formula)),
			})
		} else {
			results = append(results, CheckResult{
				Status:  "error",
				Message: fmt.Sprintf("%s not installed (run apachedev setup)", formula),
			})
		}
	}

	state, err := brewClient.ServiceState("httpd")
	switch {
	case err != nil:
		results = append(results, CheckResult{
			Status:  "warning",
			Message: fmt.Sprintf("Could not read service state: %v", err),
		})
	case state == "started":
		results = append(results, CheckResult{
			Status:  "success",
			Message: "httpd service started",
		})
	default:
		results = append(results, CheckResult{
			Status:  "warning",
			Message: fmt.Sprintf("httpd service %s", state),
		})
	}

	return results
}

func checkConfiguration(cfg *config.Settings, paths *platform.Paths) []CheckResult {
	results := []CheckResult{}
	configurator := newConfigurator(paths)

	data, err := templateData(cfg, paths)
	if err != nil {
		return append(results, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("Could not resolve document root: %v", err),
		})
	}

	applied := 0
	var missing []string
	checks := configurator.EditChecks(data)
	for _, check := range checks {
		if check.Applied {
			applied++
		} else {
			missing = append(missing, check.Name)
		}
	}
	if len(missing) == 0 {
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("All %d managed edits applied", len(checks)),
		})
	} else {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: fmt.Sprintf("%d/%d managed edits applied, missing: %s", applied, len(checks), strings.Join(missing, ", ")),
		})
	}

	backups := 0
	for _, path := range paths.ManagedConfigs() {
		if confedit.HasBackup(path) {
			backups++
		}
	}
	status := "success"
	if backups == 0 {
		status = "warning"
	}
	results = append(results, CheckResult{
		Status:  status,
		Message: fmt.Sprintf("%d/%d managed files have a backup", backups, len(paths.ManagedConfigs())),
	})

	if err := configurator.Configtest(); err == nil {
		results = append(results, CheckResult{
			Status:  "success",
			Message: "apachectl configtest: Syntax OK",
		})
	} else {
		results = append(results, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("apachectl configtest failed: %v", err),
		})
	}

	return results
}

func checkCertificate(cfg *config.Settings, paths *platform.Paths) []CheckResult {
	results := []CheckResult{}
	certFile := paths.CertFile(cfg.ServerName)
	keyFile := paths.KeyFile(cfg.ServerName)

	if !cert.Exists(certFile, keyFile) {
		return append(results, CheckResult{
			Status:  "warning",
			Message: fmt.Sprintf("No certificate at %s (run apachedev cert)", certFile),
		})
	}

	details, err := cert.Info(certFile)
	switch {
	case err != nil:
		results = append(results, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("Certificate unreadable: %v", err),
		})
	case details.Expired:
		results = append(results, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("Certificate expired %s", details.NotAfter.Format("2006-01-02")),
		})
	default:
		results = append(results, CheckResult{
			Status:  "success",
			Message: fmt.Sprintf("Certificate valid until %s", details.NotAfter.Format("2006-01-02")),
		})
	}

	if cert.IsTrusted(certFile) {
		results = append(results, CheckResult{
			Status:  "success",
			Message: "Certificate trusted by the System keychain",
		})
	} else {
		results = append(results, CheckResult{
			Status:  "warning",
			Message: "Certificate not trusted; browsers will warn (run apachedev cert)",
		})
	}

	return results
}

func checkDocumentRoot(cfg *config.Settings) []CheckResult {
	results := []CheckResult{}

	root, err := cfg.ExpandedRoot()
	if err != nil {
		return append(results, CheckResult{
			Status:  "error",
			Message: fmt.Sprintf("Could not resolve document root: %v", err),
		})
	}

	if _, err := os.Stat(root); err != nil {
		return append(results, CheckResult{
			Status:  "warning",
			Message: fmt.Sprintf("Document root %s does not exist", root),
		})
	}
	results = append(results, CheckResult{
		Status:  "success",
		Message: fmt.Sprintf("Document root %s exists", root),
	})

	for _, name := range []string{"index.html", "info.php", "test.php"} {
		if _, err := os.Stat(filepath.Join(root, name)); err == nil {
			results = append(results, CheckResult{
				Status:  "success",
				Message: fmt.Sprintf("%s present", name),
			})
		} else {
			results = append(results, CheckResult{
				Status:  "warning",
				Message: fmt.Sprintf("%s missing (run apachedev setup)", name),
			})
		}
	}

	return results
}

func checkSmoke(cfg *config.Settings, paths *platform.Paths) []CheckResult {
	brewClient := newBrewClient(paths)
	state, err := brewClient.ServiceState("httpd")
	if err != nil || state != "started" {
		return []CheckResult{{
			Status:  "warning",
			Message: "httpd service not started; skipping smoke requests",
		}}
	}

	certFile := paths.CertFile(cfg.ServerName)
	if _, err := os.Stat(certFile); err != nil {
		certFile = ""
	}
	runner, err := smoke.NewRunner(cfg.ServerName, certFile)
	if err != nil {
		return []CheckResult{{
			Status:  "error",
			Message: fmt.Sprintf("Could not build smoke client: %v", err),
		}}
	}

	results := []CheckResult{}
	for _, res := range runner.Run(context.Background(), cfg.HTTPPort, cfg.HTTPSPort) {
		if res.OK {
			results = append(results, CheckResult{
				Status:  "success",
				Message: fmt.Sprintf("%s %s", res.Name, res.URL),
			})
		} else {
			results = append(results, CheckResult{
				Status:  "error",
				Message: fmt.Sprintf("%s %s: %s", res.Name, res.URL, res.Detail),
			})
		}
	}
	return results
}

func displayDoctorResults(report *DoctorReport) {
	sections := []struct {
		title  string
		checks []CheckResult
	}{
		{"System", report.System},
		{"Formulas", report.Formulas},
		{"Configuration", report.Configuration},
		{"Certificate", report.Certificate},
		{"Document root", report.DocumentRoot},
		{"Smoke", report.Smoke},
	}

	for _, section := range sections {
		output.Print("Checking %s...", strings.ToLower(section.title))
		for _, check := range section.checks {
			displayCheck(check)
		}
		output.Print("")
	}
}

func displayCheck(check CheckResult) {
	switch check.Status {
	case "success":
		output.Success("%s", check.Message)
	case "warning":
		output.Warn("%s", check.Message)
	case "error":
		output.Error("%s", check.Message)
	}
}
