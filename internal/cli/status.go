package cli

import (
	"fmt"

	"github.com/localdev/apachedev/internal/cert"
	"github.com/localdev/apachedev/internal/httpd"
	"github.com/localdev/apachedev/internal/output"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the environment configuration and state",
	Long: `Show the configured ports, document root, PHP formula, service state,
certificate status and which managed config edits are in place.

Examples:
  apachedev status
  apachedev status --json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// StatusReport is the JSON shape of the status command.
type StatusReport struct {
	HTTPPort     int           `json:"http_port"`
	HTTPSPort    int           `json:"https_port"`
	DocumentRoot string        `json:"document_root"`
	PHPFormula   string        `json:"php_formula"`
	ServiceState string        `json:"service_state"`
	CertFile     string        `json:"cert_file"`
	CertValid    bool          `json:"cert_valid"`
	CertTrusted  bool          `json:"cert_trusted"`
	Edits        []httpd.Check `json:"edits"`
	Backups      []httpd.Check `json:"backups"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, paths, err := loadEnvironment()
	if err != nil {
		return err
	}

	data, err := templateData(cfg, paths)
	if err != nil {
		return err
	}

	brewClient := newBrewClient(paths)
	configurator := newConfigurator(paths)

	state, err := brewClient.ServiceState("httpd")
	if err != nil {
		state = "unknown"
	}

	certFile := paths.CertFile(cfg.ServerName)
	valid := false
	if ok, err := cert.IsValid(certFile); err == nil {
		valid = ok
	}

	report := StatusReport{
		HTTPPort:     cfg.HTTPPort,
		HTTPSPort:    cfg.HTTPSPort,
		DocumentRoot: data.DocumentRoot,
		PHPFormula:   cfg.PHPFormula(),
		ServiceState: state,
		CertFile:     certFile,
		CertValid:    valid,
		CertTrusted:  cert.IsTrusted(certFile),
		Edits:        configurator.EditChecks(data),
		Backups:      configurator.BackupChecks(),
	}

	if jsonOutput {
		return output.JSON(report)
	}

	applied := 0
	for _, check := range report.Edits {
		if check.Applied {
			applied++
		}
	}
	backups := 0
	for _, check := range report.Backups {
		if check.Applied {
			backups++
		}
	}

	headers := []string{"ITEM", "VALUE"}
	rows := [][]string{
		{"HTTP", fmt.Sprintf("http://%s:%d/", cfg.ServerName, cfg.HTTPPort)},
		{"HTTPS", fmt.Sprintf("https://%s:%d/", cfg.ServerName, cfg.HTTPSPort)},
		{"Document root", report.DocumentRoot},
		{"PHP formula", report.PHPFormula},
		{"httpd service", report.ServiceState},
		{"Certificate", report.CertFile},
		{"Cert valid", yesNo(report.CertValid)},
		{"Cert trusted", yesNo(report.CertTrusted)},
		{"Config edits", fmt.Sprintf("%d/%d applied", applied, len(report.Edits))},
		{"Backups", fmt.Sprintf("%d/%d present", backups, len(report.Backups))},
	}
	output.Table(headers, rows)

	if verbose {
		output.Print("")
		for _, check := range report.Edits {
			if check.Applied {
				output.Success("%s (%s)", check.Name, check.File)
			} else {
				output.Warn("%s (%s)", check.Name, check.File)
			}
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
