package cli

import (
	"os"

	"github.com/localdev/apachedev/internal/cert"
	"github.com/localdev/apachedev/internal/output"
	"github.com/localdev/apachedev/internal/smoke"
	"github.com/spf13/cobra"
)

var smokeCmd = &cobra.Command{
	Use:   "smoke",
	Short: "Run the HTTP, HTTPS and PHP smoke tests",
	Long: `Probe the running environment: fetch the index page over HTTP and over
HTTPS (trusting the generated certificate), and request the PHP probe to
verify that php_module executes scripts instead of serving their source.

Exits non-zero when any probe fails.

Examples:
  apachedev smoke
  apachedev smoke --json`,
	RunE: runSmoke,
}

func init() {
	rootCmd.AddCommand(smokeCmd)
}

// SmokeReport is the JSON shape of the smoke command.
type SmokeReport struct {
	Success bool           `json:"success"`
	Results []smoke.Result `json:"results"`
}

func runSmoke(cmd *cobra.Command, args []string) error {
	cfg, paths, err := loadEnvironment()
	if err != nil {
		return err
	}

	// Pin the generated certificate when it exists so the HTTPS probe
	// validates the exact pair Apache should serve.
	certFile := paths.CertFile(cfg.ServerName)
	if _, err := os.Stat(certFile); err != nil {
		output.Warn("No certificate at %s; HTTPS probe will use system trust", certFile)
		certFile = ""
	} else if valid, err := cert.IsValid(certFile); err == nil && !valid {
		output.Warn("Certificate %s is expired", certFile)
	}

	results, err := runSmokeProbes(cfg, certFile)
	if jsonOutput {
		report := SmokeReport{Success: err == nil, Results: results}
		if jsonErr := output.JSON(report); jsonErr != nil {
			return jsonErr
		}
		return err
	}
	if err != nil {
		return err
	}

	output.Success("All smoke tests passed")
	return nil
}
