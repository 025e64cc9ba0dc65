package cli

import (
	"github.com/localdev/apachedev/internal/cert"
	"github.com/localdev/apachedev/internal/output"
	"github.com/spf13/cobra"
)

var (
	certDays      int
	certSkipTrust bool
	certForce     bool
)

var certCmd = &cobra.Command{
	Use:   "cert",
	Short: "Generate and trust the development certificate",
	Long: `Generate the self-signed certificate Apache serves over HTTPS and add
it to the System keychain so browsers accept it without warnings.

The certificate covers the configured server name, its wildcard subdomains
and the loopback addresses. An existing valid certificate is kept unless
--force is given. Trusting the certificate runs the macOS security command
under sudo.

Examples:
  apachedev cert
  apachedev cert --days 365 --force
  apachedev cert --skip-trust`,
	RunE: runCert,
}

func init() {
	certCmd.Flags().IntVar(&certDays, "days", 0, "Validity period in days (default from config, 825)")
	certCmd.Flags().BoolVar(&certSkipTrust, "skip-trust", false, "Do not add the certificate to the System keychain")
	certCmd.Flags().BoolVar(&certForce, "force", false, "Regenerate even if the current certificate is valid")

	rootCmd.AddCommand(certCmd)
}

// CertResult is the JSON shape of a cert command run.
type CertResult struct {
	CertFile string        `json:"cert_file"`
	KeyFile  string        `json:"key_file"`
	Details  *cert.Details `json:"details,omitempty"`
	Trusted  bool          `json:"trusted"`
}

func runCert(cmd *cobra.Command, args []string) error {
	if err := refuseRoot(); err != nil {
		return err
	}

	cfg, paths, err := loadEnvironment()
	if err != nil {
		return err
	}

	days := cfg.CertDays
	if cmd.Flags().Changed("days") {
		days = certDays
	}

	certFile := paths.CertFile(cfg.ServerName)
	keyFile := paths.KeyFile(cfg.ServerName)

	if dryRun {
		ops := []DryRunOperation{
			{Action: "generate certificate if missing or expired", Target: certFile},
		}
		if certForce {
			ops[0].Action = "regenerate certificate"
		}
		if !certSkipTrust {
			ops = append(ops, DryRunOperation{Action: "trust certificate in System keychain (sudo)", Target: certFile})
		}
		return outputDryRun(ops)
	}

	if err := ensureCertificate(cfg.ServerName, days, certFile, keyFile, certForce); err != nil {
		return err
	}

	if certSkipTrust {
		output.Warn("Skipping keychain trust; browsers will warn about the certificate")
	} else if err := trustCertificate(certFile); err != nil {
		return err
	}

	result := CertResult{
		CertFile: certFile,
		KeyFile:  keyFile,
		Trusted:  cert.IsTrusted(certFile),
	}
	if details, err := cert.Info(certFile); err == nil {
		result.Details = details
	}

	return outputResult(result, "Certificate ready at %s", certFile)
}
