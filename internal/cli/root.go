package cli

import (
	"os"

	"github.com/localdev/apachedev/internal/logger"
	"github.com/spf13/cobra"
)

var (
	jsonOutput bool
	verbose    bool
	dryRun     bool
	version    = "dev"
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "apachedev",
	Short: "Local Apache + PHP development environment for macOS",
	Long: `apachedev provisions a local web development environment on macOS using
the Homebrew Apache (httpd) and PHP formulas.

It configures Apache to serve ~/Sites over HTTP and HTTPS, generates and
trusts a self-signed certificate, wires up the PHP module, and verifies the
result with smoke tests. Every config edit is idempotent and backed by a
one-time .backup copy, so the whole setup can be undone with "restore".`,
}

// Execute runs the root command
func Execute() {
	// Initialize logger based on verbose flag (parsed by cobra)
	cobra.OnInitialize(func() {
		logger.Init(verbose)
	})

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// SetVersion sets the version string for the CLI
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging for debugging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "Show what would be done without changing anything")
}
