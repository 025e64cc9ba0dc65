package cli

import (
	"github.com/localdev/apachedev/internal/confedit"
	apperrors "github.com/localdev/apachedev/internal/errors"
	"github.com/localdev/apachedev/internal/output"
	"github.com/spf13/cobra"
)

var (
	restoreYes       bool
	restoreNoRestart bool
	restoreStop      bool
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Restore the original Apache configuration from backups",
	Long: `Copy every .backup file created during setup back over its config file,
returning Apache to its pre-setup state. The backup copies are kept, so
restore can be repeated.

The generated certificate, its keychain trust entry and the files in the
document root are left in place.

Examples:
  apachedev restore
  apachedev restore --yes --no-restart
  apachedev restore --yes --stop`,
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Do not ask for confirmation")
	restoreCmd.Flags().BoolVar(&restoreNoRestart, "no-restart", false, "Do not restart the httpd service afterwards")
	restoreCmd.Flags().BoolVar(&restoreStop, "stop", false, "Stop the httpd service instead of restarting it")

	rootCmd.AddCommand(restoreCmd)
}

// RestoreResult is the JSON shape of a restore run.
type RestoreResult struct {
	Success  bool     `json:"success"`
	Restored []string `json:"restored"`
}

func runRestore(cmd *cobra.Command, args []string) error {
	_, paths, err := loadEnvironment()
	if err != nil {
		return err
	}

	candidates := append(paths.ManagedConfigs(), paths.UserDirConf)
	var withBackup []string
	for _, path := range candidates {
		if confedit.HasBackup(path) {
			withBackup = append(withBackup, path)
		}
	}
	if len(withBackup) == 0 {
		return apperrors.ErrNoBackup
	}

	if dryRun {
		ops := make([]DryRunOperation, 0, len(withBackup)+1)
		for _, path := range withBackup {
			ops = append(ops, DryRunOperation{Action: "restore from " + path + confedit.BackupSuffix, Target: path})
		}
		switch {
		case restoreStop:
			ops = append(ops, DryRunOperation{Action: "stop the httpd service"})
		case !restoreNoRestart:
			ops = append(ops, DryRunOperation{Action: "restart the httpd service"})
		}
		return outputDryRun(ops)
	}

	if !restoreYes {
		output.Warn("This will overwrite %d config file(s) with their pre-setup backups", len(withBackup))
		if !confirm("Continue?") {
			output.Info("Aborted")
			return nil
		}
	}

	configurator := newConfigurator(paths)
	restored, err := configurator.Restore()
	if err != nil {
		return apperrors.Wrap(apperrors.ErrCodeConfigEdit, "restore failed", err)
	}
	for _, path := range restored {
		output.Info("Restored %s", path)
	}

	switch {
	case restoreStop:
		// Restored stock config no longer serves the dev site, stop instead.
		if err := newBrewClient(paths).ServiceStop("httpd"); err != nil {
			output.Warn("Could not stop httpd: %v", err)
		} else {
			output.Info("Stopped the httpd service")
		}
	case restoreNoRestart:
		output.Warn("Skipping restart; run 'brew services restart httpd' to apply")
	default:
		if err := newBrewClient(paths).ServiceRestart("httpd"); err != nil {
			output.Warn("Could not restart httpd: %v", err)
		}
	}

	return outputResult(RestoreResult{Success: true, Restored: restored},
		"Restored %d config file(s); backups kept", len(restored))
}
