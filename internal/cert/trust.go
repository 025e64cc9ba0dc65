package cert

import (
	"fmt"
	"strings"

	"github.com/localdev/apachedev/internal/executor"
)

// systemKeychain is the keychain the development certificate is registered in.
const systemKeychain = "/Library/Keychains/System.keychain"

// cmdExecutor is the command executor (can be replaced for testing)
var cmdExecutor executor.CommandExecutor = executor.NewSystemExecutor()

// SetExecutor allows tests to inject a mock executor
func SetExecutor(exec executor.CommandExecutor) {
	cmdExecutor = exec
}

// ResetExecutor resets the executor to the default system executor
func ResetExecutor() {
	cmdExecutor = executor.NewSystemExecutor()
}

// Trust registers the certificate as a trusted root in the System keychain.
// This shells out through sudo, so the credential cache must be primed.
func Trust(certPath string) error {
	args := []string{
		"-n",
		"security", "add-trusted-cert",
		"-d",
		"-r", "trustRoot",
		"-k", systemKeychain,
		certPath,
	}

	out, err := cmdExecutor.Execute("sudo", args...)
	if err != nil {
		return fmt.Errorf("failed to trust certificate: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// Untrust removes the certificate from the System keychain.
func Untrust(certPath string) error {
	args := []string{
		"-n",
		"security", "remove-trusted-cert",
		"-d",
		certPath,
	}

	out, err := cmdExecutor.Execute("sudo", args...)
	if err != nil {
		return fmt.Errorf("failed to untrust certificate: %s", strings.TrimSpace(string(out)))
	}
	return nil
}

// IsTrusted reports whether the keychain considers the certificate valid for
// SSL use. security verify-cert exits non-zero for untrusted certificates.
func IsTrusted(certPath string) bool {
	_, err := cmdExecutor.Execute("security", "verify-cert", "-c", certPath)
	return err == nil
}
