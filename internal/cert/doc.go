// Package cert generates and trusts the self-signed development certificate.
//
// Generation is pure crypto/x509: an RSA 2048 key and a self-signed leaf
// certificate with SANs for localhost, *.localhost, 127.0.0.1 and ::1, valid
// for a configurable number of days (825 by default, the maximum macOS
// accepts for a trusted server certificate).
//
// Trust-store registration shells out to the macOS security tool:
//
//	sudo security add-trusted-cert -d -r trustRoot \
//	    -k /Library/Keychains/System.keychain localhost.crt
//
// and verification uses `security verify-cert -c localhost.crt`. The command
// executor is injectable so tests never touch a real keychain.
package cert
