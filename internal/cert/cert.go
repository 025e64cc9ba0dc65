package cert

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"
)

// Options controls self-signed certificate generation.
type Options struct {
	CommonName string   // subject CN and primary DNS SAN (localhost)
	Days       int      // validity period
	CertPath   string   // where the PEM certificate is written
	KeyPath    string   // where the PEM private key is written
	ExtraDNS   []string // additional DNS SANs
}

// Details describes a parsed certificate for status reporting.
type Details struct {
	Subject   string    `json:"subject"`
	DNSNames  []string  `json:"dns_names"`
	NotBefore time.Time `json:"not_before"`
	NotAfter  time.Time `json:"not_after"`
	Expired   bool      `json:"expired"`
}

// Generate creates a self-signed server certificate and writes the PEM pair
// to opts.CertPath (0644) and opts.KeyPath (0600). The certificate carries
// DNS SANs for the common name and *.commonName plus loopback IP SANs, and
// the serverAuth extended key usage macOS requires before it will trust a
// leaf certificate.
func Generate(opts Options) error {
	if opts.CommonName == "" {
		return fmt.Errorf("common name cannot be empty")
	}
	if opts.Days < 1 {
		return fmt.Errorf("validity days must be positive, got %d", opts.Days)
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return fmt.Errorf("failed to generate RSA key: %w", err)
	}

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return fmt.Errorf("failed to generate serial number: %w", err)
	}

	now := time.Now()
	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   opts.CommonName,
			Organization: []string{"apachedev development certificate"},
		},
		NotBefore:             now,
		NotAfter:              now.AddDate(0, 0, opts.Days),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		BasicConstraintsValid: true,
		DNSNames:              append([]string{opts.CommonName, "*." + opts.CommonName}, opts.ExtraDNS...),
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1"), net.ParseIP("::1")},
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(opts.CertPath), 0755); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(opts.CertPath, certPEM, 0644); err != nil {
		return fmt.Errorf("failed to write certificate: %w", err)
	}

	keyDER, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		return fmt.Errorf("failed to marshal private key: %w", err)
	}
	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: keyDER})
	if err := os.WriteFile(opts.KeyPath, keyPEM, 0600); err != nil {
		return fmt.Errorf("failed to write private key: %w", err)
	}

	return nil
}

// Exists reports whether both halves of the PEM pair are present.
func Exists(certPath, keyPath string) bool {
	if _, err := os.Stat(certPath); err != nil {
		return false
	}
	_, err := os.Stat(keyPath)
	return err == nil
}

// IsValid reports whether the certificate at certPath parses and is inside
// its validity window with at least a day to spare.
func IsValid(certPath string) (bool, error) {
	cert, err := parse(certPath)
	if err != nil {
		return false, err
	}
	now := time.Now()
	return now.After(cert.NotBefore) && now.Add(24*time.Hour).Before(cert.NotAfter), nil
}

// Info returns display details for the certificate at certPath.
func Info(certPath string) (*Details, error) {
	cert, err := parse(certPath)
	if err != nil {
		return nil, err
	}
	return &Details{
		Subject:   cert.Subject.CommonName,
		DNSNames:  cert.DNSNames,
		NotBefore: cert.NotBefore,
		NotAfter:  cert.NotAfter,
		Expired:   time.Now().After(cert.NotAfter),
	}, nil
}

// parse reads and decodes the first CERTIFICATE block in the file.
func parse(certPath string) (*x509.Certificate, error) {
	data, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read certificate: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, fmt.Errorf("no CERTIFICATE block in %s", certPath)
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert, nil
}
