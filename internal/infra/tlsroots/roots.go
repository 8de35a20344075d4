package tlsroots

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
)

// ErrNoCertsFound is returned when a PEM file holds no certificate.
var ErrNoCertsFound = errors.New("tlsroots: no certificates found in PEM data")

// LoadPool returns the system roots extended with the certificates in
// files. Systems without a readable root store start from an empty pool.
func LoadPool(files ...string) (*x509.CertPool, error) {
	pool, err := x509.SystemCertPool()
	if err != nil {
		pool = x509.NewCertPool()
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("tlsroots: read %s: %w", f, err)
		}
		if err := AppendPEM(pool, data); err != nil {
			return nil, fmt.Errorf("tlsroots: %s: %w", f, err)
		}
	}
	return pool, nil
}

// AppendPEM adds every CERTIFICATE block in data to pool.
func AppendPEM(pool *x509.CertPool, data []byte) error {
	added := 0
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return fmt.Errorf("parse certificate: %w", err)
		}
		pool.AddCert(cert)
		added++
	}
	if added == 0 {
		return ErrNoCertsFound
	}
	return nil
}

// ClientConfig returns a TLS 1.2+ client configuration that verifies
// serverName against the system roots plus caFiles.
func ClientConfig(serverName string, caFiles ...string) (*tls.Config, error) {
	cfg := &tls.Config{
		ServerName: serverName,
		MinVersion: tls.VersionTLS12,
	}
	if len(caFiles) == 0 {
		return cfg, nil
	}
	pool, err := LoadPool(caFiles...)
	if err != nil {
		return nil, err
	}
	cfg.RootCAs = pool
	return cfg, nil
}
