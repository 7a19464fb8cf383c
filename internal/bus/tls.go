package bus

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/pkcs12"
)

// NewTLSConfig builds the client TLS configuration for the NSP Kafka
// listener: a PKCS#12 keystore supplies the client certificate and a
// PEM bundle the broker CA.
func NewTLSConfig(keystorePath, keystorePassword, caPath string, insecureSkipVerify bool) (*tls.Config, error) {
	data, err := os.ReadFile(keystorePath)
	if err != nil {
		return nil, fmt.Errorf("reading keystore: %w", err)
	}

	// ToPEM tolerates keystores carrying a full certificate chain,
	// which the NSP installer produces.
	blocks, err := pkcs12.ToPEM(data, keystorePassword)
	if err != nil {
		return nil, fmt.Errorf("decoding keystore: %w", err)
	}

	var pemData []byte
	for _, b := range blocks {
		pemData = append(pemData, pem.EncodeToMemory(b)...)
	}

	cert, err := tls.X509KeyPair(pemData, pemData)
	if err != nil {
		return nil, fmt.Errorf("building client certificate: %w", err)
	}

	cfg := &tls.Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: insecureSkipVerify,
	}

	if caPath != "" {
		pool, err := loadCAPool(caPath)
		if err != nil {
			return nil, err
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// loadCAPool reads a PEM CA bundle into a certificate pool.
func loadCAPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading CA bundle: %w", err)
	}

	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in CA bundle %s", path)
	}
	return pool, nil
}
