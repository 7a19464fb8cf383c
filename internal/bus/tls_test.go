package bus

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeTestCA(t *testing.T) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber:          big.NewInt(1),
		Subject:               pkix.Name{CommonName: "test-ca"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(time.Hour),
		IsCA:                  true,
		KeyUsage:              x509.KeyUsageCertSign,
		BasicConstraintsValid: true,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("creating certificate: %v", err)
	}

	path := filepath.Join(t.TempDir(), "ca.pem")
	pemData := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	if err := os.WriteFile(path, pemData, 0o600); err != nil {
		t.Fatalf("writing CA bundle: %v", err)
	}
	return path
}

func TestLoadCAPool(t *testing.T) {
	path := writeTestCA(t)

	pool, err := loadCAPool(path)
	if err != nil {
		t.Fatalf("loadCAPool() error = %v", err)
	}
	if pool == nil {
		t.Fatal("loadCAPool() returned nil pool")
	}
}

func TestLoadCAPool_NotPEM(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	if err := os.WriteFile(path, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	_, err := loadCAPool(path)
	if err == nil || !strings.Contains(err.Error(), "no certificates") {
		t.Errorf("loadCAPool() error = %v, want no-certificates error", err)
	}
}

func TestLoadCAPool_MissingFile(t *testing.T) {
	_, err := loadCAPool(filepath.Join(t.TempDir(), "absent.pem"))
	if err == nil || !strings.Contains(err.Error(), "reading CA bundle") {
		t.Errorf("loadCAPool() error = %v, want read error", err)
	}
}

func TestNewTLSConfig_MissingKeystore(t *testing.T) {
	_, err := NewTLSConfig(filepath.Join(t.TempDir(), "absent.p12"), "secret", "", false)
	if err == nil || !strings.Contains(err.Error(), "reading keystore") {
		t.Errorf("NewTLSConfig() error = %v, want keystore read error", err)
	}
}

func TestNewTLSConfig_CorruptKeystore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.p12")
	if err := os.WriteFile(path, []byte("not pkcs12 data"), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	_, err := NewTLSConfig(path, "secret", "", false)
	if err == nil || !strings.Contains(err.Error(), "decoding keystore") {
		t.Errorf("NewTLSConfig() error = %v, want decode error", err)
	}
}
