package secrets

import (
	"context"
	"os"
)

// EnvProvider reads credentials from the process environment.
type EnvProvider struct{}

// NewEnvProvider returns a provider backed by environment variables.
func NewEnvProvider() *EnvProvider {
	return &EnvProvider{}
}

// Credentials reads NSP_USERNAME, NSP_PASSWORD, KAFKA_KEYSTORE_PASSWORD
// and DATABASE_URL. Missing variables yield empty fields; the caller
// validates.
func (p *EnvProvider) Credentials(_ context.Context) (*Credentials, error) {
	return &Credentials{
		NSPUsername:      os.Getenv("NSP_USERNAME"),
		NSPPassword:      os.Getenv("NSP_PASSWORD"),
		KeystorePassword: os.Getenv("KAFKA_KEYSTORE_PASSWORD"),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
	}, nil
}

// Close is a no-op for the environment backend.
func (p *EnvProvider) Close() error {
	return nil
}
