// Package secrets resolves the credentials the pipeline needs at
// startup: the NSP account, the Kafka keystore password, and optionally
// the database URL.
//
// Two backends are available. The environment backend reads plain
// environment variables and suits development hosts. The 1Password
// backend fetches a single vault item through a Connect server and is
// meant for production, where the NSP account must not live in process
// environments. The "auto" backend prefers 1Password when a Connect
// host is configured and falls back to the environment with a log line.
package secrets

import (
	"context"
	"fmt"
	"strings"
)

// Credentials carries the secret material resolved from a backend.
type Credentials struct {
	// NSPUsername and NSPPassword authenticate against the NSP
	// rest-gateway token endpoint.
	NSPUsername string
	NSPPassword string

	// KeystorePassword unlocks the PKCS#12 keystore for the Kafka
	// listener.
	KeystorePassword string

	// DatabaseURL optionally overrides the configured database URL so
	// the DSN's password never has to appear in a config file.
	DatabaseURL string
}

// Validate checks that the required NSP secrets are present. The
// database URL is optional because it may come from configuration.
func (c *Credentials) Validate() error {
	var missing []string
	if c.NSPUsername == "" {
		missing = append(missing, "NSP_USERNAME")
	}
	if c.NSPPassword == "" {
		missing = append(missing, "NSP_PASSWORD")
	}
	if c.KeystorePassword == "" {
		missing = append(missing, "KAFKA_KEYSTORE_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required credentials: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Provider resolves credentials from a backend.
type Provider interface {
	// Credentials returns the secret material. Implementations may
	// cache the result; callers treat it as immutable.
	Credentials(ctx context.Context) (*Credentials, error)

	// Close releases any resources held by the provider.
	Close() error
}
