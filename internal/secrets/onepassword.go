package secrets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/1Password/connect-sdk-go/connect"
	"github.com/1Password/connect-sdk-go/onepassword"
)

// OnePasswordProvider resolves credentials from a single item in a
// 1Password vault via a Connect server.
//
// Configuration is via environment variables:
//   - OP_CONNECT_HOST: URL of the 1Password Connect server
//   - OP_CONNECT_TOKEN: access token for the Connect server
//   - OP_VAULT_ID: UUID of the vault holding the item
//
// The item's concealed fields are matched by field ID: "username",
// "password", "keystore_password" and "database_url".
type OnePasswordProvider struct {
	client  connect.Client
	vaultID string
	item    string
	logger  *slog.Logger

	mu     sync.RWMutex
	cached *Credentials
}

// OnePasswordConfig holds the Connect server settings.
type OnePasswordConfig struct {
	Host    string // OP_CONNECT_HOST
	Token   string // OP_CONNECT_TOKEN
	VaultID string // OP_VAULT_ID

	// ItemTitle names the vault item holding the credentials.
	ItemTitle string
}

// NewOnePasswordProvider creates a 1Password-backed credential provider.
func NewOnePasswordProvider(cfg OnePasswordConfig, logger *slog.Logger) (*OnePasswordProvider, error) {
	if cfg.Host == "" || cfg.Token == "" || cfg.VaultID == "" {
		return nil, fmt.Errorf("1Password configuration incomplete: host, token, and vault_id are required")
	}

	item := cfg.ItemTitle
	if item == "" {
		item = "nsp-faultmon"
	}

	return &OnePasswordProvider{
		client:  connect.NewClientWithUserAgent(cfg.Host, cfg.Token, "nsp-faultmon"),
		vaultID: cfg.VaultID,
		item:    item,
		logger:  logger.With("component", "secrets"),
	}, nil
}

// Credentials fetches the vault item, caching the result for the
// lifetime of the provider. The item is read once at startup so
// Connect outages after that point do not affect the pipeline.
func (p *OnePasswordProvider) Credentials(_ context.Context) (*Credentials, error) {
	p.mu.RLock()
	if p.cached != nil {
		cached := p.cached
		p.mu.RUnlock()
		return cached, nil
	}
	p.mu.RUnlock()

	items, err := p.client.GetItemsByTitle(p.item, p.vaultID)
	if err != nil {
		return nil, fmt.Errorf("listing vault items: %w", err)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("credentials item not found in vault: %s", p.item)
	}

	item, err := p.client.GetItem(items[0].ID, p.vaultID)
	if err != nil {
		return nil, fmt.Errorf("getting vault item: %w", err)
	}

	creds := itemToCredentials(item)

	p.mu.Lock()
	p.cached = creds
	p.mu.Unlock()

	p.logger.Info("credentials loaded from 1Password", "item", p.item)
	return creds, nil
}

// Close clears the cached credentials.
func (p *OnePasswordProvider) Close() error {
	p.mu.Lock()
	p.cached = nil
	p.mu.Unlock()
	return nil
}

func itemToCredentials(item *onepassword.Item) *Credentials {
	creds := &Credentials{}
	for _, field := range item.Fields {
		switch fieldKey(field) {
		case "username":
			creds.NSPUsername = field.Value
		case "password":
			creds.NSPPassword = field.Value
		case "keystore_password":
			creds.KeystorePassword = field.Value
		case "database_url":
			creds.DatabaseURL = field.Value
		}
	}
	return creds
}

// fieldKey normalizes a field's identity. Items created by hand in the
// 1Password UI carry labels rather than stable IDs.
func fieldKey(field *onepassword.ItemField) string {
	if field.ID != "" {
		return field.ID
	}
	return strings.ToLower(strings.ReplaceAll(field.Label, " ", "_"))
}
