package secrets

import (
	"fmt"
	"log/slog"
	"os"
)

// Config selects and parameterizes the secrets backend.
type Config struct {
	// Backend specifies which backend to use: "1password", "env", or
	// "auto". "auto" (default) uses 1Password when a Connect host is
	// configured, otherwise the environment.
	Backend string

	OnePassword OnePasswordConfig
}

// ConfigFromEnv creates a Config from environment variables.
func ConfigFromEnv() Config {
	return Config{
		Backend: getEnv("NSP_SECRETS_BACKEND", "auto"),
		OnePassword: OnePasswordConfig{
			Host:      os.Getenv("OP_CONNECT_HOST"),
			Token:     os.Getenv("OP_CONNECT_TOKEN"),
			VaultID:   os.Getenv("OP_VAULT_ID"),
			ItemTitle: getEnv("NSP_SECRETS_ITEM", "nsp-faultmon"),
		},
	}
}

// NewProvider creates a credential provider based on configuration.
func NewProvider(cfg Config, logger *slog.Logger) (Provider, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = "auto"
	}

	switch backend {
	case "1password":
		return NewOnePasswordProvider(cfg.OnePassword, logger)

	case "env":
		return NewEnvProvider(), nil

	case "auto":
		if cfg.OnePassword.Host != "" && cfg.OnePassword.Token != "" {
			p, err := NewOnePasswordProvider(cfg.OnePassword, logger)
			if err != nil {
				logger.Warn("failed to initialize 1Password, falling back to environment credentials",
					"error", err)
				return NewEnvProvider(), nil
			}
			return p, nil
		}
		logger.Info("OP_CONNECT_HOST not set, using environment credentials")
		return NewEnvProvider(), nil

	default:
		return nil, fmt.Errorf("unknown secrets backend: %s", backend)
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
