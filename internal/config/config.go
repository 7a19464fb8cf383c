// Package config handles pipeline configuration loading and validation.
//
// # Configuration Sources
//
// Configuration is loaded from (in order of precedence):
// 1. Command-line flags
// 2. Environment variables
// 3. Config file (YAML)
// 4. Defaults
//
// # Example Config File
//
//	nsp:
//	  host: nsp.example.net
//	  insecure_skip_verify: true
//
//	kafka:
//	  keystore_path: /etc/faultmon/keystore.p12
//	  ca_path: /etc/faultmon/ca.pem
//
//	database:
//	  url: postgres://faultmon@localhost:5432/faultmon
//
//	pipeline:
//	  timezone: Asia/Dhaka
//	  retention_days: 90
//
// Credentials (NSP account, keystore password) never live in the config
// file; they come from the secrets provider.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config is the complete pipeline configuration.
type Config struct {
	NSP      NSPConfig      `yaml:"nsp"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Database DatabaseConfig `yaml:"database"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Health   HealthConfig   `yaml:"health"`
}

// NSPConfig defines how to reach the NSP REST gateway.
type NSPConfig struct {
	Host string `yaml:"host" envconfig:"NSP_HOST"`

	// TLS settings. NSP installations commonly run self-signed, so
	// verification is off by default.
	InsecureSkipVerify bool `yaml:"insecure_skip_verify" envconfig:"NSP_INSECURE_SKIP_VERIFY"`

	RequestTimeout time.Duration `yaml:"request_timeout" envconfig:"NSP_REQUEST_TIMEOUT"`

	// RateLimit caps REST requests per minute across session and
	// subscription calls.
	RateLimit int `yaml:"rate_limit" envconfig:"NSP_RATE_LIMIT"`
}

// KafkaConfig defines the connection to the NSP fault topic's listener.
type KafkaConfig struct {
	// Broker overrides the default {nsp.host}:9193 listener address.
	Broker string `yaml:"broker,omitempty" envconfig:"KAFKA_BROKER"`

	KeystorePath string `yaml:"keystore_path" envconfig:"KAFKA_KEYSTORE_PATH"`
	CAPath       string `yaml:"ca_path,omitempty" envconfig:"KAFKA_CA_PATH"`

	// GroupID overrides the default nsp-python-{hostname} consumer group.
	GroupID string `yaml:"group_id,omitempty" envconfig:"KAFKA_GROUP_ID"`

	InsecureSkipVerify bool `yaml:"insecure_skip_verify" envconfig:"KAFKA_INSECURE_SKIP_VERIFY"`
}

// DatabaseConfig defines the alarm store connection.
type DatabaseConfig struct {
	URL string `yaml:"url" envconfig:"FAULTMON_DATABASE_URL"`
}

// PipelineConfig defines processing behavior.
type PipelineConfig struct {
	// Timezone renders alarm detection timestamps; IANA name.
	Timezone string `yaml:"timezone" envconfig:"FAULTMON_TIMEZONE"`

	RetentionDays int `yaml:"retention_days" envconfig:"FAULTMON_RETENTION_DAYS"`

	RenewalInterval   time.Duration `yaml:"renewal_interval" envconfig:"FAULTMON_RENEWAL_INTERVAL"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval" envconfig:"FAULTMON_HEARTBEAT_INTERVAL"`
}

// HealthConfig defines the health listener.
type HealthConfig struct {
	// ListenAddr is the health HTTP address; empty disables the listener.
	ListenAddr string `yaml:"listen_addr" envconfig:"FAULTMON_HEALTH_ADDR"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		NSP: NSPConfig{
			InsecureSkipVerify: true,
			RequestTimeout:     DefaultHTTPTimeout,
			RateLimit:          DefaultRateLimitPerMinute,
		},
		Kafka: KafkaConfig{
			InsecureSkipVerify: true,
		},
		Database: DatabaseConfig{
			URL: "postgres://localhost:5432/faultmon?sslmode=disable",
		},
		Pipeline: PipelineConfig{
			Timezone:          "UTC",
			RetentionDays:     DefaultRetentionDays,
			RenewalInterval:   SubscriptionRenewalInterval,
			HeartbeatInterval: HeartbeatInterval,
		},
		Health: HealthConfig{
			ListenAddr: DefaultHealthAddr,
		},
	}
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnvOverrides applies environment variable overrides; the variable
// names are the envconfig tags above.
func (c *Config) ApplyEnvOverrides() error {
	if err := envconfig.Process("", c); err != nil {
		return fmt.Errorf("applying environment overrides: %w", err)
	}
	return nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.NSP.Host == "" {
		return fmt.Errorf("nsp.host is required")
	}
	if c.Kafka.KeystorePath == "" {
		return fmt.Errorf("kafka.keystore_path is required")
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}
	if c.Pipeline.RetentionDays <= 0 {
		return fmt.Errorf("pipeline.retention_days must be positive")
	}
	if _, err := time.LoadLocation(c.Pipeline.Timezone); err != nil {
		return fmt.Errorf("pipeline.timezone: %w", err)
	}
	return nil
}

// AuthURL returns the token grant endpoint.
func (c *Config) AuthURL() string {
	return fmt.Sprintf("https://%s:%d%s", c.NSP.Host, NSPGatewayPort, AuthTokenPath)
}

// RevocationURL returns the token revocation endpoint.
func (c *Config) RevocationURL() string {
	return fmt.Sprintf("https://%s:%d%s", c.NSP.Host, NSPGatewayPort, AuthRevocationPath)
}

// SubscriptionsURL returns the notification subscriptions endpoint.
func (c *Config) SubscriptionsURL() string {
	return fmt.Sprintf("https://%s:%d%s", c.NSP.Host, NSPGatewayPort, SubscriptionsPath)
}

// Broker returns the Kafka listener address, defaulting to the NSP
// host's fault topic listener.
func (c *Config) Broker() string {
	if c.Kafka.Broker != "" {
		return c.Kafka.Broker
	}
	return fmt.Sprintf("%s:%d", c.NSP.Host, KafkaListenerPort)
}

// GroupID returns the consumer group id, defaulting to the historical
// nsp-python-{hostname} name so redeployments keep their offsets.
func (c *Config) GroupID() string {
	if c.Kafka.GroupID != "" {
		return c.Kafka.GroupID
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	return ConsumerGroupPrefix + hostname
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Pipeline.Timezone)
}
