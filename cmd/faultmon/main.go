// Command faultmon runs the NSP alarm ingestion pipeline.
//
// # Usage
//
//	faultmon --config /etc/faultmon/config.yaml
//
// # Configuration
//
// The daemon can be configured via:
// - Command-line flags
// - Environment variables (NSP_*, KAFKA_*, FAULTMON_*)
// - Config file (YAML)
//
// Credentials come from the secrets provider (environment or 1Password
// Connect), never from the config file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/corenet-ops/nsp-faultmon/db/migrate"
	"github.com/corenet-ops/nsp-faultmon/internal/bus"
	"github.com/corenet-ops/nsp-faultmon/internal/config"
	"github.com/corenet-ops/nsp-faultmon/internal/health"
	"github.com/corenet-ops/nsp-faultmon/internal/normalize"
	"github.com/corenet-ops/nsp-faultmon/internal/nsp"
	"github.com/corenet-ops/nsp-faultmon/internal/pipeline"
	"github.com/corenet-ops/nsp-faultmon/internal/secrets"
	"github.com/corenet-ops/nsp-faultmon/internal/store"
)

const appVersion = "0.1.0"

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file")
		dbURL      = flag.String("database", "", "Database URL (postgres://...)")
		debug      = flag.Bool("debug", false, "Enable debug logging")
		version    = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *version {
		fmt.Println("faultmon v" + appVersion)
		os.Exit(0)
	}

	// Set up logging
	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if err := run(*configPath, *dbURL, logger); err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, dbURLFlag string, logger *slog.Logger) error {
	cfg, err := loadConfig(configPath, dbURLFlag)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Resolve credentials before touching any remote system.
	provider, err := secrets.NewProvider(secrets.ConfigFromEnv(), logger)
	if err != nil {
		return fmt.Errorf("creating secrets provider: %w", err)
	}
	defer provider.Close()

	creds, err := provider.Credentials(ctx)
	if err != nil {
		return fmt.Errorf("resolving credentials: %w", err)
	}
	if err := creds.Validate(); err != nil {
		return err
	}

	databaseURL := cfg.Database.URL
	if creds.DatabaseURL != "" {
		databaseURL = creds.DatabaseURL
	}

	if err := migrate.Run(databaseURL, logger); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.NewStoreFromURL(connectCtx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer st.Close()

	if err := st.Ping(connectCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	logger.Info("connected to database")

	// A bad keystore should fail startup, not the first poll.
	tlsConfig, err := bus.NewTLSConfig(cfg.Kafka.KeystorePath, creds.KeystorePassword, cfg.Kafka.CAPath, cfg.Kafka.InsecureSkipVerify)
	if err != nil {
		return fmt.Errorf("building kafka TLS config: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	processor := pipeline.NewProcessor(normalize.New(loc), st, logger)

	nspClient := nsp.NewClient(nsp.Config{
		Timeout:            cfg.NSP.RequestTimeout,
		RateLimit:          cfg.NSP.RateLimit,
		InsecureSkipVerify: cfg.NSP.InsecureSkipVerify,
	}, logger)

	session, err := nsp.NewSessionManager(ctx, nspClient, nsp.SessionConfig{
		AuthURL:       cfg.AuthURL(),
		RevocationURL: cfg.RevocationURL(),
		Username:      creds.NSPUsername,
		Password:      creds.NSPPassword,
	}, logger)
	if err != nil {
		return err
	}

	subs := nsp.NewSubscriptionManager(nspClient, cfg.SubscriptionsURL(), session, logger)

	var healthServer pipeline.HealthListener
	if cfg.Health.ListenAddr != "" {
		collector := health.NewCollector(st, processor)
		healthServer = health.NewServer(health.ServerConfig{
			ListenAddr: cfg.Health.ListenAddr,
			InstanceID: uuid.New().String(),
			Version:    appVersion,
		}, collector, st, logger)
	}

	supCfg := pipeline.DefaultSupervisorConfig()
	supCfg.RenewalInterval = cfg.Pipeline.RenewalInterval
	supCfg.RetentionInterval = config.RetentionInterval
	supCfg.RetentionDays = cfg.Pipeline.RetentionDays
	supCfg.HeartbeatInterval = cfg.Pipeline.HeartbeatInterval

	supervisor := pipeline.NewSupervisor(supCfg, pipeline.SupervisorDeps{
		Consumers: &consumerFactory{
			broker:  cfg.Broker(),
			groupID: cfg.GroupID(),
			tls:     tlsConfig,
			handler: processor,
			logger:  logger,
		},
		Subs:     subs,
		Tokens:   session,
		Pruner:   st,
		Counters: processor,
		Health:   healthServer,
	}, logger)

	if err := supervisor.Run(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}

func loadConfig(configPath, dbURLFlag string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyEnvOverrides(); err != nil {
		return nil, err
	}
	if dbURLFlag != "" {
		cfg.Database.URL = dbURLFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
