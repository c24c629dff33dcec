package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/pquerna/otp"
	"go.uber.org/zap"

	"github.com/xaenox/antispam-bot/internal/auth"
	"github.com/xaenox/antispam-bot/internal/bot"
	"github.com/xaenox/antispam-bot/internal/classifier"
	"github.com/xaenox/antispam-bot/internal/events"
	"github.com/xaenox/antispam-bot/internal/metrics"
	"github.com/xaenox/antispam-bot/internal/moderation"
	"github.com/xaenox/antispam-bot/internal/storage"
	"github.com/xaenox/antispam-bot/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		zap.NewExample().Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	// Initialize logger
	logger, _ := zap.NewProduction()
	if cfg.Log.Development {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := newStore(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err), zap.String("driver", cfg.Storage.Driver))
	}
	defer store.Close()

	totpConfig := auth.TOTPConfig{
		Issuer:        cfg.Auth.Issuer,
		AccountPrefix: cfg.Auth.AccountPrefix,
		Period:        cfg.Auth.Period,
		Skew:          cfg.Auth.Skew,
		Digits:        otp.Digits(cfg.Auth.Digits),
	}
	gate, err := auth.NewGate(cfg.Operators.IDs, store, totpConfig, logger,
		auth.WithVerificationTTL(cfg.Auth.VerificationTTL))
	if err != nil {
		logger.Fatal("Failed to create auth gate", zap.Error(err))
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.NATS.URL != "" {
		natsConfig := events.DefaultNATSConfig()
		natsConfig.URL = cfg.NATS.URL
		natsConfig.SubjectPrefix = cfg.NATS.SubjectPrefix
		publisher, err = events.NewNATSPublisher(natsConfig, logger)
		if err != nil {
			logger.Fatal("Failed to connect to NATS", zap.Error(err))
		}
	}
	defer publisher.Close()

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr, logger); err != nil {
				logger.Error("Metrics server stopped", zap.Error(err))
			}
		}()
	}

	api, err := bot.NewAPI(cfg.Telegram.Token)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}
	logger.Info("Authorized on Telegram", zap.String("username", api.Self.UserName))

	platform := bot.NewTelegram(api, logger)
	clf := classifier.New(classifier.DefaultRegistry())

	workflow, err := moderation.NewWorkflow(gate, clf, platform, publisher, cfg.Reports.DedupeSize, logger)
	if err != nil {
		logger.Fatal("Failed to create workflow", zap.Error(err))
	}

	b := bot.New(api, platform, gate, workflow, logger)

	logger.Info("Bot started", zap.Int("operators", len(cfg.Operators.IDs)))
	if err := b.Start(ctx); err != nil {
		logger.Fatal("Bot error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}

func newStore(cfg *config.Config, logger *zap.Logger) (storage.CredentialStore, error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		logger.Info("Using PostgreSQL storage")
		return storage.NewPostgresStorage(storage.DatabaseConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}, logger)
	case config.DriverSQLite:
		logger.Info("Using SQLite storage", zap.String("path", cfg.SQLite.Path))
		return storage.NewSQLiteStorage(cfg.SQLite.Path)
	case config.DriverRedis:
		logger.Info("Using Redis storage")
		return storage.NewRedisStorage(cfg.Redis.URL)
	default:
		logger.Warn("Using in-memory storage, credentials are lost on restart")
		return storage.NewMemoryStorage(), nil
	}
}
