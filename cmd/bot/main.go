package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xaenox/wellbeing-bot/internal/bot"
	"github.com/xaenox/wellbeing-bot/internal/gateway"
	"github.com/xaenox/wellbeing-bot/internal/session"
	"github.com/xaenox/wellbeing-bot/internal/storage"
	"github.com/xaenox/wellbeing-bot/pkg/config"
)

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)
	return zcfg.Build()
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	// Bootstrap logger until the configured one is built
	boot, _ := zap.NewProduction()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		boot.Fatal("Failed to load config", zap.Error(err), zap.String("path", *configPath))
	}

	logger, err := newLogger(cfg.Log)
	if err != nil {
		boot.Fatal("Failed to build logger", zap.Error(err), zap.String("level", cfg.Log.Level))
	}
	boot.Sync()
	defer logger.Sync()

	// Initialize storage
	var store storage.Storage
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStorage()
	} else {
		logger.Info("Using PostgreSQL storage")
		dbConfig := storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		}
		store, err = storage.NewPostgresStorage(dbConfig, logger)
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	httpClient := &http.Client{Timeout: cfg.API.Timeout}
	gw := gateway.NewClient(cfg.API.BaseURL, httpClient, logger.Named("gateway"))
	logger.Info("Using prediction service", zap.String("base_url", gw.BaseURL()))

	b, err := bot.New(cfg.Telegram.Token, store, gw, session.Options{
		StrictHistorySave: cfg.Assessment.StrictHistorySave,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to create bot", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Bot error", zap.Error(err))
	}
	logger.Info("Bot stopped")
}
