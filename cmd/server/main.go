package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ChristianIvicevic/sorcery/internal/archive"
	"github.com/ChristianIvicevic/sorcery/internal/config"
	"github.com/ChristianIvicevic/sorcery/internal/game"
	"github.com/ChristianIvicevic/sorcery/internal/game/descriptor"
	"github.com/ChristianIvicevic/sorcery/internal/server"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting sorcery server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	library := descriptor.NewLibrary()
	if cfg.Game.CardDir != "" {
		if err := library.LoadDeckDir(cfg.Game.CardDir); err != nil {
			logger.Fatal("failed to load card definitions",
				zap.String("dir", cfg.Game.CardDir),
				zap.Error(err))
		}
	}
	logger.Info("card library loaded", zap.Int("cards", len(library.Names())))

	engine := game.NewEngine(logger, library)

	var arch *archive.Archive
	if cfg.Database.Enabled {
		arch, err = archive.New(ctx, cfg.Database, logger)
		if err != nil {
			logger.Fatal("failed to connect to game archive", zap.Error(err))
		}
		defer arch.Close()
	} else {
		logger.Info("game archive disabled")
	}

	srv := server.New(cfg.Server, engine, arch, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
		cancel()
		if err := <-errCh; err != nil {
			logger.Error("server shutdown error", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}

	logger.Info("sorcery server stopped")
}

// initLogger initializes the zap logger based on configuration.
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
