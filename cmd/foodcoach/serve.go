package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vbonduro/foodcoach/internal/cache"
	"github.com/vbonduro/foodcoach/internal/config"
	"github.com/vbonduro/foodcoach/internal/db"
	"github.com/vbonduro/foodcoach/internal/logging"
	"github.com/vbonduro/foodcoach/internal/model"
	"github.com/vbonduro/foodcoach/internal/model/claude"
	"github.com/vbonduro/foodcoach/internal/model/ollama"
	"github.com/vbonduro/foodcoach/internal/photostore"
	"github.com/vbonduro/foodcoach/internal/photostore/local"
	"github.com/vbonduro/foodcoach/internal/photostore/s3store"
	"github.com/vbonduro/foodcoach/internal/service"
	"github.com/vbonduro/foodcoach/internal/store"
	"github.com/vbonduro/foodcoach/internal/store/gormstore"
	"github.com/vbonduro/foodcoach/internal/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, cleanup, err := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer cleanup()

	logs, closeStore, err := newStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "backend", cfg.StoreBackend, "error", err)
		return err
	}
	defer closeStore()

	invoker, err := newInvoker(cfg, logger)
	if err != nil {
		logger.Error("failed to configure model", "error", err)
		return err
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	opts := []service.Option{
		service.WithLocation(loc),
		service.WithModelTimeout(cfg.ModelTimeout()),
	}
	if personas := cfg.PersonaList(); len(personas) > 0 {
		opts = append(opts, service.WithPersonas(personas))
	}

	archive, err := newArchive(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize image archive", "backend", cfg.PhotoBackend, "error", err)
		return err
	}
	if archive != nil {
		opts = append(opts, service.WithImageArchive(archive))
	}

	if cfg.CacheURL != "" {
		rc, err := cache.NewRedis(ctx, cfg.CacheURL, cfg.CacheTTL())
		if err != nil {
			logger.Error("failed to connect to analysis cache", "error", err)
			return err
		}
		defer func() {
			if err := rc.Close(); err != nil {
				logger.Error("failed to close analysis cache", "error", err)
			}
		}()
		logger.Info("analysis cache enabled", "ttl", cfg.CacheTTL())
		opts = append(opts, service.WithCache(rc))
	}

	svc := service.NewFoodService(logs, invoker, logger, opts...)
	server := web.NewServer(svc, archive, logger, cfg.CORSOriginList())

	if err := server.ListenAndServe(ctx, cfg.ListenAddr); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	return nil
}

func newStore(cfg *config.Config, logger *slog.Logger) (service.LogRepository, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		gdb, err := gormstore.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get postgres handle: %w", err)
		}
		closeDB := func() {
			if err := sqlDB.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}
		s, err := gormstore.New(gdb)
		if err != nil {
			closeDB()
			return nil, nil, err
		}
		logger.Info("using postgres store")
		return s, closeDB, nil
	default:
		database, err := db.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite store", "path", cfg.DBPath)
		return store.NewFoodLogStore(database), func() {
			if err := database.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}, nil
	}
}

func newInvoker(cfg *config.Config, logger *slog.Logger) (model.Invoker, error) {
	var inv model.Invoker
	switch cfg.ModelBackend {
	case "ollama":
		logger.Info("using Ollama model backend", "host", cfg.OllamaHost, "model", cfg.OllamaModel)
		inv = ollama.New(cfg.OllamaHost, cfg.OllamaModel)
	default:
		if cfg.ClaudeAPIKey == "" {
			return nil, errors.New("CLAUDE_API_KEY is required when MODEL_BACKEND=claude")
		}
		logger.Info("using Claude model backend", "model", cfg.ClaudeModel)
		inv = claude.New(cfg.ClaudeAPIKey, cfg.ClaudeModel, cfg.ClaudeBaseURL)
	}
	return model.WithRetry(inv, cfg.Retries(), logger), nil
}

// newArchive returns nil when archiving is off.
func newArchive(ctx context.Context, cfg *config.Config, logger *slog.Logger) (photostore.PhotoStore, error) {
	switch cfg.PhotoBackend {
	case "local":
		logger.Info("archiving images locally", "path", cfg.PhotoPath)
		return local.NewLocalPhotoStore(cfg.PhotoPath)
	case "s3":
		logger.Info("archiving images to s3", "bucket", cfg.S3Bucket)
		return s3store.NewFromEnv(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Endpoint)
	default:
		return nil, nil
	}
}
