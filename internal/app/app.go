package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"misicuan-admin/internal/aigen"
	"misicuan-admin/internal/cache"
	"misicuan-admin/internal/catalog"
	"misicuan-admin/internal/config"
	"misicuan-admin/internal/httpserver"
	"misicuan-admin/internal/metrics"
	"misicuan-admin/internal/mission"
	"misicuan-admin/internal/repo"
	"misicuan-admin/internal/settlement"
	"misicuan-admin/internal/telemetry"
	"misicuan-admin/internal/verify"
	"misicuan-admin/internal/wa"
	"misicuan-admin/migrations"
)

// Options select the optional parts of the runtime.
type Options struct {
	// WhatsApp connects the notifier when it is enabled in config.
	WhatsApp bool
}

// App holds the wired services of one process.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Repository repo.Repository
	Redis      *cache.Redis
	Catalog    *catalog.Repository
	Classifier *mission.Classifier
	Verifier   *verify.Service
	Settlement *settlement.Service
	WhatsApp   *wa.Client

	telemetry *telemetry.Provider
}

// Build opens the stores and wires every service from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (_ *App, err error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.Registry(cfg.Metrics.Namespace),
	}
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	a.telemetry, err = telemetry.Setup(ctx, telemetry.Config{
		Enabled:     cfg.OTel.Enabled,
		ServiceName: cfg.OTel.ServiceName,
		Environment: cfg.AppEnv,
		Endpoint:    cfg.OTel.Endpoint,
		Insecure:    cfg.OTel.Insecure,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	a.Repository, err = openRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := a.Repository.RunMigrations(ctx, migrations.Files); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrated", "driver", cfg.Database.Driver)
	}

	var catalogCache catalog.Cache
	var locker verify.Locker = verify.NewMemoryLocker()
	if cfg.RedisEnabled() {
		a.Redis = cache.New(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			UseTLS:   cfg.Redis.TLS,
		}, logger)
		if err := a.Redis.Ping(ctx); err != nil {
			logger.Warn("redis ping failed", "error", err)
		}
		catalogCache = a.Redis
		locker = verify.NewRedisLocker(a.Redis, cfg.Verify.LockTTL, logger)
	}

	a.Catalog = catalog.New(a.Repository, catalogCache, cfg.Catalog.CacheTTL, logger, a.Metrics)

	rewards, err := cfg.PackageRewards()
	if err != nil {
		return nil, fmt.Errorf("package rewards: %w", err)
	}
	a.Classifier = mission.NewClassifier(rewards)

	generator, err := newGenerator(ctx, cfg, a.Repository, logger)
	if err != nil {
		return nil, err
	}

	var notifier verify.Notifier
	if opts.WhatsApp && cfg.WhatsApp.Enabled {
		a.WhatsApp, err = wa.New(ctx, wa.Config{
			StorePath: cfg.WhatsApp.StorePath,
			LogLevel:  cfg.WhatsApp.LogLevel,
			Metrics:   a.Metrics,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init whatsapp client: %w", err)
		}
		notifier = wa.NewOrderNotifier(a.WhatsApp, logger)
	}

	a.Verifier = verify.New(a.Repository, a.Catalog, generator, verify.Options{
		Materializer:  mission.NewMaterializer(a.Classifier),
		Locker:        locker,
		Notifier:      notifier,
		AITimeout:     cfg.AI.Timeout,
		MaxAIQuantity: cfg.AI.MaxQuantity,
	}, logger, a.Metrics)
	a.Settlement = settlement.New(a.Repository, logger, a.Metrics)

	return a, nil
}

func openRepository(ctx context.Context, cfg *config.Config, logger *slog.Logger) (repo.Repository, error) {
	switch cfg.Database.Driver {
	case "postgres":
		r, err := repo.New(ctx, cfg.Database.URL, cfg.Database.Schema, logger)
		if err != nil {
			return nil, fmt.Errorf("init postgres repository: %w", err)
		}
		return r, nil
	case "sqlite":
		r, err := repo.NewSQLite(ctx, cfg.Database.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("init sqlite repository: %w", err)
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

func newGenerator(ctx context.Context, cfg *config.Config, tasks aigen.TaskStore, logger *slog.Logger) (aigen.Generator, error) {
	switch cfg.AI.Provider {
	case config.AIProviderEdge:
		return aigen.NewEdgeClient(aigen.EdgeConfig{
			URL:     cfg.AI.EdgeFunctionURL,
			Key:     cfg.AI.EdgeFunctionKey,
			Timeout: cfg.AI.Timeout,
		}, logger), nil
	case config.AIProviderGemini:
		g, err := aigen.NewGeminiGenerator(ctx, cfg.AI.GeminiAPIKey, cfg.AI.GeminiModel, tasks, logger)
		if err != nil {
			return nil, fmt.Errorf("init gemini generator: %w", err)
		}
		return g, nil
	default:
		return aigen.Disabled{}, nil
	}
}

// Serve runs the HTTP API, and the WhatsApp client when wired, until ctx is
// cancelled.
func (a *App) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.WhatsApp != nil {
		go func() {
			if err := a.WhatsApp.Start(ctx); err != nil {
				a.Logger.Error("whatsapp client stopped", "error", err)
			}
		}()
	}

	srv := httpserver.New(a.Config.HTTP.ListenAddr, a.Logger, a.Metrics, httpserver.Dependencies{
		Repository: a.Repository,
		Catalog:    a.Catalog,
		Verifier:   a.Verifier,
		Settlement: a.Settlement,
		Classifier: a.Classifier,
	}, a.Config.HTTP.BasePath)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case <-ctx.Done():
		a.Logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server error: %w", err)
		}
		return nil
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.Logger.Error("http server shutdown error", "error", err)
	}
	return nil
}

// Close releases every resource Build opened. It is safe on a partial App.
func (a *App) Close(ctx context.Context) {
	if a.WhatsApp != nil {
		a.WhatsApp.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Warn("failed closing redis", "error", err)
		}
	}
	if a.Repository != nil {
		a.Repository.Close()
	}
	if err := a.telemetry.Shutdown(ctx); err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Warn("failed flushing traces", "error", err)
	}
}
