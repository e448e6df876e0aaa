package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/diewo77/ecotrim/internal/config"
	"github.com/diewo77/ecotrim/internal/db"
	"github.com/diewo77/ecotrim/internal/logger"
	"github.com/diewo77/ecotrim/internal/metrics"
	"github.com/diewo77/ecotrim/internal/server"
	"github.com/diewo77/ecotrim/internal/settings"
	"github.com/diewo77/ecotrim/view"
)

const shutdownTimeout = 10 * time.Second

// App holds what every command needs: configuration, logger and database.
type App struct {
	cfg *config.Config
	log *zap.Logger
	db  *gorm.DB
}

func bootstrap(ctx context.Context, configPath string) (*App, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	gdb, err := db.Open(ctx, cfg.Database, log)
	if err != nil {
		_ = log.Sync()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &App{cfg: cfg, log: log, db: gdb}, nil
}

func (a *App) migrate() error {
	if err := db.Migrate(a.db, a.cfg.Database, a.cfg.App.Migrations); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	a.log.Info("migrations completed", zap.String("driver", a.cfg.Database.Driver))
	return nil
}

func (a *App) seed() error {
	if err := db.Seed(a.db); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	a.log.Info("seeding completed")
	return nil
}

func (a *App) settingsStore(ctx context.Context) (settings.Store, func(), error) {
	switch a.cfg.Settings.Store {
	case "redis":
		rs, err := settings.NewRedisStore(ctx, settings.RedisConfig{
			Addr:     a.cfg.Settings.RedisAddr,
			Password: a.cfg.Settings.RedisPassword,
			DB:       a.cfg.Settings.RedisDB,
		})
		if err != nil {
			return nil, nil, err
		}
		return rs, func() { _ = rs.Close() }, nil
	default:
		return settings.NewFileStore(a.cfg.Settings.Path), func() {}, nil
	}
}

// Close releases the database pool and flushes the logger.
func (a *App) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.log.Sync()
}

func serve(ctx context.Context, configPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx, configPath)
	if err != nil {
		return err
	}
	defer app.Close()
	cfg := app.cfg

	// AutoMigrate, or the embedded SQL files on postgres when MIGRATIONS=1
	if err := app.migrate(); err != nil {
		return err
	}
	if cfg.App.Seed {
		if err := app.seed(); err != nil {
			return err
		}
	}

	store, closeStore, err := app.settingsStore(ctx)
	if err != nil {
		return fmt.Errorf("settings store: %w", err)
	}
	defer closeStore()
	sp, err := settings.NewProvider(ctx, store)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	view.SetCurrency(cfg.App.Currency)
	handler := server.New(server.Deps{
		DB:       app.db,
		Settings: sp,
		Metrics:  metrics.New(),
		Logger:   app.log,
	})

	read, write, idle := cfg.Server.Timeouts()
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  read,
		WriteTimeout: write,
		IdleTimeout:  idle,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.log.Info("server starting",
			zap.String("addr", srv.Addr),
			zap.Bool("dev", cfg.App.Dev),
			zap.String("db", cfg.Database.Driver),
			zap.String("settings_store", cfg.Settings.Store),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		app.log.Info("shutdown signal received")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		app.log.Info("server stopped gracefully")
		return nil
	})
	return g.Wait()
}
