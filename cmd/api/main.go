package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"petguard/internal/adapters/storage/blob"
	pg "petguard/internal/adapters/storage/postgres"
	"petguard/internal/platform/config"
	"petguard/internal/platform/logger"
	"petguard/internal/router"
)

const shutdownTimeout = 10 * time.Second

// @title PetGuard API
// @version 1.0
// @description Identificación de mascotas: registro del dueño, página pública por tag y reportes de hallazgo.
// @BasePath /
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(config.LoadOptions{})
	if err != nil {
		logger.NewFromEnv().Error("config load failed", map[string]any{"error": err})
		return 1
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Env.Log.Level),
		Format: logger.ParseFormat(cfg.Env.Log.Format),
		App:    cfg.Env.ServiceName,
	})
	defer func() {
		if s, ok := log.(interface{ Sync() error }); ok {
			_ = s.Sync()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sin DSN corre in-memory (dev).
	var db *sql.DB
	if cfg.Postgres.DSN != "" {
		db, err = pg.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres open failed", map[string]any{"error": err})
			return 1
		}
		defer db.Close()

		if cfg.Postgres.Migrate {
			if err := pg.Migrate(db); err != nil {
				log.Error("migrations failed", map[string]any{"error": err})
				return 1
			}
		}
	}

	photos, err := blob.Open(ctx, cfg.Photos.BucketURL, cfg.Photos.PublicBaseURL)
	if err != nil {
		log.Error("photo bucket open failed", map[string]any{"error": err, "bucket": cfg.Photos.BucketURL})
		return 1
	}
	defer photos.Close()

	h, err := router.NewRouter(router.Options{
		Config: cfg,
		Logger: log,
		DB:     db,
		Photos: photos,
	})
	if err != nil {
		log.Error("router setup failed", map[string]any{"error": err})
		return 1
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadTimeout:       cfg.HTTP.Timeouts.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.Timeouts.ReadHeaderTimeout,
		WriteTimeout:      cfg.HTTP.Timeouts.WriteTimeout,
		IdleTimeout:       cfg.HTTP.Timeouts.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", map[string]any{
			"addr":       srv.Addr,
			"guard_mode": cfg.Guard.Mode,
			"auth":       cfg.Auth.Provider,
			"postgres":   db != nil,
		})
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", map[string]any{"error": err})
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown failed", map[string]any{"error": err})
		return 1
	}
	log.Info("server stopped", nil)
	return 0
}
