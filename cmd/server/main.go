// Package main is the entry point for the bq-demo API server. It opens the
// SQLite metastore, runs migrations, connects to BigQuery when configured,
// and serves the metadata and explore API over HTTP.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/robfig/cron/v3"

	"bq-demo/internal/api"
	"bq-demo/internal/app"
	"bq-demo/internal/config"
	internaldb "bq-demo/internal/db"
	"bq-demo/internal/domain"
	"bq-demo/internal/warehouse"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = config.LoadDotEnv(".env")

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)
	for _, w := range cfg.Warnings {
		logger.Warn(w)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	writeDB, readDB, err := internaldb.OpenSQLitePair(cfg.MetaDBPath, 4)
	if err != nil {
		return fmt.Errorf("open metastore: %w", err)
	}
	defer writeDB.Close() //nolint:errcheck
	defer readDB.Close()  //nolint:errcheck

	if err := internaldb.RunMigrations(writeDB); err != nil {
		return fmt.Errorf("migrate metastore: %w", err)
	}
	logger.Info("metastore ready", "path", cfg.MetaDBPath)

	var wh domain.Warehouse
	if cfg.Warehouse.ProjectID != "" {
		bq, err := warehouse.NewBigQueryClient(ctx, warehouse.Options{
			ProjectID:       cfg.Warehouse.ProjectID,
			CredentialsFile: cfg.Warehouse.CredentialsFile,
			QueriesPerSec:   cfg.Warehouse.QueriesPerSec,
			Logger:          logger,
		})
		if err != nil {
			return fmt.Errorf("bigquery client: %w", err)
		}
		defer bq.Close() //nolint:errcheck
		wh = bq
		logger.Info("warehouse connected", "project", cfg.Warehouse.ProjectID)
	}

	application, err := app.New(app.Deps{
		Cfg:       cfg,
		WriteDB:   writeDB,
		ReadDB:    readDB,
		Warehouse: wh,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("wire app: %w", err)
	}

	if cfg.RefreshCron != "" && wh != nil {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.RefreshCron, func() {
			if err := application.Services.Metadata.RefreshAll(ctx); err != nil {
				logger.Error("scheduled refresh failed", "error", err)
			}
		})
		if err != nil {
			return fmt.Errorf("refresh cron %q: %w", cfg.RefreshCron, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
		logger.Info("metadata refresh scheduled", "cron", cfg.RefreshCron)
	}

	handler := api.NewHandler(application.Services.Metadata, application.Services.Explore)
	srv := &http.Server{
		Addr: cfg.ListenAddr,
		Handler: handler.Router(api.RouterOptions{
			RateLimitRPS:       cfg.RateLimitRPS,
			RateLimitBurst:     cfg.RateLimitBurst,
			CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		}),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		<-ctx.Done()
		logger.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("server listening", "addr", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}
