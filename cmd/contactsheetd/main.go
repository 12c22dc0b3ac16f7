package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/botconversa/contactsheet/internal/config"
	"github.com/botconversa/contactsheet/internal/httpapi"
	"github.com/botconversa/contactsheet/internal/jobs"
	"github.com/botconversa/contactsheet/internal/persistence"
	"github.com/botconversa/contactsheet/internal/pipeline"
	"github.com/botconversa/contactsheet/pkg/log"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal("failed to load configuration: %v", err)
	}

	level := log.ParseLevel(cfg.System.LogLevel)
	if cfg.System.LogFile != "" {
		if err := log.InitFileLogger(cfg.System.LogFile, level); err != nil {
			log.Fatal("failed to open log file: %v", err)
		}
	} else {
		log.InitLogger(level)
	}

	for _, dir := range []string{cfg.Storage.UploadsDir, cfg.Storage.OutputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Fatal("failed to create directory %s: %v", dir, err)
		}
	}

	registry, sqliteReg := selectRegistry(cfg)
	if sqliteReg != nil {
		defer sqliteReg.Close()
	}

	scheduler := cron.New()
	if sqliteReg != nil {
		if _, err := scheduler.AddFunc(cfg.Storage.SweepCron, func() {
			n, err := sqliteReg.PurgeExpired(context.Background())
			if err != nil {
				log.Error("registry sweep failed: %v", err)
				return
			}
			if n > 0 {
				log.Info("registry sweep removed %d expired jobs", n)
			}
		}); err != nil {
			log.Fatal("invalid SWEEP_CRON %q: %v", cfg.Storage.SweepCron, err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	pool := jobs.NewPool(cfg.Workers.Count)
	pool.Start()
	defer pool.Stop()

	processor := pipeline.NewProcessor(registry, cfg.Storage.OutputDir)
	server := httpapi.NewServer(
		registry,
		pool,
		processor,
		cfg.Storage.UploadsDir,
		httpapi.WithMaxUploadBytes(cfg.HTTP.MaxUploadBytes),
	)

	go func() {
		log.Info("server started on %s (registry: %s, workers: %d)", cfg.HTTP.Addr, registry.Name(), cfg.Workers.Count)
		if err := server.ListenAndServe(cfg.HTTP.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed: %v", err)
	}
	log.Info("server stopped")
}

// selectRegistry picks the durable backend when one is configured and
// reachable, otherwise falls back to the in-memory registry. The
// fallback has no expiry and no cross-process visibility, so running
// multiple server processes against it will lose jobs between them.
func selectRegistry(cfg *config.Config) (jobs.Registry, *persistence.SQLiteRegistry) {
	if cfg.Storage.JobDBPath == "" {
		log.Warn("JOB_DB_PATH not set, using in-memory job registry (single process only, no expiry)")
		return jobs.NewMemoryRegistry(), nil
	}

	reg, err := persistence.NewSQLiteRegistry(cfg.Storage.JobDBPath, cfg.Storage.TTL())
	if err != nil {
		log.Warn("durable registry unavailable (%v), using in-memory fallback (single process only, no expiry)", err)
		return jobs.NewMemoryRegistry(), nil
	}
	log.Info("durable job registry at %s (TTL %s)", cfg.Storage.JobDBPath, cfg.Storage.TTL())
	return reg, reg
}
