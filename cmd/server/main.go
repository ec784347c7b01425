// Package main is the entry point for the EchoGenesis organism service. It
// hosts the quantum affect engine behind a REST and websocket API, persists
// organism state to sqlite, and runs the background snapshot and backup
// jobs.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/suryap3105/EchoGenesis/internal/config"
	"github.com/suryap3105/EchoGenesis/internal/database"
	"github.com/suryap3105/EchoGenesis/internal/events"
	"github.com/suryap3105/EchoGenesis/internal/organism"
	"github.com/suryap3105/EchoGenesis/internal/reliability"
	"github.com/suryap3105/EchoGenesis/internal/scheduler"
	"github.com/suryap3105/EchoGenesis/internal/server"
	"github.com/suryap3105/EchoGenesis/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting EchoGenesis")

	// Organism store.
	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "organisms.db"),
		Name: "organisms",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open organism database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate organism database")
	}

	// Core wiring: bus, repository, service.
	bus := events.NewBus(log)
	repo := organism.NewRepository(db.Conn(), cfg.HistoryLimit, log)
	organisms := organism.NewService(repo, bus, cfg.DefaultStage, log)

	if err := organisms.Restore(); err != nil {
		log.Fatal().Err(err).Msg("Failed to restore organisms")
	}

	// Background jobs.
	sched := scheduler.New(log)
	if err := sched.AddJob(cfg.SnapshotSchedule, scheduler.NewSnapshotJob(organisms, db, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register snapshot job")
	}

	// Off-site backups, only when configured.
	var backupService *reliability.BackupService
	var backupJob *reliability.BackupJob
	if cfg.Backup != nil && cfg.Backup.Enabled {
		s3Client, err := reliability.NewS3Client(context.Background(), cfg.Backup, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}
		backupService = reliability.NewBackupService(s3Client, db, cfg.DataDir, log)
		backupJob = reliability.NewBackupJob(backupService, cfg.Backup.Retention, log)
		if err := sched.AddJob(cfg.Backup.Schedule, backupJob); err != nil {
			log.Fatal().Err(err).Msg("Failed to register backup job")
		}
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("Backups enabled")
	} else {
		log.Info().Msg("Backups disabled (no endpoint or credentials configured)")
	}

	srvCfg := server.Config{
		Log:       log,
		Config:    cfg,
		DB:        db,
		Organisms: organisms,
		Bus:       bus,
		Scheduler: sched,
		Backups:   backupService,
	}
	if backupJob != nil {
		srvCfg.BackupJob = backupJob
	}
	srv := server.New(srvCfg)

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Port).Msg("Server started")

	sched.Start()

	// Wait for interrupt.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	sched.Stop()

	// Final snapshot so nothing evolved since the last tick is lost.
	if err := organisms.Snapshot(); err != nil {
		log.Error().Err(err).Msg("Final snapshot failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
