package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/carevia/carevia-api/internal/repository"
	"github.com/carevia/carevia-api/internal/service"
	"github.com/carevia/carevia-api/pkg/config"
	"github.com/carevia/carevia-api/pkg/database"
	"github.com/carevia/carevia-api/pkg/logger"
)

// sweepActor marks rows cancelled by this process rather than a user.
const sweepActor = "expiry-worker"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	appointmentSvc := service.NewAppointmentService(repository.NewAppointmentRepository(db), logr)

	logr.Info("expiry worker starting", zap.Duration("interval", cfg.Sweeper.Interval))

	// Sweep once at startup so a freshly deployed worker catches up
	// immediately instead of waiting a full interval.
	runOnce(rootCtx, appointmentSvc, logr)

	ticker := time.NewTicker(cfg.Sweeper.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logr.Info("shutdown signal received, stopping expiry worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, appointmentSvc, logr)
		}
	}
}

func runOnce(ctx context.Context, svc *service.AppointmentService, logr *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	start := time.Now()
	expired, err := svc.ExpirePast(runCtx, sweepActor)
	if err != nil {
		logr.Error("expiry sweep failed", zap.Error(err))
		return
	}
	logr.Info("expiry sweep complete",
		zap.Int("expired", expired),
		zap.Duration("took", time.Since(start)))
}
