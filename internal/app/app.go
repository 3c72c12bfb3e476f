package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/coursesync-backend/internal/adapter/edx"
	"github.com/heartmarshall/coursesync-backend/internal/adapter/postgres"
	"github.com/heartmarshall/coursesync-backend/internal/adapter/postgres/course"
	"github.com/heartmarshall/coursesync-backend/internal/adapter/postgres/snapshot"
	"github.com/heartmarshall/coursesync-backend/internal/adapter/postgres/subtopic"
	"github.com/heartmarshall/coursesync-backend/internal/adapter/postgres/topic"
	"github.com/heartmarshall/coursesync-backend/internal/config"
	"github.com/heartmarshall/coursesync-backend/internal/domain"
	"github.com/heartmarshall/coursesync-backend/internal/service/coursesync"
	"github.com/heartmarshall/coursesync-backend/internal/service/diff"
	"github.com/heartmarshall/coursesync-backend/internal/service/processor"
)

// Run is the daemon entry point. It loads configuration, connects to the
// database, wires the sync pipeline, and runs sync cycles for every course
// on the configured interval until ctx is cancelled.
func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log)

	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("sync_mode", cfg.Sync.Mode),
		slog.Duration("sync_interval", cfg.Sync.Interval),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	svc := BuildSyncService(cfg, logger, pool)

	ticker := time.NewTicker(cfg.Sync.Interval)
	defer ticker.Stop()

	for {
		runCycle(ctx, logger, svc)

		select {
		case <-ticker.C:
		case <-ctx.Done():
			logger.Info("shutting down")
			return nil
		}
	}
}

// BuildSyncService wires the repositories, the external client, the diff
// engine, and the processor factory into a ready sync service. Shared with
// the one-shot command.
func BuildSyncService(cfg *config.Config, logger *slog.Logger, pool *pgxpool.Pool) *coursesync.Service {
	courseRepo := course.New(pool)
	topicRepo := topic.New(pool)
	subTopicRepo := subtopic.New(pool)
	snapshotRepo := snapshot.New(pool)
	txManager := postgres.NewTxManager(pool)

	edxClient := edx.NewClient(cfg.Edx, logger)
	differ := diff.NewEngine(logger)

	factory := func(c *domain.Course) coursesync.BatchProcessor {
		return processor.New(logger, c, courseRepo, topicRepo, subTopicRepo, processor.Options{
			Mode:          cfg.Sync.Mode,
			RetryAttempts: cfg.Sync.RetryAttempts,
			RetryBackoff:  cfg.Sync.RetryBackoff,
		})
	}

	return coursesync.New(logger, courseRepo, snapshotRepo, edxClient, differ, factory, txManager)
}

func runCycle(ctx context.Context, logger *slog.Logger, svc *coursesync.Service) {
	reports, err := svc.SyncAll(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("sync cycle failed", slog.String("error", err.Error()))
		return
	}

	var total, applied, failed int
	for _, r := range reports {
		total += r.Total
		applied += r.Applied
		failed += len(r.Failed)
	}

	logger.Info("sync cycle finished",
		slog.Int("courses", len(reports)),
		slog.Int("operations", total),
		slog.Int("applied", applied),
		slog.Int("failed", failed),
	)
}
