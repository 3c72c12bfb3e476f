// Command sync-once runs a single sync cycle for one course and exits. It
// is intended for manual runs and external schedulers.
//
// Usage: sync-once <course-key>
//
// Exit codes: 0 = success, 1 = error, 2 = some operations failed.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/coursesync-backend/internal/adapter/postgres"
	"github.com/heartmarshall/coursesync-backend/internal/adapter/postgres/course"
	"github.com/heartmarshall/coursesync-backend/internal/adapter/postgres/topic"
	"github.com/heartmarshall/coursesync-backend/internal/app"
	"github.com/heartmarshall/coursesync-backend/internal/config"
)

func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: sync-once <course-key>")
		os.Exit(1)
	}
	courseKey := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	svc := app.BuildSyncService(cfg, logger, pool)

	report, err := svc.SyncCourse(ctx, courseKey)
	if err != nil {
		logger.Error("sync failed",
			slog.String("course_key", courseKey),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	logger.Info("sync finished",
		slog.String("course_key", courseKey),
		slog.Int("total", report.Total),
		slog.Int("applied", report.Applied),
		slog.Int("failed", len(report.Failed)),
	)

	if len(report.Failed) > 0 {
		for _, op := range report.Failed {
			logger.Warn("operation pending replay",
				slog.String("operation", op.Operation.String()),
				slog.String("entity", op.Entity.String()),
				slog.String("entity_id", op.EntityID),
			)
		}
		os.Exit(2)
	}

	printTopics(ctx, logger, pool, courseKey)
}

// printTopics reports the course's topics after a clean sync so the operator
// can see the resulting state without querying the database by hand.
func printTopics(ctx context.Context, logger *slog.Logger, pool *pgxpool.Pool, courseKey string) {
	c, err := course.New(pool).GetByKey(ctx, courseKey)
	if err != nil {
		logger.Warn("list topics: load course", slog.String("error", err.Error()))
		return
	}

	topics, err := topic.New(pool).ListByCourse(ctx, c.ID, topic.Filter{})
	if err != nil {
		logger.Warn("list topics", slog.String("error", err.Error()))
		return
	}

	for _, t := range topics {
		logger.Info("course topic",
			slog.String("block_id", t.BlockID),
			slog.String("name", t.Name),
		)
	}
}
