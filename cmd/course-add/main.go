// Command course-add registers a course for syncing. Courses are created
// out-of-band; the sync daemon only picks up rows that already exist.
//
// Usage: course-add <course-key> <name> <examination-level-id> <academic-class-id>
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/coursesync-backend/internal/adapter/postgres"
	"github.com/heartmarshall/coursesync-backend/internal/adapter/postgres/course"
	"github.com/heartmarshall/coursesync-backend/internal/app"
	"github.com/heartmarshall/coursesync-backend/internal/config"
	"github.com/heartmarshall/coursesync-backend/internal/domain"
)

func main() {
	if len(os.Args) != 5 {
		fmt.Fprintln(os.Stderr, "usage: course-add <course-key> <name> <examination-level-id> <academic-class-id>")
		os.Exit(1)
	}
	courseKey, name := os.Args[1], os.Args[2]

	examLevelID, err := uuid.Parse(os.Args[3])
	if err != nil {
		log.Fatalf("parse examination-level-id: %v", err)
	}
	classID, err := uuid.Parse(os.Args[4])
	if err != nil {
		log.Fatalf("parse academic-class-id: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	created, err := course.New(pool).Create(ctx, &domain.Course{
		CourseKey:          courseKey,
		Name:               name,
		ExaminationLevelID: examLevelID,
		AcademicClassID:    classID,
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		logger.Error("course already registered", slog.String("course_key", courseKey))
		os.Exit(1)
	}
	if err != nil {
		logger.Error("create course", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("course registered",
		slog.String("id", created.ID.String()),
		slog.String("course_key", created.CourseKey),
	)
}
