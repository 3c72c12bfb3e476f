// Package coursesync orchestrates one sync cycle per course: fetch the
// external outline, diff it against the last stored snapshot, apply the
// resulting change operations inside a transaction, and persist the new
// snapshot for the next cycle.
package coursesync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/heartmarshall/coursesync-backend/internal/domain"
	"github.com/heartmarshall/coursesync-backend/internal/transform"
)

// snapshotsToKeep bounds the per-course snapshot history.
const snapshotsToKeep = 10

type courseRepo interface {
	GetByKey(ctx context.Context, courseKey string) (*domain.Course, error)
	List(ctx context.Context) ([]*domain.Course, error)
}

type snapshotRepo interface {
	Save(ctx context.Context, courseID uuid.UUID, outline domain.CourseOutline) error
	Latest(ctx context.Context, courseID uuid.UUID) (*domain.CourseOutline, error)
	Prune(ctx context.Context, courseID uuid.UUID, keep int) (int64, error)
}

type structureFetcher interface {
	FetchCourseStructure(ctx context.Context, courseKey string) (map[string]any, error)
}

type differ interface {
	Diff(previous *domain.CourseOutline, current domain.CourseOutline) []domain.ChangeOperation
}

// BatchProcessor applies one ordered change batch and returns the failed
// subsequence.
type BatchProcessor interface {
	Process(ctx context.Context, changes []domain.ChangeOperation) ([]domain.ChangeOperation, error)
}

// ProcessorFactory builds the processor that applies one batch for the given
// course. A fresh processor is created per cycle so the course context it
// carries is never stale.
type ProcessorFactory func(course *domain.Course) BatchProcessor

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Report summarizes one sync cycle for one course.
type Report struct {
	CourseKey string
	Total     int
	Applied   int
	Failed    []domain.ChangeOperation
}

// Service runs sync cycles. At most one cycle per course runs at a time;
// overlapping requests for the same course return ErrSyncInProgress.
type Service struct {
	log          *slog.Logger
	courses      courseRepo
	snapshots    snapshotRepo
	fetcher      structureFetcher
	differ       differ
	newProcessor ProcessorFactory
	tx           txManager

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// ErrSyncInProgress is returned when a cycle for the course is already
// running.
var ErrSyncInProgress = errors.New("sync already in progress for course")

func New(
	logger *slog.Logger,
	courses courseRepo,
	snapshots snapshotRepo,
	fetcher structureFetcher,
	d differ,
	newProcessor ProcessorFactory,
	tx txManager,
) *Service {
	return &Service{
		log:          logger.With("service", "coursesync"),
		courses:      courses,
		snapshots:    snapshots,
		fetcher:      fetcher,
		differ:       d,
		newProcessor: newProcessor,
		tx:           tx,
		inFlight:     make(map[string]struct{}),
	}
}

// SyncCourse runs one full cycle for the course identified by its external
// key. The change batch runs inside a single transaction; the new snapshot
// is stored in the same transaction only when every operation applied, so a
// cycle with failures is re-diffed against the old snapshot next time and
// the failed operations are replayed.
func (s *Service) SyncCourse(ctx context.Context, courseKey string) (*Report, error) {
	if !s.acquire(courseKey) {
		return nil, fmt.Errorf("course %s: %w", courseKey, ErrSyncInProgress)
	}
	defer s.release(courseKey)

	course, err := s.courses.GetByKey(ctx, courseKey)
	if err != nil {
		return nil, fmt.Errorf("load course %s: %w", courseKey, err)
	}

	doc, err := s.fetcher.FetchCourseStructure(ctx, courseKey)
	if err != nil {
		return nil, fmt.Errorf("fetch structure for %s: %w", courseKey, err)
	}

	current := transform.Outline(doc, courseKey)
	if err := current.Structure.Validate(); err != nil {
		return nil, fmt.Errorf("structure for %s: %w", courseKey, err)
	}
	s.log.DebugContext(ctx, "fetched outline",
		slog.String("course_key", courseKey),
		slog.Int("topics", current.Structure.TopicCount()),
		slog.Int("sub_topics", current.Structure.SubTopicCount()),
	)

	previous, err := s.snapshots.Latest(ctx, course.ID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("load previous snapshot for %s: %w", courseKey, err)
	}

	changes := s.differ.Diff(previous, current)
	if len(changes) == 0 {
		s.log.InfoContext(ctx, "course up to date", slog.String("course_key", courseKey))
		return &Report{CourseKey: courseKey}, nil
	}

	report := &Report{CourseKey: courseKey, Total: len(changes)}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		proc := s.newProcessor(course)

		failed, err := proc.Process(ctx, changes)
		if err != nil {
			return err
		}
		report.Failed = failed
		report.Applied = len(changes) - len(failed)

		if len(failed) > 0 {
			// Keep the old snapshot so the next diff regenerates
			// the failed operations.
			return nil
		}

		if err := s.snapshots.Save(ctx, course.ID, current); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		if _, err := s.snapshots.Prune(ctx, course.ID, snapshotsToKeep); err != nil {
			return fmt.Errorf("prune snapshots: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sync %s: %w", courseKey, err)
	}

	s.log.InfoContext(ctx, "sync cycle finished",
		slog.String("course_key", courseKey),
		slog.Int("total", report.Total),
		slog.Int("applied", report.Applied),
		slog.Int("failed", len(report.Failed)),
	)

	return report, nil
}

// SyncAll runs one cycle for every known course sequentially. A failing
// course is logged and does not stop the remaining courses. Returns the
// per-course reports for the courses that completed.
func (s *Service) SyncAll(ctx context.Context) ([]*Report, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	reports := make([]*Report, 0, len(courses))
	for _, course := range courses {
		if ctx.Err() != nil {
			return reports, ctx.Err()
		}

		report, err := s.SyncCourse(ctx, course.CourseKey)
		if err != nil {
			s.log.ErrorContext(ctx, "course sync failed",
				slog.String("course_key", course.CourseKey),
				slog.String("error", err.Error()),
			)
			continue
		}
		reports = append(reports, report)
	}

	return reports, nil
}

func (s *Service) acquire(courseKey string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.inFlight[courseKey]; ok {
		return false
	}
	s.inFlight[courseKey] = struct{}{}
	return true
}

func (s *Service) release(courseKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inFlight, courseKey)
}
