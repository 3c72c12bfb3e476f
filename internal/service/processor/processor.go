// Package processor applies an ordered batch of change operations to the
// store. One processor instance handles one batch for one course; it is not
// reused across sync cycles.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/coursesync-backend/internal/config"
	"github.com/heartmarshall/coursesync-backend/internal/domain"
)

type courseRepo interface {
	Update(ctx context.Context, courseKey, name, courseOutline string) error
	Delete(ctx context.Context, courseKey string) error
}

type topicRepo interface {
	GetByBlockID(ctx context.Context, blockID string) (*domain.TopicRecord, error)
	GetOrCreate(ctx context.Context, rec domain.TopicRecord) (*domain.TopicRecord, bool, error)
	UpdateName(ctx context.Context, blockID, name string) error
	Delete(ctx context.Context, blockID string) error
}

type subTopicRepo interface {
	GetOrCreate(ctx context.Context, rec domain.SubTopicRecord) (*domain.SubTopicRecord, bool, error)
	Update(ctx context.Context, blockID, name string, topicID uuid.UUID) error
	Delete(ctx context.Context, blockID string) error
}

// Options controls batch failure semantics and contention retries.
type Options struct {
	// Mode is config.ModeBestEffort or config.ModeStrict. Best effort
	// isolates per-operation failures and returns them for replay; strict
	// aborts on the first failure so the surrounding transaction rolls
	// the whole batch back.
	Mode string
	// RetryAttempts is the number of tries per storage call when the
	// store reports contention. Minimum 1.
	RetryAttempts int
	RetryBackoff  time.Duration
}

// Processor applies change operations for a single course.
type Processor struct {
	log       *slog.Logger
	course    *domain.Course
	courses   courseRepo
	topics    topicRepo
	subTopics subTopicRepo
	opts      Options
}

// New creates a Processor bound to the course whose subtree the batch
// targets. The course supplies the foreign keys attached to newly created
// topics.
func New(
	logger *slog.Logger,
	course *domain.Course,
	courses courseRepo,
	topics topicRepo,
	subTopics subTopicRepo,
	opts Options,
) *Processor {
	if opts.Mode == "" {
		opts.Mode = config.ModeBestEffort
	}
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 1
	}

	return &Processor{
		log:       logger.With("service", "processor", "course_key", course.CourseKey),
		course:    course,
		courses:   courses,
		topics:    topics,
		subTopics: subTopics,
		opts:      opts,
	}
}

// Process applies the batch in order and returns the operations that failed,
// in their original relative order.
//
// In best-effort mode a failed operation is recorded and iteration
// continues; the caller replays the returned operations next cycle. In
// strict mode the first failure aborts with an error so the caller's
// transaction rolls back everything.
//
// Two conditions escape the per-operation isolation in both modes: a payload
// whose variant does not match the entity kind aborts the batch with an
// InvalidChangeDataError, and storage contention that survives the retry
// budget marks the current and all remaining operations failed, since the
// store is unlikely to recover within this cycle.
func (p *Processor) Process(ctx context.Context, changes []domain.ChangeOperation) ([]domain.ChangeOperation, error) {
	var failed []domain.ChangeOperation

	for i, op := range changes {
		err := p.withRetry(ctx, func() error {
			return p.apply(ctx, op)
		})
		if err == nil {
			continue
		}

		var invalidData *domain.InvalidChangeDataError
		if errors.As(err, &invalidData) {
			return nil, fmt.Errorf("apply %s %s %s: %w",
				op.Operation, op.Entity, op.EntityID, err)
		}

		if errors.Is(err, domain.ErrContention) {
			p.log.WarnContext(ctx, "storage contention, abandoning batch",
				slog.String("operation", op.Operation.String()),
				slog.String("entity", op.Entity.String()),
				slog.String("entity_id", op.EntityID),
				slog.Int("remaining", len(changes)-i),
			)
			if p.opts.Mode == config.ModeStrict {
				return nil, fmt.Errorf("apply %s %s %s: %w",
					op.Operation, op.Entity, op.EntityID, err)
			}
			// Mark everything not yet applied as failed so the
			// caller replays it next cycle.
			failed = append(failed, changes[i:]...)
			return failed, nil
		}

		if p.opts.Mode == config.ModeStrict {
			return nil, fmt.Errorf("apply %s %s %s: %w",
				op.Operation, op.Entity, op.EntityID, err)
		}

		p.log.ErrorContext(ctx, "operation failed",
			slog.String("operation", op.Operation.String()),
			slog.String("entity", op.Entity.String()),
			slog.String("entity_id", op.EntityID),
			slog.String("error", err.Error()),
		)
		failed = append(failed, op)
	}

	return failed, nil
}

func (p *Processor) apply(ctx context.Context, op domain.ChangeOperation) error {
	switch op.Operation {
	case domain.OperationCreate:
		return p.applyCreate(ctx, op)
	case domain.OperationUpdate:
		return p.applyUpdate(ctx, op)
	case domain.OperationDelete:
		return p.applyDelete(ctx, op)
	}
	return fmt.Errorf("unsupported operation %q", op.Operation)
}

func (p *Processor) applyCreate(ctx context.Context, op domain.ChangeOperation) error {
	switch op.Entity {
	case domain.EntityTopic:
		_, created, err := p.topics.GetOrCreate(ctx, domain.TopicRecord{
			BlockID:            op.EntityID,
			Name:               op.DataName(),
			CourseID:           p.course.ID,
			ExaminationLevelID: p.course.ExaminationLevelID,
			AcademicClassID:    p.course.AcademicClassID,
		})
		if err != nil {
			return err
		}
		if !created {
			p.log.DebugContext(ctx, "topic already exists",
				slog.String("block_id", op.EntityID))
		}
		return nil

	case domain.EntitySubTopic:
		data, ok := op.Data.(domain.SubTopicChangeData)
		if !ok {
			return domain.NewInvalidChangeDataError("SubTopicChangeData", op.Data, "creating subtopic")
		}
		parent, err := p.topics.GetByBlockID(ctx, data.TopicID)
		if err != nil {
			return fmt.Errorf("resolve parent topic %s: %w", data.TopicID, err)
		}
		_, _, err = p.subTopics.GetOrCreate(ctx, domain.SubTopicRecord{
			BlockID: op.EntityID,
			Name:    data.Name,
			TopicID: parent.ID,
		})
		return err
	}

	return fmt.Errorf("unsupported entity %q for CREATE", op.Entity)
}

func (p *Processor) applyUpdate(ctx context.Context, op domain.ChangeOperation) error {
	switch op.Entity {
	case domain.EntityCourse:
		data, ok := op.Data.(domain.CourseChangeData)
		if !ok {
			return domain.NewInvalidChangeDataError("CourseChangeData", op.Data, "updating course")
		}
		return p.courses.Update(ctx, p.course.CourseKey, data.Name, data.CourseOutline)

	case domain.EntityTopic:
		return p.topics.UpdateName(ctx, op.EntityID, op.DataName())

	case domain.EntitySubTopic:
		data, ok := op.Data.(domain.SubTopicChangeData)
		if !ok {
			return domain.NewInvalidChangeDataError("SubTopicChangeData", op.Data, "updating subtopic")
		}
		parent, err := p.topics.GetByBlockID(ctx, data.TopicID)
		if err != nil {
			return fmt.Errorf("resolve parent topic %s: %w", data.TopicID, err)
		}
		return p.subTopics.Update(ctx, op.EntityID, data.Name, parent.ID)
	}

	return fmt.Errorf("unsupported entity %q for UPDATE", op.Entity)
}

// applyDelete removes an entity. An already-absent entity is success, not a
// failure: deletes are idempotent the same way creates are, so a batch
// replayed after a partial failure converges instead of reporting phantom
// failures for deletes that already went through.
func (p *Processor) applyDelete(ctx context.Context, op domain.ChangeOperation) error {
	var err error
	switch op.Entity {
	case domain.EntityCourse:
		err = p.courses.Delete(ctx, p.course.CourseKey)
	case domain.EntityTopic:
		// Subtopic rows cascade at the storage layer.
		err = p.topics.Delete(ctx, op.EntityID)
	case domain.EntitySubTopic:
		err = p.subTopics.Delete(ctx, op.EntityID)
	default:
		return fmt.Errorf("unsupported entity %q for DELETE", op.Entity)
	}

	if errors.Is(err, domain.ErrNotFound) {
		p.log.DebugContext(ctx, "entity already absent",
			slog.String("entity", op.Entity.String()),
			slog.String("entity_id", op.EntityID),
		)
		return nil
	}
	return err
}

// withRetry runs fn, retrying on storage contention up to the configured
// attempt budget with a linear backoff.
func (p *Processor) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 1; attempt <= p.opts.RetryAttempts; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, domain.ErrContention) {
			return err
		}
		if attempt == p.opts.RetryAttempts {
			break
		}

		p.log.WarnContext(ctx, "storage contention, retrying",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", p.opts.RetryAttempts),
		)

		select {
		case <-time.After(p.opts.RetryBackoff * time.Duration(attempt)):
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		}
	}
	return err
}
