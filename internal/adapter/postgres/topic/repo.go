// Package topic implements the Topic repository using PostgreSQL.
// Topics are keyed externally by their edX block id; create is idempotent
// so that replaying a change batch never duplicates rows.
package topic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/coursesync-backend/internal/adapter/postgres"
	"github.com/heartmarshall/coursesync-backend/internal/domain"
)

// Repo provides topic persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new topic repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const topicColumns = `id, block_id, name, course_id, examination_level_id, academic_class_id, created_at, updated_at`

const getByBlockIDSQL = `
SELECT ` + topicColumns + `
FROM topics
WHERE block_id = $1`

const insertIfAbsentSQL = `
INSERT INTO topics (block_id, name, course_id, examination_level_id, academic_class_id)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (block_id) DO NOTHING`

const updateNameSQL = `
UPDATE topics
SET name = $2, updated_at = now()
WHERE block_id = $1`

const deleteByBlockIDSQL = `DELETE FROM topics WHERE block_id = $1`

// GetByBlockID returns a topic by its external block id.
// Returns domain.ErrNotFound if no topic with that block id exists.
func (r *Repo) GetByBlockID(ctx context.Context, blockID string) (*domain.TopicRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rec, err := scanTopic(q.QueryRow(ctx, getByBlockIDSQL, blockID))
	if err != nil {
		return nil, postgres.MapError(err, "topic", blockID)
	}

	return rec, nil
}

// GetOrCreate inserts a topic keyed by block id, or returns the existing row
// when one is already present (ON CONFLICT DO NOTHING + re-select). The
// boolean reports whether a new row was created. Existing rows are returned
// untouched — a replayed CREATE never overwrites later edits.
func (r *Repo) GetOrCreate(ctx context.Context, rec domain.TopicRecord) (*domain.TopicRecord, bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, insertIfAbsentSQL,
		rec.BlockID, rec.Name, rec.CourseID, rec.ExaminationLevelID, rec.AcademicClassID)
	if err != nil {
		return nil, false, postgres.MapError(err, "topic", rec.BlockID)
	}

	stored, err := scanTopic(q.QueryRow(ctx, getByBlockIDSQL, rec.BlockID))
	if err != nil {
		return nil, false, postgres.MapError(err, "topic", rec.BlockID)
	}

	return stored, tag.RowsAffected() == 1, nil
}

// UpdateName overwrites the display name of a topic keyed by block id.
// Returns domain.ErrNotFound when the block id is absent.
func (r *Repo) UpdateName(ctx context.Context, blockID, name string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, updateNameSQL, blockID, name)
	if err != nil {
		return postgres.MapError(err, "topic", blockID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topic %s: %w", blockID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a topic by block id. CASCADE removes its subtopics.
// Returns domain.ErrNotFound when the block id is absent.
func (r *Repo) Delete(ctx context.Context, blockID string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, deleteByBlockIDSQL, blockID)
	if err != nil {
		return postgres.MapError(err, "topic", blockID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("topic %s: %w", blockID, domain.ErrNotFound)
	}

	return nil
}

// ListByCourse returns topics of a course matching the filter.
// Returns an empty slice (not nil) when nothing matches.
func (r *Repo) ListByCourse(ctx context.Context, courseID uuid.UUID, f Filter) ([]*domain.TopicRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	sql, args, err := f.toQuery(courseID)
	if err != nil {
		return nil, fmt.Errorf("build topic list query: %w", err)
	}

	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := []*domain.TopicRecord{}
	for rows.Next() {
		rec, err := scanTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("list topics: %w", err)
		}
		topics = append(topics, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}

	return topics, nil
}

// scanTopic scans a single topic row.
func scanTopic(row pgx.Row) (*domain.TopicRecord, error) {
	var rec domain.TopicRecord

	err := row.Scan(&rec.ID, &rec.BlockID, &rec.Name, &rec.CourseID,
		&rec.ExaminationLevelID, &rec.AcademicClassID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}
