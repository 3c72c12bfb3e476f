// Package subtopic implements the SubTopic repository using PostgreSQL.
// Subtopics are keyed externally by their edX block id and always belong to
// exactly one topic; a parent change is an update of the topic reference.
package subtopic

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/coursesync-backend/internal/adapter/postgres"
	"github.com/heartmarshall/coursesync-backend/internal/domain"
)

// Repo provides subtopic persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new subtopic repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const subTopicColumns = `id, block_id, name, topic_id, created_at, updated_at`

const getByBlockIDSQL = `
SELECT ` + subTopicColumns + `
FROM sub_topics
WHERE block_id = $1`

const insertIfAbsentSQL = `
INSERT INTO sub_topics (block_id, name, topic_id)
VALUES ($1, $2, $3)
ON CONFLICT (block_id) DO NOTHING`

const updateSQL = `
UPDATE sub_topics
SET name = $2, topic_id = $3, updated_at = now()
WHERE block_id = $1`

const deleteByBlockIDSQL = `DELETE FROM sub_topics WHERE block_id = $1`

const listByTopicSQL = `
SELECT ` + subTopicColumns + `
FROM sub_topics
WHERE topic_id = $1
ORDER BY name`

// GetByBlockID returns a subtopic by its external block id.
// Returns domain.ErrNotFound if no subtopic with that block id exists.
func (r *Repo) GetByBlockID(ctx context.Context, blockID string) (*domain.SubTopicRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rec, err := scanSubTopic(q.QueryRow(ctx, getByBlockIDSQL, blockID))
	if err != nil {
		return nil, postgres.MapError(err, "subtopic", blockID)
	}

	return rec, nil
}

// GetOrCreate inserts a subtopic keyed by block id, or returns the existing
// row when one is already present. The boolean reports whether a new row was
// created. Existing rows are returned untouched.
func (r *Repo) GetOrCreate(ctx context.Context, rec domain.SubTopicRecord) (*domain.SubTopicRecord, bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, insertIfAbsentSQL, rec.BlockID, rec.Name, rec.TopicID)
	if err != nil {
		return nil, false, postgres.MapError(err, "subtopic", rec.BlockID)
	}

	stored, err := scanSubTopic(q.QueryRow(ctx, getByBlockIDSQL, rec.BlockID))
	if err != nil {
		return nil, false, postgres.MapError(err, "subtopic", rec.BlockID)
	}

	return stored, tag.RowsAffected() == 1, nil
}

// Update overwrites the display name and owning topic of a subtopic keyed by
// block id. Returns domain.ErrNotFound when the block id is absent.
func (r *Repo) Update(ctx context.Context, blockID, name string, topicID uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, updateSQL, blockID, name, topicID)
	if err != nil {
		return postgres.MapError(err, "subtopic", blockID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subtopic %s: %w", blockID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a subtopic by block id.
// Returns domain.ErrNotFound when the block id is absent.
func (r *Repo) Delete(ctx context.Context, blockID string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, deleteByBlockIDSQL, blockID)
	if err != nil {
		return postgres.MapError(err, "subtopic", blockID)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("subtopic %s: %w", blockID, domain.ErrNotFound)
	}

	return nil
}

// ListByTopic returns the subtopics of a topic ordered by name.
// Returns an empty slice (not nil) when the topic has none.
func (r *Repo) ListByTopic(ctx context.Context, topicID uuid.UUID) ([]*domain.SubTopicRecord, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listByTopicSQL, topicID)
	if err != nil {
		return nil, fmt.Errorf("list subtopics: %w", err)
	}
	defer rows.Close()

	subs := []*domain.SubTopicRecord{}
	for rows.Next() {
		rec, err := scanSubTopic(rows)
		if err != nil {
			return nil, fmt.Errorf("list subtopics: %w", err)
		}
		subs = append(subs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list subtopics: %w", err)
	}

	return subs, nil
}

// scanSubTopic scans a single subtopic row.
func scanSubTopic(row pgx.Row) (*domain.SubTopicRecord, error) {
	var rec domain.SubTopicRecord

	err := row.Scan(&rec.ID, &rec.BlockID, &rec.Name, &rec.TopicID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &rec, nil
}
