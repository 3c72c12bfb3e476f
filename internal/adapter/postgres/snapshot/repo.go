// Package snapshot persists course outline snapshots between sync cycles.
// The latest snapshot of a course is the "previous" side of the next diff;
// a course with no snapshot yet is synced as if from scratch.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/coursesync-backend/internal/adapter/postgres"
	"github.com/heartmarshall/coursesync-backend/internal/domain"
)

// Repo provides outline snapshot persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new snapshot repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const saveSQL = `
INSERT INTO course_outline_snapshots (course_id, payload)
VALUES ($1, $2)`

const latestSQL = `
SELECT payload
FROM course_outline_snapshots
WHERE course_id = $1
ORDER BY created_at DESC, id DESC
LIMIT 1`

const pruneSQL = `
DELETE FROM course_outline_snapshots
WHERE course_id = $1
  AND id NOT IN (
    SELECT id FROM course_outline_snapshots
    WHERE course_id = $1
    ORDER BY created_at DESC, id DESC
    LIMIT $2
  )`

// Save stores an outline snapshot for a course as JSONB.
func (r *Repo) Save(ctx context.Context, courseID uuid.UUID, outline domain.CourseOutline) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	payload, err := json.Marshal(outline)
	if err != nil {
		return fmt.Errorf("marshal outline snapshot: %w", err)
	}

	if _, err := q.Exec(ctx, saveSQL, courseID, payload); err != nil {
		return postgres.MapError(err, "snapshot", courseID.String())
	}

	return nil
}

// Latest returns the most recent outline snapshot of a course. The structure
// skeleton is re-derived from the stored topic list on load.
// Returns domain.ErrNotFound when the course has no snapshot yet.
func (r *Repo) Latest(ctx context.Context, courseID uuid.UUID) (*domain.CourseOutline, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var payload []byte
	if err := q.QueryRow(ctx, latestSQL, courseID).Scan(&payload); err != nil {
		return nil, postgres.MapError(err, "snapshot", courseID.String())
	}

	var stored domain.CourseOutline
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, fmt.Errorf("unmarshal outline snapshot: %w", err)
	}

	outline := domain.NewCourseOutline(stored.CourseID, stored.Title, stored.CourseOutline, stored.Topics)
	return &outline, nil
}

// Prune deletes all but the newest keep snapshots of a course and returns
// the number of rows removed.
func (r *Repo) Prune(ctx context.Context, courseID uuid.UUID, keep int) (int64, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, pruneSQL, courseID, keep)
	if err != nil {
		return 0, postgres.MapError(err, "snapshot", courseID.String())
	}

	return tag.RowsAffected(), nil
}
