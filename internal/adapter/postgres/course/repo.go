// Package course implements the Course repository using PostgreSQL.
// Courses are created out-of-band before syncing starts; sync only reads
// them and updates their display fields, keyed by the external course key.
package course

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/coursesync-backend/internal/adapter/postgres"
	"github.com/heartmarshall/coursesync-backend/internal/domain"
)

// Repo provides course persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new course repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const courseColumns = `id, course_key, name, course_outline, examination_level_id, academic_class_id, created_at, updated_at`

const getByKeySQL = `
SELECT ` + courseColumns + `
FROM courses
WHERE course_key = $1`

const listSQL = `
SELECT ` + courseColumns + `
FROM courses
ORDER BY course_key`

const createSQL = `
INSERT INTO courses (course_key, name, course_outline, examination_level_id, academic_class_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + courseColumns

const updateByKeySQL = `
UPDATE courses
SET name = $2, course_outline = $3, updated_at = now()
WHERE course_key = $1`

const deleteByKeySQL = `DELETE FROM courses WHERE course_key = $1`

// GetByKey returns a course by its stable external key.
// Returns domain.ErrNotFound if no course with that key exists.
func (r *Repo) GetByKey(ctx context.Context, courseKey string) (*domain.Course, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	c, err := scanCourse(q.QueryRow(ctx, getByKeySQL, courseKey))
	if err != nil {
		return nil, postgres.MapError(err, "course", courseKey)
	}

	return c, nil
}

// List returns all courses ordered by course key.
// Returns an empty slice (not nil) when no courses exist.
func (r *Repo) List(ctx context.Context) ([]*domain.Course, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, listSQL)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := []*domain.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("list courses: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	return courses, nil
}

// Create inserts a new course and returns the persisted row.
// Returns domain.ErrAlreadyExists if the course key is taken.
func (r *Repo) Create(ctx context.Context, c *domain.Course) (*domain.Course, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	created, err := scanCourse(q.QueryRow(ctx, createSQL,
		c.CourseKey, c.Name, c.CourseOutline, c.ExaminationLevelID, c.AcademicClassID))
	if err != nil {
		return nil, postgres.MapError(err, "course", c.CourseKey)
	}

	return created, nil
}

// Update overwrites the mutable display fields of a course, keyed by the
// external course key. Returns domain.ErrNotFound when the key is absent.
func (r *Repo) Update(ctx context.Context, courseKey, name, courseOutline string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, updateByKeySQL, courseKey, name, courseOutline)
	if err != nil {
		return postgres.MapError(err, "course", courseKey)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("course %s: %w", courseKey, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a course by its external key. CASCADE removes its topics,
// subtopics, and outline snapshots.
// Returns domain.ErrNotFound when the key is absent.
func (r *Repo) Delete(ctx context.Context, courseKey string) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, deleteByKeySQL, courseKey)
	if err != nil {
		return postgres.MapError(err, "course", courseKey)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("course %s: %w", courseKey, domain.ErrNotFound)
	}

	return nil
}

// scanCourse scans a single course row.
func scanCourse(row pgx.Row) (*domain.Course, error) {
	var (
		c       domain.Course
		outline pgtype.Text
		created time.Time
		updated time.Time
	)

	err := row.Scan(&c.ID, &c.CourseKey, &c.Name, &outline,
		&c.ExaminationLevelID, &c.AcademicClassID, &created, &updated)
	if err != nil {
		return nil, err
	}

	if outline.Valid {
		c.CourseOutline = &outline.String
	}
	c.CreatedAt = created
	c.UpdatedAt = updated

	return &c, nil
}
