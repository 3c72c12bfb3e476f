package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/coursesync-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedCourse creates an examination level, an academic class, and a course
// attached to both. Returns the filled domain.Course.
func SeedCourse(t *testing.T, pool *pgxpool.Pool) domain.Course {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)

	examLevelID := uuid.New()
	_, err := pool.Exec(ctx,
		`INSERT INTO examination_levels (id, name) VALUES ($1, $2)`,
		examLevelID, "O-Level "+suffix,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCourse insert examination_level: %v", err)
	}

	classID := uuid.New()
	_, err = pool.Exec(ctx,
		`INSERT INTO academic_classes (id, name) VALUES ($1, $2)`,
		classID, "Form "+suffix,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCourse insert academic_class: %v", err)
	}

	course := domain.Course{
		ID:                 uuid.New(),
		CourseKey:          "course-v1:Test+" + suffix,
		Name:               "Test Course " + suffix,
		ExaminationLevelID: examLevelID,
		AcademicClassID:    classID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO courses (id, course_key, name, examination_level_id, academic_class_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		course.ID, course.CourseKey, course.Name,
		course.ExaminationLevelID, course.AcademicClassID, course.CreatedAt, course.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCourse insert course: %v", err)
	}

	return course
}

// SeedTopic creates a topic row attached to the given course.
func SeedTopic(t *testing.T, pool *pgxpool.Pool, course domain.Course, name string) domain.TopicRecord {
	t.Helper()
	ctx := context.Background()

	rec := domain.TopicRecord{
		ID:                 uuid.New(),
		BlockID:            "block-v1:topic-" + uniqueSuffix(),
		Name:               name,
		CourseID:           course.ID,
		ExaminationLevelID: course.ExaminationLevelID,
		AcademicClassID:    course.AcademicClassID,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO topics (id, block_id, name, course_id, examination_level_id, academic_class_id)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.BlockID, rec.Name, rec.CourseID, rec.ExaminationLevelID, rec.AcademicClassID,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedTopic insert: %v", err)
	}

	return rec
}

// SeedSubTopic creates a subtopic row attached to the given topic.
func SeedSubTopic(t *testing.T, pool *pgxpool.Pool, topic domain.TopicRecord, name string) domain.SubTopicRecord {
	t.Helper()
	ctx := context.Background()

	rec := domain.SubTopicRecord{
		ID:      uuid.New(),
		BlockID: "block-v1:sub-" + uniqueSuffix(),
		Name:    name,
		TopicID: topic.ID,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO sub_topics (id, block_id, name, topic_id) VALUES ($1, $2, $3, $4)`,
		rec.ID, rec.BlockID, rec.Name, rec.TopicID,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedSubTopic insert: %v", err)
	}

	return rec
}
