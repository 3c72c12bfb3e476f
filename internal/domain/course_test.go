package domain

import (
	"errors"
	"testing"
)

func sampleTopics() []Topic {
	return []Topic{
		{
			ID:   "block-v1:algebra",
			Name: "Algebra",
			SubTopics: []SubTopic{
				{ID: "block-v1:linear-eq", Name: "Linear Equations", TopicID: "block-v1:algebra"},
				{ID: "block-v1:quadratic-eq", Name: "Quadratic Equations", TopicID: "block-v1:algebra"},
			},
		},
		{
			ID:   "block-v1:geometry",
			Name: "Geometry",
			SubTopics: []SubTopic{
				{ID: "block-v1:triangles", Name: "Triangles", TopicID: "block-v1:geometry"},
			},
		},
	}
}

func TestNewCourseStructure(t *testing.T) {
	t.Parallel()

	s := NewCourseStructure(sampleTopics())

	if got := s.TopicCount(); got != 2 {
		t.Errorf("TopicCount: got %d, want 2", got)
	}
	if got := s.SubTopicCount(); got != 3 {
		t.Errorf("SubTopicCount: got %d, want 3", got)
	}
	if !s.HasTopic("block-v1:algebra") {
		t.Error("expected HasTopic(algebra) to be true")
	}
	if s.HasTopic("block-v1:calculus") {
		t.Error("expected HasTopic(calculus) to be false")
	}
	if !s.HasSubTopic("block-v1:triangles") {
		t.Error("expected HasSubTopic(triangles) to be true")
	}

	parent, ok := s.ParentOf("block-v1:linear-eq")
	if !ok || parent != "block-v1:algebra" {
		t.Errorf("ParentOf(linear-eq): got (%q, %v), want (algebra, true)", parent, ok)
	}
	if _, ok := s.ParentOf("block-v1:unknown"); ok {
		t.Error("ParentOf(unknown) should report false")
	}
}

func TestNewCourseStructure_Empty(t *testing.T) {
	t.Parallel()

	s := NewCourseStructure(nil)

	if s.TopicCount() != 0 || s.SubTopicCount() != 0 {
		t.Errorf("empty structure: got %d topics, %d subtopics", s.TopicCount(), s.SubTopicCount())
	}
	if err := s.Validate(); err != nil {
		t.Errorf("empty structure should validate: %v", err)
	}
}

func TestCourseStructure_Validate(t *testing.T) {
	t.Parallel()

	s := NewCourseStructure(sampleTopics())
	if err := s.Validate(); err != nil {
		t.Fatalf("derived structure should validate: %v", err)
	}

	// A parent mapping that references a topic outside the topic set.
	bad := CourseStructure{
		TopicIDs:        map[string]struct{}{"t1": {}},
		SubTopicIDs:     map[string]struct{}{"s1": {}},
		SubTopicParents: map[string]string{"s1": "t9"},
	}
	if err := bad.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for dangling parent, got %v", err)
	}

	// A mapping whose domain is not a member of the subtopic set.
	bad = CourseStructure{
		TopicIDs:        map[string]struct{}{"t1": {}},
		SubTopicIDs:     map[string]struct{}{},
		SubTopicParents: map[string]string{"s1": "t1"},
	}
	if err := bad.Validate(); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for unknown subtopic, got %v", err)
	}
}

func TestCourseOutline_Lookups(t *testing.T) {
	t.Parallel()

	o := NewCourseOutline("course-v1:Math101", "Mathematics", "intro outline", sampleTopics())

	topic, ok := o.TopicByID("block-v1:geometry")
	if !ok || topic.Name != "Geometry" {
		t.Errorf("TopicByID(geometry): got (%+v, %v)", topic, ok)
	}
	if _, ok := o.TopicByID("missing"); ok {
		t.Error("TopicByID(missing) should report false")
	}

	st, ok := o.SubTopicByID("block-v1:quadratic-eq")
	if !ok || st.TopicID != "block-v1:algebra" {
		t.Errorf("SubTopicByID(quadratic-eq): got (%+v, %v)", st, ok)
	}
	if _, ok := o.SubTopicByID("missing"); ok {
		t.Error("SubTopicByID(missing) should report false")
	}

	if o.Structure.TopicCount() != 2 {
		t.Errorf("derived structure: got %d topics, want 2", o.Structure.TopicCount())
	}
}
