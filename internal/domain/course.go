package domain

import (
	"time"

	"github.com/google/uuid"
)

// Course is the persisted course row topics and subtopics attach to.
// The row is created before syncing starts; sync only updates its
// display fields from the external outline.
type Course struct {
	ID                 uuid.UUID
	CourseKey          string // stable external identifier
	Name               string
	CourseOutline      *string
	ExaminationLevelID uuid.UUID
	AcademicClassID    uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// TopicRecord is a persisted topic row, keyed externally by BlockID.
type TopicRecord struct {
	ID                 uuid.UUID
	BlockID            string
	Name               string
	CourseID           uuid.UUID
	ExaminationLevelID uuid.UUID
	AcademicClassID    uuid.UUID
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SubTopicRecord is a persisted subtopic row, keyed externally by BlockID.
type SubTopicRecord struct {
	ID        uuid.UUID
	BlockID   string
	Name      string
	TopicID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SubTopic is one subtopic of an outline snapshot. TopicID references the
// owning topic by identifier; a SubTopic never embeds its Topic.
type SubTopic struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	TopicID string `json:"topic_id"`
}

// Topic is one topic of an outline snapshot, with its child subtopics as a
// convenience view. Ownership is by identifier reference, not containment.
type Topic struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	SubTopics []SubTopic `json:"sub_topics,omitempty"`
}

// CourseStructure is the set-and-mapping skeleton of one outline snapshot:
// topic ids, subtopic ids, and the subtopic→topic parent mapping.
// It is derived from the topic list and never mutated afterwards.
type CourseStructure struct {
	TopicIDs        map[string]struct{}
	SubTopicIDs     map[string]struct{}
	SubTopicParents map[string]string
}

// NewCourseStructure derives the structure skeleton from a topic list.
func NewCourseStructure(topics []Topic) CourseStructure {
	s := CourseStructure{
		TopicIDs:        make(map[string]struct{}, len(topics)),
		SubTopicIDs:     make(map[string]struct{}),
		SubTopicParents: make(map[string]string),
	}
	for _, t := range topics {
		s.TopicIDs[t.ID] = struct{}{}
		for _, st := range t.SubTopics {
			s.SubTopicIDs[st.ID] = struct{}{}
			s.SubTopicParents[st.ID] = st.TopicID
		}
	}
	return s
}

// HasTopic reports whether the topic id is part of this snapshot.
func (s CourseStructure) HasTopic(id string) bool {
	_, ok := s.TopicIDs[id]
	return ok
}

// HasSubTopic reports whether the subtopic id is part of this snapshot.
func (s CourseStructure) HasSubTopic(id string) bool {
	_, ok := s.SubTopicIDs[id]
	return ok
}

// ParentOf returns the owning topic id for a subtopic id.
func (s CourseStructure) ParentOf(subTopicID string) (string, bool) {
	id, ok := s.SubTopicParents[subTopicID]
	return id, ok
}

// TopicCount returns the number of topics in the snapshot.
func (s CourseStructure) TopicCount() int { return len(s.TopicIDs) }

// SubTopicCount returns the number of subtopics in the snapshot.
func (s CourseStructure) SubTopicCount() int { return len(s.SubTopicIDs) }

// Validate checks the structural invariant: every mapped subtopic id must be
// a member of the subtopic set, and every mapped parent must be a known topic.
func (s CourseStructure) Validate() error {
	for subID, topicID := range s.SubTopicParents {
		if !s.HasSubTopic(subID) {
			return NewValidationError("sub_topic_parents", "unknown subtopic id "+subID)
		}
		if !s.HasTopic(topicID) {
			return NewValidationError("sub_topic_parents", "unknown parent topic id "+topicID+" for subtopic "+subID)
		}
	}
	return nil
}

// CourseOutline is one immutable snapshot of a course's topic/subtopic
// hierarchy plus the course-level display fields. A new instance is produced
// per sync cycle; the structure is always derived from Topics so the two
// views cannot drift apart.
type CourseOutline struct {
	CourseID      string  `json:"course_id"`
	Title         string  `json:"title"`
	CourseOutline string  `json:"course_outline"`
	Topics        []Topic `json:"topics"`

	Structure CourseStructure `json:"-"`
}

// NewCourseOutline builds a snapshot and derives its CourseStructure.
func NewCourseOutline(courseID, title, courseOutline string, topics []Topic) CourseOutline {
	return CourseOutline{
		CourseID:      courseID,
		Title:         title,
		CourseOutline: courseOutline,
		Topics:        topics,
		Structure:     NewCourseStructure(topics),
	}
}

// TopicByID returns the topic with the given id from this snapshot.
func (o CourseOutline) TopicByID(id string) (Topic, bool) {
	for _, t := range o.Topics {
		if t.ID == id {
			return t, true
		}
	}
	return Topic{}, false
}

// SubTopicByID returns the subtopic with the given id from this snapshot.
func (o CourseOutline) SubTopicByID(id string) (SubTopic, bool) {
	for _, t := range o.Topics {
		for _, st := range t.SubTopics {
			if st.ID == id {
				return st, true
			}
		}
	}
	return SubTopic{}, false
}
