package domain

// OperationType is the kind of mutation a change operation performs.
type OperationType string

const (
	OperationCreate OperationType = "CREATE"
	OperationUpdate OperationType = "UPDATE"
	OperationDelete OperationType = "DELETE"
)

func (o OperationType) String() string { return string(o) }

func (o OperationType) IsValid() bool {
	switch o {
	case OperationCreate, OperationUpdate, OperationDelete:
		return true
	}
	return false
}

// EntityType identifies the kind of entity a change operation targets.
type EntityType string

const (
	EntityCourse   EntityType = "COURSE"
	EntityTopic    EntityType = "TOPIC"
	EntitySubTopic EntityType = "SUBTOPIC"
)

func (e EntityType) String() string { return string(e) }

func (e EntityType) IsValid() bool {
	switch e {
	case EntityCourse, EntityTopic, EntitySubTopic:
		return true
	}
	return false
}

// ChangeData is the operation-specific payload of a ChangeOperation.
// The variant must match the entity kind being processed; a mismatch on the
// paths that require a specific variant is a programming error surfaced as
// InvalidChangeDataError, not a per-operation failure.
type ChangeData interface {
	isChangeData()
}

// CourseChangeData carries course-level display fields.
type CourseChangeData struct {
	Name          string
	CourseOutline string
}

func (CourseChangeData) isChangeData() {}

// SubTopicChangeData carries a display name and, for subtopics, the owning
// topic id. Topic operations reuse this variant with an empty TopicID since
// only the name is meaningful for them.
type SubTopicChangeData struct {
	Name    string
	TopicID string
}

func (SubTopicChangeData) isChangeData() {}

// ChangeOperation is a single CREATE/UPDATE/DELETE instruction targeting one
// entity, produced by diffing two outline snapshots. Operations are
// ephemeral: emitted by the diff engine, consumed exactly once by the change
// processor, never persisted.
type ChangeOperation struct {
	Operation OperationType
	Entity    EntityType
	EntityID  string
	Data      ChangeData
}

// DataName returns the display name carried by the payload, regardless of
// variant. Empty when there is no payload.
func (c ChangeOperation) DataName() string {
	switch d := c.Data.(type) {
	case CourseChangeData:
		return d.Name
	case SubTopicChangeData:
		return d.Name
	}
	return ""
}
