// Package diff compares two course outline snapshots and produces the
// ordered list of change operations that turns the previous snapshot into
// the current one.
package diff

import (
	"log/slog"

	"github.com/heartmarshall/coursesync-backend/internal/domain"
)

// Engine computes outline diffs. Stateless apart from its logger; safe for
// concurrent use.
type Engine struct {
	log *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	return &Engine{
		log: logger.With("service", "diff"),
	}
}

// Diff compares previous against current and returns the change operations,
// ordered so that parent entities are created before their children and
// child entities are deleted before their parents:
//
//	course updates, topic creates/updates, subtopic creates/updates,
//	subtopic deletes, topic deletes.
//
// previous is nil on the first sync of a course; then every topic and
// subtopic in current is a CREATE. Neither argument is mutated.
func (e *Engine) Diff(previous *domain.CourseOutline, current domain.CourseOutline) []domain.ChangeOperation {
	var ops []domain.ChangeOperation

	ops = append(ops, e.courseOps(previous, current)...)
	topicCreates, topicUpdates, topicDeletes := e.topicOps(previous, current)
	subCreates, subUpdates, subDeletes := e.subTopicOps(previous, current)

	ops = append(ops, topicCreates...)
	ops = append(ops, topicUpdates...)
	ops = append(ops, subCreates...)
	ops = append(ops, subUpdates...)
	ops = append(ops, subDeletes...)
	ops = append(ops, topicDeletes...)

	e.log.Debug("diff computed",
		slog.String("course_id", current.CourseID),
		slog.Int("operations", len(ops)),
	)

	return ops
}

// courseOps emits at most one UPDATE(COURSE) when the title or the outline
// text changed. On first sync the course row already exists, so nothing is
// emitted.
func (e *Engine) courseOps(previous *domain.CourseOutline, current domain.CourseOutline) []domain.ChangeOperation {
	if previous == nil {
		return nil
	}
	if previous.Title == current.Title && previous.CourseOutline == current.CourseOutline {
		return nil
	}

	return []domain.ChangeOperation{{
		Operation: domain.OperationUpdate,
		Entity:    domain.EntityCourse,
		EntityID:  current.CourseID,
		Data: domain.CourseChangeData{
			Name:          current.Title,
			CourseOutline: current.CourseOutline,
		},
	}}
}

func (e *Engine) topicOps(previous *domain.CourseOutline, current domain.CourseOutline) (creates, updates, deletes []domain.ChangeOperation) {
	// Iterate the topic slices, not the structure sets, so the output
	// order is deterministic and follows document order.
	for _, topic := range current.Topics {
		if previous == nil || !previous.Structure.HasTopic(topic.ID) {
			creates = append(creates, domain.ChangeOperation{
				Operation: domain.OperationCreate,
				Entity:    domain.EntityTopic,
				EntityID:  topic.ID,
				Data:      domain.SubTopicChangeData{Name: topic.Name},
			})
			continue
		}

		prev, ok := previous.TopicByID(topic.ID)
		if ok && prev.Name != topic.Name {
			updates = append(updates, domain.ChangeOperation{
				Operation: domain.OperationUpdate,
				Entity:    domain.EntityTopic,
				EntityID:  topic.ID,
				Data:      domain.SubTopicChangeData{Name: topic.Name},
			})
		}
	}

	if previous != nil {
		for _, topic := range previous.Topics {
			if !current.Structure.HasTopic(topic.ID) {
				deletes = append(deletes, domain.ChangeOperation{
					Operation: domain.OperationDelete,
					Entity:    domain.EntityTopic,
					EntityID:  topic.ID,
				})
			}
		}
	}

	return creates, updates, deletes
}

func (e *Engine) subTopicOps(previous *domain.CourseOutline, current domain.CourseOutline) (creates, updates, deletes []domain.ChangeOperation) {
	for _, topic := range current.Topics {
		for _, sub := range topic.SubTopics {
			if previous == nil || !previous.Structure.HasSubTopic(sub.ID) {
				creates = append(creates, domain.ChangeOperation{
					Operation: domain.OperationCreate,
					Entity:    domain.EntitySubTopic,
					EntityID:  sub.ID,
					Data:      domain.SubTopicChangeData{Name: sub.Name, TopicID: sub.TopicID},
				})
				continue
			}

			prevParent, _ := previous.Structure.ParentOf(sub.ID)
			prev, ok := previous.SubTopicByID(sub.ID)
			if ok && (prev.Name != sub.Name || prevParent != sub.TopicID) {
				// A parent change is an update carrying the new
				// topic id, not a delete/create pair.
				updates = append(updates, domain.ChangeOperation{
					Operation: domain.OperationUpdate,
					Entity:    domain.EntitySubTopic,
					EntityID:  sub.ID,
					Data:      domain.SubTopicChangeData{Name: sub.Name, TopicID: sub.TopicID},
				})
			}
		}
	}

	if previous != nil {
		for _, topic := range previous.Topics {
			for _, sub := range topic.SubTopics {
				if !current.Structure.HasSubTopic(sub.ID) {
					deletes = append(deletes, domain.ChangeOperation{
						Operation: domain.OperationDelete,
						Entity:    domain.EntitySubTopic,
						EntityID:  sub.ID,
					})
				}
			}
		}
	}

	return creates, updates, deletes
}
