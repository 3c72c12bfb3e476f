// Package transform maps the raw edX course structure document into the
// internal outline snapshot model. The mapping is pure and tolerant: missing
// or malformed nesting yields empty collections, never an error, so a broken
// payload surfaces as an empty outline rather than a failed cycle.
package transform

import "github.com/heartmarshall/coursesync-backend/internal/domain"

// Document field names in the raw edX payload.
const (
	fieldCourseStructure = "course_structure"
	fieldChildInfo       = "child_info"
	fieldChildren        = "children"
	fieldID              = "id"
	fieldDisplayName     = "display_name"
	fieldHasChildren     = "has_children"
	fieldCourseOutline   = "course_outline"
)

// Outline builds a complete outline snapshot from a raw course document in a
// single pass. Title and outline text are read from the document's top-level
// display fields; entries without an id are skipped.
func Outline(doc map[string]any, courseID string) domain.CourseOutline {
	return domain.NewCourseOutline(
		courseID,
		stringField(doc, fieldDisplayName),
		stringField(doc, fieldCourseOutline),
		TopicList(doc),
	)
}

// Structure extracts only the set-and-mapping skeleton from a raw document.
func Structure(doc map[string]any) domain.CourseStructure {
	return domain.NewCourseStructure(TopicList(doc))
}

// TopicList extracts the topic list (with child subtopics) from a raw document.
func TopicList(doc map[string]any) []domain.Topic {
	children := courseChildren(doc)

	topics := make([]domain.Topic, 0, len(children))
	for _, raw := range children {
		topicData, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		topicID := stringField(topicData, fieldID)
		if topicID == "" {
			continue
		}

		topics = append(topics, domain.Topic{
			ID:        topicID,
			Name:      stringField(topicData, fieldDisplayName),
			SubTopics: subTopicsOf(topicData, topicID),
		})
	}

	return topics
}

// courseChildren digs out course_structure.child_info.children.
// Any break in the nesting yields nil.
func courseChildren(doc map[string]any) []any {
	structure, ok := doc[fieldCourseStructure].(map[string]any)
	if !ok {
		return nil
	}
	return childList(structure)
}

// childList digs out child_info.children of a node.
func childList(node map[string]any) []any {
	childInfo, ok := node[fieldChildInfo].(map[string]any)
	if !ok {
		return nil
	}
	children, ok := childInfo[fieldChildren].([]any)
	if !ok {
		return nil
	}
	return children
}

// subTopicsOf maps the children of a topic node; entries without an id are
// skipped. The topic is descended into only when it carries a truthy
// has_children flag; a node without the flag has no subtopics even if a
// children list is present.
func subTopicsOf(topicData map[string]any, topicID string) []domain.SubTopic {
	if has, ok := topicData[fieldHasChildren].(bool); !ok || !has {
		return nil
	}

	children := childList(topicData)
	if len(children) == 0 {
		return nil
	}

	subs := make([]domain.SubTopic, 0, len(children))
	for _, raw := range children {
		subData, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		subID := stringField(subData, fieldID)
		if subID == "" {
			continue
		}

		subs = append(subs, domain.SubTopic{
			ID:      subID,
			Name:    stringField(subData, fieldDisplayName),
			TopicID: topicID,
		})
	}

	if len(subs) == 0 {
		return nil
	}
	return subs
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
