package diff

import (
	"io"
	"log/slog"
	"testing"

	"github.com/heartmarshall/coursesync-backend/internal/domain"
)

func newEngine() *Engine {
	return NewEngine(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func outline(courseID, title, text string, topics []domain.Topic) domain.CourseOutline {
	return domain.NewCourseOutline(courseID, title, text, topics)
}

func algebraTopics() []domain.Topic {
	return []domain.Topic{
		{
			ID:   "block-t1",
			Name: "Algebra",
			SubTopics: []domain.SubTopic{
				{ID: "block-s1", Name: "Linear Equations", TopicID: "block-t1"},
				{ID: "block-s2", Name: "Quadratic Equations", TopicID: "block-t1"},
			},
		},
		{
			ID:   "block-t2",
			Name: "Geometry",
			SubTopics: []domain.SubTopic{
				{ID: "block-s3", Name: "Triangles", TopicID: "block-t2"},
			},
		},
	}
}

func opKey(op domain.ChangeOperation) string {
	return op.Operation.String() + "/" + op.Entity.String() + "/" + op.EntityID
}

func indexOf(t *testing.T, ops []domain.ChangeOperation, key string) int {
	t.Helper()
	for i, op := range ops {
		if opKey(op) == key {
			return i
		}
	}
	t.Fatalf("operation %s not found in %v", key, keys(ops))
	return -1
}

func keys(ops []domain.ChangeOperation) []string {
	out := make([]string, len(ops))
	for i, op := range ops {
		out[i] = opKey(op)
	}
	return out
}

func TestEngine_Diff_FirstSync(t *testing.T) {
	t.Parallel()

	curr := outline("course-1", "Math", "outline", algebraTopics())

	ops := newEngine().Diff(nil, curr)

	want := []string{
		"CREATE/TOPIC/block-t1",
		"CREATE/TOPIC/block-t2",
		"CREATE/SUBTOPIC/block-s1",
		"CREATE/SUBTOPIC/block-s2",
		"CREATE/SUBTOPIC/block-s3",
	}
	got := keys(ops)
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	// Parent topic creates precede their child subtopic creates.
	for _, op := range ops {
		if op.Entity != domain.EntitySubTopic {
			continue
		}
		data, ok := op.Data.(domain.SubTopicChangeData)
		if !ok {
			t.Fatalf("subtopic create carries %T", op.Data)
		}
		parentIdx := indexOf(t, ops, "CREATE/TOPIC/"+data.TopicID)
		childIdx := indexOf(t, ops, opKey(op))
		if parentIdx > childIdx {
			t.Errorf("subtopic %s created before its topic %s", op.EntityID, data.TopicID)
		}
	}
}

func TestEngine_Diff_Identical(t *testing.T) {
	t.Parallel()

	prev := outline("course-1", "Math", "outline", algebraTopics())
	curr := outline("course-1", "Math", "outline", algebraTopics())

	if ops := newEngine().Diff(&prev, curr); len(ops) != 0 {
		t.Errorf("diff of identical outlines = %v, want empty", keys(ops))
	}
}

func TestEngine_Diff_CourseFieldsChanged(t *testing.T) {
	t.Parallel()

	prev := outline("course-1", "Math", "outline", algebraTopics())
	curr := outline("course-1", "Mathematics", "new outline", algebraTopics())

	ops := newEngine().Diff(&prev, curr)
	if len(ops) != 1 {
		t.Fatalf("ops = %v, want single course update", keys(ops))
	}

	op := ops[0]
	if op.Operation != domain.OperationUpdate || op.Entity != domain.EntityCourse {
		t.Fatalf("op = %s", opKey(op))
	}
	data, ok := op.Data.(domain.CourseChangeData)
	if !ok {
		t.Fatalf("data is %T, want CourseChangeData", op.Data)
	}
	if data.Name != "Mathematics" || data.CourseOutline != "new outline" {
		t.Errorf("data = %+v", data)
	}
}

func TestEngine_Diff_TopicRenamed(t *testing.T) {
	t.Parallel()

	prev := outline("course-1", "Math", "outline", []domain.Topic{
		{ID: "block-t1", Name: "Algebra"},
	})
	curr := outline("course-1", "Math", "outline", []domain.Topic{
		{ID: "block-t1", Name: "Algebra II"},
	})

	ops := newEngine().Diff(&prev, curr)
	if len(ops) != 1 {
		t.Fatalf("ops = %v, want single topic update", keys(ops))
	}
	if opKey(ops[0]) != "UPDATE/TOPIC/block-t1" {
		t.Fatalf("op = %s", opKey(ops[0]))
	}
	if ops[0].DataName() != "Algebra II" {
		t.Errorf("name = %s, want Algebra II", ops[0].DataName())
	}
}

func TestEngine_Diff_TopicRemoved_SubTopicsDeletedFirst(t *testing.T) {
	t.Parallel()

	prev := outline("course-1", "Math", "outline", algebraTopics())
	curr := outline("course-1", "Math", "outline", []domain.Topic{
		{
			ID:   "block-t2",
			Name: "Geometry",
			SubTopics: []domain.SubTopic{
				{ID: "block-s3", Name: "Triangles", TopicID: "block-t2"},
			},
		},
	})

	ops := newEngine().Diff(&prev, curr)

	topicDel := indexOf(t, ops, "DELETE/TOPIC/block-t1")
	for _, sub := range []string{"block-s1", "block-s2"} {
		if subDel := indexOf(t, ops, "DELETE/SUBTOPIC/"+sub); subDel > topicDel {
			t.Errorf("subtopic %s deleted after its topic", sub)
		}
	}
}

func TestEngine_Diff_SubTopicParentChanged(t *testing.T) {
	t.Parallel()

	prev := outline("course-1", "Math", "outline", []domain.Topic{
		{ID: "block-t1", Name: "Algebra", SubTopics: []domain.SubTopic{
			{ID: "block-s1", Name: "Linear Equations", TopicID: "block-t1"},
		}},
		{ID: "block-t2", Name: "Geometry"},
	})
	curr := outline("course-1", "Math", "outline", []domain.Topic{
		{ID: "block-t1", Name: "Algebra"},
		{ID: "block-t2", Name: "Geometry", SubTopics: []domain.SubTopic{
			{ID: "block-s1", Name: "Linear Equations", TopicID: "block-t2"},
		}},
	})

	ops := newEngine().Diff(&prev, curr)
	if len(ops) != 1 {
		t.Fatalf("ops = %v, want single subtopic update", keys(ops))
	}
	if opKey(ops[0]) != "UPDATE/SUBTOPIC/block-s1" {
		t.Fatalf("op = %s", opKey(ops[0]))
	}
	data := ops[0].Data.(domain.SubTopicChangeData)
	if data.TopicID != "block-t2" {
		t.Errorf("topic id = %s, want block-t2", data.TopicID)
	}
}

func TestEngine_Diff_MixedBatchOrdering(t *testing.T) {
	t.Parallel()

	prev := outline("course-1", "Math", "outline", []domain.Topic{
		{ID: "block-t1", Name: "Algebra", SubTopics: []domain.SubTopic{
			{ID: "block-s1", Name: "Linear Equations", TopicID: "block-t1"},
		}},
	})
	curr := outline("course-1", "Math v2", "outline", []domain.Topic{
		{ID: "block-t2", Name: "Geometry", SubTopics: []domain.SubTopic{
			{ID: "block-s2", Name: "Triangles", TopicID: "block-t2"},
		}},
	})

	ops := newEngine().Diff(&prev, curr)

	want := []string{
		"UPDATE/COURSE/course-1",
		"CREATE/TOPIC/block-t2",
		"CREATE/SUBTOPIC/block-s2",
		"DELETE/SUBTOPIC/block-s1",
		"DELETE/TOPIC/block-t1",
	}
	got := keys(ops)
	if len(got) != len(want) {
		t.Fatalf("ops = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("ops[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestEngine_Diff_DoesNotMutateArguments(t *testing.T) {
	t.Parallel()

	prev := outline("course-1", "Math", "outline", algebraTopics())
	curr := outline("course-1", "Math v2", "outline", algebraTopics()[:1])

	prevTopics := len(prev.Topics)
	currTopics := len(curr.Topics)

	newEngine().Diff(&prev, curr)

	if len(prev.Topics) != prevTopics || len(curr.Topics) != currTopics {
		t.Error("diff mutated its arguments")
	}
}
