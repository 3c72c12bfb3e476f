package domain

import "testing"

func TestOperationType_IsValid(t *testing.T) {
	t.Parallel()

	for _, op := range []OperationType{OperationCreate, OperationUpdate, OperationDelete} {
		if !op.IsValid() {
			t.Errorf("%s should be valid", op)
		}
	}
	if OperationType("MOVE").IsValid() {
		t.Error("MOVE should not be valid")
	}
}

func TestEntityType_IsValid(t *testing.T) {
	t.Parallel()

	for _, e := range []EntityType{EntityCourse, EntityTopic, EntitySubTopic} {
		if !e.IsValid() {
			t.Errorf("%s should be valid", e)
		}
	}
	if EntityType("UNIT").IsValid() {
		t.Error("UNIT should not be valid")
	}
}

func TestChangeOperation_DataName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		op   ChangeOperation
		want string
	}{
		{
			name: "course payload",
			op:   ChangeOperation{Data: CourseChangeData{Name: "Mathematics", CourseOutline: "o"}},
			want: "Mathematics",
		},
		{
			name: "subtopic payload",
			op:   ChangeOperation{Data: SubTopicChangeData{Name: "Linear Equations", TopicID: "t1"}},
			want: "Linear Equations",
		},
		{
			name: "no payload",
			op:   ChangeOperation{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.op.DataName(); got != tt.want {
				t.Errorf("DataName: got %q, want %q", got, tt.want)
			}
		})
	}
}
