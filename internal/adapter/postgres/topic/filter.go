package topic

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Filter defines parameters for listing a course's topics.
type Filter struct {
	// Search performs ILIKE '%...%' on name. nil or empty means no filter.
	Search *string

	// SortBy determines the sort column: "name" or "created_at".
	// Default: "name".
	SortBy string

	// SortOrder: "ASC" or "DESC". Default: "ASC".
	SortOrder string

	// Limit is the maximum number of topics to return. 0 means no limit.
	Limit uint64
}

const (
	sortByName      = "name"
	sortByCreatedAt = "created_at"

	sortOrderASC  = "ASC"
	sortOrderDESC = "DESC"
)

// normalize applies defaults.
func (f *Filter) normalize() {
	switch f.SortBy {
	case sortByName, sortByCreatedAt:
	default:
		f.SortBy = sortByName
	}

	switch f.SortOrder {
	case sortOrderASC, sortOrderDESC:
	default:
		f.SortOrder = sortOrderASC
	}
}

// toQuery builds the SELECT for this filter.
func (f Filter) toQuery(courseID uuid.UUID) (string, []any, error) {
	f.normalize()

	b := sq.Select("id", "block_id", "name", "course_id",
		"examination_level_id", "academic_class_id", "created_at", "updated_at").
		From("topics").
		Where(sq.Eq{"course_id": courseID}).
		OrderBy(f.SortBy + " " + f.SortOrder).
		PlaceholderFormat(sq.Dollar)

	if f.Search != nil && *f.Search != "" {
		b = b.Where(sq.ILike{"name": "%" + *f.Search + "%"})
	}
	if f.Limit > 0 {
		b = b.Limit(f.Limit)
	}

	return b.ToSql()
}
