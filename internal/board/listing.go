package board

import (
	"context"
	"strings"

	"github.com/sujalbistaa/questlog/internal/models"
	"github.com/sujalbistaa/questlog/internal/store"
)

type SortField string

const (
	SortCreatedAt SortField = store.FieldCreatedAt
	SortUpvotes   SortField = store.FieldUpvotes
	SortRating    SortField = store.FieldRating
)

// SortFields lists the fields the listing can be ordered by.
var SortFields = []SortField{SortCreatedAt, SortUpvotes, SortRating}

type Direction string

const (
	Desc Direction = "desc"
	Asc  Direction = "asc"
)

type Sort struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
}

// DefaultSort is newest first.
func DefaultSort() Sort {
	return Sort{Field: SortCreatedAt, Direction: Desc}
}

// Toggle is what selecting field does: the same field flips direction, a
// different field starts descending.
func (s Sort) Toggle(field SortField) Sort {
	if field == s.Field {
		if s.Direction == Asc {
			return Sort{Field: field, Direction: Desc}
		}
		return Sort{Field: field, Direction: Asc}
	}
	return Sort{Field: field, Direction: Desc}
}

func (s Sort) validate() error {
	switch s.Field {
	case SortCreatedAt, SortUpvotes, SortRating:
	default:
		return invalid("sort", "Cannot sort by "+string(s.Field))
	}
	if s.Direction != Asc && s.Direction != Desc {
		return invalid("order", "Sort order must be asc or desc")
	}
	return nil
}

// ListQuery describes what the listing shows. Zero values mean "no filter".
type ListQuery struct {
	Search    string
	Platform  string
	Genre     string
	MinRating int
	Sort      Sort
}

// Matches is the listing filter predicate.
func (q ListQuery) Matches(p *models.Post) bool {
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		inTitle := strings.Contains(strings.ToLower(p.Title), term)
		inGame := p.GameTitle != nil && strings.Contains(strings.ToLower(*p.GameTitle), term)
		if !inTitle && !inGame {
			return false
		}
	}
	if q.Platform != "" && (p.Platform == nil || *p.Platform != q.Platform) {
		return false
	}
	if q.Genre != "" && (p.Genre == nil || *p.Genre != q.Genre) {
		return false
	}
	if q.MinRating > 0 && p.RatingValue() < q.MinRating {
		return false
	}
	return true
}

// Filter returns the posts matching q, keeping their order.
func Filter(posts []models.Post, q ListQuery) []models.Post {
	out := make([]models.Post, 0, len(posts))
	for i := range posts {
		if q.Matches(&posts[i]) {
			out = append(out, posts[i])
		}
	}
	return out
}

// List fetches every post in the requested order and filters in memory.
func (s *Service) List(ctx context.Context, q ListQuery) ([]models.Post, error) {
	if q.Sort == (Sort{}) {
		q.Sort = DefaultSort()
	}
	if err := q.Sort.validate(); err != nil {
		return nil, err
	}
	posts, err := s.store.ListPosts(ctx, store.Order{Field: string(q.Sort.Field), Desc: q.Sort.Direction == Desc})
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	return Filter(posts, q), nil
}
