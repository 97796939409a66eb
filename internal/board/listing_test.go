package board

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/sujalbistaa/questlog/internal/models"
)

func sp(s string) *string { return &s }
func ip(n int) *int       { return &n }

var fixture = []models.Post{
	{ID: 1, Title: "Hollow Knight review", GameTitle: sp("Hollow Knight"), Platform: sp("Nintendo Switch"), Genre: sp("Indie"), Rating: ip(9)},
	{ID: 2, Title: "My weekend", GameTitle: sp("Hades"), Platform: sp("PC"), Genre: sp("Action"), Rating: ip(8)},
	{ID: 3, Title: "Thoughts on HADES II", Platform: sp("PC"), Genre: sp("Action")},
	{ID: 4, Title: "FIFA", GameTitle: sp("EA FC"), Platform: sp("PlayStation 5"), Genre: sp("Sports"), Rating: ip(4)},
}

func ids(posts []models.Post) string {
	out := make([]uint, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return fmt.Sprint(out)
}

func TestFilter(t *testing.T) {
	cases := []struct {
		name string
		q    ListQuery
		want string
	}{
		{"empty query passes all", ListQuery{}, "[1 2 3 4]"},
		{"search title case-insensitive", ListQuery{Search: "hades"}, "[2 3]"},
		{"search game title", ListQuery{Search: "knight"}, "[1]"},
		{"search miss", ListQuery{Search: "zelda"}, "[]"},
		{"platform exact", ListQuery{Platform: "PC"}, "[2 3]"},
		{"platform is not substring", ListQuery{Platform: "P"}, "[]"},
		{"genre", ListQuery{Genre: "Action"}, "[2 3]"},
		{"min rating excludes unrated", ListQuery{MinRating: 1}, "[1 2 4]"},
		{"min rating inclusive", ListQuery{MinRating: 8}, "[1 2]"},
		{"combined", ListQuery{Search: "h", Platform: "PC", MinRating: 5}, "[2]"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ids(Filter(fixture, c.q)); got != c.want {
				t.Fatalf("Filter = %s, want %s", got, c.want)
			}
		})
	}
}

func TestFilterPreservesOrder(t *testing.T) {
	reversed := []models.Post{fixture[3], fixture[2], fixture[1], fixture[0]}
	if got := ids(Filter(reversed, ListQuery{Platform: "PC"})); got != "[3 2]" {
		t.Fatalf("Filter = %s, want [3 2]", got)
	}
}

func TestSortToggle(t *testing.T) {
	s := DefaultSort()
	if s != (Sort{SortCreatedAt, Desc}) {
		t.Fatalf("default = %+v", s)
	}
	s = s.Toggle(SortCreatedAt)
	if s != (Sort{SortCreatedAt, Asc}) {
		t.Fatalf("same field should flip: %+v", s)
	}
	s = s.Toggle(SortCreatedAt)
	if s != (Sort{SortCreatedAt, Desc}) {
		t.Fatalf("same field should flip back: %+v", s)
	}
	s = s.Toggle(SortCreatedAt).Toggle(SortUpvotes)
	if s != (Sort{SortUpvotes, Desc}) {
		t.Fatalf("new field should reset to desc: %+v", s)
	}
}

func TestList(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	seed := []models.Post{
		{Title: "old", Platform: sp("PC"), Rating: ip(6), Upvotes: 5, CreatedAt: base},
		{Title: "mid", Platform: sp("PC"), Upvotes: 1, CreatedAt: base.Add(time.Hour)},
		{Title: "new", Platform: sp("Mobile"), Rating: ip(9), Upvotes: 3, CreatedAt: base.Add(2 * time.Hour)},
	}
	for i := range seed {
		if err := st.CreatePost(ctx, &seed[i]); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := svc.List(ctx, ListQuery{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if fmt.Sprint(titlesOf(got)) != "[new mid old]" {
		t.Fatalf("default order = %v", titlesOf(got))
	}

	got, err = svc.List(ctx, ListQuery{Platform: "PC", Sort: Sort{SortUpvotes, Desc}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if fmt.Sprint(titlesOf(got)) != "[old mid]" {
		t.Fatalf("filtered upvote order = %v", titlesOf(got))
	}

	got, err = svc.List(ctx, ListQuery{Sort: Sort{SortRating, Asc}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if fmt.Sprint(titlesOf(got)) != "[mid old new]" {
		t.Fatalf("rating asc order = %v", titlesOf(got))
	}

	if _, err := svc.List(ctx, ListQuery{Sort: Sort{"title", Desc}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad sort field: %v", err)
	}
	if _, err := svc.List(ctx, ListQuery{Sort: Sort{SortRating, "sideways"}}); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad sort direction: %v", err)
	}
}

func titlesOf(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}
