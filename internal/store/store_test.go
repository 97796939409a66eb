package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sujalbistaa/questlog/internal/db"
	"github.com/sujalbistaa/questlog/internal/models"
)

func newSQLiteStore(t *testing.T) *GormStore {
	t.Helper()
	database, err := db.Init("sqlite://" + filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("db init: %v", err)
	}
	s := NewGormStore(database)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("QUESTLOG_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("QUESTLOG_TEST_MONGODB_URI not set")
	}
	ctx := context.Background()
	client, err := db.ConnectMongo(ctx, uri)
	if err != nil {
		t.Fatalf("mongo connect: %v", err)
	}
	name := fmt.Sprintf("questlog_test_%d", time.Now().UnixNano())
	s := NewMongoStore(client, name)
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Database(name).Drop(context.Background())
		s.Close()
	})
	return s
}

func str(s string) *string { return &s }
func num(n int) *int       { return &n }

func TestGormStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return newSQLiteStore(t) })
}

func TestMongoStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store { return newMongoStore(t) })
}

func runStoreSuite(t *testing.T, open func(t *testing.T) Store) {
	t.Run("CreateGetRoundTrip", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		p := &models.Post{Title: "A", Rating: num(7), Platform: str("PC"), SecretKey: "k"}
		if err := s.CreatePost(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
		if p.ID == 0 {
			t.Fatalf("expected store-assigned id")
		}
		got, err := s.GetPost(ctx, p.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "A" || got.RatingValue() != 7 || got.Platform == nil || *got.Platform != "PC" {
			t.Fatalf("unexpected post: %+v", got)
		}
		if got.Content != nil || got.ImageURL != nil || got.GameTitle != nil || got.Genre != nil {
			t.Fatalf("absent fields should read back as nil: %+v", got)
		}
		if got.SecretKey != "k" || got.Upvotes != 0 || got.RepostOf != nil {
			t.Fatalf("unexpected defaults: %+v", got)
		}
		if got.CreatedAt.IsZero() {
			t.Fatalf("created_at not set")
		}
	})

	t.Run("MissingRecords", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		if _, err := s.GetPost(ctx, 999); !errors.Is(err, ErrNotFound) {
			t.Fatalf("get: %v", err)
		}
		if err := s.UpdatePost(ctx, 999, PostFields{Title: "x"}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("update: %v", err)
		}
		if err := s.DeletePost(ctx, 999); !errors.Is(err, ErrNotFound) {
			t.Fatalf("delete: %v", err)
		}
		if err := s.SetUpvotes(ctx, 999, 3); !errors.Is(err, ErrNotFound) {
			t.Fatalf("set upvotes: %v", err)
		}
		if _, err := s.IncrementUpvotes(ctx, 999); !errors.Is(err, ErrNotFound) {
			t.Fatalf("increment: %v", err)
		}
	})

	t.Run("UpdateLeavesImmutableFields", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		src := &models.Post{Title: "src"}
		if err := s.CreatePost(ctx, src); err != nil {
			t.Fatalf("create: %v", err)
		}
		p := &models.Post{Title: "old", Content: str("body"), SecretKey: "x", Upvotes: 4, RepostOf: &src.ID}
		if err := s.CreatePost(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
		before, _ := s.GetPost(ctx, p.ID)

		err := s.UpdatePost(ctx, p.ID, PostFields{Title: "new", Genre: str("RPG"), Rating: num(9)})
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		got, err := s.GetPost(ctx, p.ID)
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Title != "new" || got.Content != nil || got.Genre == nil || *got.Genre != "RPG" || got.RatingValue() != 9 {
			t.Fatalf("fields not updated: %+v", got)
		}
		if got.SecretKey != "x" || got.Upvotes != 4 || got.RepostOf == nil || *got.RepostOf != src.ID {
			t.Fatalf("immutable fields changed: %+v", got)
		}
		if !got.CreatedAt.Equal(before.CreatedAt) {
			t.Fatalf("created_at changed: %v -> %v", before.CreatedAt, got.CreatedAt)
		}
	})

	t.Run("ListOrder", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		seed := []*models.Post{
			{Title: "p1", Rating: num(5), Upvotes: 2, CreatedAt: base},
			{Title: "p2", Upvotes: 9, CreatedAt: base.Add(time.Hour)},
			{Title: "p3", Rating: num(8), Upvotes: 0, CreatedAt: base.Add(2 * time.Hour)},
		}
		for _, p := range seed {
			if err := s.CreatePost(ctx, p); err != nil {
				t.Fatalf("create: %v", err)
			}
		}

		cases := []struct {
			order Order
			want  []string
		}{
			{Order{Field: FieldCreatedAt, Desc: true}, []string{"p3", "p2", "p1"}},
			{Order{Field: FieldCreatedAt}, []string{"p1", "p2", "p3"}},
			{Order{Field: FieldUpvotes, Desc: true}, []string{"p2", "p1", "p3"}},
			{Order{Field: FieldRating, Desc: true}, []string{"p3", "p1", "p2"}},
			{Order{Field: FieldRating}, []string{"p2", "p1", "p3"}},
		}
		for _, c := range cases {
			posts, err := s.ListPosts(ctx, c.order)
			if err != nil {
				t.Fatalf("list %+v: %v", c.order, err)
			}
			if got := titles(posts); fmt.Sprint(got) != fmt.Sprint(c.want) {
				t.Errorf("order %+v: got %v, want %v", c.order, got, c.want)
			}
		}

		if _, err := s.ListPosts(ctx, Order{Field: "title"}); err == nil {
			t.Fatalf("expected error for unsortable field")
		}
	})

	t.Run("Upvotes", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		p := &models.Post{Title: "u"}
		if err := s.CreatePost(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
		n, err := s.IncrementUpvotes(ctx, p.ID)
		if err != nil || n != 1 {
			t.Fatalf("increment = %d, %v", n, err)
		}
		if err := s.SetUpvotes(ctx, p.ID, 10); err != nil {
			t.Fatalf("set: %v", err)
		}
		n, err = s.IncrementUpvotes(ctx, p.ID)
		if err != nil || n != 11 {
			t.Fatalf("increment = %d, %v", n, err)
		}
	})

	t.Run("DeleteLeavesComments", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		p := &models.Post{Title: "d"}
		if err := s.CreatePost(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
		for i, body := range []string{"first", "second"} {
			c := &models.Comment{PostID: p.ID, AuthorName: "Anonymous", Content: body, CreatedAt: time.Date(2024, 1, 1, 0, i, 0, 0, time.UTC)}
			if err := s.CreateComment(ctx, c); err != nil {
				t.Fatalf("comment: %v", err)
			}
		}
		if err := s.DeletePost(ctx, p.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if _, err := s.GetPost(ctx, p.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("post still present: %v", err)
		}
		comments, err := s.ListComments(ctx, p.ID)
		if err != nil {
			t.Fatalf("list comments: %v", err)
		}
		if len(comments) != 2 || comments[0].Content != "first" || comments[1].Content != "second" {
			t.Fatalf("unexpected comments: %+v", comments)
		}
	})

	t.Run("ClientFlags", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		alice, bob := s.ClientFlags("alice"), s.ClientFlags("bob")

		if ok, err := alice.Upvoted(ctx, 1); err != nil || ok {
			t.Fatalf("fresh flag = %v, %v", ok, err)
		}
		if created, err := alice.MarkUpvoted(ctx, 1); err != nil || !created {
			t.Fatalf("mark = %v, %v", created, err)
		}
		if created, err := alice.MarkUpvoted(ctx, 1); err != nil || created {
			t.Fatalf("second mark = %v, %v; want an existing record", created, err)
		}
		if ok, _ := alice.Upvoted(ctx, 1); !ok {
			t.Fatalf("flag not recorded")
		}
		if ok, _ := alice.Upvoted(ctx, 2); ok {
			t.Fatalf("flag leaked to another post")
		}
		if ok, _ := bob.Upvoted(ctx, 1); ok {
			t.Fatalf("flag leaked to another client")
		}

		if err := alice.UnmarkUpvoted(ctx, 1); err != nil {
			t.Fatalf("unmark: %v", err)
		}
		if ok, _ := alice.Upvoted(ctx, 1); ok {
			t.Fatalf("flag survived unmark")
		}
		if created, err := alice.MarkUpvoted(ctx, 1); err != nil || !created {
			t.Fatalf("mark after unmark = %v, %v", created, err)
		}
	})
}

func titles(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}
