// Package store persists posts, comments and per-client upvote records
// behind a small CRUD interface with SQL (gorm) and MongoDB backends.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/sujalbistaa/questlog/internal/db"
	"github.com/sujalbistaa/questlog/internal/models"
)

// ErrNotFound is returned when a fetch, update or delete targets a missing record.
var ErrNotFound = errors.New("record not found")

// Sortable post columns.
const (
	FieldCreatedAt = "created_at"
	FieldUpvotes   = "upvotes"
	FieldRating    = "rating"
)

// Order is the fetch-all ordering parameter. Ties are broken by id in the
// same direction, and an absent rating sorts as 0.
type Order struct {
	Field string
	Desc  bool
}

func (o Order) validate() error {
	switch o.Field {
	case FieldCreatedAt, FieldUpvotes, FieldRating:
		return nil
	}
	return fmt.Errorf("store: cannot order posts by %q", o.Field)
}

// PostFields are the columns an edit may change.
type PostFields struct {
	Title     string
	Content   *string
	ImageURL  *string
	GameTitle *string
	Rating    *int
	Platform  *string
	Genre     *string
}

// ClientFlagStore is one client's set of upvote records. MarkUpvoted reports
// whether this call created the record, so it doubles as the claim.
type ClientFlagStore interface {
	Upvoted(ctx context.Context, postID uint) (bool, error)
	MarkUpvoted(ctx context.Context, postID uint) (bool, error)
	UnmarkUpvoted(ctx context.Context, postID uint) error
}

// Store is the CRUD surface the board needs over posts and comments.
type Store interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, id uint) (*models.Post, error)
	ListPosts(ctx context.Context, order Order) ([]models.Post, error)
	UpdatePost(ctx context.Context, id uint, fields PostFields) error
	DeletePost(ctx context.Context, id uint) error
	SetUpvotes(ctx context.Context, id uint, upvotes int) error
	IncrementUpvotes(ctx context.Context, id uint) (int, error)

	CreateComment(ctx context.Context, comment *models.Comment) error
	ListComments(ctx context.Context, postID uint) ([]models.Comment, error)

	ClientFlags(clientID string) ClientFlagStore
	Close() error
}

// Open connects to the backend named by dbURL and migrates it.
func Open(ctx context.Context, dbURL, mongoDatabase string) (Store, error) {
	kind, err := db.Kind(dbURL)
	if err != nil {
		return nil, err
	}

	if kind == db.Mongo {
		client, err := db.ConnectMongo(ctx, dbURL)
		if err != nil {
			return nil, err
		}
		s := NewMongoStore(client, mongoDatabase)
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		return s, nil
	}

	database, err := db.Init(dbURL)
	if err != nil {
		return nil, err
	}
	s := NewGormStore(database)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}
