// Package board holds the rules of the review board: who may change a post,
// how reposts link back, how upvotes are deduplicated and how the listing is
// filtered and sorted.
package board

import (
	"context"

	"github.com/sujalbistaa/questlog/internal/models"
	"github.com/sujalbistaa/questlog/internal/store"
)

// Event names sent to the Publisher.
const (
	EventNewPost     = "new_post"
	EventPostUpdated = "post_updated"
	EventPostDeleted = "post_deleted"
	EventUpvote      = "upvote"
	EventNewComment  = "new_comment"
)

// Publisher receives board events after the store has accepted a change.
type Publisher interface {
	Publish(event string, data any)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, any) {}

// UpvoteStrategy selects how the upvote counter is incremented.
type UpvoteStrategy string

const (
	// ReadModifyWrite fetches the count and writes count+1. Concurrent
	// upvotes from different clients can lose an increment.
	ReadModifyWrite UpvoteStrategy = "naive"
	// AtomicIncrement lets the store add one in a single statement.
	AtomicIncrement UpvoteStrategy = "atomic"
)

type Service struct {
	store    store.Store
	strategy UpvoteStrategy
	events   Publisher
}

type Option func(*Service)

func WithUpvoteStrategy(s UpvoteStrategy) Option {
	return func(svc *Service) { svc.strategy = s }
}

func WithPublisher(p Publisher) Option {
	return func(svc *Service) {
		if p != nil {
			svc.events = p
		}
	}
}

func NewService(st store.Store, opts ...Option) *Service {
	svc := &Service{store: st, strategy: ReadModifyWrite, events: nopPublisher{}}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Get fetches a single post.
func (s *Service) Get(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr("get post", err)
	}
	return post, nil
}
