package board

import (
	"context"
	"log"

	"github.com/sujalbistaa/questlog/internal/models"
)

// ClientFlagStore holds one client's upvote records. Records are never
// shared between clients and never expire.
type ClientFlagStore interface {
	Upvoted(ctx context.Context, postID uint) (bool, error)
	MarkUpvoted(ctx context.Context, postID uint) (bool, error)
	UnmarkUpvoted(ctx context.Context, postID uint) error
}

// HasUpvoted reports whether the client behind flags already upvoted postID.
func (s *Service) HasUpvoted(ctx context.Context, flags ClientFlagStore, postID uint) (bool, error) {
	ok, err := flags.Upvoted(ctx, postID)
	if err != nil {
		return false, storeErr("read upvote flag", err)
	}
	return ok, nil
}

// Upvote adds one to the post's counter unless this client already did. The
// client's record is claimed before the counter moves, so concurrent requests
// from one client count once.
func (s *Service) Upvote(ctx context.Context, flags ClientFlagStore, postID uint) (*models.Post, error) {
	claimed, err := flags.MarkUpvoted(ctx, postID)
	if err != nil {
		return nil, storeErr("write upvote flag", err)
	}
	if !claimed {
		return nil, ErrAlreadyUpvoted
	}

	post, err := s.bump(ctx, postID)
	if err != nil {
		if uerr := flags.UnmarkUpvoted(ctx, postID); uerr != nil {
			log.Printf("Error releasing upvote flag for post %d: %v", postID, uerr)
		}
		return nil, err
	}
	s.events.Publish(EventUpvote, map[string]any{"id": post.ID, "upvotes": post.Upvotes})
	return post, nil
}

func (s *Service) bump(ctx context.Context, postID uint) (*models.Post, error) {
	switch s.strategy {
	case AtomicIncrement:
		n, err := s.store.IncrementUpvotes(ctx, postID)
		if err != nil {
			return nil, storeErr("increment upvotes", err)
		}
		post, err := s.store.GetPost(ctx, postID)
		if err != nil {
			// The counter has moved; report it without the rest of the post.
			log.Printf("Error reloading post %d after upvote: %v", postID, err)
			return &models.Post{ID: postID, Upvotes: n}, nil
		}
		post.Upvotes = n
		return post, nil
	default:
		post, err := s.store.GetPost(ctx, postID)
		if err != nil {
			return nil, storeErr("load post", err)
		}
		next := post.Upvotes + 1
		if err := s.store.SetUpvotes(ctx, postID, next); err != nil {
			return nil, storeErr("write upvotes", err)
		}
		post.Upvotes = next
		return post, nil
	}
}
