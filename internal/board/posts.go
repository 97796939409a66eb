package board

import (
	"context"
	"strings"

	"github.com/sujalbistaa/questlog/internal/models"
	"github.com/sujalbistaa/questlog/internal/store"
)

const repostPrefix = "Re: "

// PostInput is the create/edit form. Blank optional fields mean "absent" and
// a zero rating means "no rating".
type PostInput struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImageURL  string `json:"image_url"`
	GameTitle string `json:"game_title"`
	Rating    int    `json:"rating"`
	Platform  string `json:"platform"`
	Genre     string `json:"genre"`
	SecretKey string `json:"secret_key,omitempty"`
	RepostOf  *uint  `json:"repost_of,omitempty"`
}

func (in PostInput) fields() (store.PostFields, error) {
	if strings.TrimSpace(in.Title) == "" {
		return store.PostFields{}, invalid("title", "Please enter a title for your post")
	}
	if in.Rating < 0 || in.Rating > 10 {
		return store.PostFields{}, invalid("rating", "Rating must be between 1 and 10")
	}
	f := store.PostFields{
		Title:     in.Title,
		Content:   optional(in.Content),
		ImageURL:  optional(in.ImageURL),
		GameTitle: optional(in.GameTitle),
		Platform:  optional(in.Platform),
		Genre:     optional(in.Genre),
	}
	if in.Rating > 0 {
		r := in.Rating
		f.Rating = &r
	}
	return f, nil
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Create validates and stores a new post. A repost must point at a post that
// exists now; the new post never inherits the source's secret.
func (s *Service) Create(ctx context.Context, in PostInput) (*models.Post, error) {
	f, err := in.fields()
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		Title:     f.Title,
		Content:   f.Content,
		ImageURL:  f.ImageURL,
		GameTitle: f.GameTitle,
		Rating:    f.Rating,
		Platform:  f.Platform,
		Genre:     f.Genre,
		SecretKey: models.AuthorizationToken(in.SecretKey),
	}
	if in.RepostOf != nil {
		src, err := s.store.GetPost(ctx, *in.RepostOf)
		if err != nil {
			return nil, storeErr("load repost source", err)
		}
		id := src.ID
		post.RepostOf = &id
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, storeErr("create post", err)
	}
	s.events.Publish(EventNewPost, post)
	return post, nil
}

// RepostDraft seeds a create form from an existing post.
func (s *Service) RepostDraft(ctx context.Context, sourceID uint) (*PostInput, error) {
	src, err := s.store.GetPost(ctx, sourceID)
	if err != nil {
		return nil, storeErr("load repost source", err)
	}
	id := src.ID
	return &PostInput{
		Title:     repostPrefix + src.Title,
		Content:   deref(src.Content),
		ImageURL:  deref(src.ImageURL),
		GameTitle: deref(src.GameTitle),
		Rating:    src.RatingValue(),
		Platform:  deref(src.Platform),
		Genre:     deref(src.Genre),
		RepostOf:  &id,
	}, nil
}

// EditSession proves a candidate secret was checked against one post. It
// lives for a single edit visit and is never stored.
type EditSession struct {
	post *models.Post
}

// Post is the post as it was when the session was verified.
func (e *EditSession) Post() *models.Post { return e.post }

// Verify checks candidate against the post's current secret.
func (s *Service) Verify(ctx context.Context, id uint, candidate string) (*EditSession, error) {
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr("load post", err)
	}
	if !post.Matches(candidate) {
		return nil, ErrUnauthorized
	}
	return &EditSession{post: post}, nil
}

// Update applies an edit within a verified session. The secret, id,
// creation time, repost link and upvote count are never touched.
func (s *Service) Update(ctx context.Context, sess *EditSession, in PostInput) (*models.Post, error) {
	if sess == nil || sess.post == nil {
		return nil, ErrUnauthorized
	}
	f, err := in.fields()
	if err != nil {
		return nil, err
	}
	id := sess.post.ID
	if err := s.store.UpdatePost(ctx, id, f); err != nil {
		return nil, storeErr("update post", err)
	}
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr("reload post", err)
	}
	s.events.Publish(EventPostUpdated, post)
	return post, nil
}

// Delete re-checks candidate right before removing the post for good.
// Comments and reposts that reference it are left in place.
func (s *Service) Delete(ctx context.Context, id uint, candidate string) error {
	if _, err := s.Verify(ctx, id, candidate); err != nil {
		return err
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return storeErr("delete post", err)
	}
	s.events.Publish(EventPostDeleted, map[string]uint{"id": id})
	return nil
}
