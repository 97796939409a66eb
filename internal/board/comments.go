package board

import (
	"context"
	"strings"

	"github.com/sujalbistaa/questlog/internal/models"
)

const anonymous = "Anonymous"

type CommentInput struct {
	AuthorName string `json:"author_name"`
	Content    string `json:"content"`
}

// AddComment attaches a comment to an existing post. Anyone may comment.
func (s *Service) AddComment(ctx context.Context, postID uint, in CommentInput) (*models.Comment, error) {
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalid("content", "Comment cannot be empty")
	}
	if _, err := s.store.GetPost(ctx, postID); err != nil {
		return nil, storeErr("load post", err)
	}

	author := in.AuthorName
	if strings.TrimSpace(author) == "" {
		author = anonymous
	}
	c := &models.Comment{PostID: postID, AuthorName: author, Content: in.Content}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, storeErr("create comment", err)
	}
	s.events.Publish(EventNewComment, c)
	return c, nil
}

// Comments returns a post's comments, oldest first.
func (s *Service) Comments(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	return comments, nil
}
