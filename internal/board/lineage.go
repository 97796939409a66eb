package board

import (
	"context"

	"github.com/sujalbistaa/questlog/internal/models"
)

// Lineage is the "reposted from" backlink of a post.
type Lineage struct {
	ID    uint   `json:"id"`
	Title string `json:"title"`
}

// ResolveLineage looks up the post that p was reposted from. It returns
// (nil, nil) when p is not a repost and ErrNotFound when the source is gone.
// Only one hop is followed.
func (s *Service) ResolveLineage(ctx context.Context, p *models.Post) (*Lineage, error) {
	if p == nil || p.RepostOf == nil {
		return nil, nil
	}
	src, err := s.store.GetPost(ctx, *p.RepostOf)
	if err != nil {
		return nil, storeErr("resolve lineage", err)
	}
	return &Lineage{ID: src.ID, Title: src.Title}, nil
}
