package http

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sujalbistaa/questlog/internal/board"
	"github.com/sujalbistaa/questlog/internal/models"
	"github.com/sujalbistaa/questlog/internal/store"
	"github.com/sujalbistaa/questlog/internal/ws"
)

const secretHeader = "X-Secret-Key"

// --- Structs for request binding ---
type VerifyInput struct {
	SecretKey string `json:"secret_key"`
}

// --- Handlers ---
type Env struct {
	Board *board.Service
	Store store.Store
	Hub   *ws.Hub
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return 0, false
	}
	return uint(id), true
}

// respondError maps the board's error taxonomy onto HTTP. Store failures are
// logged and reported generically.
func respondError(c *gin.Context, action string, err error) {
	var verr *board.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, board.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
	case errors.Is(err, board.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Invalid secret key!"})
	case errors.Is(err, board.ErrAlreadyUpvoted):
		c.JSON(http.StatusConflict, gin.H{"error": "You have already upvoted this post!"})
	default:
		log.Printf("Error %s: %v", action, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error " + action + ". Please try again."})
	}
}

// candidateSecret prefers the header so DELETE can be sent without a body.
func candidateSecret(c *gin.Context, body string) string {
	if v, ok := c.Request.Header[http.CanonicalHeaderKey(secretHeader)]; ok && len(v) > 0 {
		return v[0]
	}
	return body
}

// bindSecret reads an optional {"secret_key"} body. A request carrying only
// the header has nothing to bind.
func bindSecret(c *gin.Context) (VerifyInput, bool) {
	var input VerifyInput
	if c.Request.ContentLength == 0 {
		return input, true
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return input, false
	}
	return input, true
}

// queryOr treats a present but empty parameter as absent.
func queryOr(c *gin.Context, key, fallback string) string {
	if v := c.Query(key); v != "" {
		return v
	}
	return fallback
}

func (e *Env) GetPosts(c *gin.Context) {
	q := board.ListQuery{
		Search:   c.Query("search"),
		Platform: c.Query("platform"),
		Genre:    c.Query("genre"),
		Sort: board.Sort{
			Field:     board.SortField(queryOr(c, "sort", string(board.SortCreatedAt))),
			Direction: board.Direction(queryOr(c, "order", string(board.Desc))),
		},
	}
	if v := c.Query("min_rating"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid min_rating", "field": "min_rating"})
			return
		}
		q.MinRating = n
	}

	posts, err := e.Board.List(c.Request.Context(), q)
	if err != nil {
		respondError(c, "fetching posts", err)
		return
	}

	toggles := make(map[board.SortField]board.Sort, len(board.SortFields))
	for _, f := range board.SortFields {
		toggles[f] = q.Sort.Toggle(f)
	}
	c.JSON(http.StatusOK, gin.H{
		"posts":   posts,
		"count":   len(posts),
		"sort":    q.Sort,
		"toggles": toggles,
	})
}

func (e *Env) CreatePost(c *gin.Context) {
	var input board.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	post, err := e.Board.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, "creating post", err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (e *Env) GetPost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	post, err := e.Board.Get(ctx, id)
	if err != nil {
		respondError(c, "fetching post", err)
		return
	}

	// A missing source only hides the backlink.
	lineage, err := e.Board.ResolveLineage(ctx, post)
	if err != nil {
		if !errors.Is(err, board.ErrNotFound) {
			log.Printf("Error resolving lineage of post %d: %v", id, err)
		}
		lineage = nil
	}

	upvoted, err := e.Board.HasUpvoted(ctx, e.Store.ClientFlags(clientID(c)), id)
	if err != nil {
		log.Printf("Error reading upvote flag for post %d: %v", id, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"post":          post,
		"reposted_from": lineage,
		"upvoted":       upvoted,
	})
}

func (e *Env) GetRepostDraft(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	draft, err := e.Board.RepostDraft(c.Request.Context(), id)
	if err != nil {
		respondError(c, "loading post for repost", err)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (e *Env) VerifyPost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	input, ok := bindSecret(c)
	if !ok {
		return
	}
	sess, err := e.Board.Verify(c.Request.Context(), id, candidateSecret(c, input.SecretKey))
	if err != nil {
		respondError(c, "verifying secret key", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"verified": true, "post": sess.Post()})
}

// UpdatePost is one edit visit: the candidate is verified and the edit
// applied in the same request.
func (e *Env) UpdatePost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input board.PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	ctx := c.Request.Context()
	sess, err := e.Board.Verify(ctx, id, candidateSecret(c, input.SecretKey))
	if err != nil {
		respondError(c, "verifying secret key", err)
		return
	}
	post, err := e.Board.Update(ctx, sess, input)
	if err != nil {
		respondError(c, "updating post", err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func (e *Env) DeletePost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	input, ok := bindSecret(c)
	if !ok {
		return
	}
	if err := e.Board.Delete(c.Request.Context(), id, candidateSecret(c, input.SecretKey)); err != nil {
		respondError(c, "deleting post", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}

func (e *Env) UpvotePost(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	post, err := e.Board.Upvote(c.Request.Context(), e.Store.ClientFlags(clientID(c)), id)
	if err != nil {
		respondError(c, "upvoting post", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": post.ID, "upvotes": post.Upvotes})
}

func (e *Env) GetComments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	comments, err := e.Board.Comments(c.Request.Context(), id)
	if err != nil {
		respondError(c, "fetching comments", err)
		return
	}
	c.JSON(http.StatusOK, comments)
}

func (e *Env) CreateComment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var input board.CommentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return
	}
	comment, err := e.Board.AddComment(c.Request.Context(), id, input)
	if err != nil {
		respondError(c, "adding comment", err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (e *Env) GetMeta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"platforms":   models.Platforms,
		"genres":      models.Genres,
		"sort_fields": board.SortFields,
	})
}
