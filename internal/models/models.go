package models

import (
	"encoding/json"
	"time"
)

// Post is a single game review on the board.
type Post struct {
	ID        uint               `gorm:"primarykey" json:"id" bson:"_id"`
	Title     string             `gorm:"not null" json:"title" bson:"title"`
	Content   *string            `gorm:"type:text" json:"content" bson:"content,omitempty"`
	ImageURL  *string            `json:"image_url" bson:"image_url,omitempty"`
	GameTitle *string            `gorm:"index" json:"game_title" bson:"game_title,omitempty"`
	Rating    *int               `json:"rating" bson:"rating,omitempty"`
	Platform  *string            `json:"platform" bson:"platform,omitempty"`
	Genre     *string            `json:"genre" bson:"genre,omitempty"`
	SecretKey AuthorizationToken `gorm:"type:text" json:"-" bson:"secret_key,omitempty"` // Never leaves the server
	Upvotes   int                `gorm:"not null;default:0" json:"upvotes" bson:"upvotes"`
	RepostOf  *uint              `gorm:"index" json:"repost_of" bson:"repost_of,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// Matches reports whether candidate is allowed to edit or delete the post.
func (p *Post) Matches(candidate string) bool {
	return p.SecretKey.Matches(candidate)
}

// RatingValue returns the rating with "absent" folded into 0.
func (p *Post) RatingValue() int {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}

// MarshalJSON adds the derived "protected" flag in place of the secret.
func (p Post) MarshalJSON() ([]byte, error) {
	type post Post
	return json.Marshal(struct {
		post
		Protected bool `json:"protected"`
	}{post(p), p.SecretKey.Protected()})
}

// Comment is an unprotected, immutable reply to a post.
type Comment struct {
	ID         uint      `gorm:"primarykey" json:"id" bson:"_id"`
	PostID     uint      `gorm:"not null;index" json:"post_id" bson:"post_id"`
	AuthorName string    `gorm:"not null" json:"author_name" bson:"author_name"`
	Content    string    `gorm:"type:text;not null" json:"content" bson:"content"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// ClientUpvote records that one client has upvoted one post.
type ClientUpvote struct {
	ClientID  string    `gorm:"primaryKey;size:64" bson:"client_id"`
	PostID    uint      `gorm:"primaryKey;autoIncrement:false" bson:"post_id"`
	CreatedAt time.Time `bson:"created_at"`
}

// Choices offered by the create and edit forms. They are not enforced.
var (
	Platforms = []string{"PC", "PlayStation 5", "Xbox Series X/S", "Nintendo Switch", "PlayStation 4", "Xbox One", "Mobile", "Other"}
	Genres    = []string{"Action", "Adventure", "RPG", "Strategy", "Puzzle", "Sports", "Racing", "Fighting", "Horror", "Indie", "Other"}
)
