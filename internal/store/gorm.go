package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sujalbistaa/questlog/internal/models"
)

// GormStore keeps the board in a SQL database (SQLite or PostgreSQL).
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Migrate creates or updates the posts, comments and client_upvotes tables.
func (s *GormStore) Migrate(ctx context.Context) error {
	migrations := []struct {
		model any
		name  string
	}{
		{&models.Post{}, "Post"},
		{&models.Comment{}, "Comment"},
		{&models.ClientUpvote{}, "ClientUpvote"},
	}

	log.Println("Running database migrations...")
	for _, m := range migrations {
		if err := s.db.WithContext(ctx).AutoMigrate(m.model); err != nil {
			return fmt.Errorf("error migrating %s table: %w", m.name, err)
		}
	}
	log.Println("Migrations complete.")
	return nil
}

func (s *GormStore) CreatePost(ctx context.Context, post *models.Post) error {
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *GormStore) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.db.WithContext(ctx).First(&post, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

func (s *GormStore) ListPosts(ctx context.Context, order Order) ([]models.Post, error) {
	if err := order.validate(); err != nil {
		return nil, err
	}
	dir := "asc"
	if order.Desc {
		dir = "desc"
	}
	column := order.Field
	if column == FieldRating {
		column = "COALESCE(rating, 0)"
	}

	posts := []models.Post{}
	err := s.db.WithContext(ctx).
		Order(column + " " + dir).
		Order("id " + dir).
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *GormStore) UpdatePost(ctx context.Context, id uint, f PostFields) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).Updates(map[string]any{
		"title":      f.Title,
		"content":    f.Content,
		"image_url":  f.ImageURL,
		"game_title": f.GameTitle,
		"rating":     f.Rating,
		"platform":   f.Platform,
		"genre":      f.Genre,
	})
	if res.Error != nil {
		return fmt.Errorf("update post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) DeletePost(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&models.Post{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) SetUpvotes(ctx context.Context, id uint, upvotes int) error {
	res := s.db.WithContext(ctx).Model(&models.Post{}).Where("id = ?", id).UpdateColumn("upvotes", upvotes)
	if res.Error != nil {
		return fmt.Errorf("set upvotes on post %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) IncrementUpvotes(ctx context.Context, id uint) (int, error) {
	var upvotes int
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Post{}).Where("id = ?", id).
			UpdateColumn("upvotes", gorm.Expr("upvotes + ?", 1))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Model(&models.Post{}).Where("id = ?", id).Select("upvotes").Scan(&upvotes).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, err
		}
		return 0, fmt.Errorf("increment upvotes on post %d: %w", id, err)
	}
	return upvotes, nil
}

func (s *GormStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := s.db.WithContext(ctx).Create(comment).Error; err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *GormStore) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	comments := []models.Comment{}
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at asc").
		Order("id asc").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("list comments for post %d: %w", postID, err)
	}
	return comments, nil
}

func (s *GormStore) ClientFlags(clientID string) ClientFlagStore {
	return &gormFlags{db: s.db, clientID: clientID}
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	log.Println("Database connection closed")
	return sqlDB.Close()
}

type gormFlags struct {
	db       *gorm.DB
	clientID string
}

func (f *gormFlags) Upvoted(ctx context.Context, postID uint) (bool, error) {
	var n int64
	err := f.db.WithContext(ctx).Model(&models.ClientUpvote{}).
		Where("client_id = ? AND post_id = ?", f.clientID, postID).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("read upvote flag: %w", err)
	}
	return n > 0, nil
}

func (f *gormFlags) MarkUpvoted(ctx context.Context, postID uint) (bool, error) {
	rec := models.ClientUpvote{ClientID: f.clientID, PostID: postID, CreatedAt: time.Now()}
	res := f.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
	if res.Error != nil {
		return false, fmt.Errorf("write upvote flag: %w", res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (f *gormFlags) UnmarkUpvoted(ctx context.Context, postID uint) error {
	err := f.db.WithContext(ctx).
		Where("client_id = ? AND post_id = ?", f.clientID, postID).
		Delete(&models.ClientUpvote{}).Error
	if err != nil {
		return fmt.Errorf("remove upvote flag: %w", err)
	}
	return nil
}
