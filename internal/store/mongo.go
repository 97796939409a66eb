package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sujalbistaa/questlog/internal/models"
)

// MongoStore keeps the board in MongoDB. Numeric ids come from a counters
// collection so that post ids look the same on every backend.
type MongoStore struct {
	client   *mongo.Client
	posts    *mongo.Collection
	comments *mongo.Collection
	upvotes  *mongo.Collection
	counters *mongo.Collection
}

func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		posts:    db.Collection("posts"),
		comments: db.Collection("comments"),
		upvotes:  db.Collection("client_upvotes"),
		counters: db.Collection("counters"),
	}
}

// Migrate creates the secondary indexes the queries rely on.
func (s *MongoStore) Migrate(ctx context.Context) error {
	if _, err := s.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}},
	}); err != nil {
		return fmt.Errorf("error indexing comments: %w", err)
	}
	if _, err := s.upvotes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "post_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("error indexing client_upvotes: %w", err)
	}
	log.Println("Mongo indexes ready.")
	return nil
}

func (s *MongoStore) nextID(ctx context.Context, name string) (uint, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next %s id: %w", name, err)
	}
	return uint(counter.Seq), nil
}

// now matches the millisecond precision BSON dates keep.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *MongoStore) CreatePost(ctx context.Context, post *models.Post) error {
	id, err := s.nextID(ctx, "posts")
	if err != nil {
		return err
	}
	post.ID = id
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now()
	}
	if _, err := s.posts.InsertOne(ctx, post); err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (s *MongoStore) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	if err := s.posts.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get post %d: %w", id, err)
	}
	return &post, nil
}

// ListPosts relies on BSON ordering a missing rating below every number,
// which is where a 0 rating would sort.
func (s *MongoStore) ListPosts(ctx context.Context, order Order) ([]models.Post, error) {
	if err := order.validate(); err != nil {
		return nil, err
	}
	dir := 1
	if order.Desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: order.Field, Value: dir}, {Key: "_id", Value: dir}})

	cursor, err := s.posts.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	return posts, nil
}

func (s *MongoStore) UpdatePost(ctx context.Context, id uint, f PostFields) error {
	set := bson.M{"title": f.Title}
	unset := bson.M{}
	optional := map[string]any{
		"content":    f.Content,
		"image_url":  f.ImageURL,
		"game_title": f.GameTitle,
		"platform":   f.Platform,
		"genre":      f.Genre,
	}
	for k, v := range optional {
		if p := v.(*string); p != nil {
			set[k] = *p
		} else {
			unset[k] = ""
		}
	}
	if f.Rating != nil {
		set["rating"] = *f.Rating
	} else {
		unset["rating"] = ""
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update post %d: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeletePost(ctx context.Context, id uint) error {
	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) SetUpvotes(ctx context.Context, id uint, upvotes int) error {
	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"upvotes": upvotes}})
	if err != nil {
		return fmt.Errorf("set upvotes on post %d: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) IncrementUpvotes(ctx context.Context, id uint) (int, error) {
	var post models.Post
	err := s.posts.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"upvotes": 1}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("increment upvotes on post %d: %w", id, err)
	}
	return post.Upvotes, nil
}

func (s *MongoStore) CreateComment(ctx context.Context, comment *models.Comment) error {
	id, err := s.nextID(ctx, "comments")
	if err != nil {
		return err
	}
	comment.ID = id
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = now()
	}
	if _, err := s.comments.InsertOne(ctx, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (s *MongoStore) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.comments.Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list comments for post %d: %w", postID, err)
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return comments, nil
}

func (s *MongoStore) ClientFlags(clientID string) ClientFlagStore {
	return &mongoFlags{coll: s.upvotes, clientID: clientID}
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.client.Disconnect(ctx); err != nil {
		return err
	}
	log.Println("Disconnected from MongoDB")
	return nil
}

type mongoFlags struct {
	coll     *mongo.Collection
	clientID string
}

func (f *mongoFlags) Upvoted(ctx context.Context, postID uint) (bool, error) {
	n, err := f.coll.CountDocuments(ctx, bson.M{"client_id": f.clientID, "post_id": postID})
	if err != nil {
		return false, fmt.Errorf("read upvote flag: %w", err)
	}
	return n > 0, nil
}

func (f *mongoFlags) MarkUpvoted(ctx context.Context, postID uint) (bool, error) {
	res, err := f.coll.UpdateOne(ctx,
		bson.M{"client_id": f.clientID, "post_id": postID},
		bson.M{"$setOnInsert": bson.M{"created_at": now()}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, fmt.Errorf("write upvote flag: %w", err)
	}
	return res.UpsertedCount == 1, nil
}

func (f *mongoFlags) UnmarkUpvoted(ctx context.Context, postID uint) error {
	if _, err := f.coll.DeleteOne(ctx, bson.M{"client_id": f.clientID, "post_id": postID}); err != nil {
		return fmt.Errorf("remove upvote flag: %w", err)
	}
	return nil
}
