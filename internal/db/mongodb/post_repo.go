package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"Postboard/internal/core/posts"
)

// CollectionName is the collection holding post documents
const CollectionName = "posts"

// postDocument is the stored shape of a post; _id is a native ObjectID
type postDocument struct {
	Date     time.Time          `bson:"date"`
	User     string             `bson:"user"`
	Text     string             `bson:"text"`
	Name     string             `bson:"name"`
	Avatar   string             `bson:"avatar"`
	Likes    []posts.Like       `bson:"likes"`
	Comments []posts.Comment    `bson:"comments"`
	Version  int64              `bson:"__v"`
	ID       primitive.ObjectID `bson:"_id,omitempty"`
}

type mongoPostRepo struct {
	coll *mongo.Collection
	now  func() time.Time
}

// Connect opens a client and verifies the server is reachable
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongodb uri is required")
	}

	serverAPIOptions := options.ServerAPI(options.ServerAPIVersion1)
	clientOptions := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(serverAPIOptions)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}

// NewPostRepository creates a post repository backed by db.posts
func NewPostRepository(db *mongo.Database) posts.Repository {
	return &mongoPostRepo{
		coll: db.Collection(CollectionName),
		// Mongo stores milliseconds; truncating keeps returned dates equal to stored ones
		now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// EnsureIndexes creates the index backing the newest-first listing
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "date", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create posts date index: %w", err)
	}
	return nil
}

// Create inserts the post with a fresh ObjectID
func (r *mongoPostRepo) Create(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	doc := toDocument(post)
	doc.ID = primitive.NewObjectID()
	doc.Date = r.now()
	doc.Version = 0

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return nil, posts.NewStorageError("create", fmt.Errorf("failed to insert post: %w", err))
	}

	return doc.toPost(), nil
}

// GetByID returns ErrNotFound for malformed ObjectIDs as well as missing documents
func (r *mongoPostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, posts.ErrNotFound
	}

	var doc postDocument
	err = r.coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, posts.ErrNotFound
	}
	if err != nil {
		return nil, posts.NewStorageError("get", fmt.Errorf("failed to get post by id: %w", err))
	}

	return doc.toPost(), nil
}

// List returns all posts sorted by date descending
func (r *mongoPostRepo) List(ctx context.Context) ([]*posts.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, posts.NewStorageError("list", fmt.Errorf("failed to list posts: %w", err))
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, posts.NewStorageError("list", fmt.Errorf("failed to decode posts: %w", err))
	}

	result := make([]*posts.Post, 0, len(docs))
	for i := range docs {
		result = append(result, docs[i].toPost())
	}
	return result, nil
}

// Save updates the mutable fields if __v still matches, bumping it by one
func (r *mongoPostRepo) Save(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	objectID, err := primitive.ObjectIDFromHex(post.ID)
	if err != nil {
		return nil, posts.ErrNotFound
	}

	doc := toDocument(post)
	filter := bson.M{"_id": objectID, "__v": post.Version}
	update := bson.M{
		"$set": bson.M{
			"text":     doc.Text,
			"name":     doc.Name,
			"avatar":   doc.Avatar,
			"likes":    doc.Likes,
			"comments": doc.Comments,
		},
		"$inc": bson.M{"__v": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var saved postDocument
	err = r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&saved)
	if errors.Is(err, mongo.ErrNoDocuments) {
		count, countErr := r.coll.CountDocuments(ctx, bson.M{"_id": objectID})
		if countErr != nil {
			return nil, posts.NewStorageError("save", fmt.Errorf("failed to check post existence: %w", countErr))
		}
		if count == 0 {
			return nil, posts.ErrNotFound
		}
		return nil, posts.ErrConflict
	}
	if err != nil {
		return nil, posts.NewStorageError("save", fmt.Errorf("failed to update post: %w", err))
	}

	return saved.toPost(), nil
}

// Delete removes the post document
func (r *mongoPostRepo) Delete(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return posts.ErrNotFound
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return posts.NewStorageError("delete", fmt.Errorf("failed to delete post: %w", err))
	}
	if result.DeletedCount == 0 {
		return posts.ErrNotFound
	}
	return nil
}

func toDocument(post *posts.Post) postDocument {
	doc := postDocument{
		User:     post.User,
		Text:     post.Text,
		Name:     post.Name,
		Avatar:   post.Avatar,
		Likes:    post.Likes,
		Comments: post.Comments,
		Date:     post.Date,
		Version:  post.Version,
	}
	if doc.Likes == nil {
		doc.Likes = []posts.Like{}
	}
	if doc.Comments == nil {
		doc.Comments = []posts.Comment{}
	}
	return doc
}

func (d *postDocument) toPost() *posts.Post {
	post := &posts.Post{
		ID:       d.ID.Hex(),
		User:     d.User,
		Text:     d.Text,
		Name:     d.Name,
		Avatar:   d.Avatar,
		Likes:    d.Likes,
		Comments: d.Comments,
		Date:     d.Date.UTC(),
		Version:  d.Version,
	}
	if post.Likes == nil {
		post.Likes = []posts.Like{}
	}
	if post.Comments == nil {
		post.Comments = []posts.Comment{}
	}
	return post
}
