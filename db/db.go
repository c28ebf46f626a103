package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique index rejects a write.
	ErrDuplicate = errors.New("duplicate key")
)

// Service is the MongoDB-backed store for movies, users, reviews and
// watchlists.
type Service struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewService(ctx context.Context, uri, database string) (*Service, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, fmt.Errorf("mongodb ping failed: %w", err)
	}

	return &Service{client: client, db: client.Database(database)}, nil
}

func (s *Service) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Service) movies() *mongo.Collection     { return s.db.Collection("movies") }
func (s *Service) users() *mongo.Collection      { return s.db.Collection("users") }
func (s *Service) reviews() *mongo.Collection    { return s.db.Collection("reviews") }
func (s *Service) watchlists() *mongo.Collection { return s.db.Collection("watchlists") }

// EnsureIndexes creates the indexes the query paths rely on: the text index
// backing relevance search, the unique sparse tmdbId index, and the unique
// compound keys for reviews and watchlist names.
func (s *Service) EnsureIndexes(ctx context.Context) error {
	movieIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title", Value: "text"}, {Key: "overview", Value: "text"}},
			Options: options.Index().SetName("title_overview_text"),
		},
		{
			Keys:    bson.D{{Key: "tmdbId", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
		{Keys: bson.D{{Key: "releaseDate", Value: -1}}},
		{Keys: bson.D{{Key: "voteAverage", Value: -1}}},
		{Keys: bson.D{{Key: "popularity", Value: -1}}},
		{Keys: bson.D{{Key: "genres.name", Value: 1}}},
		{Keys: bson.D{{Key: "featured", Value: 1}}},
		{Keys: bson.D{{Key: "trending", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	}
	if _, err := s.movies().Indexes().CreateMany(ctx, movieIndexes); err != nil {
		return fmt.Errorf("failed to create movie indexes: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := s.users().Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	reviewIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "movie", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "movie", Value: 1}, {Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "reported", Value: 1}}},
	}
	if _, err := s.reviews().Indexes().CreateMany(ctx, reviewIndexes); err != nil {
		return fmt.Errorf("failed to create review indexes: %w", err)
	}

	watchlistIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user", Value: 1}, {Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "isPublic", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "movies.movie", Value: 1}}},
	}
	if _, err := s.watchlists().Indexes().CreateMany(ctx, watchlistIndexes); err != nil {
		return fmt.Errorf("failed to create watchlist indexes: %w", err)
	}

	return nil
}

func translateWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}
