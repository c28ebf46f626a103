package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	m "github.com/Papan07/EntertainHub/models"
)

// GetUserWatchlists returns the user's named watchlists, newest first.
func (s *Service) GetUserWatchlists(ctx context.Context, userID primitive.ObjectID) ([]m.Watchlist, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.watchlists().Find(ctx, bson.M{"user": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	watchlists := []m.Watchlist{}
	err = cursor.All(ctx, &watchlists)
	return watchlists, err
}

// GetPublicWatchlists returns a user's public watchlists, for the public
// profile page.
func (s *Service) GetPublicWatchlists(ctx context.Context, userID primitive.ObjectID) ([]m.Watchlist, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.watchlists().Find(ctx, bson.M{"user": userID, "isPublic": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	watchlists := []m.Watchlist{}
	err = cursor.All(ctx, &watchlists)
	return watchlists, err
}

// InsertWatchlist stores a new named watchlist. The unique (user, name)
// index turns a repeated name into ErrDuplicate.
func (s *Service) InsertWatchlist(ctx context.Context, watchlist m.Watchlist) (m.Watchlist, error) {
	now := time.Now().UTC()
	watchlist.ID = primitive.NewObjectID()
	if watchlist.Name == "" {
		watchlist.Name = "My Watchlist"
	}
	if watchlist.Movies == nil {
		watchlist.Movies = []m.WatchlistEntry{}
	}
	if watchlist.Tags == nil {
		watchlist.Tags = []string{}
	}
	if watchlist.SortBy == "" {
		watchlist.SortBy = "addedAt"
	}
	if watchlist.SortOrder == "" {
		watchlist.SortOrder = "desc"
	}
	watchlist.CreatedAt = now
	watchlist.UpdatedAt = now

	if _, err := s.watchlists().InsertOne(ctx, watchlist); err != nil {
		return m.Watchlist{}, translateWriteError(err)
	}
	return watchlist, nil
}

func (s *Service) FindWatchlistByID(ctx context.Context, id string) (m.Watchlist, error) {
	oid, err := objectID(id)
	if err != nil {
		return m.Watchlist{}, err
	}
	var watchlist m.Watchlist
	err = s.watchlists().FindOne(ctx, bson.M{"_id": oid}).Decode(&watchlist)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m.Watchlist{}, ErrNotFound
	}
	return watchlist, err
}

// SaveWatchlist persists an in-memory mutated watchlist in one step. The
// caller is expected to have recomputed the derived statistics already.
func (s *Service) SaveWatchlist(ctx context.Context, watchlist m.Watchlist) error {
	watchlist.UpdatedAt = time.Now().UTC()
	res, err := s.watchlists().ReplaceOne(ctx, bson.M{"_id": watchlist.ID}, watchlist)
	if err != nil {
		return translateWriteError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Service) DeleteWatchlist(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.watchlists().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
