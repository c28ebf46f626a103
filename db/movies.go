package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	m "github.com/Papan07/EntertainHub/models"
)

// Search strategies reported by SearchMovies.
const (
	SearchStrategyText  = "text"
	SearchStrategyRegex = "regex"
)

func objectID(hex string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id %q", ErrNotFound, hex)
	}
	return id, nil
}

// FindMovies lists the catalog with filters, sorting and pagination, and
// returns the total count of the matching set.
func (s *Service) FindMovies(ctx context.Context, filter MovieFilter) ([]m.Movie, int64, error) {
	query := buildMovieFilter(filter)

	opts := options.Find().
		SetSort(movieSort(filter.SortBy, filter.SortOrder)).
		SetSkip(filter.Skip()).
		SetLimit(int64(filter.Limit))

	cursor, err := s.movies().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	movies := []m.Movie{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, 0, err
	}

	total, err := s.movies().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

// SearchMovies resolves a free-text query against the catalog. The indexed
// full-text match ranked by relevance score runs first; if it fails (most
// commonly a missing text index) the same query is re-run as a
// case-insensitive substring match ranked by popularity and rating. The
// returned strategy names which path produced the results, and the total
// reflects the matching set under that strategy.
func (s *Service) SearchMovies(ctx context.Context, query string, page, limit int) ([]m.Movie, int64, string, error) {
	if err := validatePage(page, limit); err != nil {
		return nil, 0, "", err
	}
	skip := int64((page - 1) * limit)

	return runSearchStrategies(ctx,
		func(ctx context.Context) ([]m.Movie, int64, error) {
			return s.textSearch(ctx, query, skip, int64(limit))
		},
		func(ctx context.Context) ([]m.Movie, int64, error) {
			return s.regexSearch(ctx, query, skip, int64(limit))
		},
	)
}

// searchRun executes one search strategy and reports its page and total.
type searchRun func(ctx context.Context) ([]m.Movie, int64, error)

// runSearchStrategies tries the ranked strategy and, on any error, re-runs
// the query through the substring strategy exactly once. The substring
// strategy's error, if it also fails, is the one returned.
func runSearchStrategies(ctx context.Context, ranked, substring searchRun) ([]m.Movie, int64, string, error) {
	movies, total, err := ranked(ctx)
	if err == nil {
		return movies, total, SearchStrategyText, nil
	}
	movies, total, err = substring(ctx)
	if err != nil {
		return nil, 0, "", err
	}
	return movies, total, SearchStrategyRegex, nil
}

func (s *Service) regexSearch(ctx context.Context, query string, skip, limit int64) ([]m.Movie, int64, error) {
	filter := regexSearchFilter(query)
	opts := options.Find().
		SetSort(fallbackSearchSort()).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := s.movies().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	movies := []m.Movie{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, 0, err
	}
	total, err := s.movies().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

func (s *Service) textSearch(ctx context.Context, query string, skip, limit int64) ([]m.Movie, int64, error) {
	filter := textSearchFilter(query)
	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := s.movies().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	movies := []m.Movie{}
	if err := cursor.All(ctx, &movies); err != nil {
		return nil, 0, err
	}
	total, err := s.movies().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return movies, total, nil
}

func (s *Service) FindMovieByID(ctx context.Context, id string) (m.Movie, error) {
	oid, err := objectID(id)
	if err != nil {
		return m.Movie{}, err
	}
	var movie m.Movie
	err = s.movies().FindOne(ctx, bson.M{"_id": oid}).Decode(&movie)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m.Movie{}, ErrNotFound
	}
	return movie, err
}

// IncrementViewCount bumps the view counter on every detail fetch.
func (s *Service) IncrementViewCount(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.movies().UpdateByID(ctx, id, bson.M{"$inc": bson.M{"viewCount": 1}})
	return err
}

func (s *Service) FindTrendingMovies(ctx context.Context, limit int) ([]m.Movie, error) {
	return s.findFlagged(ctx, "trending", bson.D{{Key: "popularity", Value: -1}}, limit)
}

func (s *Service) FindFeaturedMovies(ctx context.Context, limit int) ([]m.Movie, error) {
	return s.findFlagged(ctx, "featured", bson.D{{Key: "createdAt", Value: -1}}, limit)
}

func (s *Service) findFlagged(ctx context.Context, flag string, sort bson.D, limit int) ([]m.Movie, error) {
	opts := options.Find().SetSort(sort).SetLimit(int64(limit))
	cursor, err := s.movies().Find(ctx, bson.M{flag: true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	movies := []m.Movie{}
	err = cursor.All(ctx, &movies)
	return movies, err
}

// InsertMovie stores a new catalog record. A duplicate tmdbId surfaces as
// ErrDuplicate.
func (s *Service) InsertMovie(ctx context.Context, movie m.Movie) (m.Movie, error) {
	now := time.Now().UTC()
	movie.ID = primitive.NewObjectID()
	movie.CreatedAt = now
	movie.UpdatedAt = now
	if movie.Status == "" {
		movie.Status = m.StatusReleased
	}
	if movie.Genres == nil {
		movie.Genres = []m.Genre{}
	}
	if movie.Reviews == nil {
		movie.Reviews = []primitive.ObjectID{}
	}

	if _, err := s.movies().InsertOne(ctx, movie); err != nil {
		return m.Movie{}, translateWriteError(err)
	}
	return movie, nil
}

func (s *Service) UpdateMovie(ctx context.Context, id string, update bson.M) (m.Movie, error) {
	oid, err := objectID(id)
	if err != nil {
		return m.Movie{}, err
	}
	update["updatedAt"] = time.Now().UTC()

	var movie m.Movie
	err = s.movies().FindOneAndUpdate(
		ctx,
		bson.M{"_id": oid},
		bson.M{"$set": update},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&movie)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m.Movie{}, ErrNotFound
	}
	if err != nil {
		return m.Movie{}, translateWriteError(err)
	}
	return movie, nil
}

// DeleteMovie removes the movie and cascades: its reviews are deleted and
// the references on users' favorites/watchlist arrays are pulled.
func (s *Service) DeleteMovie(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}

	res, err := s.movies().DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	if _, err := s.reviews().DeleteMany(ctx, bson.M{"movie": oid}); err != nil {
		return err
	}
	_, err = s.users().UpdateMany(ctx, bson.M{}, bson.M{"$pull": bson.M{
		"favorites": oid,
		"watchlist": oid,
	}})
	return err
}

// MovieRuntimes returns the runtime in minutes for each of the given ids,
// keyed by id. Missing movies simply have no entry.
func (s *Service) MovieRuntimes(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]int, error) {
	runtimes := make(map[primitive.ObjectID]int, len(ids))
	if len(ids) == 0 {
		return runtimes, nil
	}

	opts := options.Find().SetProjection(bson.M{"runtime": 1})
	cursor, err := s.movies().Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []struct {
		ID      primitive.ObjectID `bson:"_id"`
		Runtime int                `bson:"runtime"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, doc := range docs {
		runtimes[doc.ID] = doc.Runtime
	}
	return runtimes, nil
}

// FindMoviesByIDs loads the given movies preserving the order of ids.
func (s *Service) FindMoviesByIDs(ctx context.Context, ids []primitive.ObjectID) ([]m.Movie, error) {
	if len(ids) == 0 {
		return []m.Movie{}, nil
	}
	cursor, err := s.movies().Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	fetched := []m.Movie{}
	if err := cursor.All(ctx, &fetched); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]m.Movie, len(fetched))
	for _, movie := range fetched {
		byID[movie.ID] = movie
	}
	ordered := make([]m.Movie, 0, len(ids))
	for _, id := range ids {
		if movie, ok := byID[id]; ok {
			ordered = append(ordered, movie)
		}
	}
	return ordered, nil
}
