package db

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"

	m "github.com/Papan07/EntertainHub/models"
)

// ErrInvalidCredentials is returned by ValidateUser on a bad login; the
// handler maps it to 401 without leaking which part was wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// InsertNewUser hashes the password and stores the user. Duplicate
// username or email surfaces as ErrDuplicate.
func (s *Service) InsertNewUser(ctx context.Context, user m.User) (m.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return m.User{}, err
	}

	now := time.Now().UTC()
	user.ID = primitive.NewObjectID()
	user.Password = string(hashedPassword)
	if user.Role == "" {
		user.Role = m.RoleUser
	}
	user.Favorites = []primitive.ObjectID{}
	user.Watchlist = []primitive.ObjectID{}
	user.Reviews = []primitive.ObjectID{}
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := s.users().InsertOne(ctx, user); err != nil {
		return m.User{}, translateWriteError(err)
	}
	user.Password = ""
	return user, nil
}

// ValidateUser checks the identifier (username or email) and password.
func (s *Service) ValidateUser(ctx context.Context, identifier, password string) (m.User, error) {
	var user m.User
	filter := bson.M{"$or": bson.A{
		bson.M{"username": identifier},
		bson.M{"email": identifier},
	}}
	err := s.users().FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m.User{}, ErrInvalidCredentials
	}
	if err != nil {
		return m.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return m.User{}, ErrInvalidCredentials
	}
	user.Password = ""
	return user, nil
}

func (s *Service) GetUserByID(ctx context.Context, id string) (m.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return m.User{}, err
	}
	var user m.User
	err = s.users().FindOne(ctx, bson.M{"_id": oid}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m.User{}, ErrNotFound
	}
	if err != nil {
		return m.User{}, err
	}
	user.Password = ""
	return user, nil
}

// AddFavorite pushes the movie onto the user's favorites and bumps the
// movie's favoriteCount. ErrDuplicate when already present.
func (s *Service) AddFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error {
	return s.addRef(ctx, userID, movieID, "favorites", "favoriteCount")
}

// RemoveFavorite is the inverse of AddFavorite. ErrNotFound when absent.
func (s *Service) RemoveFavorite(ctx context.Context, userID, movieID primitive.ObjectID) error {
	return s.removeRef(ctx, userID, movieID, "favorites", "favoriteCount")
}

// AddToWatchlist and RemoveFromWatchlist maintain the quick watchlist, the
// flat movie-id array on the user distinct from named watchlists.
func (s *Service) AddToWatchlist(ctx context.Context, userID, movieID primitive.ObjectID) error {
	return s.addRef(ctx, userID, movieID, "watchlist", "watchlistCount")
}

func (s *Service) RemoveFromWatchlist(ctx context.Context, userID, movieID primitive.ObjectID) error {
	return s.removeRef(ctx, userID, movieID, "watchlist", "watchlistCount")
}

func (s *Service) addRef(ctx context.Context, userID, movieID primitive.ObjectID, field, counter string) error {
	// The $ne guard makes the push conditional, so a duplicate add shows up
	// as a non-matching filter rather than a second array entry.
	res, err := s.users().UpdateOne(ctx,
		bson.M{"_id": userID, field: bson.M{"$ne": movieID}},
		bson.M{"$push": bson.M{field: movieID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Either the movie is already referenced or the user document is
		// gone. Only a second lookup can tell the two apart.
		n, err := s.users().CountDocuments(ctx, bson.M{"_id": userID})
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrDuplicate
	}
	_, err = s.movies().UpdateByID(ctx, movieID, bson.M{"$inc": bson.M{counter: 1}})
	return err
}

func (s *Service) removeRef(ctx context.Context, userID, movieID primitive.ObjectID, field, counter string) error {
	res, err := s.users().UpdateOne(ctx,
		bson.M{"_id": userID, field: movieID},
		bson.M{"$pull": bson.M{field: movieID}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	// Never drive the counter below zero.
	_, err = s.movies().UpdateOne(ctx,
		bson.M{"_id": movieID, counter: bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{counter: -1}},
	)
	return err
}

// GetFavoriteMovies returns one page of the user's favorites plus the
// total, newest additions first.
func (s *Service) GetFavoriteMovies(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]m.Movie, int64, error) {
	return s.refMovies(ctx, userID, "favorites", page, limit)
}

// GetWatchlistMovies is the quick-watchlist counterpart.
func (s *Service) GetWatchlistMovies(ctx context.Context, userID primitive.ObjectID, page, limit int) ([]m.Movie, int64, error) {
	return s.refMovies(ctx, userID, "watchlist", page, limit)
}

func (s *Service) refMovies(ctx context.Context, userID primitive.ObjectID, field string, page, limit int) ([]m.Movie, int64, error) {
	if err := validatePage(page, limit); err != nil {
		return nil, 0, err
	}

	var user m.User
	err := s.users().FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, 0, ErrNotFound
	}
	if err != nil {
		return nil, 0, err
	}

	ids := user.Favorites
	if field == "watchlist" {
		ids = user.Watchlist
	}

	// Newest first: the array is append-ordered.
	reversed := make([]primitive.ObjectID, len(ids))
	for i, id := range ids {
		reversed[len(ids)-1-i] = id
	}

	start, end := pageSlice(len(reversed), page, limit)
	movies, err := s.FindMoviesByIDs(ctx, reversed[start:end])
	if err != nil {
		return nil, 0, err
	}
	return movies, int64(len(ids)), nil
}

func (s *Service) attachReviewToUser(ctx context.Context, userID, reviewID primitive.ObjectID) error {
	_, err := s.users().UpdateByID(ctx, userID, bson.M{"$push": bson.M{"reviews": reviewID}})
	return err
}

func (s *Service) detachReviewFromUser(ctx context.Context, userID, reviewID primitive.ObjectID) error {
	_, err := s.users().UpdateByID(ctx, userID, bson.M{"$pull": bson.M{"reviews": reviewID}})
	return err
}
