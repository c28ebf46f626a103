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

// FindReviews lists reviews with optional movie/user/status filters and
// returns the total count of the matching set.
func (s *Service) FindReviews(ctx context.Context, filter ReviewFilter) ([]m.Review, int64, error) {
	if err := validatePage(filter.Page, filter.Limit); err != nil {
		return nil, 0, err
	}
	query, err := buildReviewFilter(filter)
	if err != nil {
		return nil, 0, err
	}

	opts := options.Find().
		SetSort(reviewSort(filter.SortBy, filter.SortOrder)).
		SetSkip(filter.Skip()).
		SetLimit(int64(filter.Limit))

	cursor, err := s.reviews().Find(ctx, query, opts)
	if err != nil {
		return nil, 0, err
	}
	defer cursor.Close(ctx)

	reviews := []m.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, 0, err
	}
	total, err := s.reviews().CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	return reviews, total, nil
}

func (s *Service) FindReviewByID(ctx context.Context, id string) (m.Review, error) {
	oid, err := objectID(id)
	if err != nil {
		return m.Review{}, err
	}
	var review m.Review
	err = s.reviews().FindOne(ctx, bson.M{"_id": oid}).Decode(&review)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return m.Review{}, ErrNotFound
	}
	return review, err
}

// InsertReview stores a new review and appends its id to the movie's and
// the author's reference lists. The unique (user, movie) index turns a
// second review for the same movie into ErrDuplicate.
func (s *Service) InsertReview(ctx context.Context, review m.Review) (m.Review, error) {
	now := time.Now().UTC()
	review.ID = primitive.NewObjectID()
	if review.Status == "" {
		review.Status = m.ReviewStatusApproved
	}
	review.Likes = []m.Reaction{}
	review.Dislikes = []m.Reaction{}
	review.CreatedAt = now
	review.UpdatedAt = now

	if _, err := s.reviews().InsertOne(ctx, review); err != nil {
		return m.Review{}, translateWriteError(err)
	}

	if _, err := s.movies().UpdateByID(ctx, review.Movie, bson.M{"$push": bson.M{"reviews": review.ID}}); err != nil {
		return m.Review{}, err
	}
	if err := s.attachReviewToUser(ctx, review.User, review.ID); err != nil {
		return m.Review{}, err
	}
	return review, nil
}

// SaveReview persists an in-memory mutated review in one step; concurrent
// writers race and the last one wins.
func (s *Service) SaveReview(ctx context.Context, review m.Review) error {
	review.UpdatedAt = time.Now().UTC()
	res, err := s.reviews().ReplaceOne(ctx, bson.M{"_id": review.ID}, review)
	if err != nil {
		return translateWriteError(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteReview removes the review and pulls its id from the movie's and
// the author's reference lists.
func (s *Service) DeleteReview(ctx context.Context, review m.Review) error {
	res, err := s.reviews().DeleteOne(ctx, bson.M{"_id": review.ID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}

	if _, err := s.movies().UpdateByID(ctx, review.Movie, bson.M{"$pull": bson.M{"reviews": review.ID}}); err != nil {
		return err
	}
	return s.detachReviewFromUser(ctx, review.User, review.ID)
}
