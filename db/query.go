package db

import (
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// MovieFilter holds the already-validated listing parameters for the movie
// catalog. Zero values mean "not filtered".
type MovieFilter struct {
	Genre     string
	Year      int
	MinRating float64
	Featured  *bool
	Trending  *bool
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (f MovieFilter) Skip() int64 { return int64((f.Page - 1) * f.Limit) }

// buildMovieFilter translates a MovieFilter into the query document.
func buildMovieFilter(f MovieFilter) bson.M {
	filter := bson.M{}
	if f.Genre != "" {
		filter["genres.name"] = bson.M{
			"$regex":   regexp.QuoteMeta(f.Genre),
			"$options": "i",
		}
	}
	if f.Year != 0 {
		start := time.Date(f.Year, time.January, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(f.Year, time.December, 31, 23, 59, 59, 0, time.UTC)
		filter["releaseDate"] = bson.M{"$gte": start, "$lte": end}
	}
	if f.MinRating > 0 {
		filter["voteAverage"] = bson.M{"$gte": f.MinRating}
	}
	if f.Featured != nil {
		filter["featured"] = *f.Featured
	}
	if f.Trending != nil {
		filter["trending"] = *f.Trending
	}
	return filter
}

// movieSort builds the sort document for the listing endpoint. The field
// whitelist matched at validation time keeps arbitrary keys out.
func movieSort(sortBy, sortOrder string) bson.D {
	if sortBy == "" {
		sortBy = "createdAt"
	}
	order := -1
	if sortOrder == "asc" {
		order = 1
	}
	return bson.D{{Key: sortBy, Value: order}}
}

// textSearchFilter is the primary, index-backed search filter.
func textSearchFilter(query string) bson.M {
	return bson.M{"$text": bson.M{"$search": query}}
}

// regexSearchFilter is the fallback: a case-insensitive substring match
// across title, original title, overview, tagline and genre names.
func regexSearchFilter(query string) bson.M {
	pattern := regexp.QuoteMeta(query)
	re := bson.M{"$regex": pattern, "$options": "i"}
	return bson.M{"$or": bson.A{
		bson.M{"title": re},
		bson.M{"originalTitle": re},
		bson.M{"overview": re},
		bson.M{"tagline": re},
		bson.M{"genres.name": re},
	}}
}

// fallbackSearchSort ranks regex matches by popularity then rating, since
// there is no relevance score to sort by.
func fallbackSearchSort() bson.D {
	return bson.D{{Key: "popularity", Value: -1}, {Key: "voteAverage", Value: -1}}
}

// ReviewFilter holds the listing parameters for reviews.
type ReviewFilter struct {
	Movie     string
	User      string
	Status    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

func (f ReviewFilter) Skip() int64 { return int64((f.Page - 1) * f.Limit) }

func buildReviewFilter(f ReviewFilter) (bson.M, error) {
	filter := bson.M{}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Movie != "" {
		id, err := objectID(f.Movie)
		if err != nil {
			return nil, err
		}
		filter["movie"] = id
	}
	if f.User != "" {
		id, err := objectID(f.User)
		if err != nil {
			return nil, err
		}
		filter["user"] = id
	}
	return filter, nil
}

func reviewSort(sortBy, sortOrder string) bson.D {
	if sortBy == "" {
		sortBy = "createdAt"
	}
	order := -1
	if sortOrder == "asc" {
		order = 1
	}
	return bson.D{{Key: sortBy, Value: order}}
}

// pageSlice bounds a skip/limit window against a total length; used for
// paginating embedded reference arrays (favorites, quick watchlist).
func pageSlice(total, page, limit int) (int, int) {
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return start, end
}

func validatePage(page, limit int) error {
	if page < 1 {
		return fmt.Errorf("page must be >= 1, got %d", page)
	}
	if limit < 1 || limit > 100 {
		return fmt.Errorf("limit must be between 1 and 100, got %d", limit)
	}
	return nil
}
