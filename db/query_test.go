package db

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBuildMovieFilter(t *testing.T) {
	t.Run("Empty filter matches everything", func(t *testing.T) {
		assert.Empty(t, buildMovieFilter(MovieFilter{}))
	})

	t.Run("Genre matches case-insensitively", func(t *testing.T) {
		filter := buildMovieFilter(MovieFilter{Genre: "Action"})
		genre, ok := filter["genres.name"].(bson.M)
		require.True(t, ok)
		assert.Equal(t, "Action", genre["$regex"])
		assert.Equal(t, "i", genre["$options"])
	})

	t.Run("Year bounds the release date", func(t *testing.T) {
		filter := buildMovieFilter(MovieFilter{Year: 2008})
		window, ok := filter["releaseDate"].(bson.M)
		require.True(t, ok)
		assert.Equal(t, time.Date(2008, time.January, 1, 0, 0, 0, 0, time.UTC), window["$gte"])
		assert.Equal(t, time.Date(2008, time.December, 31, 23, 59, 59, 0, time.UTC), window["$lte"])
	})

	t.Run("Rating is a minimum", func(t *testing.T) {
		filter := buildMovieFilter(MovieFilter{MinRating: 7.5})
		assert.Equal(t, bson.M{"$gte": 7.5}, filter["voteAverage"])
	})

	t.Run("Flags are only applied when set", func(t *testing.T) {
		yes := true
		no := false
		filter := buildMovieFilter(MovieFilter{Featured: &yes, Trending: &no})
		assert.Equal(t, true, filter["featured"])
		assert.Equal(t, false, filter["trending"])

		assert.NotContains(t, buildMovieFilter(MovieFilter{}), "featured")
	})
}

func TestMovieSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, movieSort("", ""))
	assert.Equal(t, bson.D{{Key: "title", Value: 1}}, movieSort("title", "asc"))
	assert.Equal(t, bson.D{{Key: "voteAverage", Value: -1}}, movieSort("voteAverage", "desc"))
}

func TestRegexSearchFilter(t *testing.T) {
	filter := regexSearchFilter("dark (knight)")
	clauses, ok := filter["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, clauses, 5)

	fields := make([]string, 0, len(clauses))
	for _, clause := range clauses {
		doc := clause.(bson.M)
		for field, re := range doc {
			fields = append(fields, field)
			matcher := re.(bson.M)
			assert.Equal(t, `dark \(knight\)`, matcher["$regex"], "regex metacharacters must be escaped")
			assert.Equal(t, "i", matcher["$options"])
		}
	}
	assert.ElementsMatch(t, []string{"title", "originalTitle", "overview", "tagline", "genres.name"}, fields)
}

func TestFallbackSearchSort(t *testing.T) {
	sort := fallbackSearchSort()
	require.Len(t, sort, 2)
	assert.Equal(t, "popularity", sort[0].Key)
	assert.Equal(t, -1, sort[0].Value)
	assert.Equal(t, "voteAverage", sort[1].Key)
}

func TestBuildReviewFilter(t *testing.T) {
	t.Run("Valid ids are converted", func(t *testing.T) {
		movieID := primitive.NewObjectID()
		userID := primitive.NewObjectID()
		filter, err := buildReviewFilter(ReviewFilter{
			Movie:  movieID.Hex(),
			User:   userID.Hex(),
			Status: "approved",
		})
		require.NoError(t, err)
		assert.Equal(t, movieID, filter["movie"])
		assert.Equal(t, userID, filter["user"])
		assert.Equal(t, "approved", filter["status"])
	})

	t.Run("Invalid hex is rejected as not found", func(t *testing.T) {
		_, err := buildReviewFilter(ReviewFilter{Movie: "not-a-hex-id"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestPageSlice(t *testing.T) {
	cases := []struct {
		name               string
		total, page, limit int
		start, end         int
	}{
		{"First page", 10, 1, 3, 0, 3},
		{"Middle page", 10, 2, 3, 3, 6},
		{"Last partial page", 10, 4, 3, 9, 10},
		{"Past the end", 10, 5, 3, 10, 10},
		{"Empty set", 0, 1, 10, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			start, end := pageSlice(tc.total, tc.page, tc.limit)
			assert.Equal(t, tc.start, start)
			assert.Equal(t, tc.end, end)
		})
	}
}

func TestValidatePage(t *testing.T) {
	assert.NoError(t, validatePage(1, 1))
	assert.NoError(t, validatePage(7, 100))
	assert.Error(t, validatePage(0, 10))
	assert.Error(t, validatePage(1, 0))
	assert.Error(t, validatePage(1, 101))
}
