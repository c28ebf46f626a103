package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/Papan07/EntertainHub/db"
	m "github.com/Papan07/EntertainHub/models"
)

func (a *API) handleListMovies(c *gin.Context) {
	page, limit, ok := parsePagination(c, defaultPageSize)
	if !ok {
		return
	}
	sortBy, sortOrder, ok := parseSort(c, movieSortFields)
	if !ok {
		return
	}
	featured, ok := parseOptionalBool(c, "featured")
	if !ok {
		return
	}
	trending, ok := parseOptionalBool(c, "trending")
	if !ok {
		return
	}

	filter := db.MovieFilter{
		Genre:     c.Query("genre"),
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Featured:  featured,
		Trending:  trending,
		Page:      page,
		Limit:     limit,
	}
	if raw := c.Query("year"); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil || year < 1880 || year > 2100 {
			respondValidationError(c, []fieldError{{Field: "year", Message: "year must be a valid year", Value: raw}})
			return
		}
		filter.Year = year
	}
	if raw := c.Query("rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil || rating < 0 || rating > 10 {
			respondValidationError(c, []fieldError{{Field: "rating", Message: "rating must be between 0 and 10", Value: raw}})
			return
		}
		filter.MinRating = rating
	}

	movies, total, err := a.DB.FindMovies(c.Request.Context(), filter)
	if err != nil {
		a.Log.WithError(err).Error("failed to list movies")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"movies":     movies,
		"pagination": paginationEnvelope(page, limit, total, "totalMovies"),
	})
}

func (a *API) handleSearchMovies(c *gin.Context) {
	query, ok := parseSearchQuery(c)
	if !ok {
		return
	}
	page, limit, ok := parsePagination(c, defaultPageSize)
	if !ok {
		return
	}

	movies, total, strategy, err := a.DB.SearchMovies(c.Request.Context(), query, page, limit)
	if err != nil {
		a.Log.WithError(err).WithField("query", query).Error("movie search failed")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"movies":     movies,
		"query":      query,
		"searchType": strategy,
		"pagination": paginationEnvelope(page, limit, total, "totalMovies"),
	})
}

func (a *API) handleTrendingMovies(c *gin.Context) {
	limit, ok := parseLimitOnly(c, 10, 50)
	if !ok {
		return
	}
	movies, err := a.DB.FindTrendingMovies(c.Request.Context(), limit)
	if err != nil {
		a.Log.WithError(err).Error("failed to load trending movies")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"movies": movies})
}

func (a *API) handleFeaturedMovies(c *gin.Context) {
	limit, ok := parseLimitOnly(c, 10, 50)
	if !ok {
		return
	}
	movies, err := a.DB.FindFeaturedMovies(c.Request.Context(), limit)
	if err != nil {
		a.Log.WithError(err).Error("failed to load featured movies")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"movies": movies})
}

func (a *API) handleGetMovie(c *gin.Context) {
	movie, err := a.DB.FindMovieByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Movie not found")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load movie")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	// A failed counter bump must not fail the read.
	if err := a.DB.IncrementViewCount(c.Request.Context(), movie.ID); err != nil {
		a.Log.WithError(err).Warn("failed to increment view count")
	} else {
		movie.ViewCount++
	}

	data := gin.H{"movie": movie}
	if userID, ok := currentUserObjectID(c); ok {
		user, err := a.DB.GetUserByID(c.Request.Context(), userID.Hex())
		if err == nil {
			data["userInteractions"] = gin.H{
				"isFavorited":   user.HasFavorite(movie.ID),
				"isInWatchlist": user.HasInWatchlist(movie.ID),
			}
		}
	}
	respondOK(c, http.StatusOK, data)
}

// flexDate decodes a JSON string carrying either a bare date or a full
// RFC 3339 timestamp. Catalog exports commonly ship release dates as
// plain "2006-01-02" strings.
type flexDate struct {
	time.Time
}

func (d *flexDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.New("must be a string")
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("%q is not an ISO 8601 date", raw)
}

// createMovieRequest shadows the model's releaseDate so both date-only and
// timestamp payloads decode into the schema type.
type createMovieRequest struct {
	m.Movie
	ReleaseDate flexDate `json:"releaseDate"`
}

func (a *API) handleCreateMovie(c *gin.Context) {
	var req createMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	movie := req.Movie
	movie.ReleaseDate = req.ReleaseDate.Time
	if movie.Title == "" {
		respondValidationError(c, []fieldError{{Field: "title", Message: "title is required"}})
		return
	}
	if movie.VoteAverage < 0 || movie.VoteAverage > 10 {
		respondValidationError(c, []fieldError{{
			Field:   "voteAverage",
			Message: "voteAverage must be between 0 and 10",
			Value:   movie.VoteAverage,
		}})
		return
	}
	if adminID, ok := currentUserObjectID(c); ok {
		movie.AddedBy = adminID
	}

	created, err := a.DB.InsertMovie(c.Request.Context(), movie)
	if errors.Is(err, db.ErrDuplicate) {
		respondError(c, http.StatusBadRequest, "A movie with this TMDB id already exists")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to create movie")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"movie": created})
}

// updateMovieRequest whitelists the fields an admin may change and decodes
// each into its schema type before anything reaches the movie collection.
// Identity and counter fields (_id, addedBy, reviews, viewCount and the
// reference counters) have no slot here and are silently dropped.
type updateMovieRequest struct {
	TMDBID              *int64                 `json:"tmdbId"`
	IMDBID              *string                `json:"imdbId"`
	Title               *string                `json:"title"`
	OriginalTitle       *string                `json:"originalTitle"`
	Overview            *string                `json:"overview"`
	Tagline             *string                `json:"tagline"`
	ReleaseDate         *flexDate              `json:"releaseDate"`
	Status              *string                `json:"status"`
	PosterPath          *string                `json:"posterPath"`
	BackdropPath        *string                `json:"backdropPath"`
	TrailerURL          *string                `json:"trailerUrl"`
	VoteAverage         *float64               `json:"voteAverage"`
	VoteCount           *int                   `json:"voteCount"`
	Popularity          *float64               `json:"popularity"`
	Runtime             *int                   `json:"runtime"`
	Budget              *int64                 `json:"budget"`
	Revenue             *int64                 `json:"revenue"`
	Genres              *[]m.Genre             `json:"genres"`
	OriginalLanguage    *string                `json:"originalLanguage"`
	SpokenLanguages     *[]m.SpokenLanguage    `json:"spokenLanguages"`
	ProductionCountries *[]m.ProductionCountry `json:"productionCountries"`
	ProductionCompanies *[]m.ProductionCompany `json:"productionCompanies"`
	Adult               *bool                  `json:"adult"`
	Featured            *bool                  `json:"featured"`
	Trending            *bool                  `json:"trending"`
}

func (r updateMovieRequest) document() bson.M {
	doc := bson.M{}
	if r.TMDBID != nil {
		doc["tmdbId"] = *r.TMDBID
	}
	if r.IMDBID != nil {
		doc["imdbId"] = *r.IMDBID
	}
	if r.Title != nil {
		doc["title"] = *r.Title
	}
	if r.OriginalTitle != nil {
		doc["originalTitle"] = *r.OriginalTitle
	}
	if r.Overview != nil {
		doc["overview"] = *r.Overview
	}
	if r.Tagline != nil {
		doc["tagline"] = *r.Tagline
	}
	if r.ReleaseDate != nil {
		doc["releaseDate"] = r.ReleaseDate.Time
	}
	if r.Status != nil {
		doc["status"] = *r.Status
	}
	if r.PosterPath != nil {
		doc["posterPath"] = *r.PosterPath
	}
	if r.BackdropPath != nil {
		doc["backdropPath"] = *r.BackdropPath
	}
	if r.TrailerURL != nil {
		doc["trailerUrl"] = *r.TrailerURL
	}
	if r.VoteAverage != nil {
		doc["voteAverage"] = *r.VoteAverage
	}
	if r.VoteCount != nil {
		doc["voteCount"] = *r.VoteCount
	}
	if r.Popularity != nil {
		doc["popularity"] = *r.Popularity
	}
	if r.Runtime != nil {
		doc["runtime"] = *r.Runtime
	}
	if r.Budget != nil {
		doc["budget"] = *r.Budget
	}
	if r.Revenue != nil {
		doc["revenue"] = *r.Revenue
	}
	if r.Genres != nil {
		doc["genres"] = *r.Genres
	}
	if r.OriginalLanguage != nil {
		doc["originalLanguage"] = *r.OriginalLanguage
	}
	if r.SpokenLanguages != nil {
		doc["spokenLanguages"] = *r.SpokenLanguages
	}
	if r.ProductionCountries != nil {
		doc["productionCountries"] = *r.ProductionCountries
	}
	if r.ProductionCompanies != nil {
		doc["productionCompanies"] = *r.ProductionCompanies
	}
	if r.Adult != nil {
		doc["adult"] = *r.Adult
	}
	if r.Featured != nil {
		doc["featured"] = *r.Featured
	}
	if r.Trending != nil {
		doc["trending"] = *r.Trending
	}
	return doc
}

func (a *API) handleUpdateMovie(c *gin.Context) {
	var req updateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	if req.Title != nil && *req.Title == "" {
		respondValidationError(c, []fieldError{{Field: "title", Message: "title cannot be empty"}})
		return
	}
	if req.VoteAverage != nil && (*req.VoteAverage < 0 || *req.VoteAverage > 10) {
		respondValidationError(c, []fieldError{{
			Field:   "voteAverage",
			Message: "voteAverage must be between 0 and 10",
			Value:   *req.VoteAverage,
		}})
		return
	}
	update := req.document()
	if len(update) == 0 {
		respondValidationError(c, []fieldError{{Field: "body", Message: "no updatable fields provided"}})
		return
	}

	movie, err := a.DB.UpdateMovie(c.Request.Context(), c.Param("id"), update)
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Movie not found")
		return
	}
	if errors.Is(err, db.ErrDuplicate) {
		respondError(c, http.StatusBadRequest, "A movie with this TMDB id already exists")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to update movie")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"movie": movie})
}

func (a *API) handleDeleteMovie(c *gin.Context) {
	err := a.DB.DeleteMovie(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Movie not found")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to delete movie")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondMessage(c, http.StatusOK, "Movie deleted successfully")
}
