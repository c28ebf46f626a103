package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Papan07/EntertainHub/db"
)

type movieRefRequest struct {
	MovieID string `json:"movieId" binding:"required"`
}

// resolveMovieRef validates the referenced movie exists and returns both
// ids for mutating the user's reference list.
func (a *API) resolveMovieRef(c *gin.Context, movieID string) (primitive.ObjectID, primitive.ObjectID, bool) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	movie, err := a.DB.FindMovieByID(c.Request.Context(), movieID)
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Movie not found")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load movie")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return userID, movie.ID, true
}

func (a *API) handleGetFavorites(c *gin.Context) {
	page, limit, ok := parsePagination(c, defaultPageSize)
	if !ok {
		return
	}
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return
	}
	movies, total, err := a.DB.GetFavoriteMovies(c.Request.Context(), userID, page, limit)
	if err != nil {
		a.Log.WithError(err).Error("failed to load favorites")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"movies":     movies,
		"pagination": paginationEnvelope(page, limit, total, "totalMovies"),
	})
}

func (a *API) handleAddFavorite(c *gin.Context) {
	var req movieRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	userID, movieID, ok := a.resolveMovieRef(c, req.MovieID)
	if !ok {
		return
	}
	err := a.DB.AddFavorite(c.Request.Context(), userID, movieID)
	if errors.Is(err, db.ErrDuplicate) {
		respondError(c, http.StatusBadRequest, "Movie already in favorites")
		return
	}
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to add favorite")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondMessage(c, http.StatusOK, "Movie added to favorites")
}

func (a *API) handleRemoveFavorite(c *gin.Context) {
	userID, movieID, ok := a.resolveMovieRef(c, c.Param("movieId"))
	if !ok {
		return
	}
	err := a.DB.RemoveFavorite(c.Request.Context(), userID, movieID)
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Movie not in favorites")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to remove favorite")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondMessage(c, http.StatusOK, "Movie removed from favorites")
}

func (a *API) handleGetQuickWatchlist(c *gin.Context) {
	page, limit, ok := parsePagination(c, defaultPageSize)
	if !ok {
		return
	}
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return
	}
	movies, total, err := a.DB.GetWatchlistMovies(c.Request.Context(), userID, page, limit)
	if err != nil {
		a.Log.WithError(err).Error("failed to load watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"movies":     movies,
		"pagination": paginationEnvelope(page, limit, total, "totalMovies"),
	})
}

func (a *API) handleAddToQuickWatchlist(c *gin.Context) {
	var req movieRefRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	userID, movieID, ok := a.resolveMovieRef(c, req.MovieID)
	if !ok {
		return
	}
	err := a.DB.AddToWatchlist(c.Request.Context(), userID, movieID)
	if errors.Is(err, db.ErrDuplicate) {
		respondError(c, http.StatusBadRequest, "Movie already in watchlist")
		return
	}
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to add to watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondMessage(c, http.StatusOK, "Movie added to watchlist")
}

func (a *API) handleRemoveFromQuickWatchlist(c *gin.Context) {
	userID, movieID, ok := a.resolveMovieRef(c, c.Param("movieId"))
	if !ok {
		return
	}
	err := a.DB.RemoveFromWatchlist(c.Request.Context(), userID, movieID)
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Movie not in watchlist")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to remove from watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondMessage(c, http.StatusOK, "Movie removed from watchlist")
}

func (a *API) handlePublicProfile(c *gin.Context) {
	user, err := a.DB.GetUserByID(c.Request.Context(), c.Param("userId"))
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load profile")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	watchlists, err := a.DB.GetPublicWatchlists(c.Request.Context(), user.ID)
	if err != nil {
		a.Log.WithError(err).Warn("failed to load public watchlists")
		watchlists = nil
	}

	respondOK(c, http.StatusOK, gin.H{
		"user":       user.PublicProfile(),
		"watchlists": watchlists,
		"stats": gin.H{
			"totalReviews":     len(user.Reviews),
			"totalFavorites":   len(user.Favorites),
			"publicWatchlists": len(watchlists),
		},
	})
}
