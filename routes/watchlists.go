package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/Papan07/EntertainHub/db"
	m "github.com/Papan07/EntertainHub/models"
)

// watchlistView adds the derived fields the clients render alongside the
// stored document.
func watchlistView(w m.Watchlist) gin.H {
	return gin.H{
		"watchlist":            w,
		"completionPercentage": w.CompletionPercentage(),
		"averageRating":        w.AverageRating(),
	}
}

// recomputeStats refreshes the derived counters against current catalog
// runtimes before a persist. A runtime lookup failure falls back to the
// placeholder runtime rather than failing the mutation.
func (a *API) recomputeStats(c *gin.Context, w *m.Watchlist) {
	ids := make([]primitive.ObjectID, 0, len(w.Movies))
	for _, entry := range w.Movies {
		ids = append(ids, entry.Movie)
	}
	runtimes, err := a.DB.MovieRuntimes(c.Request.Context(), ids)
	if err != nil {
		a.Log.WithError(err).Warn("failed to load movie runtimes")
		w.RecomputeStats(nil)
		return
	}
	w.RecomputeStats(func(id primitive.ObjectID) (int, bool) {
		minutes, ok := runtimes[id]
		return minutes, ok
	})
}

func (a *API) handleGetWatchlists(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return
	}
	watchlists, err := a.DB.GetUserWatchlists(c.Request.Context(), userID)
	if err != nil {
		a.Log.WithError(err).Error("failed to list watchlists")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"watchlists": watchlists})
}

type createWatchlistRequest struct {
	Name        string   `json:"name" binding:"required,max=100"`
	Description string   `json:"description" binding:"max=500"`
	IsPublic    bool     `json:"isPublic"`
	Tags        []string `json:"tags"`
}

func (a *API) handleCreateWatchlist(c *gin.Context) {
	var req createWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return
	}

	watchlist, err := a.DB.InsertWatchlist(c.Request.Context(), m.Watchlist{
		User:        userID,
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
		Tags:        req.Tags,
	})
	if errors.Is(err, db.ErrDuplicate) {
		respondError(c, http.StatusBadRequest, "You already have a watchlist with this name")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to create watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"watchlist": watchlist})
}

// loadWatchlist fetches the list and enforces the given access check.
func (a *API) loadWatchlist(c *gin.Context, check func(w *m.Watchlist, userID primitive.ObjectID) bool) (m.Watchlist, primitive.ObjectID, bool) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return m.Watchlist{}, primitive.NilObjectID, false
	}
	watchlist, err := a.DB.FindWatchlistByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Watchlist not found")
		return m.Watchlist{}, primitive.NilObjectID, false
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return m.Watchlist{}, primitive.NilObjectID, false
	}
	if !check(&watchlist, userID) {
		respondError(c, http.StatusForbidden, "You do not have access to this watchlist")
		return m.Watchlist{}, primitive.NilObjectID, false
	}
	return watchlist, userID, true
}

func (a *API) loadViewableWatchlist(c *gin.Context) (m.Watchlist, bool) {
	watchlist, _, ok := a.loadWatchlist(c, func(w *m.Watchlist, userID primitive.ObjectID) bool {
		return w.CanView(userID, c.GetString("role"))
	})
	return watchlist, ok
}

func (a *API) loadEditableWatchlist(c *gin.Context) (m.Watchlist, bool) {
	watchlist, _, ok := a.loadWatchlist(c, func(w *m.Watchlist, userID primitive.ObjectID) bool {
		return w.CanEdit(userID)
	})
	return watchlist, ok
}

func (a *API) handleGetWatchlist(c *gin.Context) {
	watchlist, ok := a.loadViewableWatchlist(c)
	if !ok {
		return
	}
	respondOK(c, http.StatusOK, watchlistView(watchlist))
}

type updateWatchlistRequest struct {
	Name        *string   `json:"name" binding:"omitempty,max=100"`
	Description *string   `json:"description" binding:"omitempty,max=500"`
	IsPublic    *bool     `json:"isPublic"`
	Tags        *[]string `json:"tags"`
}

func (a *API) handleUpdateWatchlist(c *gin.Context) {
	var req updateWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	watchlist, _, ok := a.loadWatchlist(c, func(w *m.Watchlist, userID primitive.ObjectID) bool {
		return w.User == userID
	})
	if !ok {
		return
	}

	if req.Name != nil {
		watchlist.Name = *req.Name
	}
	if req.Description != nil {
		watchlist.Description = *req.Description
	}
	if req.IsPublic != nil {
		watchlist.IsPublic = *req.IsPublic
	}
	if req.Tags != nil {
		watchlist.Tags = *req.Tags
	}

	a.recomputeStats(c, &watchlist)
	if err := a.DB.SaveWatchlist(c.Request.Context(), watchlist); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			respondError(c, http.StatusBadRequest, "You already have a watchlist with this name")
			return
		}
		a.Log.WithError(err).Error("failed to save watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, watchlistView(watchlist))
}

func (a *API) handleDeleteWatchlist(c *gin.Context) {
	watchlist, _, ok := a.loadWatchlist(c, func(w *m.Watchlist, userID primitive.ObjectID) bool {
		return w.User == userID || c.GetString("role") == m.RoleAdmin
	})
	if !ok {
		return
	}
	if err := a.DB.DeleteWatchlist(c.Request.Context(), watchlist.ID); err != nil {
		a.Log.WithError(err).Error("failed to delete watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondMessage(c, http.StatusOK, "Watchlist deleted successfully")
}

type watchlistAddMovieRequest struct {
	Priority string `json:"priority"`
	Notes    string `json:"notes" binding:"max=500"`
}

func (a *API) handleWatchlistAddMovie(c *gin.Context) {
	var req watchlistAddMovieRequest
	// The body is optional; only reject a body that is present but invalid.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	if req.Priority != "" && !m.IsValidPriority(req.Priority) {
		respondValidationError(c, []fieldError{{Field: "priority", Message: "priority must be low, medium or high", Value: req.Priority}})
		return
	}

	movie, err := a.DB.FindMovieByID(c.Request.Context(), c.Param("movieId"))
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Movie not found")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load movie")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	watchlist, ok := a.loadEditableWatchlist(c)
	if !ok {
		return
	}
	if err := watchlist.AddMovie(movie.ID, req.Priority, req.Notes); err != nil {
		respondError(c, http.StatusBadRequest, "Movie already exists in watchlist")
		return
	}

	a.recomputeStats(c, &watchlist)
	if err := a.DB.SaveWatchlist(c.Request.Context(), watchlist); err != nil {
		a.Log.WithError(err).Error("failed to save watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, watchlistView(watchlist))
}

func (a *API) handleWatchlistRemoveMovie(c *gin.Context) {
	movieID, err := primitive.ObjectIDFromHex(c.Param("movieId"))
	if err != nil {
		respondValidationError(c, []fieldError{{Field: "movieId", Message: "invalid movie id", Value: c.Param("movieId")}})
		return
	}
	watchlist, ok := a.loadEditableWatchlist(c)
	if !ok {
		return
	}
	if err := watchlist.RemoveMovie(movieID); err != nil {
		respondError(c, http.StatusNotFound, "Movie not found in watchlist")
		return
	}

	a.recomputeStats(c, &watchlist)
	if err := a.DB.SaveWatchlist(c.Request.Context(), watchlist); err != nil {
		a.Log.WithError(err).Error("failed to save watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, watchlistView(watchlist))
}

type markWatchedRequest struct {
	Watched bool `json:"watched"`
	Rating  *int `json:"rating" binding:"omitempty,min=1,max=10"`
}

func (a *API) handleWatchlistMarkWatched(c *gin.Context) {
	var req markWatchedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	movieID, err := primitive.ObjectIDFromHex(c.Param("movieId"))
	if err != nil {
		respondValidationError(c, []fieldError{{Field: "movieId", Message: "invalid movie id", Value: c.Param("movieId")}})
		return
	}
	watchlist, ok := a.loadEditableWatchlist(c)
	if !ok {
		return
	}

	if req.Watched {
		err = watchlist.MarkWatched(movieID, req.Rating)
	} else {
		err = watchlist.MarkUnwatched(movieID)
	}
	if err != nil {
		respondError(c, http.StatusNotFound, "Movie not found in watchlist")
		return
	}

	a.recomputeStats(c, &watchlist)
	if err := a.DB.SaveWatchlist(c.Request.Context(), watchlist); err != nil {
		a.Log.WithError(err).Error("failed to save watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, watchlistView(watchlist))
}

type setPriorityRequest struct {
	Priority string `json:"priority" binding:"required"`
}

func (a *API) handleWatchlistSetPriority(c *gin.Context) {
	var req setPriorityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	if !m.IsValidPriority(req.Priority) {
		respondValidationError(c, []fieldError{{Field: "priority", Message: "priority must be low, medium or high", Value: req.Priority}})
		return
	}
	movieID, err := primitive.ObjectIDFromHex(c.Param("movieId"))
	if err != nil {
		respondValidationError(c, []fieldError{{Field: "movieId", Message: "invalid movie id", Value: c.Param("movieId")}})
		return
	}
	watchlist, ok := a.loadEditableWatchlist(c)
	if !ok {
		return
	}
	if err := watchlist.SetPriority(movieID, req.Priority); err != nil {
		respondError(c, http.StatusNotFound, "Movie not found in watchlist")
		return
	}

	a.recomputeStats(c, &watchlist)
	if err := a.DB.SaveWatchlist(c.Request.Context(), watchlist); err != nil {
		a.Log.WithError(err).Error("failed to save watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, watchlistView(watchlist))
}

type shareWatchlistRequest struct {
	UserID     string `json:"userId" binding:"required"`
	Permission string `json:"permission" binding:"required"`
}

func (a *API) handleShareWatchlist(c *gin.Context) {
	var req shareWatchlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	if !m.IsValidPermission(req.Permission) {
		respondValidationError(c, []fieldError{{Field: "permission", Message: "permission must be view or edit", Value: req.Permission}})
		return
	}

	watchlist, ownerID, ok := a.loadWatchlist(c, func(w *m.Watchlist, userID primitive.ObjectID) bool {
		return w.User == userID
	})
	if !ok {
		return
	}

	target, err := a.DB.GetUserByID(c.Request.Context(), req.UserID)
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load user")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	if target.ID == ownerID {
		respondError(c, http.StatusBadRequest, "Cannot share a watchlist with its owner")
		return
	}

	watchlist.ShareWith(target.ID, req.Permission)
	if err := a.DB.SaveWatchlist(c.Request.Context(), watchlist); err != nil {
		a.Log.WithError(err).Error("failed to save watchlist")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"watchlist": watchlist})
}
