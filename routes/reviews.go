package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Papan07/EntertainHub/db"
	m "github.com/Papan07/EntertainHub/models"
)

func (a *API) listReviews(c *gin.Context, filter db.ReviewFilter) {
	reviews, total, err := a.DB.FindReviews(c.Request.Context(), filter)
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusBadRequest, "Invalid id filter")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to list reviews")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"reviews":    reviews,
		"pagination": paginationEnvelope(filter.Page, filter.Limit, total, "totalReviews"),
	})
}

func (a *API) handleListReviews(c *gin.Context) {
	page, limit, ok := parsePagination(c, defaultPageSize)
	if !ok {
		return
	}
	sortBy, sortOrder, ok := parseSort(c, reviewSortFields)
	if !ok {
		return
	}
	status := c.Query("status")
	if status != "" && status != m.ReviewStatusPending && status != m.ReviewStatusApproved && status != m.ReviewStatusRejected {
		respondValidationError(c, []fieldError{{Field: "status", Message: "unknown review status", Value: status}})
		return
	}
	a.listReviews(c, db.ReviewFilter{
		Movie:     c.Query("movieId"),
		User:      c.Query("userId"),
		Status:    status,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Page:      page,
		Limit:     limit,
	})
}

func (a *API) handleMovieReviews(c *gin.Context) {
	page, limit, ok := parsePagination(c, defaultPageSize)
	if !ok {
		return
	}
	sortBy, sortOrder, ok := parseSort(c, reviewSortFields)
	if !ok {
		return
	}
	a.listReviews(c, db.ReviewFilter{
		Movie:     c.Param("movieId"),
		Status:    m.ReviewStatusApproved,
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Page:      page,
		Limit:     limit,
	})
}

func (a *API) handleUserReviews(c *gin.Context) {
	page, limit, ok := parsePagination(c, defaultPageSize)
	if !ok {
		return
	}
	sortBy, sortOrder, ok := parseSort(c, reviewSortFields)
	if !ok {
		return
	}
	a.listReviews(c, db.ReviewFilter{
		User:      c.Param("userId"),
		SortBy:    sortBy,
		SortOrder: sortOrder,
		Page:      page,
		Limit:     limit,
	})
}

func (a *API) handleGetReview(c *gin.Context) {
	review, err := a.DB.FindReviewByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Review not found")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load review")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"review": review})
}

type createReviewRequest struct {
	MovieID string `json:"movieId" binding:"required"`
	Title   string `json:"title" binding:"required,max=100"`
	Content string `json:"content" binding:"required,min=10,max=2000"`
	Rating  int    `json:"rating" binding:"required,min=1,max=10"`
}

func (a *API) handleCreateReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return
	}

	movie, err := a.DB.FindMovieByID(c.Request.Context(), req.MovieID)
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Movie not found")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load movie for review")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	review, err := a.DB.InsertReview(c.Request.Context(), m.Review{
		User:    userID,
		Movie:   movie.ID,
		Title:   req.Title,
		Content: req.Content,
		Rating:  req.Rating,
	})
	if errors.Is(err, db.ErrDuplicate) {
		respondError(c, http.StatusBadRequest, "You have already reviewed this movie")
		return
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to create review")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusCreated, gin.H{"review": review})
}

// loadOwnedReview fetches the review and enforces owner-or-admin access.
func (a *API) loadOwnedReview(c *gin.Context) (m.Review, bool) {
	review, err := a.DB.FindReviewByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Review not found")
		return m.Review{}, false
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load review")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return m.Review{}, false
	}
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return m.Review{}, false
	}
	if review.User != userID && c.GetString("role") != m.RoleAdmin {
		respondError(c, http.StatusForbidden, "You can only modify your own reviews")
		return m.Review{}, false
	}
	return review, true
}

type updateReviewRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=100"`
	Content *string `json:"content" binding:"omitempty,min=10,max=2000"`
	Rating  *int    `json:"rating" binding:"omitempty,min=1,max=10"`
}

func (a *API) handleUpdateReview(c *gin.Context) {
	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	if req.Title == nil && req.Content == nil && req.Rating == nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: "no updatable fields provided"}})
		return
	}
	review, ok := a.loadOwnedReview(c)
	if !ok {
		return
	}

	// The pre-edit state is preserved before any change is applied.
	review.SnapshotEdit()
	if req.Title != nil {
		review.Title = *req.Title
	}
	if req.Content != nil {
		review.Content = *req.Content
	}
	if req.Rating != nil {
		review.Rating = *req.Rating
	}

	if err := a.DB.SaveReview(c.Request.Context(), review); err != nil {
		a.Log.WithError(err).Error("failed to save review")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{"review": review})
}

func (a *API) handleDeleteReview(c *gin.Context) {
	review, ok := a.loadOwnedReview(c)
	if !ok {
		return
	}
	if err := a.DB.DeleteReview(c.Request.Context(), review); err != nil {
		a.Log.WithError(err).Error("failed to delete review")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondMessage(c, http.StatusOK, "Review deleted successfully")
}

// loadReviewForReaction fetches the review for like/dislike/report; any
// authenticated user may react, not just the owner.
func (a *API) loadReviewForReaction(c *gin.Context) (m.Review, bool) {
	review, err := a.DB.FindReviewByID(c.Request.Context(), c.Param("id"))
	if errors.Is(err, db.ErrNotFound) {
		respondError(c, http.StatusNotFound, "Review not found")
		return m.Review{}, false
	}
	if err != nil {
		a.Log.WithError(err).Error("failed to load review")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return m.Review{}, false
	}
	return review, true
}

func (a *API) handleLikeReview(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return
	}
	a.applyReaction(c, func(review *m.Review) { review.Like(userID) })
}

func (a *API) handleDislikeReview(c *gin.Context) {
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return
	}
	a.applyReaction(c, func(review *m.Review) { review.Dislike(userID) })
}

// reaction handlers share the load-mutate-save shape; the mutation is the
// only thing that differs.
func (a *API) applyReaction(c *gin.Context, mutate func(*m.Review)) {
	review, ok := a.loadReviewForReaction(c)
	if !ok {
		return
	}
	mutate(&review)
	if err := a.DB.SaveReview(c.Request.Context(), review); err != nil {
		a.Log.WithError(err).Error("failed to save review reaction")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"likes":    review.LikeCount(),
		"dislikes": review.DislikeCount(),
		"netScore": review.NetScore(),
	})
}

type reportReviewRequest struct {
	Reason      string `json:"reason" binding:"required"`
	Description string `json:"description" binding:"max=500"`
}

func (a *API) handleReportReview(c *gin.Context) {
	var req reportReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, []fieldError{{Field: "body", Message: err.Error()}})
		return
	}
	if !m.IsValidReportReason(req.Reason) {
		respondValidationError(c, []fieldError{{Field: "reason", Message: "unknown report reason", Value: req.Reason}})
		return
	}
	userID, ok := currentUserObjectID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Invalid user context")
		return
	}
	review, ok := a.loadReviewForReaction(c)
	if !ok {
		return
	}
	if !review.AddReport(userID, req.Reason, req.Description) {
		respondError(c, http.StatusBadRequest, "You have already reported this review")
		return
	}
	if err := a.DB.SaveReview(c.Request.Context(), review); err != nil {
		a.Log.WithError(err).Error("failed to save review report")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondMessage(c, http.StatusOK, "Review reported successfully")
}
