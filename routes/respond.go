package api

import (
	"github.com/gin-gonic/gin"
)

// fieldError is one entry of a validation failure response.
type fieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

func respondOK(c *gin.Context, status int, data gin.H) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func respondMessage(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": true, "message": message})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

func respondValidationError(c *gin.Context, errors []fieldError) {
	c.JSON(400, gin.H{
		"success": false,
		"message": "Validation failed",
		"errors":  errors,
	})
}

// paginationEnvelope builds the pagination block embedded in list
// responses. totalField names the per-resource count key, e.g.
// "totalMovies" or "totalReviews".
func paginationEnvelope(page, limit int, total int64, totalField string) gin.H {
	totalPages := 0
	if total > 0 {
		totalPages = int(total) / limit
		if int(total)%limit != 0 {
			totalPages++
		}
	}
	return gin.H{
		"currentPage": page,
		"totalPages":  totalPages,
		totalField:    total,
		"hasNextPage": page < totalPages,
		"hasPrevPage": page > 1,
	}
}
