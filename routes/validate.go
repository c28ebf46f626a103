package api

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxQueryLength  = 100
)

var movieSortFields = map[string]bool{
	"createdAt":   true,
	"title":       true,
	"releaseDate": true,
	"voteAverage": true,
	"popularity":  true,
	"viewCount":   true,
}

var reviewSortFields = map[string]bool{
	"createdAt": true,
	"rating":    true,
}

// parsePagination reads page/limit query parameters with bounds checking.
// The second return value is false when a parameter is out of range; the
// 400 response has already been written in that case.
func parsePagination(c *gin.Context, defaultLimit int) (int, int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		respondValidationError(c, []fieldError{{
			Field:   "page",
			Message: "page must be a positive integer",
			Value:   c.Query("page"),
		}})
		return 0, 0, false
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > maxPageSize {
		respondValidationError(c, []fieldError{{
			Field:   "limit",
			Message: "limit must be between 1 and 100",
			Value:   c.Query("limit"),
		}})
		return 0, 0, false
	}
	return page, limit, true
}

// parseSearchQuery reads and bounds the q parameter.
func parseSearchQuery(c *gin.Context) (string, bool) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		respondValidationError(c, []fieldError{{
			Field:   "q",
			Message: "search query is required",
		}})
		return "", false
	}
	if utf8.RuneCountInString(query) > maxQueryLength {
		respondValidationError(c, []fieldError{{
			Field:   "q",
			Message: "search query must be at most 100 characters",
			Value:   query,
		}})
		return "", false
	}
	return query, true
}

// parseSort validates sortBy/sortOrder against a field whitelist.
func parseSort(c *gin.Context, allowed map[string]bool) (string, string, bool) {
	sortBy := c.Query("sortBy")
	if sortBy != "" && !allowed[sortBy] {
		respondValidationError(c, []fieldError{{
			Field:   "sortBy",
			Message: "unsupported sort field",
			Value:   sortBy,
		}})
		return "", "", false
	}
	sortOrder := c.DefaultQuery("sortOrder", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		respondValidationError(c, []fieldError{{
			Field:   "sortOrder",
			Message: "sortOrder must be asc or desc",
			Value:   sortOrder,
		}})
		return "", "", false
	}
	return sortBy, sortOrder, true
}

// parseOptionalBool reads a query flag into a *bool, nil when absent.
func parseOptionalBool(c *gin.Context, name string) (*bool, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		respondValidationError(c, []fieldError{{
			Field:   name,
			Message: "must be true or false",
			Value:   raw,
		}})
		return nil, false
	}
	return &value, true
}

// parseLimitOnly reads a bare limit parameter for the trending/featured
// shortcuts.
func parseLimitOnly(c *gin.Context, defaultLimit, max int) (int, bool) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit < 1 || limit > max {
		respondValidationError(c, []fieldError{{
			Field:   "limit",
			Message: "limit must be between 1 and " + strconv.Itoa(max),
			Value:   c.Query("limit"),
		}})
		return 0, false
	}
	return limit, true
}
