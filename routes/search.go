package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Papan07/EntertainHub/services"
)

func (a *API) handleSearch(c *gin.Context) {
	query, ok := parseSearchQuery(c)
	if !ok {
		return
	}
	page, limit, ok := parsePagination(c, 20)
	if !ok {
		return
	}
	source := c.DefaultQuery("source", services.SourceBoth)
	if !services.IsValidSourceMode(source) {
		respondValidationError(c, []fieldError{{Field: "source", Message: "source must be local, remote or both", Value: source}})
		return
	}
	sortKey := c.DefaultQuery("sort", services.SortRelevance)
	if !services.IsValidSortKey(sortKey) {
		respondValidationError(c, []fieldError{{Field: "sort", Message: "sort must be relevance, rating, year or title", Value: sortKey}})
		return
	}

	result, err := a.Search.Search(c.Request.Context(), query, page, limit, source, sortKey)
	if err != nil {
		a.Log.WithError(err).WithField("query", query).Error("aggregated search failed")
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"query":      result.Query,
		"source":     result.Source,
		"sort":       result.Sort,
		"results":    result.Results,
		"page":       page,
		"totalPages": result.TotalPages,
	})
}

func (a *API) catalogPage(c *gin.Context) (int, bool) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		respondValidationError(c, []fieldError{{Field: "page", Message: "page must be a positive integer", Value: c.Query("page")}})
		return 0, false
	}
	return page, true
}

// catalogHandler serves one remote category listing. The catalog source is
// fail-soft, so provider outages surface as empty pages here.
func (a *API) catalogHandler(category string) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, ok := a.catalogPage(c)
		if !ok {
			return
		}

		var (
			result services.CatalogPage
			err    error
		)
		ctx := c.Request.Context()
		switch category {
		case "popular":
			result, err = a.Catalog.Popular(ctx, page)
		case "top-rated":
			result, err = a.Catalog.TopRated(ctx, page)
		case "upcoming":
			result, err = a.Catalog.Upcoming(ctx, page)
		case "now-playing":
			result, err = a.Catalog.NowPlaying(ctx, page)
		}
		if err != nil {
			a.Log.WithError(err).WithField("category", category).Error("catalog listing failed")
			respondError(c, http.StatusBadGateway, "Catalog provider unavailable")
			return
		}

		respondOK(c, http.StatusOK, gin.H{
			"category":   category,
			"results":    result.Results,
			"page":       page,
			"totalPages": result.TotalPages,
		})
	}
}

func (a *API) handleCatalogTrending(c *gin.Context) {
	window := c.DefaultQuery("window", "week")
	if window != "day" && window != "week" {
		respondValidationError(c, []fieldError{{Field: "window", Message: "window must be day or week", Value: window}})
		return
	}

	result, err := a.Catalog.Trending(c.Request.Context(), window)
	if err != nil {
		a.Log.WithError(err).Error("catalog trending failed")
		respondError(c, http.StatusBadGateway, "Catalog provider unavailable")
		return
	}

	respondOK(c, http.StatusOK, gin.H{
		"window":     window,
		"results":    result.Results,
		"totalPages": result.TotalPages,
	})
}
