package services

import (
	"context"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	m "github.com/Papan07/EntertainHub/models"
)

// Source modes accepted by the aggregator.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
	SourceBoth   = "both"
)

// Sort keys accepted by the aggregator. Relevance keeps each source's
// native ordering.
const (
	SortRelevance = "relevance"
	SortRating    = "rating"
	SortYear      = "year"
	SortTitle     = "title"
)

// missingYear ranks results with no release date last under the year sort.
const missingYear = 1900

// LocalSearcher is the slice of the catalog store the aggregator needs.
type LocalSearcher interface {
	SearchMovies(ctx context.Context, query string, page, limit int) ([]m.Movie, int64, string, error)
}

// Aggregator fans a search out over the local catalog and the remote
// provider and merges the pages into one display-ready result. The remote
// source is expected to be fail-soft already; a local failure degrades to
// an empty local contribution so remote results still render.
type Aggregator struct {
	local  LocalSearcher
	remote CatalogSource
	log    *logrus.Logger
}

func NewAggregator(local LocalSearcher, remote CatalogSource, log *logrus.Logger) *Aggregator {
	return &Aggregator{local: local, remote: remote, log: log}
}

// IsValidSourceMode reports whether mode is one of local, remote or both.
func IsValidSourceMode(mode string) bool {
	return mode == SourceLocal || mode == SourceRemote || mode == SourceBoth
}

// IsValidSortKey reports whether key is an accepted sort key.
func IsValidSortKey(key string) bool {
	switch key {
	case SortRelevance, SortRating, SortYear, SortTitle:
		return true
	}
	return false
}

// Search runs the query against the selected sources concurrently, sorts
// each source's contribution independently and concatenates them local
// first. TotalPages is the larger of the two sources' page counts so the
// client can keep paging until both are exhausted.
func (a *Aggregator) Search(ctx context.Context, query string, page, limit int, mode, sortKey string) (m.SearchPage, error) {
	if mode == "" {
		mode = SourceBoth
	}
	if sortKey == "" {
		sortKey = SortRelevance
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var (
		localResults  []m.SearchResult
		localPages    int
		remoteResults []m.SearchResult
		remotePages   int
	)

	group, groupCtx := errgroup.WithContext(ctx)

	if mode == SourceLocal || mode == SourceBoth {
		group.Go(func() error {
			movies, total, _, err := a.local.SearchMovies(groupCtx, query, page, limit)
			if err != nil {
				a.log.WithFields(logrus.Fields{
					"query": query,
					"error": err.Error(),
				}).Warn("local search failed, continuing with remote results only")
				return nil
			}
			localResults = make([]m.SearchResult, 0, len(movies))
			for _, movie := range movies {
				localResults = append(localResults, FromLocalMovie(movie))
			}
			localPages = pageCount(total, limit)
			return nil
		})
	}

	if mode == SourceRemote || mode == SourceBoth {
		group.Go(func() error {
			remote, err := a.remote.Search(groupCtx, query, page)
			if err != nil {
				return err
			}
			remoteResults = remote.Results
			remotePages = remote.TotalPages
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return m.SearchPage{}, err
	}

	sortResults(localResults, sortKey)
	sortResults(remoteResults, sortKey)

	merged := make([]m.SearchResult, 0, len(localResults)+len(remoteResults))
	merged = append(merged, localResults...)
	merged = append(merged, remoteResults...)

	totalPages := localPages
	if remotePages > totalPages {
		totalPages = remotePages
	}
	if totalPages < 1 {
		totalPages = 1
	}

	return m.SearchPage{
		Query:      query,
		Source:     mode,
		Sort:       sortKey,
		Results:    merged,
		TotalPages: totalPages,
	}, nil
}

// sortResults reorders one source's contribution in place. Relevance keeps
// the order the source produced.
func sortResults(results []m.SearchResult, sortKey string) {
	switch sortKey {
	case SortRating:
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].VoteAverage > results[j].VoteAverage
		})
	case SortYear:
		sort.SliceStable(results, func(i, j int) bool {
			return resultYear(results[i]) > resultYear(results[j])
		})
	case SortTitle:
		sort.SliceStable(results, func(i, j int) bool {
			return strings.ToLower(results[i].Title) < strings.ToLower(results[j].Title)
		})
	}
}

func resultYear(result m.SearchResult) int {
	year := ExtractYear(result.ReleaseDate)
	if year == 0 {
		return missingYear
	}
	return year
}

func pageCount(total int64, limit int) int {
	if total <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit != 0 {
		pages++
	}
	return pages
}
