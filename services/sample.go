package services

import (
	"context"
	"sort"
	"strings"

	m "github.com/Papan07/EntertainHub/models"
)

// SampleSource serves a small canned catalog. It stands in for the remote
// provider when no API key is configured, so the application stays fully
// browsable in development and demos.
type SampleSource struct {
	movies []m.SearchResult
}

func NewSampleSource() *SampleSource {
	return &SampleSource{movies: sampleMovies()}
}

func (s *SampleSource) page(results []m.SearchResult) (CatalogPage, error) {
	return CatalogPage{Results: results, TotalPages: 1}, nil
}

func (s *SampleSource) Search(ctx context.Context, query string, page int) (CatalogPage, error) {
	needle := strings.ToLower(query)
	matched := []m.SearchResult{}
	for _, movie := range s.movies {
		if strings.Contains(strings.ToLower(movie.Title), needle) ||
			strings.Contains(strings.ToLower(movie.Overview), needle) {
			matched = append(matched, movie)
		}
	}
	return s.page(matched)
}

func (s *SampleSource) Popular(ctx context.Context, page int) (CatalogPage, error) {
	return s.page(s.all())
}

func (s *SampleSource) TopRated(ctx context.Context, page int) (CatalogPage, error) {
	rated := s.all()
	sort.SliceStable(rated, func(i, j int) bool {
		return rated[i].VoteAverage > rated[j].VoteAverage
	})
	return s.page(rated)
}

func (s *SampleSource) Upcoming(ctx context.Context, page int) (CatalogPage, error) {
	return s.page(s.all()[2:])
}

func (s *SampleSource) NowPlaying(ctx context.Context, page int) (CatalogPage, error) {
	return s.page(s.all()[:4])
}

func (s *SampleSource) Trending(ctx context.Context, window string) (CatalogPage, error) {
	popular := s.all()
	sort.SliceStable(popular, func(i, j int) bool {
		return popular[i].Popularity > popular[j].Popularity
	})
	return s.page(popular)
}

func (s *SampleSource) all() []m.SearchResult {
	copied := make([]m.SearchResult, len(s.movies))
	copy(copied, s.movies)
	return copied
}

func sampleMovies() []m.SearchResult {
	return []m.SearchResult{
		{
			ID: "tmdb-155", Source: "tmdb", TMDBID: 155,
			Title:       "The Dark Knight",
			Overview:    "Batman raises the stakes in his war on crime with the help of Lt. Jim Gordon and District Attorney Harvey Dent.",
			PosterPath:  "/qJ2tW6WMUDux911r6m7haRef0WH.jpg",
			ReleaseDate: "2008-07-18",
			VoteAverage: 9.0, VoteCount: 32000, Popularity: 123.456,
		},
		{
			ID: "tmdb-27205", Source: "tmdb", TMDBID: 27205,
			Title:       "Inception",
			Overview:    "A thief who steals corporate secrets through dream-sharing technology is given the inverse task of planting an idea.",
			PosterPath:  "/9gk7adHYeDvHkCSEqAvQNLV5Uge.jpg",
			ReleaseDate: "2010-07-16",
			VoteAverage: 8.8, VoteCount: 35000, Popularity: 98.765,
		},
		{
			ID: "tmdb-157336", Source: "tmdb", TMDBID: 157336,
			Title:       "Interstellar",
			Overview:    "A team of explorers travel through a wormhole in space in an attempt to ensure humanity's survival.",
			PosterPath:  "/gEU2QniE6E77NI6lCU6MxlNBvIx.jpg",
			ReleaseDate: "2014-11-07",
			VoteAverage: 8.6, VoteCount: 34000, Popularity: 87.432,
		},
		{
			ID: "tmdb-603", Source: "tmdb", TMDBID: 603,
			Title:       "The Matrix",
			Overview:    "A computer programmer discovers that reality as he knows it is a simulation controlled by machines.",
			PosterPath:  "/f89U3ADr1oiB1s9GkdPOEpXUk5H.jpg",
			ReleaseDate: "1999-03-31",
			VoteAverage: 8.7, VoteCount: 25000, Popularity: 76.543,
		},
		{
			ID: "tmdb-680", Source: "tmdb", TMDBID: 680,
			Title:       "Pulp Fiction",
			Overview:    "The lives of two mob hitmen, a boxer, a gangster and his wife intertwine in four tales of violence and redemption.",
			PosterPath:  "/d5iIlFn5s0ImszYzBPb8JPIfbXD.jpg",
			ReleaseDate: "1994-10-14",
			VoteAverage: 8.9, VoteCount: 27000, Popularity: 65.321,
		},
		{
			ID: "tmdb-19995", Source: "tmdb", TMDBID: 19995,
			Title:       "Avatar",
			Overview:    "A paraplegic Marine dispatched to the moon Pandora on a unique mission becomes torn between following orders and protecting an alien civilization.",
			PosterPath:  "/jRXYjXNq0Cs2TcJjLkki24MLp7u.jpg",
			ReleaseDate: "2009-12-18",
			VoteAverage: 7.9, VoteCount: 31000, Popularity: 89.654,
		},
	}
}
