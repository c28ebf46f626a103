package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	m "github.com/Papan07/EntertainHub/models"
)

// maxProviderPages caps totalPages at the provider's own paging limit so
// pagination controls stay bounded.
const maxProviderPages = 500

// CatalogPage is one page of results from a catalog source.
type CatalogPage struct {
	Results    []m.SearchResult
	TotalPages int
}

// CatalogSource is the paged listing/search surface of a movie catalog.
// Real (TMDB) and sample implementations are selected once at startup.
type CatalogSource interface {
	Search(ctx context.Context, query string, page int) (CatalogPage, error)
	Popular(ctx context.Context, page int) (CatalogPage, error)
	TopRated(ctx context.Context, page int) (CatalogPage, error)
	Upcoming(ctx context.Context, page int) (CatalogPage, error)
	NowPlaying(ctx context.Context, page int) (CatalogPage, error)
	Trending(ctx context.Context, window string) (CatalogPage, error)
}

type TMDBClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// TMDB wire types.
type tmdbMovie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	ReleaseDate      string  `json:"release_date"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	Adult            bool    `json:"adult"`
	OriginalLanguage string  `json:"original_language"`
	Popularity       float64 `json:"popularity"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
}

type tmdbPage struct {
	Page         int         `json:"page"`
	Results      []tmdbMovie `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

func NewTMDBClient(apiKey string) *TMDBClient {
	return &TMDBClient{
		apiKey:  apiKey,
		baseURL: "https://api.themoviedb.org/3",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *TMDBClient) get(ctx context.Context, endpoint string, params map[string]string) (*tmdbPage, error) {
	u, err := url.Parse(c.baseURL + endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	query := u.Query()
	query.Set("api_key", c.apiKey)
	for key, value := range params {
		query.Set(key, value)
	}
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d", resp.StatusCode)
	}

	var page tmdbPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &page, nil
}

func (c *TMDBClient) listPage(ctx context.Context, endpoint string, page int, extra map[string]string) (CatalogPage, error) {
	if page <= 0 {
		page = 1
	}
	params := map[string]string{"page": strconv.Itoa(page)}
	for key, value := range extra {
		params[key] = value
	}

	raw, err := c.get(ctx, endpoint, params)
	if err != nil {
		return CatalogPage{}, err
	}
	return fromTMDBPage(raw), nil
}

func (c *TMDBClient) Search(ctx context.Context, query string, page int) (CatalogPage, error) {
	return c.listPage(ctx, "/search/movie", page, map[string]string{"query": query})
}

func (c *TMDBClient) Popular(ctx context.Context, page int) (CatalogPage, error) {
	return c.listPage(ctx, "/movie/popular", page, nil)
}

func (c *TMDBClient) TopRated(ctx context.Context, page int) (CatalogPage, error) {
	return c.listPage(ctx, "/movie/top_rated", page, nil)
}

func (c *TMDBClient) Upcoming(ctx context.Context, page int) (CatalogPage, error) {
	return c.listPage(ctx, "/movie/upcoming", page, nil)
}

func (c *TMDBClient) NowPlaying(ctx context.Context, page int) (CatalogPage, error) {
	return c.listPage(ctx, "/movie/now_playing", page, nil)
}

func (c *TMDBClient) Trending(ctx context.Context, window string) (CatalogPage, error) {
	if window != "day" && window != "week" {
		window = "week"
	}
	return c.listPage(ctx, fmt.Sprintf("/trending/movie/%s", window), 1, nil)
}

// fromTMDBPage maps the provider's snake_case payload into the canonical
// result type, capping the page count.
func fromTMDBPage(raw *tmdbPage) CatalogPage {
	results := make([]m.SearchResult, 0, len(raw.Results))
	for _, movie := range raw.Results {
		results = append(results, fromTMDBMovie(movie))
	}
	totalPages := raw.TotalPages
	if totalPages > maxProviderPages {
		totalPages = maxProviderPages
	}
	return CatalogPage{Results: results, TotalPages: totalPages}
}

func fromTMDBMovie(movie tmdbMovie) m.SearchResult {
	return m.SearchResult{
		ID:            fmt.Sprintf("tmdb-%d", movie.ID),
		Source:        "tmdb",
		TMDBID:        movie.ID,
		Title:         movie.Title,
		OriginalTitle: movie.OriginalTitle,
		Overview:      movie.Overview,
		PosterPath:    deref(movie.PosterPath),
		BackdropPath:  deref(movie.BackdropPath),
		ReleaseDate:   movie.ReleaseDate,
		VoteAverage:   movie.VoteAverage,
		VoteCount:     movie.VoteCount,
		Popularity:    movie.Popularity,
	}
}

// FromLocalMovie maps a catalog-store document into the canonical result
// type.
func FromLocalMovie(movie m.Movie) m.SearchResult {
	releaseDate := ""
	if !movie.ReleaseDate.IsZero() {
		releaseDate = movie.ReleaseDate.Format("2006-01-02")
	}
	result := m.SearchResult{
		ID:            movie.ID.Hex(),
		Source:        "local",
		Title:         movie.Title,
		OriginalTitle: movie.OriginalTitle,
		Overview:      movie.Overview,
		PosterPath:    movie.PosterPath,
		BackdropPath:  movie.BackdropPath,
		ReleaseDate:   releaseDate,
		VoteAverage:   movie.VoteAverage,
		VoteCount:     movie.VoteCount,
		Popularity:    movie.Popularity,
	}
	if movie.TMDBID != nil {
		result.TMDBID = *movie.TMDBID
	}
	return result
}

// ExtractYear parses the year out of a YYYY-MM-DD release date, or returns
// 0 when it cannot.
func ExtractYear(releaseDate string) int {
	if releaseDate == "" {
		return 0
	}
	parts := strings.SplitN(releaseDate, "-", 2)
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0
	}
	return year
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
