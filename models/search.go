package models

// SearchResult is the canonical shape shared by both search sources. The
// remote provider's snake_case payloads and the local store's documents are
// each mapped into this type at the adapter boundary so nothing downstream
// has to care where a result came from.
type SearchResult struct {
	ID            string  `json:"id"`
	Source        string  `json:"source"` // "local" or "tmdb"
	TMDBID        int64   `json:"tmdbId,omitempty"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"originalTitle,omitempty"`
	Overview      string  `json:"overview,omitempty"`
	PosterPath    string  `json:"posterPath,omitempty"`
	BackdropPath  string  `json:"backdropPath,omitempty"`
	ReleaseDate   string  `json:"releaseDate,omitempty"` // YYYY-MM-DD
	VoteAverage   float64 `json:"voteAverage"`
	VoteCount     int     `json:"voteCount"`
	Popularity    float64 `json:"popularity"`
}

// SearchPage is one display-ready page produced by the search aggregator.
type SearchPage struct {
	Query      string         `json:"query"`
	Source     string         `json:"source"`
	Sort       string         `json:"sort"`
	Results    []SearchResult `json:"results"`
	TotalPages int            `json:"totalPages"`
}
