package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	tmdbImageBaseURL = "https://image.tmdb.org/t/p"

	// Lifecycle statuses as the catalog provider reports them.
	StatusRumored        = "Rumored"
	StatusPlanned        = "Planned"
	StatusInProduction   = "In Production"
	StatusPostProduction = "Post Production"
	StatusReleased       = "Released"
	StatusCanceled       = "Canceled"
)

type Genre struct {
	ID   int    `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

type SpokenLanguage struct {
	ISO6391 string `json:"iso_639_1" bson:"iso_639_1"`
	Name    string `json:"name" bson:"name"`
}

type ProductionCountry struct {
	ISO31661 string `json:"iso_3166_1" bson:"iso_3166_1"`
	Name     string `json:"name" bson:"name"`
}

type ProductionCompany struct {
	ID            int    `json:"id" bson:"id"`
	Name          string `json:"name" bson:"name"`
	LogoPath      string `json:"logoPath,omitempty" bson:"logoPath,omitempty"`
	OriginCountry string `json:"originCountry,omitempty" bson:"originCountry,omitempty"`
}

// Movie is a locally curated catalog record. tmdbId is optional and unique
// among non-null values; voteAverage stays within [0,10].
type Movie struct {
	ID     primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	TMDBID *int64             `json:"tmdbId,omitempty" bson:"tmdbId,omitempty"`
	IMDBID string             `json:"imdbId,omitempty" bson:"imdbId,omitempty"`

	Title         string `json:"title" bson:"title"`
	OriginalTitle string `json:"originalTitle,omitempty" bson:"originalTitle,omitempty"`
	Overview      string `json:"overview" bson:"overview"`
	Tagline       string `json:"tagline,omitempty" bson:"tagline,omitempty"`

	ReleaseDate time.Time `json:"releaseDate" bson:"releaseDate"`
	Status      string    `json:"status" bson:"status"`

	PosterPath   string `json:"posterPath,omitempty" bson:"posterPath,omitempty"`
	BackdropPath string `json:"backdropPath,omitempty" bson:"backdropPath,omitempty"`
	TrailerURL   string `json:"trailerUrl,omitempty" bson:"trailerUrl,omitempty"`

	VoteAverage float64 `json:"voteAverage" bson:"voteAverage"`
	VoteCount   int     `json:"voteCount" bson:"voteCount"`
	Popularity  float64 `json:"popularity" bson:"popularity"`

	Runtime int   `json:"runtime,omitempty" bson:"runtime,omitempty"`
	Budget  int64 `json:"budget" bson:"budget"`
	Revenue int64 `json:"revenue" bson:"revenue"`

	Genres              []Genre             `json:"genres" bson:"genres"`
	OriginalLanguage    string              `json:"originalLanguage" bson:"originalLanguage"`
	SpokenLanguages     []SpokenLanguage    `json:"spokenLanguages,omitempty" bson:"spokenLanguages,omitempty"`
	ProductionCountries []ProductionCountry `json:"productionCountries,omitempty" bson:"productionCountries,omitempty"`
	ProductionCompanies []ProductionCompany `json:"productionCompanies,omitempty" bson:"productionCompanies,omitempty"`

	Adult    bool `json:"adult" bson:"adult"`
	Featured bool `json:"featured" bson:"featured"`
	Trending bool `json:"trending" bson:"trending"`

	ViewCount      int `json:"viewCount" bson:"viewCount"`
	FavoriteCount  int `json:"favoriteCount" bson:"favoriteCount"`
	WatchlistCount int `json:"watchlistCount" bson:"watchlistCount"`

	AddedBy primitive.ObjectID   `json:"addedBy,omitempty" bson:"addedBy,omitempty"`
	Reviews []primitive.ObjectID `json:"reviews,omitempty" bson:"reviews,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// ReleaseYear returns the year of the release date, or 0 when unset.
func (m *Movie) ReleaseYear() int {
	if m.ReleaseDate.IsZero() {
		return 0
	}
	return m.ReleaseDate.Year()
}

func (m *Movie) PosterURL() string {
	if m.PosterPath == "" {
		return ""
	}
	return fmt.Sprintf("%s/w500%s", tmdbImageBaseURL, m.PosterPath)
}

func (m *Movie) BackdropURL() string {
	if m.BackdropPath == "" {
		return ""
	}
	return fmt.Sprintf("%s/w1280%s", tmdbImageBaseURL, m.BackdropPath)
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Username  string             `json:"username" bson:"username"`
	Email     string             `json:"email" bson:"email"`
	Password  string             `json:"-" bson:"password"`
	FirstName string             `json:"firstName" bson:"firstName"`
	LastName  string             `json:"lastName" bson:"lastName"`
	Avatar    string             `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Role      string             `json:"role" bson:"role"`

	Favorites []primitive.ObjectID `json:"favorites" bson:"favorites"`
	Watchlist []primitive.ObjectID `json:"watchlist" bson:"watchlist"`
	Reviews   []primitive.ObjectID `json:"reviews" bson:"reviews"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) HasFavorite(movieID primitive.ObjectID) bool {
	return containsID(u.Favorites, movieID)
}

func (u *User) HasInWatchlist(movieID primitive.ObjectID) bool {
	return containsID(u.Watchlist, movieID)
}

// PublicProfile strips fields that must not leak on the public profile
// endpoint.
func (u *User) PublicProfile() map[string]interface{} {
	return map[string]interface{}{
		"id":        u.ID,
		"username":  u.Username,
		"firstName": u.FirstName,
		"lastName":  u.LastName,
		"avatar":    u.Avatar,
		"createdAt": u.CreatedAt,
	}
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
