package models

import (
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	PermissionView = "view"
	PermissionEdit = "edit"

	// Used when an entry's movie runtime is unknown at stats time.
	assumedRuntimeMinutes = 120
)

var (
	ErrMovieAlreadyInWatchlist = errors.New("movie already exists in watchlist")
	ErrMovieNotInWatchlist     = errors.New("movie not found in watchlist")
)

type WatchlistEntry struct {
	Movie     primitive.ObjectID `json:"movie" bson:"movie"`
	AddedAt   time.Time          `json:"addedAt" bson:"addedAt"`
	Priority  string             `json:"priority" bson:"priority"`
	Notes     string             `json:"notes,omitempty" bson:"notes,omitempty"`
	Watched   bool               `json:"watched" bson:"watched"`
	WatchedAt *time.Time         `json:"watchedAt,omitempty" bson:"watchedAt,omitempty"`
	Rating    *int               `json:"rating,omitempty" bson:"rating,omitempty"`
}

type WatchlistShare struct {
	User       primitive.ObjectID `json:"user" bson:"user"`
	Permission string             `json:"permission" bson:"permission"`
	SharedAt   time.Time          `json:"sharedAt" bson:"sharedAt"`
}

// Watchlist is a named, optionally shared collection of movies with
// per-entry state. The name is unique per owner. The derived statistics
// (totalMovies, watchedMovies, totalRuntime) are recomputed explicitly via
// RecomputeStats before every persist.
type Watchlist struct {
	ID   primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	User primitive.ObjectID `json:"user" bson:"user"`

	Name        string `json:"name" bson:"name"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
	IsPublic    bool   `json:"isPublic" bson:"isPublic"`

	Movies []WatchlistEntry `json:"movies" bson:"movies"`
	Tags   []string         `json:"tags,omitempty" bson:"tags,omitempty"`

	SharedWith []WatchlistShare `json:"sharedWith,omitempty" bson:"sharedWith,omitempty"`

	TotalMovies   int `json:"totalMovies" bson:"totalMovies"`
	WatchedMovies int `json:"watchedMovies" bson:"watchedMovies"`
	TotalRuntime  int `json:"totalRuntime" bson:"totalRuntime"`

	SortBy    string `json:"sortBy" bson:"sortBy"`
	SortOrder string `json:"sortOrder" bson:"sortOrder"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (w *Watchlist) entry(movieID primitive.ObjectID) *WatchlistEntry {
	for i := range w.Movies {
		if w.Movies[i].Movie == movieID {
			return &w.Movies[i]
		}
	}
	return nil
}

// AddMovie appends a new entry. Adding a movie already present is rejected
// and leaves the entry list unchanged.
func (w *Watchlist) AddMovie(movieID primitive.ObjectID, priority, notes string) error {
	if w.entry(movieID) != nil {
		return ErrMovieAlreadyInWatchlist
	}
	if priority == "" {
		priority = PriorityMedium
	}
	w.Movies = append(w.Movies, WatchlistEntry{
		Movie:    movieID,
		AddedAt:  time.Now().UTC(),
		Priority: priority,
		Notes:    notes,
	})
	return nil
}

func (w *Watchlist) RemoveMovie(movieID primitive.ObjectID) error {
	if w.entry(movieID) == nil {
		return ErrMovieNotInWatchlist
	}
	kept := w.Movies[:0]
	for _, item := range w.Movies {
		if item.Movie != movieID {
			kept = append(kept, item)
		}
	}
	w.Movies = kept
	return nil
}

// MarkWatched flags the entry as watched and stamps watchedAt; rating is
// optional and kept within the caller-validated 1..10 range.
func (w *Watchlist) MarkWatched(movieID primitive.ObjectID, rating *int) error {
	item := w.entry(movieID)
	if item == nil {
		return ErrMovieNotInWatchlist
	}
	now := time.Now().UTC()
	item.Watched = true
	item.WatchedAt = &now
	if rating != nil {
		item.Rating = rating
	}
	return nil
}

// MarkUnwatched clears the watched state along with watchedAt and rating.
func (w *Watchlist) MarkUnwatched(movieID primitive.ObjectID) error {
	item := w.entry(movieID)
	if item == nil {
		return ErrMovieNotInWatchlist
	}
	item.Watched = false
	item.WatchedAt = nil
	item.Rating = nil
	return nil
}

func (w *Watchlist) SetPriority(movieID primitive.ObjectID, priority string) error {
	item := w.entry(movieID)
	if item == nil {
		return ErrMovieNotInWatchlist
	}
	item.Priority = priority
	return nil
}

// ShareWith grants or updates a collaborator's permission.
func (w *Watchlist) ShareWith(userID primitive.ObjectID, permission string) {
	for i := range w.SharedWith {
		if w.SharedWith[i].User == userID {
			w.SharedWith[i].Permission = permission
			return
		}
	}
	w.SharedWith = append(w.SharedWith, WatchlistShare{
		User:       userID,
		Permission: permission,
		SharedAt:   time.Now().UTC(),
	})
}

// RecomputeStats refreshes the derived counters from the entry list.
// runtimeOf looks up a movie's runtime in minutes; entries whose runtime is
// unknown are counted with a two-hour placeholder.
func (w *Watchlist) RecomputeStats(runtimeOf func(primitive.ObjectID) (int, bool)) {
	w.TotalMovies = len(w.Movies)
	watched := 0
	runtime := 0
	for _, item := range w.Movies {
		if item.Watched {
			watched++
		}
		if runtimeOf != nil {
			if minutes, ok := runtimeOf(item.Movie); ok && minutes > 0 {
				runtime += minutes
				continue
			}
		}
		runtime += assumedRuntimeMinutes
	}
	w.WatchedMovies = watched
	w.TotalRuntime = runtime
}

func (w *Watchlist) CompletionPercentage() int {
	if w.TotalMovies == 0 {
		return 0
	}
	return int(math.Round(float64(w.WatchedMovies) / float64(w.TotalMovies) * 100))
}

// AverageRating averages the ratings of watched, rated entries to one
// decimal place.
func (w *Watchlist) AverageRating() float64 {
	total, count := 0, 0
	for _, item := range w.Movies {
		if item.Watched && item.Rating != nil {
			total += *item.Rating
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return math.Round(float64(total)/float64(count)*10) / 10
}

func (w *Watchlist) sharedPermission(userID primitive.ObjectID) string {
	for _, share := range w.SharedWith {
		if share.User == userID {
			return share.Permission
		}
	}
	return ""
}

// CanView reports whether the user may read this watchlist: the owner,
// any collaborator, an admin, or anyone when the list is public.
func (w *Watchlist) CanView(userID primitive.ObjectID, role string) bool {
	if w.IsPublic || w.User == userID || role == RoleAdmin {
		return true
	}
	return w.sharedPermission(userID) != ""
}

// CanEdit reports whether the user may mutate this watchlist: the owner or
// a collaborator with edit permission.
func (w *Watchlist) CanEdit(userID primitive.ObjectID) bool {
	if w.User == userID {
		return true
	}
	return w.sharedPermission(userID) == PermissionEdit
}

func IsValidPriority(priority string) bool {
	return priority == PriorityLow || priority == PriorityMedium || priority == PriorityHigh
}

func IsValidPermission(permission string) bool {
	return permission == PermissionView || permission == PermissionEdit
}
