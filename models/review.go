package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	ReviewStatusPending  = "pending"
	ReviewStatusApproved = "approved"
	ReviewStatusRejected = "rejected"

	// A review is auto-flagged for moderation once it has collected this
	// many distinct reports.
	reportAutoFlagThreshold = 5
)

// ValidReportReasons are the accepted values for a report's reason field.
var ValidReportReasons = []string{"spam", "inappropriate", "offensive", "fake", "other"}

type Reaction struct {
	User      primitive.ObjectID `json:"user" bson:"user"`
	CreatedAt time.Time          `json:"createdAt" bson:"createdAt"`
}

type Report struct {
	User        primitive.ObjectID `json:"user" bson:"user"`
	Reason      string             `json:"reason" bson:"reason"`
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
}

type ReviewEdit struct {
	Title    string    `json:"title" bson:"title"`
	Content  string    `json:"content" bson:"content"`
	Rating   int       `json:"rating" bson:"rating"`
	EditedAt time.Time `json:"editedAt" bson:"editedAt"`
}

// Review is one user's review of one movie; the (user, movie) pair is
// unique. Likes and dislikes are mutually exclusive per user.
type Review struct {
	ID    primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	User  primitive.ObjectID `json:"user" bson:"user"`
	Movie primitive.ObjectID `json:"movie" bson:"movie"`

	Title   string `json:"title" bson:"title"`
	Content string `json:"content" bson:"content"`
	Rating  int    `json:"rating" bson:"rating"`

	Status string `json:"status" bson:"status"`

	Likes    []Reaction `json:"likes" bson:"likes"`
	Dislikes []Reaction `json:"dislikes" bson:"dislikes"`

	Reported    bool     `json:"reported" bson:"reported"`
	ReportCount int      `json:"reportCount" bson:"reportCount"`
	Reports     []Report `json:"reports,omitempty" bson:"reports,omitempty"`

	ModeratedBy    *primitive.ObjectID `json:"moderatedBy,omitempty" bson:"moderatedBy,omitempty"`
	ModerationNote string              `json:"moderationNote,omitempty" bson:"moderationNote,omitempty"`

	LastEditedAt *time.Time   `json:"lastEditedAt,omitempty" bson:"lastEditedAt,omitempty"`
	EditHistory  []ReviewEdit `json:"editHistory,omitempty" bson:"editHistory,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

func (r *Review) LikeCount() int { return len(r.Likes) }

func (r *Review) DislikeCount() int { return len(r.Dislikes) }

func (r *Review) NetScore() int { return len(r.Likes) - len(r.Dislikes) }

func (r *Review) IsEdited() bool {
	return r.LastEditedAt != nil && r.LastEditedAt.After(r.CreatedAt)
}

// Like records a like by userID. Any existing dislike by the same user is
// removed first; liking twice leaves exactly one entry.
func (r *Review) Like(userID primitive.ObjectID) {
	r.Dislikes = removeReaction(r.Dislikes, userID)
	if !hasReaction(r.Likes, userID) {
		r.Likes = append(r.Likes, Reaction{User: userID, CreatedAt: time.Now().UTC()})
	}
}

// Dislike is the mirror of Like.
func (r *Review) Dislike(userID primitive.ObjectID) {
	r.Likes = removeReaction(r.Likes, userID)
	if !hasReaction(r.Dislikes, userID) {
		r.Dislikes = append(r.Dislikes, Reaction{User: userID, CreatedAt: time.Now().UTC()})
	}
}

// ClearReaction removes the user's like and dislike, whichever is present.
func (r *Review) ClearReaction(userID primitive.ObjectID) {
	r.Likes = removeReaction(r.Likes, userID)
	r.Dislikes = removeReaction(r.Dislikes, userID)
}

// AddReport records a report by userID. A user can only report once; the
// review is flagged once the count reaches the threshold. Returns false
// when the user had already reported.
func (r *Review) AddReport(userID primitive.ObjectID, reason, description string) bool {
	for _, report := range r.Reports {
		if report.User == userID {
			return false
		}
	}
	r.Reports = append(r.Reports, Report{
		User:        userID,
		Reason:      reason,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	})
	r.ReportCount++
	if r.ReportCount >= reportAutoFlagThreshold {
		r.Reported = true
	}
	return true
}

// SnapshotEdit appends the current title/content/rating to the edit
// history. Called before a content-changing update is applied.
func (r *Review) SnapshotEdit() {
	now := time.Now().UTC()
	r.EditHistory = append(r.EditHistory, ReviewEdit{
		Title:    r.Title,
		Content:  r.Content,
		Rating:   r.Rating,
		EditedAt: now,
	})
	r.LastEditedAt = &now
}

func IsValidReportReason(reason string) bool {
	for _, valid := range ValidReportReasons {
		if reason == valid {
			return true
		}
	}
	return false
}

func hasReaction(reactions []Reaction, userID primitive.ObjectID) bool {
	for _, reaction := range reactions {
		if reaction.User == userID {
			return true
		}
	}
	return false
}

func removeReaction(reactions []Reaction, userID primitive.ObjectID) []Reaction {
	kept := reactions[:0]
	for _, reaction := range reactions {
		if reaction.User != userID {
			kept = append(kept, reaction)
		}
	}
	return kept
}
