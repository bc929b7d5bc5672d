package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GeneratedTitlePrefix is the prefix of auto-generated playlist titles.
const GeneratedTitlePrefix = "My Playlist #"

// DefaultPlaylistTitle names the single default playlist every user owns.
const DefaultPlaylistTitle = "Favorites"

// PlaylistStats are the denormalized membership aggregates of a playlist.
// TotalSongCount must equal the cardinality of the songs set and
// TotalSongDuration the sum of member durations at last recomputation.
type PlaylistStats struct {
	TotalSongCount    int     `bson:"total_song_count" json:"total_song_count"`
	TotalSongDuration float64 `bson:"total_song_duration" json:"total_song_duration"`
}

// Playlist is a user-owned ordered set of songs.
type Playlist struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID   `bson:"user_id" json:"user_id"`
	Title       string               `bson:"title" json:"title"`
	Description string               `bson:"description,omitempty" json:"description,omitempty"`
	CoverURL    string               `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
	Songs       []primitive.ObjectID `bson:"songs" json:"songs"`
	Stats       PlaylistStats        `bson:"stats" json:"stats"`
	Default     bool                 `bson:"default" json:"default"`
	Hidden      bool                 `bson:"hidden" json:"hidden"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}

// Validate checks the fields the engine depends on.
func (p *Playlist) Validate() error {
	if p.UserID.IsZero() {
		return ErrInvalidUserID
	}
	if len(p.Title) > 100 {
		return ErrPlaylistTitleTooLong
	}
	if len(p.Description) > 500 {
		return ErrPlaylistDescriptionTooLong
	}
	return nil
}
