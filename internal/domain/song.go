package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Rating is a single user's rating of a song.
type Rating struct {
	UserID  primitive.ObjectID `bson:"user_id" json:"user_id"`
	Rating  int                `bson:"rating" json:"rating"` // 0-5
	Comment string             `bson:"comment,omitempty" json:"comment,omitempty"`
}

// SongActivities holds the derived activity aggregates of a song.
type SongActivities struct {
	TotalRatingCount    int     `bson:"total_rating_count" json:"total_rating_count"`
	AverageRating       float64 `bson:"average_rating" json:"average_rating"`
	TotalPlayCount      int64   `bson:"total_play_count" json:"total_play_count"`
	TotalPlayDuration   float64 `bson:"total_play_duration" json:"total_play_duration"`
	WeightedAvgDuration float64 `bson:"weighted_avg_duration" json:"weighted_avg_duration"`
}

// Ownership distinguishes user-owned songs from songs donated to the platform.
type Ownership struct {
	UserOwned     bool       `bson:"user_owned" json:"user_owned"`
	TransferredAt *time.Time `bson:"transferred_at,omitempty" json:"transferred_at,omitempty"`
}

// Song is a track document. Its reference arrays (playlist_for, genres, tags,
// languages, favorites) mirror back-references held on related documents.
type Song struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CreatorID   primitive.ObjectID   `bson:"creator_id" json:"creator_id"`
	ArtistID    primitive.ObjectID   `bson:"artist_id" json:"artist_id"`
	CoArtistID  *primitive.ObjectID  `bson:"co_artist_id,omitempty" json:"co_artist_id,omitempty"`
	Title       string               `bson:"title" json:"title"`
	AudioURL    string               `bson:"audio_url" json:"audio_url"`
	ImageURL    string               `bson:"image_url" json:"image_url"`
	Duration    float64              `bson:"duration" json:"duration"` // seconds
	PlaylistFor []primitive.ObjectID `bson:"playlist_for" json:"playlist_for"`
	Genres      []primitive.ObjectID `bson:"genres" json:"genres"`
	Tags        []primitive.ObjectID `bson:"tags" json:"tags"`
	Languages   []primitive.ObjectID `bson:"languages" json:"languages"`
	AlbumID     *primitive.ObjectID  `bson:"album_id,omitempty" json:"album_id,omitempty"`
	Palette     Palette              `bson:"palette" json:"palette"`
	Favorites   []primitive.ObjectID `bson:"favorites" json:"favorites"`
	Ratings     []Rating             `bson:"ratings" json:"ratings"`
	Activities  SongActivities       `bson:"activities" json:"activities"`
	Ownership   Ownership            `bson:"ownership" json:"ownership"`
	CreatedAt   time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at" json:"updated_at"`
}

// ArtistIDs returns the primary artist plus the co-artist when present.
func (s *Song) ArtistIDs() []primitive.ObjectID {
	ids := []primitive.ObjectID{s.ArtistID}
	if s.CoArtistID != nil {
		ids = append(ids, *s.CoArtistID)
	}
	return ids
}

// LabelIDs returns every genre, tag and language id attached to the song.
func (s *Song) LabelIDs() []primitive.ObjectID {
	ids := make([]primitive.ObjectID, 0, len(s.Genres)+len(s.Tags)+len(s.Languages))
	ids = append(ids, s.Genres...)
	ids = append(ids, s.Tags...)
	ids = append(ids, s.Languages...)
	return ids
}

// RatingSummary computes the rating count and arithmetic mean from the live
// ratings list. The mean is 0 when the list is empty.
func (s *Song) RatingSummary() (int, float64) {
	count := len(s.Ratings)
	if count == 0 {
		return 0, 0
	}
	sum := 0
	for _, r := range s.Ratings {
		sum += r.Rating
	}
	return count, float64(sum) / float64(count)
}

// Validate checks the fields the engine depends on.
func (s *Song) Validate() error {
	if s.CreatorID.IsZero() {
		return ErrInvalidUserID
	}
	if s.ArtistID.IsZero() {
		return ErrInvalidArtistID
	}
	if s.Title == "" {
		return ErrInvalidSongTitle
	}
	if s.Duration < 0 {
		return ErrInvalidDuration
	}
	return nil
}
