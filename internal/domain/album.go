package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Album groups songs under a title/artist combination. Independent uploads of
// the same title/artist pair attach to one shared document; a user id in
// Users marks a holder. An album with no holders and no songs is reaped.
type Album struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	CreatorID     primitive.ObjectID   `bson:"creator_id" json:"creator_id"`
	Title         string               `bson:"title" json:"title"`
	CoverURL      string               `bson:"cover_url,omitempty" json:"cover_url,omitempty"`
	Palette       Palette              `bson:"palette" json:"palette"`
	Artists       []primitive.ObjectID `bson:"artists" json:"artists"`
	Songs         []primitive.ObjectID `bson:"songs" json:"songs"`
	Users         []primitive.ObjectID `bson:"users" json:"users"`
	TotalDuration float64              `bson:"total_duration" json:"total_duration"`
	CreatedAt     time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time            `bson:"updated_at" json:"updated_at"`
}

// IsEmpty reports whether the album has neither holders nor songs left.
func (a *Album) IsEmpty() bool {
	return len(a.Users) == 0 && len(a.Songs) == 0
}

// Validate checks the fields the engine depends on.
func (a *Album) Validate() error {
	if a.Title == "" {
		return ErrInvalidAlbumTitle
	}
	if len(a.Artists) == 0 {
		return ErrInvalidArtistID
	}
	return nil
}
