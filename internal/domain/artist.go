package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Artist is a performer document. Songs and Albums are back-reference sets
// maintained by the song cascades; Followers drives notification fan-out.
type Artist struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name      string               `bson:"name" json:"name"`
	ImageURL  string               `bson:"image_url,omitempty" json:"image_url,omitempty"`
	Songs     []primitive.ObjectID `bson:"songs" json:"songs"`
	Albums    []primitive.ObjectID `bson:"albums" json:"albums"`
	Followers []primitive.ObjectID `bson:"followers" json:"followers"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time            `bson:"updated_at" json:"updated_at"`
}

// FollowersExcluding returns the follower set minus one user, typically the
// uploader of the change being announced.
func (a *Artist) FollowersExcluding(userID primitive.ObjectID) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(a.Followers))
	for _, f := range a.Followers {
		if f != userID {
			out = append(out, f)
		}
	}
	return out
}
