package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LabelKind discriminates the label collections sharing one document shape.
type LabelKind string

const (
	LabelGenre    LabelKind = "genre"
	LabelTag      LabelKind = "tag"
	LabelLanguage LabelKind = "language"
)

// Label is a genre/tag/language document. Songs is a back-reference set that
// must never name a song that no longer exists.
type Label struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Kind      LabelKind            `bson:"kind" json:"kind"`
	Name      string               `bson:"name" json:"name"`
	Songs     []primitive.ObjectID `bson:"songs" json:"songs"`
	CreatedAt time.Time            `bson:"created_at" json:"created_at"`
}
