package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/melodix/server/internal/domain"
)

// MongoArtistRepository is the MongoDB-backed artist repository. The
// songs/albums back-references are written through the reference maintainer;
// this repository only resolves and seeds documents.
type MongoArtistRepository struct {
	coll *mongo.Collection
}

// Insert stores a new artist document.
func (r *MongoArtistRepository) Insert(ctx context.Context, artist *domain.Artist) error {
	if artist.ID.IsZero() {
		artist.ID = primitive.NewObjectID()
	}
	now := time.Now()
	artist.CreatedAt = now
	artist.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, artist)
	return wrapWriteError(err)
}

// GetByID resolves an artist, returning (nil, nil) when it does not exist.
func (r *MongoArtistRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Artist, error) {
	var artist domain.Artist
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&artist)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &artist, nil
}
