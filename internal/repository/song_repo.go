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

// MongoSongRepository is the MongoDB-backed song repository.
type MongoSongRepository struct {
	coll *mongo.Collection
}

// Insert stores a new song document.
func (r *MongoSongRepository) Insert(ctx context.Context, song *domain.Song) error {
	if song.ID.IsZero() {
		song.ID = primitive.NewObjectID()
	}
	now := time.Now()
	song.CreatedAt = now
	song.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, song)
	return wrapWriteError(err)
}

// GetByID resolves a song, returning (nil, nil) when it does not exist.
func (r *MongoSongRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Song, error) {
	var song domain.Song
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&song)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &song, nil
}

// Delete removes a song document.
func (r *MongoSongRepository) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.DeletedCount, nil
}

// ListByIDs resolves the given songs; missing ids are silently skipped.
func (r *MongoSongRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Song, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrapWriteError(err)
	}
	defer cur.Close(ctx)

	var songs []*domain.Song
	if err := cur.All(ctx, &songs); err != nil {
		return nil, wrapWriteError(err)
	}
	return songs, nil
}

// ListWithImage returns every song carrying an image locator.
func (r *MongoSongRepository) ListWithImage(ctx context.Context) ([]*domain.Song, error) {
	cur, err := r.coll.Find(ctx, bson.M{"image_url": bson.M{"$nin": bson.A{"", nil}}})
	if err != nil {
		return nil, wrapWriteError(err)
	}
	defer cur.Close(ctx)

	var songs []*domain.Song
	if err := cur.All(ctx, &songs); err != nil {
		return nil, wrapWriteError(err)
	}
	return songs, nil
}

// AddFavorite adds a user to the song's favorites set.
func (r *MongoSongRepository) AddFavorite(ctx context.Context, songID, userID primitive.ObjectID) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": songID},
		bson.M{"$addToSet": bson.M{"favorites": userID}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// AddPlaylistRef adds a playlist to each song's playlist_for set.
func (r *MongoSongRepository) AddPlaylistRef(ctx context.Context, songIDs []primitive.ObjectID, playlistID primitive.ObjectID) (int64, error) {
	if len(songIDs) == 0 {
		return 0, nil
	}
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": songIDs}},
		bson.M{"$addToSet": bson.M{"playlist_for": playlistID}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// RemovePlaylistRef pulls a playlist from each song's playlist_for set.
func (r *MongoSongRepository) RemovePlaylistRef(ctx context.Context, songIDs []primitive.ObjectID, playlistID primitive.ObjectID) (int64, error) {
	if len(songIDs) == 0 {
		return 0, nil
	}
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": songIDs}},
		bson.M{"$pull": bson.M{"playlist_for": playlistID}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// ClearPlaylistRefs empties a song's playlist_for set.
func (r *MongoSongRepository) ClearPlaylistRefs(ctx context.Context, songID primitive.ObjectID) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": songID},
		bson.M{"$set": bson.M{"playlist_for": bson.A{}, "updated_at": time.Now()}},
	)
	return wrapWriteError(err)
}

// SetImage persists a new image locator together with its derived palette.
func (r *MongoSongRepository) SetImage(ctx context.Context, songID primitive.ObjectID, imageURL string, p domain.Palette) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": songID},
		bson.M{"$set": bson.M{"image_url": imageURL, "palette": p, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// SetPalette persists a recomputed palette without changing the image.
func (r *MongoSongRepository) SetPalette(ctx context.Context, songID primitive.ObjectID, p domain.Palette) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": songID},
		bson.M{"$set": bson.M{"palette": p}},
	)
	return wrapWriteError(err)
}

// UnsetPalettes strips the derived palette across the collection.
func (r *MongoSongRepository) UnsetPalettes(ctx context.Context) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"palette": bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{"palette": ""}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// SaveRating replaces the rater's previous entry, if any, with the new one.
func (r *MongoSongRepository) SaveRating(ctx context.Context, songID primitive.ObjectID, rating domain.Rating) error {
	// Two single-document writes against the same song; the store serializes
	// them, and a retry of either is harmless.
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": songID},
		bson.M{"$pull": bson.M{"ratings": bson.M{"user_id": rating.UserID}}},
	)
	if err != nil {
		return wrapWriteError(err)
	}
	_, err = r.coll.UpdateOne(ctx,
		bson.M{"_id": songID},
		bson.M{
			"$push": bson.M{"ratings": rating},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	return wrapWriteError(err)
}

// SetRatingActivity persists the recomputed rating aggregates.
func (r *MongoSongRepository) SetRatingActivity(ctx context.Context, songID primitive.ObjectID, count int, average float64) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": songID},
		bson.M{"$set": bson.M{
			"activities.total_rating_count": count,
			"activities.average_rating":     average,
		}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// SetOwnershipDonated marks the song as platform-owned. The guard on
// ownership.user_owned makes the transfer idempotent.
func (r *MongoSongRepository) SetOwnershipDonated(ctx context.Context, songID primitive.ObjectID, at time.Time) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": songID, "ownership.user_owned": true},
		bson.M{"$set": bson.M{
			"ownership.user_owned":     false,
			"ownership.transferred_at": at,
			"updated_at":               at,
		}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}
