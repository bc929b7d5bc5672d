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

// MongoAlbumRepository is the MongoDB-backed album repository.
type MongoAlbumRepository struct {
	coll *mongo.Collection
}

// Insert stores a new album document.
func (r *MongoAlbumRepository) Insert(ctx context.Context, album *domain.Album) error {
	if album.ID.IsZero() {
		album.ID = primitive.NewObjectID()
	}
	now := time.Now()
	album.CreatedAt = now
	album.UpdatedAt = now
	if album.Songs == nil {
		album.Songs = []primitive.ObjectID{}
	}
	if album.Users == nil {
		album.Users = []primitive.ObjectID{}
	}
	_, err := r.coll.InsertOne(ctx, album)
	return wrapWriteError(err)
}

// GetByID resolves an album, returning (nil, nil) when it does not exist.
func (r *MongoAlbumRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Album, error) {
	var album domain.Album
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&album)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &album, nil
}

// FindByTitleAndArtists finds the album with the same title and the exact
// same performer set, regardless of order. Returns (nil, nil) on no match.
func (r *MongoAlbumRepository) FindByTitleAndArtists(ctx context.Context, title string, artistIDs []primitive.ObjectID) (*domain.Album, error) {
	var album domain.Album
	err := r.coll.FindOne(ctx, bson.M{
		"title":   title,
		"artists": bson.M{"$all": artistIDs, "$size": len(artistIDs)},
	}).Decode(&album)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &album, nil
}

// Delete removes an album document.
func (r *MongoAlbumRepository) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.DeletedCount, nil
}

// AddUser adds a holder to the album's users set; idempotent.
func (r *MongoAlbumRepository) AddUser(ctx context.Context, albumID, userID primitive.ObjectID) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": albumID},
		bson.M{"$addToSet": bson.M{"users": userID}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// RemoveUser pulls a holder from the album's users set.
func (r *MongoAlbumRepository) RemoveUser(ctx context.Context, albumID, userID primitive.ObjectID) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": albumID},
		bson.M{"$pull": bson.M{"users": userID}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// AddSong adds a song to the album's set and bumps its total duration in the
// same guarded write.
func (r *MongoAlbumRepository) AddSong(ctx context.Context, albumID, songID primitive.ObjectID, duration float64) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": albumID, "songs": bson.M{"$ne": songID}},
		bson.M{
			"$addToSet": bson.M{"songs": songID},
			"$inc":      bson.M{"total_duration": duration},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// RemoveSong pulls a song from the album's set and decrements its total
// duration; a no-op when the album does not carry the song.
func (r *MongoAlbumRepository) RemoveSong(ctx context.Context, albumID, songID primitive.ObjectID, duration float64) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": albumID, "songs": songID},
		bson.M{
			"$pull": bson.M{"songs": songID},
			"$inc":  bson.M{"total_duration": -duration},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// SetCover persists a new cover locator together with its derived palette.
func (r *MongoAlbumRepository) SetCover(ctx context.Context, albumID primitive.ObjectID, coverURL string, p domain.Palette) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": albumID},
		bson.M{"$set": bson.M{"cover_url": coverURL, "palette": p, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}
