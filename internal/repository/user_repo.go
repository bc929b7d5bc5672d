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

// MongoUserRepository is the MongoDB-backed user repository. Every counter
// movement is paired with a guarded set update in one single-document write:
// the filter only matches when the set change will actually happen, so the
// counter and the set can never drift apart under retries.
type MongoUserRepository struct {
	coll *mongo.Collection
}

// Insert stores a new user document.
func (r *MongoUserRepository) Insert(ctx context.Context, user *domain.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, user)
	return wrapWriteError(err)
}

// GetByID resolves a user, returning (nil, nil) when it does not exist.
func (r *MongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &user, nil
}

// ListByIDs resolves the given users; missing ids are silently skipped.
func (r *MongoUserRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, wrapWriteError(err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, wrapWriteError(err)
	}
	return users, nil
}

// ListWithAvatar returns every user carrying an avatar locator.
func (r *MongoUserRepository) ListWithAvatar(ctx context.Context) ([]*domain.User, error) {
	cur, err := r.coll.Find(ctx, bson.M{"avatar_url": bson.M{"$nin": bson.A{"", nil}}})
	if err != nil {
		return nil, wrapWriteError(err)
	}
	defer cur.Close(ctx)

	var users []*domain.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, wrapWriteError(err)
	}
	return users, nil
}

// AddSongRef records song ownership and bumps total_songs.
func (r *MongoUserRepository) AddSongRef(ctx context.Context, userID, songID primitive.ObjectID) (int64, error) {
	return r.guardedUpdate(ctx,
		bson.M{"_id": userID, "songs": bson.M{"$ne": songID}},
		bson.M{
			"$addToSet": bson.M{"songs": songID},
			"$inc":      bson.M{"total_songs": 1},
		},
	)
}

// RemoveSongRef erases song ownership and decrements total_songs.
func (r *MongoUserRepository) RemoveSongRef(ctx context.Context, userID, songID primitive.ObjectID) (int64, error) {
	return r.guardedUpdate(ctx,
		bson.M{"_id": userID, "songs": songID},
		bson.M{
			"$pull": bson.M{"songs": songID},
			"$inc":  bson.M{"total_songs": -1},
		},
	)
}

// AddAlbumRef records album ownership and bumps total_albums. A no-op when
// the user already holds the album through another song.
func (r *MongoUserRepository) AddAlbumRef(ctx context.Context, userID, albumID primitive.ObjectID) (int64, error) {
	return r.guardedUpdate(ctx,
		bson.M{"_id": userID, "albums": bson.M{"$ne": albumID}},
		bson.M{
			"$addToSet": bson.M{"albums": albumID},
			"$inc":      bson.M{"total_albums": 1},
		},
	)
}

// RemoveAlbumRef erases album ownership and decrements total_albums.
func (r *MongoUserRepository) RemoveAlbumRef(ctx context.Context, userID, albumID primitive.ObjectID) (int64, error) {
	return r.guardedUpdate(ctx,
		bson.M{"_id": userID, "albums": albumID},
		bson.M{
			"$pull": bson.M{"albums": albumID},
			"$inc":  bson.M{"total_albums": -1},
		},
	)
}

// Follow adds an artist to the user's following set and bumps
// total_following. A no-op when already following.
func (r *MongoUserRepository) Follow(ctx context.Context, userID, artistID primitive.ObjectID) (int64, error) {
	return r.guardedUpdate(ctx,
		bson.M{"_id": userID, "following": bson.M{"$ne": artistID}},
		bson.M{
			"$addToSet": bson.M{"following": artistID},
			"$inc":      bson.M{"total_following": 1},
		},
	)
}

// AddPlaylistRef records playlist ownership and bumps total_playlists.
func (r *MongoUserRepository) AddPlaylistRef(ctx context.Context, userID, playlistID primitive.ObjectID) (int64, error) {
	return r.guardedUpdate(ctx,
		bson.M{"_id": userID, "playlists": bson.M{"$ne": playlistID}},
		bson.M{
			"$addToSet": bson.M{"playlists": playlistID},
			"$inc":      bson.M{"total_playlists": 1},
		},
	)
}

// RemovePlaylistRef erases playlist ownership and decrements total_playlists.
func (r *MongoUserRepository) RemovePlaylistRef(ctx context.Context, userID, playlistID primitive.ObjectID) (int64, error) {
	return r.guardedUpdate(ctx,
		bson.M{"_id": userID, "playlists": playlistID},
		bson.M{
			"$pull": bson.M{"playlists": playlistID},
			"$inc":  bson.M{"total_playlists": -1},
		},
	)
}

// PullPlayerSongRefs scrubs a song id out of every user's player queue.
func (r *MongoUserRepository) PullPlayerSongRefs(ctx context.Context, songID primitive.ObjectID) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"preferences.player.queue": songID},
		bson.M{"$pull": bson.M{"preferences.player.queue": songID}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// PushNotification embeds an unread notification reference into each of the
// given users; users already carrying the reference are skipped.
func (r *MongoUserRepository) PushNotification(ctx context.Context, userIDs []primitive.ObjectID, notificationID primitive.ObjectID) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"_id":              bson.M{"$in": userIDs},
			"notifications.id": bson.M{"$ne": notificationID},
		},
		bson.M{"$push": bson.M{"notifications": domain.UserNotification{ID: notificationID}}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// PullNotification removes the embedded reference from every user. This is a
// pattern match on the embedded id, not reference-array semantics.
func (r *MongoUserRepository) PullNotification(ctx context.Context, notificationID primitive.ObjectID) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"notifications.id": notificationID},
		bson.M{"$pull": bson.M{"notifications": bson.M{"id": notificationID}}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// ResetNotificationFlags clears every read/viewed flag across all embedded
// notifications in one bulk update.
func (r *MongoUserRepository) ResetNotificationFlags(ctx context.Context) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"notifications.0": bson.M{"$exists": true}},
		bson.M{"$set": bson.M{
			"notifications.$[].read":   false,
			"notifications.$[].viewed": false,
		}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// SetPalette persists a recomputed avatar palette.
func (r *MongoUserRepository) SetPalette(ctx context.Context, userID primitive.ObjectID, p domain.Palette) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"palette": p}},
	)
	return wrapWriteError(err)
}

// UnsetPalettes strips the derived palette across the collection.
func (r *MongoUserRepository) UnsetPalettes(ctx context.Context) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"palette": bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{"palette": ""}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

func (r *MongoUserRepository) guardedUpdate(ctx context.Context, filter, update bson.M) (int64, error) {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}
