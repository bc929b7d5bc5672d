package repository

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/melodix/server/internal/domain"
)

// MongoPlaylistRepository is the MongoDB-backed playlist repository.
type MongoPlaylistRepository struct {
	coll *mongo.Collection
}

// Insert stores a new playlist document.
func (r *MongoPlaylistRepository) Insert(ctx context.Context, playlist *domain.Playlist) error {
	if playlist.ID.IsZero() {
		playlist.ID = primitive.NewObjectID()
	}
	now := time.Now()
	playlist.CreatedAt = now
	playlist.UpdatedAt = now
	if playlist.Songs == nil {
		playlist.Songs = []primitive.ObjectID{}
	}
	_, err := r.coll.InsertOne(ctx, playlist)
	return wrapWriteError(err)
}

// GetByID resolves a playlist, returning (nil, nil) when it does not exist.
func (r *MongoPlaylistRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Playlist, error) {
	var playlist domain.Playlist
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&playlist)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &playlist, nil
}

// GetDefaultByUser resolves the user's default playlist.
func (r *MongoPlaylistRepository) GetDefaultByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Playlist, error) {
	var playlist domain.Playlist
	err := r.coll.FindOne(ctx, bson.M{"user_id": userID, "default": true}).Decode(&playlist)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapWriteError(err)
	}
	return &playlist, nil
}

// Delete removes a playlist document.
func (r *MongoPlaylistRepository) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.DeletedCount, nil
}

// ListAll returns every playlist document.
func (r *MongoPlaylistRepository) ListAll(ctx context.Context) ([]*domain.Playlist, error) {
	cur, err := r.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, wrapWriteError(err)
	}
	defer cur.Close(ctx)

	var playlists []*domain.Playlist
	if err := cur.All(ctx, &playlists); err != nil {
		return nil, wrapWriteError(err)
	}
	return playlists, nil
}

// NextGeneratedIndex scans the user's auto-titled playlists, newest first,
// and returns one greater than the highest numeric suffix found.
func (r *MongoPlaylistRepository) NextGeneratedIndex(ctx context.Context, userID primitive.ObjectID) (int, error) {
	pattern := "^" + regexp.QuoteMeta(domain.GeneratedTitlePrefix) + `\d+$`
	cur, err := r.coll.Find(ctx,
		bson.M{"user_id": userID, "title": bson.M{"$regex": pattern}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetProjection(bson.M{"title": 1}),
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	defer cur.Close(ctx)

	highest := 0
	for cur.Next(ctx) {
		var doc struct {
			Title string `bson:"title"`
		}
		if err := cur.Decode(&doc); err != nil {
			return 0, wrapWriteError(err)
		}
		suffix := strings.TrimPrefix(doc.Title, domain.GeneratedTitlePrefix)
		if n, err := strconv.Atoi(suffix); err == nil && n > highest {
			highest = n
		}
	}
	if err := cur.Err(); err != nil {
		return 0, wrapWriteError(err)
	}
	return highest + 1, nil
}

// AddSong adds a song to the playlist's set and bumps its stats in the same
// write. The membership guard keeps a retry from double counting.
func (r *MongoPlaylistRepository) AddSong(ctx context.Context, playlistID, songID primitive.ObjectID, duration float64) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": playlistID, "songs": bson.M{"$ne": songID}},
		bson.M{
			"$addToSet": bson.M{"songs": songID},
			"$inc": bson.M{
				"stats.total_song_count":    1,
				"stats.total_song_duration": duration,
			},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// RemoveSongFromMany pulls a song from each playlist's set, decrementing each
// playlist's stats by one count and the song's duration. Playlists that do
// not carry the song are left untouched.
func (r *MongoPlaylistRepository) RemoveSongFromMany(ctx context.Context, playlistIDs []primitive.ObjectID, songID primitive.ObjectID, duration float64) (int64, error) {
	if len(playlistIDs) == 0 {
		return 0, nil
	}
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": playlistIDs}, "songs": songID},
		bson.M{
			"$pull": bson.M{"songs": songID},
			"$inc": bson.M{
				"stats.total_song_count":    -1,
				"stats.total_song_duration": -duration,
			},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// MergeSongs adds the song ids to the target's set and bumps its stats by the
// supplied aggregates. Overlapping members can leave the stats high; the
// stats recomputation batch reconverges them.
func (r *MongoPlaylistRepository) MergeSongs(ctx context.Context, targetID primitive.ObjectID, songIDs []primitive.ObjectID, count int, duration float64) (int64, error) {
	if len(songIDs) == 0 {
		return 0, nil
	}
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": targetID},
		bson.M{
			"$addToSet": bson.M{"songs": bson.M{"$each": songIDs}},
			"$inc": bson.M{
				"stats.total_song_count":    count,
				"stats.total_song_duration": duration,
			},
			"$set": bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// SetCover persists a new cover locator.
func (r *MongoPlaylistRepository) SetCover(ctx context.Context, id primitive.ObjectID, coverURL string) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"cover_url": coverURL, "updated_at": time.Now()}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// SetStats persists recomputed stats. It deliberately does not touch
// updated_at so maintenance runs leave audit fields unperturbed.
func (r *MongoPlaylistRepository) SetStats(ctx context.Context, id primitive.ObjectID, stats domain.PlaylistStats) (int64, error) {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"stats": stats}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// UnsetStats strips the stats sub-document across the collection.
func (r *MongoPlaylistRepository) UnsetStats(ctx context.Context) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"stats": bson.M{"$exists": true}},
		bson.M{"$unset": bson.M{"stats": ""}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}
