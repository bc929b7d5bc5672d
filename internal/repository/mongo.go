package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	apperrors "github.com/melodix/server/pkg/errors"
)

// Store wraps a MongoDB database and hands out the entity repositories.
type Store struct {
	db *mongo.Database
}

// Connect establishes the MongoDB connection and verifies it with a ping.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Store{db: client.Database(database)}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.db.Client().Disconnect(ctx)
}

// Songs returns the song repository.
func (s *Store) Songs() SongRepository {
	return &MongoSongRepository{coll: s.db.Collection(string(ModelSongs))}
}

// Playlists returns the playlist repository.
func (s *Store) Playlists() PlaylistRepository {
	return &MongoPlaylistRepository{coll: s.db.Collection(string(ModelPlaylists))}
}

// Albums returns the album repository.
func (s *Store) Albums() AlbumRepository {
	return &MongoAlbumRepository{coll: s.db.Collection(string(ModelAlbums))}
}

// Users returns the user repository.
func (s *Store) Users() UserRepository {
	return &MongoUserRepository{coll: s.db.Collection(string(ModelUsers))}
}

// Artists returns the artist repository.
func (s *Store) Artists() ArtistRepository {
	return &MongoArtistRepository{coll: s.db.Collection(string(ModelArtists))}
}

// Labels returns the label repository.
func (s *Store) Labels() LabelRepository {
	return &MongoLabelRepository{coll: s.db.Collection(string(ModelLabels))}
}

// Notifications returns the notification repository.
func (s *Store) Notifications() NotificationRepository {
	return &MongoNotificationRepository{coll: s.db.Collection(string(ModelNotifications))}
}

// Refs returns the reference maintainer.
func (s *Store) Refs() RefMaintainer {
	return &MongoRefs{db: s.db}
}

// wrapWriteError maps store-level constraint violations to application
// errors. Duplicate-key violations become conflicts naming the collided
// field; everything else is wrapped as a database error.
func wrapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return apperrors.Duplicate(duplicateKeyField(err)).WithError(err)
	}
	return apperrors.ErrDatabaseError.WithError(err)
}

// duplicateKeyField extracts the colliding field name from a duplicate-key
// error message ("... index: title_1 dup key: ..."). Falls back to "unknown".
func duplicateKeyField(err error) string {
	msg := err.Error()
	marker := "index: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return "unknown"
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexAny(rest, " \t"); j >= 0 {
		rest = rest[:j]
	}
	// Index names are usually field_1 or field_-1.
	if j := strings.LastIndex(rest, "_"); j > 0 {
		rest = rest[:j]
	}
	if rest == "" {
		return "unknown"
	}
	return rest
}
