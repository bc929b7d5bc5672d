// Package repository defines one repository interface per entity and their
// MongoDB-backed implementations. Song, Playlist, Album, User, Artist and
// Label reference each other at the data level; depending on these interfaces
// instead of concrete types keeps the package graph acyclic.
//
// Methods that move a denormalized counter pair it with a guarded set update
// in the same single-document write, so a retried call can never double
// count. A zero modified count is returned to the caller, which decides
// whether to assert on it.
package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/melodix/server/internal/domain"
)

// Collection names. The Model type doubles as the target selector of the
// reference maintainer.
type Model string

const (
	ModelSongs         Model = "songs"
	ModelPlaylists     Model = "playlists"
	ModelAlbums        Model = "albums"
	ModelArtists       Model = "artists"
	ModelLabels        Model = "labels"
	ModelUsers         Model = "users"
	ModelNotifications Model = "notifications"
)

// RefMaintainer maintains identifier arrays on related documents and reaps
// documents whose tracked arrays have all emptied. All operations are
// idempotent set-semantics updates.
type RefMaintainer interface {
	// AddRef adds sourceID to the named array field on every target document.
	AddRef(ctx context.Context, model Model, targetIDs []primitive.ObjectID, field string, sourceID primitive.ObjectID) (int64, error)
	// RemoveRef removes sourceID from the named array field on every target document.
	RemoveRef(ctx context.Context, model Model, targetIDs []primitive.ObjectID, field string, sourceID primitive.ObjectID) (int64, error)
	// RemoveRefAll removes sourceID from the named array field on every
	// document of the model that carries it.
	RemoveRefAll(ctx context.Context, model Model, field string, sourceID primitive.ObjectID) (int64, error)
	// ReapOrphans deletes every document of the model whose named array
	// fields are all simultaneously empty or missing.
	ReapOrphans(ctx context.Context, model Model, fields ...string) (int64, error)
}

// SongRepository persists Song documents. Lookups return (nil, nil) when the
// document does not exist.
type SongRepository interface {
	Insert(ctx context.Context, song *domain.Song) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Song, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Song, error)
	ListWithImage(ctx context.Context) ([]*domain.Song, error)

	AddFavorite(ctx context.Context, songID, userID primitive.ObjectID) (int64, error)
	AddPlaylistRef(ctx context.Context, songIDs []primitive.ObjectID, playlistID primitive.ObjectID) (int64, error)
	RemovePlaylistRef(ctx context.Context, songIDs []primitive.ObjectID, playlistID primitive.ObjectID) (int64, error)
	ClearPlaylistRefs(ctx context.Context, songID primitive.ObjectID) error

	SetImage(ctx context.Context, songID primitive.ObjectID, imageURL string, p domain.Palette) (int64, error)
	SetPalette(ctx context.Context, songID primitive.ObjectID, p domain.Palette) error
	UnsetPalettes(ctx context.Context) (int64, error)

	SaveRating(ctx context.Context, songID primitive.ObjectID, r domain.Rating) error
	SetRatingActivity(ctx context.Context, songID primitive.ObjectID, count int, average float64) (int64, error)
	SetOwnershipDonated(ctx context.Context, songID primitive.ObjectID, at time.Time) (int64, error)
}

// PlaylistRepository persists Playlist documents.
type PlaylistRepository interface {
	Insert(ctx context.Context, playlist *domain.Playlist) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Playlist, error)
	GetDefaultByUser(ctx context.Context, userID primitive.ObjectID) (*domain.Playlist, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
	ListAll(ctx context.Context) ([]*domain.Playlist, error)

	// NextGeneratedIndex returns one greater than the highest numeric suffix
	// among the user's auto-titled playlists.
	NextGeneratedIndex(ctx context.Context, userID primitive.ObjectID) (int, error)

	AddSong(ctx context.Context, playlistID, songID primitive.ObjectID, duration float64) (int64, error)
	RemoveSongFromMany(ctx context.Context, playlistIDs []primitive.ObjectID, songID primitive.ObjectID, duration float64) (int64, error)
	// MergeSongs adds songIDs to the target's set and bumps its stats by the
	// supplied aggregates in one write.
	MergeSongs(ctx context.Context, targetID primitive.ObjectID, songIDs []primitive.ObjectID, count int, duration float64) (int64, error)

	SetCover(ctx context.Context, id primitive.ObjectID, coverURL string) (int64, error)

	// SetStats persists recomputed stats without touching updated_at.
	SetStats(ctx context.Context, id primitive.ObjectID, stats domain.PlaylistStats) (int64, error)
	UnsetStats(ctx context.Context) (int64, error)
}

// AlbumRepository persists Album documents.
type AlbumRepository interface {
	Insert(ctx context.Context, album *domain.Album) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Album, error)
	FindByTitleAndArtists(ctx context.Context, title string, artistIDs []primitive.ObjectID) (*domain.Album, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)

	AddUser(ctx context.Context, albumID, userID primitive.ObjectID) (int64, error)
	RemoveUser(ctx context.Context, albumID, userID primitive.ObjectID) (int64, error)
	AddSong(ctx context.Context, albumID, songID primitive.ObjectID, duration float64) (int64, error)
	RemoveSong(ctx context.Context, albumID, songID primitive.ObjectID, duration float64) (int64, error)

	SetCover(ctx context.Context, albumID primitive.ObjectID, coverURL string, p domain.Palette) (int64, error)
}

// UserRepository persists the engine's slice of User documents.
type UserRepository interface {
	Insert(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.User, error)
	ListWithAvatar(ctx context.Context) ([]*domain.User, error)

	AddSongRef(ctx context.Context, userID, songID primitive.ObjectID) (int64, error)
	RemoveSongRef(ctx context.Context, userID, songID primitive.ObjectID) (int64, error)
	AddAlbumRef(ctx context.Context, userID, albumID primitive.ObjectID) (int64, error)
	RemoveAlbumRef(ctx context.Context, userID, albumID primitive.ObjectID) (int64, error)
	Follow(ctx context.Context, userID, artistID primitive.ObjectID) (int64, error)
	AddPlaylistRef(ctx context.Context, userID, playlistID primitive.ObjectID) (int64, error)
	RemovePlaylistRef(ctx context.Context, userID, playlistID primitive.ObjectID) (int64, error)

	// PullPlayerSongRefs scrubs a song id out of every user's player queue.
	PullPlayerSongRefs(ctx context.Context, songID primitive.ObjectID) (int64, error)

	PushNotification(ctx context.Context, userIDs []primitive.ObjectID, notificationID primitive.ObjectID) (int64, error)
	PullNotification(ctx context.Context, notificationID primitive.ObjectID) (int64, error)
	ResetNotificationFlags(ctx context.Context) (int64, error)

	SetPalette(ctx context.Context, userID primitive.ObjectID, p domain.Palette) error
	UnsetPalettes(ctx context.Context) (int64, error)
}

// ArtistRepository persists Artist documents. The songs/albums back-reference
// arrays are maintained through the RefMaintainer.
type ArtistRepository interface {
	Insert(ctx context.Context, artist *domain.Artist) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Artist, error)
}

// LabelRepository persists Label documents. The songs back-reference array is
// maintained through the RefMaintainer.
type LabelRepository interface {
	Insert(ctx context.Context, label *domain.Label) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Label, error)
	ListByKind(ctx context.Context, kind domain.LabelKind) ([]*domain.Label, error)
}

// NotificationRepository persists Notification documents.
type NotificationRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Notification, error)
	Delete(ctx context.Context, id primitive.ObjectID) (int64, error)
}
