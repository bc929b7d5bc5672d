package service

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/melodix/server/internal/domain"
	"github.com/melodix/server/internal/repository"
	"github.com/melodix/server/internal/storage"
	apperrors "github.com/melodix/server/pkg/errors"
)

// PlaylistService owns playlist lifecycle cascades: creation with owner
// counters, the per-user default playlist, cover replacement and deletion
// with optional member migration.
type PlaylistService struct {
	playlists repository.PlaylistRepository
	songs     repository.SongRepository
	users     repository.UserRepository
	blobs     *storage.Cleaner
}

// NewPlaylistService creates the playlist service.
func NewPlaylistService(
	playlists repository.PlaylistRepository,
	songs repository.SongRepository,
	users repository.UserRepository,
	blobs *storage.Cleaner,
) *PlaylistService {
	return &PlaylistService{
		playlists: playlists,
		songs:     songs,
		users:     users,
		blobs:     blobs,
	}
}

// CreatePlaylistInput carries the caller-supplied playlist fields. An empty
// Title requests an auto-generated one.
type CreatePlaylistInput struct {
	UserID      primitive.ObjectID
	Title       string
	Description string
	CoverURL    string
	Hidden      bool
}

// Create inserts a playlist and registers it on the owner. A blank title is
// replaced with the next free auto-generated one, scanning only titles that
// match the generated pattern exactly.
func (s *PlaylistService) Create(ctx context.Context, in CreatePlaylistInput) (*domain.Playlist, error) {
	title := in.Title
	description := in.Description
	if title == "" {
		n, err := s.playlists.NextGeneratedIndex(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		title = fmt.Sprintf("%s%d", domain.GeneratedTitlePrefix, n)
		if description == "" {
			description = title
		}
	}

	playlist := &domain.Playlist{
		UserID:      in.UserID,
		Title:       title,
		Description: description,
		CoverURL:    in.CoverURL,
		Hidden:      in.Hidden,
	}
	if err := playlist.Validate(); err != nil {
		return nil, apperrors.ErrInvalidRequest.WithError(err)
	}

	if err := s.playlists.Insert(ctx, playlist); err != nil {
		return nil, err
	}

	modified, err := s.users.AddPlaylistRef(ctx, in.UserID, playlist.ID)
	if err != nil {
		return nil, err
	}
	if modified == 0 {
		return nil, apperrors.ErrUserNotFound
	}
	return playlist, nil
}

// EnsureDefault returns the user's default playlist, creating it when absent.
// The default playlist is hidden from listings and cannot be deleted.
func (s *PlaylistService) EnsureDefault(ctx context.Context, userID primitive.ObjectID) (*domain.Playlist, error) {
	existing, err := s.playlists.GetDefaultByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	playlist := &domain.Playlist{
		UserID:  userID,
		Title:   domain.DefaultPlaylistTitle,
		Default: true,
		Hidden:  true,
	}
	if err := s.playlists.Insert(ctx, playlist); err != nil {
		return nil, err
	}
	modified, err := s.users.AddPlaylistRef(ctx, userID, playlist.ID)
	if err != nil {
		return nil, err
	}
	if modified == 0 {
		return nil, apperrors.ErrUserNotFound
	}
	return playlist, nil
}

// UpdateCover replaces the playlist's cover, deleting the previous non-default
// blob. Blob deletion is best-effort.
func (s *PlaylistService) UpdateCover(ctx context.Context, id primitive.ObjectID, coverURL string) (*domain.Playlist, error) {
	playlist, err := s.playlists.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if playlist == nil {
		return nil, apperrors.ErrPlaylistNotFound
	}

	if playlist.CoverURL != "" && playlist.CoverURL != coverURL {
		s.blobs.Cleanup(ctx, playlist.CoverURL)
	}
	if _, err := s.playlists.SetCover(ctx, id, coverURL); err != nil {
		return nil, err
	}
	playlist.CoverURL = coverURL
	return playlist, nil
}

// Delete removes a playlist owned by the given user. When migrateTo is set
// the members are merged into the target playlist first; a migration failure
// aborts the whole operation with the source untouched. The default playlist
// cannot be deleted.
func (s *PlaylistService) Delete(ctx context.Context, id, userID primitive.ObjectID, migrateTo *primitive.ObjectID) error {
	playlist, err := s.playlists.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if playlist == nil || playlist.UserID != userID {
		return apperrors.ErrPlaylistNotFound
	}
	if playlist.Default {
		return apperrors.ErrForbidden.WithDetails("default playlist cannot be deleted")
	}

	// Migration comes first: if it fails, nothing has been torn down yet.
	if migrateTo != nil && len(playlist.Songs) > 0 {
		if err := s.migrateSongs(ctx, playlist, *migrateTo); err != nil {
			return err
		}
	}

	if len(playlist.Songs) > 0 {
		if _, err := s.songs.RemovePlaylistRef(ctx, playlist.Songs, playlist.ID); err != nil {
			return err
		}
	}

	modified, err := s.users.RemovePlaylistRef(ctx, playlist.UserID, playlist.ID)
	if err != nil {
		return err
	}
	if modified == 0 {
		return apperrors.ErrCounterUpdateFailed.WithDetails("owner playlist reference")
	}

	s.blobs.Cleanup(ctx, playlist.CoverURL)

	deleted, err := s.playlists.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperrors.ErrPlaylistNotFound
	}
	return nil
}

// migrateSongs merges the source's members into the target. Stats move by the
// actual member durations, not the source's possibly stale aggregates, so the
// target stays correct even when the source drifted.
func (s *PlaylistService) migrateSongs(ctx context.Context, source *domain.Playlist, targetID primitive.ObjectID) error {
	if targetID == source.ID {
		return apperrors.ErrMigrationFailed.WithDetails("cannot migrate a playlist into itself")
	}
	target, err := s.playlists.GetByID(ctx, targetID)
	if err != nil {
		return err
	}
	if target == nil || target.UserID != source.UserID {
		return apperrors.ErrPlaylistNotFound
	}

	members, err := s.songs.ListByIDs(ctx, source.Songs)
	if err != nil {
		return apperrors.ErrMigrationFailed.WithError(err)
	}

	// Only members the target does not already hold move the stats.
	held := make(map[primitive.ObjectID]struct{}, len(target.Songs))
	for _, id := range target.Songs {
		held[id] = struct{}{}
	}
	var (
		moving   []primitive.ObjectID
		count    int
		duration float64
	)
	for _, m := range members {
		if _, ok := held[m.ID]; ok {
			continue
		}
		moving = append(moving, m.ID)
		count++
		duration += m.Duration
	}
	if len(moving) == 0 {
		return nil
	}

	// Both steps assert their effect: a zero modified count means the target
	// or the members vanished between the lookup and the write, and deleting
	// the source now would strand the songs.
	modified, err := s.playlists.MergeSongs(ctx, targetID, moving, count, duration)
	if err != nil {
		return apperrors.ErrMigrationFailed.WithError(err)
	}
	if modified == 0 {
		return apperrors.ErrMigrationFailed.WithDetails("target playlist no longer exists")
	}
	moved, err := s.songs.AddPlaylistRef(ctx, moving, targetID)
	if err != nil {
		return apperrors.ErrMigrationFailed.WithError(err)
	}
	if moved == 0 {
		return apperrors.ErrMigrationFailed.WithDetails("member song references")
	}
	return nil
}
