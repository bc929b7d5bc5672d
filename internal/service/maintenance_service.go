package service

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/melodix/server/internal/domain"
	"github.com/melodix/server/internal/palette"
	"github.com/melodix/server/internal/repository"
	apperrors "github.com/melodix/server/pkg/errors"
)

// statsWorkers bounds the concurrency of the per-playlist recomputation.
const statsWorkers = 8

// MaintenanceService bundles the administrative batch operations: stats
// recomputation, palette backfill and removal, notification flag resets, and
// the targeted delete passthroughs the admin surface exposes.
type MaintenanceService struct {
	playlists     repository.PlaylistRepository
	songs         repository.SongRepository
	users         repository.UserRepository
	songService   *SongService
	notifications *NotificationService
	extractor     palette.Extractor
}

// NewMaintenanceService creates the maintenance service.
func NewMaintenanceService(
	playlists repository.PlaylistRepository,
	songs repository.SongRepository,
	users repository.UserRepository,
	songService *SongService,
	notifications *NotificationService,
	extractor palette.Extractor,
) *MaintenanceService {
	return &MaintenanceService{
		playlists:     playlists,
		songs:         songs,
		users:         users,
		songService:   songService,
		notifications: notifications,
		extractor:     extractor,
	}
}

// RecalculatePlaylistStats recomputes every playlist's stats from its live
// membership. Dangling song references contribute nothing, so a run after a
// partial cascade failure reconverges the aggregates. Playlists are processed
// concurrently; the first failure cancels the rest.
func (s *MaintenanceService) RecalculatePlaylistStats(ctx context.Context) (int64, error) {
	playlists, err := s.playlists.ListAll(ctx)
	if err != nil {
		return 0, err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(statsWorkers)

	updated := make(chan int64, len(playlists))
	for _, pl := range playlists {
		pl := pl
		g.Go(func() error {
			members, err := s.songs.ListByIDs(ctx, pl.Songs)
			if err != nil {
				return err
			}
			stats := domain.PlaylistStats{TotalSongCount: len(members)}
			for _, m := range members {
				stats.TotalSongDuration += m.Duration
			}
			if pl.Stats == stats {
				return nil
			}
			n, err := s.playlists.SetStats(ctx, pl.ID, stats)
			if err != nil {
				return err
			}
			updated <- n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(updated)

	var total int64
	for n := range updated {
		total += n
	}
	return total, nil
}

// RemovePlaylistStats strips the stats sub-document across all playlists.
func (s *MaintenanceService) RemovePlaylistStats(ctx context.Context) (int64, error) {
	return s.playlists.UnsetStats(ctx)
}

// UpdateSongPalettes re-derives the palette of every song that carries an
// image. The backfill is fail-fast: the first extraction or write failure
// aborts the run, leaving already-processed songs updated.
func (s *MaintenanceService) UpdateSongPalettes(ctx context.Context) (int64, error) {
	songs, err := s.songs.ListWithImage(ctx)
	if err != nil {
		return 0, err
	}
	var updated int64
	for _, song := range songs {
		p, err := s.extractor.Extract(ctx, song.ImageURL)
		if err != nil {
			return updated, apperrors.ErrInternal.WithError(err)
		}
		if err := s.songs.SetPalette(ctx, song.ID, p); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// UpdateUserPalettes re-derives the palette of every user that carries an
// avatar. Fail-fast like the song backfill.
func (s *MaintenanceService) UpdateUserPalettes(ctx context.Context) (int64, error) {
	users, err := s.users.ListWithAvatar(ctx)
	if err != nil {
		return 0, err
	}
	var updated int64
	for _, user := range users {
		p, err := s.extractor.Extract(ctx, user.AvatarURL)
		if err != nil {
			return updated, apperrors.ErrInternal.WithError(err)
		}
		if err := s.users.SetPalette(ctx, user.ID, p); err != nil {
			return updated, err
		}
		updated++
	}
	return updated, nil
}

// UpdateCollectionPalette runs the palette backfill for the named collection.
// Only songs and users carry derivable images.
func (s *MaintenanceService) UpdateCollectionPalette(ctx context.Context, model repository.Model) (int64, error) {
	switch model {
	case repository.ModelSongs:
		return s.UpdateSongPalettes(ctx)
	case repository.ModelUsers:
		return s.UpdateUserPalettes(ctx)
	}
	return 0, apperrors.ErrInvalidRequest.WithDetails("collection has no derivable palette: " + string(model))
}

// RemoveCollectionPalette strips the derived palette from the named
// collection.
func (s *MaintenanceService) RemoveCollectionPalette(ctx context.Context, model repository.Model) (int64, error) {
	switch model {
	case repository.ModelSongs:
		return s.RemoveSongPalettes(ctx)
	case repository.ModelUsers:
		return s.RemoveUserPalettes(ctx)
	}
	return 0, apperrors.ErrInvalidRequest.WithDetails("collection has no derivable palette: " + string(model))
}

// RemoveSongPalettes strips the derived palette from every song.
func (s *MaintenanceService) RemoveSongPalettes(ctx context.Context) (int64, error) {
	return s.songs.UnsetPalettes(ctx)
}

// RemoveUserPalettes strips the derived palette from every user.
func (s *MaintenanceService) RemoveUserPalettes(ctx context.Context) (int64, error) {
	return s.users.UnsetPalettes(ctx)
}

// InitializeUserNotifications resets every embedded notification's read and
// viewed flags across all users.
func (s *MaintenanceService) InitializeUserNotifications(ctx context.Context) (int64, error) {
	n, err := s.users.ResetNotificationFlags(ctx)
	if err != nil {
		return 0, err
	}
	log.Printf("maintenance: reset notification flags on %d users", n)
	return n, nil
}

// DeleteTargetNotification removes a notification document and its embedded
// references everywhere.
func (s *MaintenanceService) DeleteTargetNotification(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return s.notifications.Delete(ctx, id)
}

// DeleteSongByID runs the full permanent-delete cascade for a single song.
func (s *MaintenanceService) DeleteSongByID(ctx context.Context, id primitive.ObjectID) error {
	return s.songService.Delete(ctx, id)
}

// CreateSystemAnnouncement publishes a maintenance-window announcement.
func (s *MaintenanceService) CreateSystemAnnouncement(ctx context.Context, window domain.AnnouncementPayload) (*domain.Notification, error) {
	return s.notifications.CreateSystemAnnouncement(ctx, window)
}
