package service

import (
	"context"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/melodix/server/internal/domain"
	"github.com/melodix/server/internal/palette"
	"github.com/melodix/server/internal/repository"
	"github.com/melodix/server/internal/storage"
	apperrors "github.com/melodix/server/pkg/errors"
)

// SongService owns every song cascade. Each mutation is an explicit, named
// operation: the write path calls these directly instead of relying on
// model-level hook dispatch, so ordering and failure points stay auditable.
//
// Cascade steps run sequentially. Steps that move shared counters or
// reference arrays assert their effect and abort on failure; blob cleanup and
// palette extraction degrade to logged no-ops.
type SongService struct {
	songs         repository.SongRepository
	playlists     repository.PlaylistRepository
	albums        repository.AlbumRepository
	users         repository.UserRepository
	artists       repository.ArtistRepository
	refs          repository.RefMaintainer
	notifications *NotificationService
	extractor     palette.Extractor
	blobs         *storage.Cleaner
}

// NewSongService creates the song service.
func NewSongService(
	songs repository.SongRepository,
	playlists repository.PlaylistRepository,
	albums repository.AlbumRepository,
	users repository.UserRepository,
	artists repository.ArtistRepository,
	refs repository.RefMaintainer,
	notifications *NotificationService,
	extractor palette.Extractor,
	blobs *storage.Cleaner,
) *SongService {
	return &SongService{
		songs:         songs,
		playlists:     playlists,
		albums:        albums,
		users:         users,
		artists:       artists,
		refs:          refs,
		notifications: notifications,
		extractor:     extractor,
		blobs:         blobs,
	}
}

// CreateSongInput carries everything the create cascade needs.
type CreateSongInput struct {
	CreatorID  primitive.ObjectID
	ArtistID   primitive.ObjectID
	CoArtistID *primitive.ObjectID
	Title      string
	AudioURL   string
	ImageURL   string
	Duration   float64
	PlaylistID primitive.ObjectID // target playlist for the upload
	AlbumID    *primitive.ObjectID
	Genres     []primitive.ObjectID
	Tags       []primitive.ObjectID
	Languages  []primitive.ObjectID
	AlbumTitle string // for the fan-out notification
}

// Create inserts a song and runs the full creation cascade: creator counters,
// playlist membership with stats, album membership with duration, label and
// artist back-references, and follower fan-out.
func (s *SongService) Create(ctx context.Context, in CreateSongInput) (*domain.Song, error) {
	song := &domain.Song{
		CreatorID:   in.CreatorID,
		ArtistID:    in.ArtistID,
		CoArtistID:  in.CoArtistID,
		Title:       in.Title,
		AudioURL:    in.AudioURL,
		ImageURL:    in.ImageURL,
		Duration:    in.Duration,
		PlaylistFor: []primitive.ObjectID{in.PlaylistID},
		Genres:      in.Genres,
		Tags:        in.Tags,
		Languages:   in.Languages,
		AlbumID:     in.AlbumID,
		Favorites:   []primitive.ObjectID{},
		Ratings:     []domain.Rating{},
		Ownership:   domain.Ownership{UserOwned: true},
	}
	if err := song.Validate(); err != nil {
		return nil, apperrors.ErrInvalidRequest.WithError(err)
	}

	// Palette extraction happens before the write and never blocks it.
	song.Palette = s.extractPalette(ctx, in.ImageURL)

	target, err := s.playlists.GetByID(ctx, in.PlaylistID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, apperrors.ErrPlaylistNotFound
	}

	if err := s.songs.Insert(ctx, song); err != nil {
		return nil, err
	}

	// Creator counters: songs, albums when attached, following when new.
	modified, err := s.users.AddSongRef(ctx, in.CreatorID, song.ID)
	if err != nil {
		return nil, err
	}
	if modified == 0 {
		return nil, apperrors.ErrUserNotFound
	}
	if in.AlbumID != nil {
		if _, err := s.users.AddAlbumRef(ctx, in.CreatorID, *in.AlbumID); err != nil {
			return nil, err
		}
	}
	if _, err := s.users.Follow(ctx, in.CreatorID, in.ArtistID); err != nil {
		return nil, err
	}

	// Playlist membership with stats; favorites when it is the default one.
	modified, err = s.playlists.AddSong(ctx, in.PlaylistID, song.ID, song.Duration)
	if err != nil {
		return nil, err
	}
	if modified == 0 {
		return nil, apperrors.ErrPlaylistAddFailed
	}
	if target.Default {
		if _, err := s.songs.AddFavorite(ctx, song.ID, in.CreatorID); err != nil {
			return nil, err
		}
	}

	// Album membership with duration, plus artist album back-references.
	if in.AlbumID != nil {
		modified, err = s.albums.AddSong(ctx, *in.AlbumID, song.ID, song.Duration)
		if err != nil {
			return nil, err
		}
		if modified == 0 {
			return nil, apperrors.ErrAlbumNotFound
		}
		if _, err := s.refs.AddRef(ctx, repository.ModelArtists, song.ArtistIDs(), "albums", *in.AlbumID); err != nil {
			return nil, err
		}
	}

	// Label and artist song back-references.
	if _, err := s.refs.AddRef(ctx, repository.ModelLabels, song.LabelIDs(), "songs", song.ID); err != nil {
		return nil, err
	}
	if _, err := s.refs.AddRef(ctx, repository.ModelArtists, song.ArtistIDs(), "songs", song.ID); err != nil {
		return nil, err
	}

	// Follower fan-out, only when the artist has an audience.
	artist, err := s.artists.GetByID(ctx, in.ArtistID)
	if err != nil {
		return nil, err
	}
	if artist != nil && len(artist.Followers) > 0 {
		_, err = s.notifications.PublishArtistUpdate(ctx, domain.ArtistUpdatePayload{
			ArtistID:   in.ArtistID,
			ArtistName: artist.Name,
			SongID:     song.ID,
			SongTitle:  song.Title,
			AlbumTitle: in.AlbumTitle,
		}, in.CreatorID)
		if err != nil {
			return nil, err
		}
	}

	return song, nil
}

// Delete permanently removes a song, leaving no dangling reference anywhere
// in the graph: creator counters, playlists, player queues, album, labels,
// artists, and both blobs.
func (s *SongService) Delete(ctx context.Context, id primitive.ObjectID) error {
	song, err := s.songs.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if song == nil {
		return apperrors.ErrSongNotFound
	}

	if err := s.removeAssociations(ctx, song, true); err != nil {
		return err
	}

	deleted, err := s.songs.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apperrors.ErrSongNotFound
	}
	return nil
}

// DonateOwnership transfers a song to the platform: the creator's personal
// ownership trail is erased but the song, its blobs and its label/artist
// back-references stay intact. Already-donated songs are a no-op.
func (s *SongService) DonateOwnership(ctx context.Context, id primitive.ObjectID) (*domain.Song, error) {
	song, err := s.songs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, apperrors.ErrSongNotFound
	}
	if !song.Ownership.UserOwned {
		return song, nil
	}

	if err := s.removeAssociations(ctx, song, false); err != nil {
		return nil, err
	}

	now := time.Now()
	if _, err := s.songs.SetOwnershipDonated(ctx, id, now); err != nil {
		return nil, err
	}
	return s.songs.GetByID(ctx, id)
}

// RecordRating upserts the rater's entry and recomputes the denormalized
// rating aggregates from the live ratings list.
func (s *SongService) RecordRating(ctx context.Context, songID primitive.ObjectID, rating domain.Rating) (*domain.Song, error) {
	if rating.Rating < 0 || rating.Rating > 5 {
		return nil, apperrors.ErrInvalidRequest.WithError(domain.ErrInvalidRating)
	}

	song, err := s.songs.GetByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, apperrors.ErrSongNotFound
	}

	if err := s.songs.SaveRating(ctx, songID, rating); err != nil {
		return nil, err
	}

	song, err = s.songs.GetByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, apperrors.ErrSongNotFound
	}

	count, average := song.RatingSummary()
	if _, err := s.songs.SetRatingActivity(ctx, songID, count, average); err != nil {
		return nil, err
	}
	song.Activities.TotalRatingCount = count
	song.Activities.AverageRating = average
	return song, nil
}

// UpdateImage replaces the song's image: the previous non-default blob is
// deleted (best-effort, independent of the new extraction) and the palette is
// re-derived from the new locator.
func (s *SongService) UpdateImage(ctx context.Context, songID primitive.ObjectID, imageURL string) (*domain.Song, error) {
	song, err := s.songs.GetByID(ctx, songID)
	if err != nil {
		return nil, err
	}
	if song == nil {
		return nil, apperrors.ErrSongNotFound
	}

	if song.ImageURL != "" && song.ImageURL != imageURL {
		s.blobs.Cleanup(ctx, song.ImageURL)
	}

	p := s.extractPalette(ctx, imageURL)
	if _, err := s.songs.SetImage(ctx, songID, imageURL, p); err != nil {
		return nil, err
	}
	song.ImageURL = imageURL
	song.Palette = p
	return song, nil
}

// removeAssociations erases the song's references across the graph. In
// permanent mode nothing may remain; in donate mode only the personal
// ownership trail goes, the song and its artist/label attribution stay.
func (s *SongService) removeAssociations(ctx context.Context, song *domain.Song, permanent bool) error {
	// Creator counters and ownership sets.
	modified, err := s.users.RemoveSongRef(ctx, song.CreatorID, song.ID)
	if err != nil {
		return err
	}
	if modified == 0 {
		return apperrors.ErrCounterUpdateFailed.WithDetails("creator song reference")
	}
	if song.AlbumID != nil {
		if _, err := s.users.RemoveAlbumRef(ctx, song.CreatorID, *song.AlbumID); err != nil {
			return err
		}
	}

	// Playlist membership with stats, both directions.
	if len(song.PlaylistFor) > 0 {
		if _, err := s.playlists.RemoveSongFromMany(ctx, song.PlaylistFor, song.ID, song.Duration); err != nil {
			return err
		}
		if !permanent {
			if err := s.songs.ClearPlaylistRefs(ctx, song.ID); err != nil {
				return err
			}
		}
	}

	// Player preferences, platform-wide.
	if _, err := s.users.PullPlayerSongRefs(ctx, song.ID); err != nil {
		return err
	}

	if !permanent {
		return nil
	}

	// Album duration and membership, then reap when emptied.
	if song.AlbumID != nil {
		if _, err := s.albums.RemoveSong(ctx, *song.AlbumID, song.ID, song.Duration); err != nil {
			return err
		}
		album, err := s.albums.GetByID(ctx, *song.AlbumID)
		if err != nil {
			return err
		}
		if album != nil && album.IsEmpty() {
			if _, err := s.albums.Delete(ctx, album.ID); err != nil {
				return err
			}
			s.blobs.Cleanup(ctx, album.CoverURL)
			if _, err := s.refs.RemoveRef(ctx, repository.ModelArtists, album.Artists, "albums", album.ID); err != nil {
				return err
			}
		}
	}

	// Blobs; platform defaults are spared.
	s.blobs.Cleanup(ctx, song.AudioURL)
	s.blobs.Cleanup(ctx, song.ImageURL)

	// Label and artist back-references.
	if _, err := s.refs.RemoveRef(ctx, repository.ModelLabels, song.LabelIDs(), "songs", song.ID); err != nil {
		return err
	}
	if _, err := s.refs.RemoveRef(ctx, repository.ModelArtists, song.ArtistIDs(), "songs", song.ID); err != nil {
		return err
	}

	return nil
}

func (s *SongService) extractPalette(ctx context.Context, imageURL string) domain.Palette {
	if imageURL == "" {
		return domain.Palette{}
	}
	p, err := s.extractor.Extract(ctx, imageURL)
	if err != nil {
		log.Printf("palette extraction for %q failed: %v", imageURL, err)
		return domain.Palette{}
	}
	return p
}
