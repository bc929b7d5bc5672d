package service

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/melodix/server/internal/domain"
	"github.com/melodix/server/internal/palette"
	"github.com/melodix/server/internal/repository"
	"github.com/melodix/server/internal/storage"
	apperrors "github.com/melodix/server/pkg/errors"
)

// AlbumService owns album lifecycle cascades. Albums are shared documents: a
// title/artist pair resolves to one album no matter how many users upload
// into it, and an album with no holders and no songs left is reaped together
// with its cover blob and artist back-references.
type AlbumService struct {
	albums    repository.AlbumRepository
	refs      repository.RefMaintainer
	extractor palette.Extractor
	blobs     *storage.Cleaner
}

// NewAlbumService creates the album service.
func NewAlbumService(
	albums repository.AlbumRepository,
	refs repository.RefMaintainer,
	extractor palette.Extractor,
	blobs *storage.Cleaner,
) *AlbumService {
	return &AlbumService{
		albums:    albums,
		refs:      refs,
		extractor: extractor,
		blobs:     blobs,
	}
}

// CreateAlbumInput carries the fields of an upload's album target.
type CreateAlbumInput struct {
	CreatorID primitive.ObjectID
	Title     string
	Artists   []primitive.ObjectID
	CoverURL  string
}

// CreateOrAttach resolves the album for a title/artist pair, creating it when
// no exact match exists, and registers the user as a holder. Returns the
// album and whether it was newly created.
func (s *AlbumService) CreateOrAttach(ctx context.Context, in CreateAlbumInput) (*domain.Album, bool, error) {
	album, err := s.albums.FindByTitleAndArtists(ctx, in.Title, in.Artists)
	if err != nil {
		return nil, false, err
	}

	created := false
	if album == nil {
		album = &domain.Album{
			CreatorID: in.CreatorID,
			Title:     in.Title,
			CoverURL:  in.CoverURL,
			Artists:   in.Artists,
			Palette:   s.extractPalette(ctx, in.CoverURL),
		}
		if err := album.Validate(); err != nil {
			return nil, false, apperrors.ErrInvalidRequest.WithError(err)
		}
		if err := s.albums.Insert(ctx, album); err != nil {
			return nil, false, err
		}
		created = true
	}

	if _, err := s.albums.AddUser(ctx, album.ID, in.CreatorID); err != nil {
		return nil, false, err
	}
	return album, created, nil
}

// UpdateCover replaces the album's cover and re-derives its palette. The
// previous non-default blob is deleted best-effort.
func (s *AlbumService) UpdateCover(ctx context.Context, id primitive.ObjectID, coverURL string) (*domain.Album, error) {
	album, err := s.albums.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if album == nil {
		return nil, apperrors.ErrAlbumNotFound
	}

	if album.CoverURL != "" && album.CoverURL != coverURL {
		s.blobs.Cleanup(ctx, album.CoverURL)
	}

	p := s.extractPalette(ctx, coverURL)
	if _, err := s.albums.SetCover(ctx, id, coverURL, p); err != nil {
		return nil, err
	}
	album.CoverURL = coverURL
	album.Palette = p
	return album, nil
}

// RemoveUser detaches a holder from the album and reaps it when that was the
// last tie keeping it alive.
func (s *AlbumService) RemoveUser(ctx context.Context, albumID, userID primitive.ObjectID) error {
	if _, err := s.albums.RemoveUser(ctx, albumID, userID); err != nil {
		return err
	}
	return s.ReapIfEmpty(ctx, albumID)
}

// ReapIfEmpty deletes the album when it has neither holders nor songs,
// cleaning up its cover blob and artist back-references. A missing album is a
// no-op.
func (s *AlbumService) ReapIfEmpty(ctx context.Context, albumID primitive.ObjectID) error {
	album, err := s.albums.GetByID(ctx, albumID)
	if err != nil {
		return err
	}
	if album == nil || !album.IsEmpty() {
		return nil
	}

	if _, err := s.albums.Delete(ctx, album.ID); err != nil {
		return err
	}
	s.blobs.Cleanup(ctx, album.CoverURL)
	if _, err := s.refs.RemoveRef(ctx, repository.ModelArtists, album.Artists, "albums", album.ID); err != nil {
		return err
	}
	return nil
}

// ReapOrphans bulk-deletes every album whose artists, holders and songs have
// all emptied. The batch does no per-document cleanup, so it only touches
// fully orphaned documents: an album still named by an artist back-reference
// is left for the single-album path, which cleans up behind itself.
func (s *AlbumService) ReapOrphans(ctx context.Context) (int64, error) {
	return s.refs.ReapOrphans(ctx, repository.ModelAlbums, "artists", "users", "songs")
}

func (s *AlbumService) extractPalette(ctx context.Context, coverURL string) domain.Palette {
	if coverURL == "" {
		return domain.Palette{}
	}
	p, err := s.extractor.Extract(ctx, coverURL)
	if err != nil {
		log.Printf("palette extraction for %q failed: %v", coverURL, err)
		return domain.Palette{}
	}
	return p
}
