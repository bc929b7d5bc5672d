package domain

import "errors"

var (
	ErrInvalidUserID   = errors.New("invalid user id")
	ErrInvalidArtistID = errors.New("invalid artist id")
	ErrInvalidDuration = errors.New("invalid duration")

	ErrInvalidSongTitle = errors.New("invalid song title")

	ErrPlaylistTitleTooLong       = errors.New("playlist title too long")
	ErrPlaylistDescriptionTooLong = errors.New("playlist description too long")

	ErrInvalidAlbumTitle = errors.New("invalid album title")

	ErrInvalidRating = errors.New("rating must be between 0 and 5")
)
