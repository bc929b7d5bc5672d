// Package errors provides standardized error definitions for the Melodix system.
package errors

import (
	"fmt"
	"net/http"
)

// Error represents a structured application error.
type Error struct {
	Code       string      `json:"code"`
	Message    string      `json:"message"`
	HTTPStatus int         `json:"-"`
	Details    interface{} `json:"details,omitempty"`
	Err        error       `json:"-"` // Wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetails adds details to the error.
func (e *Error) WithDetails(details interface{}) *Error {
	clone := *e
	clone.Details = details
	return &clone
}

// WithError wraps another error.
func (e *Error) WithError(err error) *Error {
	clone := *e
	clone.Err = err
	return &clone
}

// New creates a new Error.
func New(code, message string, httpStatus int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an existing error with error code and message.
func Wrap(err error, code, message string, httpStatus int) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

// Common error codes
const (
	// General errors
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "CONFLICT"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeDuplicateKey   = "DUPLICATE_KEY"

	// Entity errors
	ErrCodeSongNotFound         = "SONG_NOT_FOUND"
	ErrCodePlaylistNotFound     = "PLAYLIST_NOT_FOUND"
	ErrCodeAlbumNotFound        = "ALBUM_NOT_FOUND"
	ErrCodeArtistNotFound       = "ARTIST_NOT_FOUND"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"

	// Cascade errors
	ErrCodeCounterUpdateFailed = "COUNTER_UPDATE_FAILED"
	ErrCodePlaylistAddFailed   = "PLAYLIST_ADD_FAILED"
	ErrCodeMigrationFailed     = "MIGRATION_FAILED"
	ErrCodeAnnouncementFailed  = "ANNOUNCEMENT_FAILED"

	// Store errors
	ErrCodeDatabaseError = "DATABASE_ERROR"
)

// Predefined errors
var (
	ErrInternal       = New(ErrCodeInternal, "Internal server error", http.StatusInternalServerError)
	ErrInvalidRequest = New(ErrCodeInvalidRequest, "Invalid request", http.StatusBadRequest)
	ErrNotFound       = New(ErrCodeNotFound, "Resource not found", http.StatusNotFound)
	ErrConflict       = New(ErrCodeConflict, "Resource conflict", http.StatusConflict)
	ErrForbidden      = New(ErrCodeForbidden, "Access forbidden", http.StatusForbidden)
)

var (
	ErrSongNotFound         = New(ErrCodeSongNotFound, "Song not found", http.StatusNotFound)
	ErrPlaylistNotFound     = New(ErrCodePlaylistNotFound, "Playlist not found or access denied", http.StatusNotFound)
	ErrAlbumNotFound        = New(ErrCodeAlbumNotFound, "Album not found", http.StatusNotFound)
	ErrArtistNotFound       = New(ErrCodeArtistNotFound, "Artist not found", http.StatusNotFound)
	ErrUserNotFound         = New(ErrCodeUserNotFound, "User not found", http.StatusNotFound)
	ErrNotificationNotFound = New(ErrCodeNotificationNotFound, "Notification not found", http.StatusNotFound)
)

var (
	ErrCounterUpdateFailed = New(ErrCodeCounterUpdateFailed, "Failed to update user counters", http.StatusInternalServerError)
	ErrPlaylistAddFailed   = New(ErrCodePlaylistAddFailed, "Failed to add songs to playlist", http.StatusInternalServerError)
	ErrMigrationFailed     = New(ErrCodeMigrationFailed, "Failed to migrate playlist songs", http.StatusInternalServerError)
	ErrAnnouncementFailed  = New(ErrCodeAnnouncementFailed, "Failed to create system announcement", http.StatusInternalServerError)
	ErrDatabaseError       = New(ErrCodeDatabaseError, "Database error", http.StatusInternalServerError)
)

// Duplicate returns a conflict error identifying the collided field.
func Duplicate(field string) *Error {
	return New(ErrCodeDuplicateKey, fmt.Sprintf("Duplicate value for field %q", field), http.StatusConflict)
}

// IsError checks if an error is a specific application error.
func IsError(err error, target *Error) bool {
	if err == nil {
		return false
	}
	appErr, ok := err.(*Error)
	if !ok {
		return false
	}
	return appErr.Code == target.Code
}

// GetHTTPStatus returns the HTTP status code for an error.
// If the error is not an *Error, returns 500.
func GetHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	appErr, ok := err.(*Error)
	if !ok {
		return http.StatusInternalServerError
	}
	return appErr.HTTPStatus
}

// GetCode returns the error code for an error.
// If the error is not an *Error, returns INTERNAL_ERROR.
func GetCode(err error) string {
	if err == nil {
		return ""
	}
	appErr, ok := err.(*Error)
	if !ok {
		return ErrCodeInternal
	}
	return appErr.Code
}
