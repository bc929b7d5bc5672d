package service

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/melodix/server/internal/domain"
	"github.com/melodix/server/internal/push"
	"github.com/melodix/server/internal/repository"
	apperrors "github.com/melodix/server/pkg/errors"
)

// NotificationService creates notification documents and fans them out to
// their recipients' embedded collections and real-time channels.
type NotificationService struct {
	notifications repository.NotificationRepository
	users         repository.UserRepository
	artists       repository.ArtistRepository
	notifier      push.Notifier
}

// NewNotificationService creates the notification service.
func NewNotificationService(
	notifications repository.NotificationRepository,
	users repository.UserRepository,
	artists repository.ArtistRepository,
	notifier push.Notifier,
) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		artists:       artists,
		notifier:      notifier,
	}
}

// PublishArtistUpdate creates an artist-update notification and delivers it
// to the artist's followers, minus the uploader, honoring each follower's
// notification preferences. The push signal per follower is fire-and-forget.
// Returns nil without creating anything when there is nobody to notify.
func (s *NotificationService) PublishArtistUpdate(ctx context.Context, payload domain.ArtistUpdatePayload, uploaderID primitive.ObjectID) (*domain.Notification, error) {
	artist, err := s.artists.GetByID(ctx, payload.ArtistID)
	if err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, apperrors.ErrArtistNotFound
	}

	recipients := artist.FollowersExcluding(uploaderID)
	if len(recipients) == 0 {
		return nil, nil
	}

	notification := &domain.Notification{
		Type:         domain.NotificationArtistUpdate,
		ArtistUpdate: &payload,
	}
	if err := s.notifications.Insert(ctx, notification); err != nil {
		return nil, err
	}

	followers, err := s.users.ListByIDs(ctx, recipients)
	if err != nil {
		return nil, err
	}

	eligible := make([]primitive.ObjectID, 0, len(followers))
	for _, f := range followers {
		if f.Preferences.Notifications.Allows(domain.NotificationArtistUpdate) {
			eligible = append(eligible, f.ID)
		}
	}
	if len(eligible) == 0 {
		return notification, nil
	}

	if _, err := s.users.PushNotification(ctx, eligible, notification.ID); err != nil {
		return nil, err
	}

	for _, userID := range eligible {
		if err := s.notifier.NotificationsChanged(ctx, userID.Hex()); err != nil {
			log.Printf("notification push to %s failed: %v", userID.Hex(), err)
		}
	}

	return notification, nil
}

// Delete removes a notification document and pulls its embedded reference
// out of every user carrying it. Returns the number of users updated.
func (s *NotificationService) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	deleted, err := s.notifications.Delete(ctx, id)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, apperrors.ErrNotificationNotFound
	}
	return s.users.PullNotification(ctx, id)
}

// CreateSystemAnnouncement creates a system-announcement notification for the
// supplied window. Creation failure is a hard error; the broadcast signal is
// best-effort.
func (s *NotificationService) CreateSystemAnnouncement(ctx context.Context, window domain.AnnouncementPayload) (*domain.Notification, error) {
	notification := &domain.Notification{
		Type:         domain.NotificationSystemAnnouncement,
		Announcement: &window,
	}
	if err := s.notifications.Insert(ctx, notification); err != nil {
		return nil, apperrors.ErrAnnouncementFailed.WithError(err)
	}

	if err := s.notifier.Broadcast(ctx); err != nil {
		log.Printf("announcement broadcast failed: %v", err)
	}
	return notification, nil
}
