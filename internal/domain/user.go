package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserNotification embeds a notification reference with per-user flags.
type UserNotification struct {
	ID     primitive.ObjectID `bson:"id" json:"id"`
	Read   bool               `bson:"read" json:"read"`
	Viewed bool               `bson:"viewed" json:"viewed"`
}

// NotificationPrefs gates which notification types reach a user.
type NotificationPrefs struct {
	ArtistUpdates       bool `bson:"artist_updates" json:"artist_updates"`
	SystemAnnouncements bool `bson:"system_announcements" json:"system_announcements"`
	MonthlyStatistics   bool `bson:"monthly_statistics" json:"monthly_statistics"`
}

// Allows reports whether a notification of the given type may be delivered.
func (p NotificationPrefs) Allows(t NotificationType) bool {
	switch t {
	case NotificationArtistUpdate:
		return p.ArtistUpdates
	case NotificationSystemAnnouncement:
		return p.SystemAnnouncements
	case NotificationMonthlyStatistic:
		return p.MonthlyStatistics
	}
	return false
}

// PlayerPrefs is the slice of a user's player state the engine must scrub
// when a song disappears or is donated.
type PlayerPrefs struct {
	PlaylistID *primitive.ObjectID  `bson:"playlist_id,omitempty" json:"playlist_id,omitempty"`
	Queue      []primitive.ObjectID `bson:"queue" json:"queue"`
}

// UserPrefs nests the preference sub-documents.
type UserPrefs struct {
	Notifications NotificationPrefs `bson:"notifications" json:"notifications"`
	Player        PlayerPrefs       `bson:"player" json:"player"`
}

// User is the slice of the account document the engine touches: denormalized
// counters, reference sets and the embedded notifications collection. The
// counters track net create/delete operations exactly; every counter movement
// is paired with a guarded set update so retries cannot double count.
type User struct {
	ID             primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Name           string               `bson:"name" json:"name"`
	AvatarURL      string               `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Palette        Palette              `bson:"palette" json:"palette"`
	Following      []primitive.ObjectID `bson:"following" json:"following"`
	Playlists      []primitive.ObjectID `bson:"playlists" json:"playlists"`
	Songs          []primitive.ObjectID `bson:"songs" json:"songs"`
	Albums         []primitive.ObjectID `bson:"albums" json:"albums"`
	Notifications  []UserNotification   `bson:"notifications" json:"notifications"`
	Preferences    UserPrefs            `bson:"preferences" json:"preferences"`
	TotalSongs     int                  `bson:"total_songs" json:"total_songs"`
	TotalAlbums    int                  `bson:"total_albums" json:"total_albums"`
	TotalFollowing int                  `bson:"total_following" json:"total_following"`
	TotalPlaylists int                  `bson:"total_playlists" json:"total_playlists"`
	CreatedAt      time.Time            `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time            `bson:"updated_at" json:"updated_at"`
}
