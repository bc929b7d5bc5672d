package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NotificationType discriminates the payload of a notification document.
type NotificationType string

const (
	NotificationArtistUpdate       NotificationType = "artist_update"
	NotificationSystemAnnouncement NotificationType = "system_announcement"
	NotificationMonthlyStatistic   NotificationType = "monthly_statistic"
)

// ArtistUpdatePayload announces a new song by a followed artist.
type ArtistUpdatePayload struct {
	ArtistID   primitive.ObjectID `bson:"artist_id" json:"artist_id"`
	ArtistName string             `bson:"artist_name" json:"artist_name"`
	SongID     primitive.ObjectID `bson:"song_id" json:"song_id"`
	SongTitle  string             `bson:"song_title" json:"song_title"`
	AlbumTitle string             `bson:"album_title,omitempty" json:"album_title,omitempty"`
}

// AnnouncementPayload carries the caller-supplied window of a system
// announcement, e.g. a maintenance slot.
type AnnouncementPayload struct {
	Date      string `bson:"date" json:"date"`
	StartTime string `bson:"start_time" json:"start_time"`
	EndTime   string `bson:"end_time" json:"end_time"`
}

// MonthlyStatisticPayload carries a user's monthly listening summary.
type MonthlyStatisticPayload struct {
	Month             string  `bson:"month" json:"month"`
	TotalPlayCount    int64   `bson:"total_play_count" json:"total_play_count"`
	TotalPlayDuration float64 `bson:"total_play_duration" json:"total_play_duration"`
}

// Notification is a broadcast document. Per-recipient read/viewed flags live
// on the referencing User, not here.
type Notification struct {
	ID           primitive.ObjectID       `bson:"_id,omitempty" json:"id"`
	Type         NotificationType         `bson:"type" json:"type"`
	ArtistUpdate *ArtistUpdatePayload     `bson:"artist_update,omitempty" json:"artist_update,omitempty"`
	Announcement *AnnouncementPayload     `bson:"announcement,omitempty" json:"announcement,omitempty"`
	Monthly      *MonthlyStatisticPayload `bson:"monthly,omitempty" json:"monthly,omitempty"`
	CreatedAt    time.Time                `bson:"created_at" json:"created_at"`
}
