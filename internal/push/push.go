// Package push delivers real-time "notifications changed" signals over Redis
// Pub/Sub. Delivery is fire-and-forget: recipients that are offline simply
// miss the signal and reconcile on their next fetch.
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix = "notify:user:" // per-recipient channel: notify:user:{userID}
	broadcastChannel  = "notify:broadcast"
)

// EventNotificationsChanged tells a client to refetch its notifications.
const EventNotificationsChanged = "notifications_changed"

// Notifier is the fan-out collaborator the cascade engine depends on.
type Notifier interface {
	NotificationsChanged(ctx context.Context, userID string) error
	Broadcast(ctx context.Context) error
}

// Event is the wire payload published on the channels.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	UserID    string    `json:"user_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Stats counts publisher activity.
type Stats struct {
	TotalPublished int64 `json:"total_published"`
	UserPublished  int64 `json:"user_published"`
	Broadcasts     int64 `json:"broadcasts"`
	Failed         int64 `json:"failed"`
}

// RedisNotifier publishes events through a Redis client.
type RedisNotifier struct {
	redis *redis.Client
	stats Stats
}

// NewRedisNotifier creates a notifier on the given client.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{redis: client}
}

// NotificationsChanged publishes a changed signal on the recipient's channel.
func (n *RedisNotifier) NotificationsChanged(ctx context.Context, userID string) error {
	event := &Event{
		ID:        uuid.New().String(),
		Type:      EventNotificationsChanged,
		UserID:    userID,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		atomic.AddInt64(&n.stats.Failed, 1)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	channel := userChannelPrefix + userID
	if err := n.redis.Publish(ctx, channel, payload).Err(); err != nil {
		atomic.AddInt64(&n.stats.Failed, 1)
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	atomic.AddInt64(&n.stats.TotalPublished, 1)
	atomic.AddInt64(&n.stats.UserPublished, 1)

	log.Printf("Published notification signal: user=%s, id=%s", userID, event.ID)
	return nil
}

// Broadcast publishes a changed signal on the shared broadcast channel.
func (n *RedisNotifier) Broadcast(ctx context.Context) error {
	event := &Event{
		ID:        uuid.New().String(),
		Type:      EventNotificationsChanged,
		Timestamp: time.Now(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		atomic.AddInt64(&n.stats.Failed, 1)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := n.redis.Publish(ctx, broadcastChannel, payload).Err(); err != nil {
		atomic.AddInt64(&n.stats.Failed, 1)
		return fmt.Errorf("failed to publish broadcast: %w", err)
	}

	atomic.AddInt64(&n.stats.TotalPublished, 1)
	atomic.AddInt64(&n.stats.Broadcasts, 1)

	log.Printf("Published broadcast notification signal: id=%s", event.ID)
	return nil
}

// GetStats returns a snapshot of the publish counters.
func (n *RedisNotifier) GetStats() Stats {
	return Stats{
		TotalPublished: atomic.LoadInt64(&n.stats.TotalPublished),
		UserPublished:  atomic.LoadInt64(&n.stats.UserPublished),
		Broadcasts:     atomic.LoadInt64(&n.stats.Broadcasts),
		Failed:         atomic.LoadInt64(&n.stats.Failed),
	}
}
