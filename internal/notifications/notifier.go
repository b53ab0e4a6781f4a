package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/goodabcdef/instagram-project/internal/middleware"
	"github.com/goodabcdef/instagram-project/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	userChannelPrefix  = "notifications:user:"
	userChannelPattern = userChannelPrefix + "*"
)

// EventType names what happened to the recipient.
type EventType string

const (
	EventLike    EventType = "like"
	EventComment EventType = "comment"
	EventFollow  EventType = "follow"
)

// Event is the JSON payload pushed to a recipient's sockets.
type Event struct {
	Type      EventType `json:"type"`
	ActorID   uint      `json:"actor_id"`
	PostID    *uint     `json:"post_id,omitempty"`
	CommentID *uint     `json:"comment_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Publisher is what services need to emit events.
type Publisher interface {
	Notify(ctx context.Context, recipientID uint, event Event) error
}

// Notifier publishes notification payloads to per-user Redis channels.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier. A nil client makes every publish a no-op.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// PublishUser sends a raw payload to a user's channel.
func (n *Notifier) PublishUser(ctx context.Context, userID uint, payload string) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	return n.rdb.Publish(ctx, UserChannel(userID), payload).Err()
}

// Notify encodes event and publishes it to recipientID. Actions a user
// takes on their own content are skipped.
func (n *Notifier) Notify(ctx context.Context, recipientID uint, event Event) error {
	if n == nil || n.rdb == nil || recipientID == 0 || recipientID == event.ActorID {
		return nil
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.PublishUser(ctx, recipientID, string(payload)); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	observability.NotificationsPublished.WithLabelValues(string(event.Type)).Inc()
	return nil
}

// StartPatternSubscriber subscribes to every user channel and calls
// onMessage for each incoming message until ctx is cancelled.
func (n *Notifier) StartPatternSubscriber(ctx context.Context, onMessage func(channel, payload string)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, userChannelPattern)
	// Wait for the subscription to be confirmed so publishes right after
	// startup are not lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", userChannelPattern, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in notification subscriber",
								slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onMessage(msg.Channel, msg.Payload)
				}()
			}
		}
	}()

	return nil
}

// UserChannel derives the Redis channel name for a user.
func UserChannel(userID uint) string {
	return userChannelPrefix + strconv.FormatUint(uint64(userID), 10)
}
