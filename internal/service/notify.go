package service

import (
	"context"
	"log/slog"

	"github.com/goodabcdef/instagram-project/internal/middleware"
	"github.com/goodabcdef/instagram-project/internal/notifications"
)

// publish sends a real-time event. Delivery is best effort and never
// fails the request that triggered it.
func publish(ctx context.Context, pub notifications.Publisher, recipientID uint, event notifications.Event) {
	if pub == nil {
		return
	}
	if err := pub.Notify(ctx, recipientID, event); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			slog.String("type", string(event.Type)),
			slog.Uint64("recipient_id", uint64(recipientID)),
			slog.String("error", err.Error()),
		)
	}
}
