package cache

import (
	"context"
)

// IncrVisitors bumps the visitor counter and returns the new value, or nil
// when Redis is unavailable.
func IncrVisitors(ctx context.Context) *int64 {
	if client == nil {
		return nil
	}
	n, err := client.Incr(ctx, VisitorsKey).Result()
	if err != nil {
		return nil
	}
	return &n
}
