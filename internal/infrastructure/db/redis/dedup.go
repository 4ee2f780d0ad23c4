package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const dedupTTL = 10 * time.Minute

// MailDedup provides idempotency checks for the notification dispatcher,
// backed by Redis. Key format: mail:<content key>
type MailDedup struct {
	client *redis.Client
}

// NewMailDedup creates a MailDedup wrapping the given Redis client.
func NewMailDedup(client *redis.Client) *MailDedup {
	return &MailDedup{client: client}
}

// IsDuplicate reports whether an identical notification was delivered within
// the dedup window.
func (d *MailDedup) IsDuplicate(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, "mail:"+key).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records a delivered notification (expires after dedupTTL).
func (d *MailDedup) Mark(ctx context.Context, key string) error {
	return d.client.Set(ctx, "mail:"+key, "1", dedupTTL).Err()
}
