package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Publisher is the subset of *redis.Client used to publish notices.
type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// Redis publishes each notice as JSON on "<channel>:<user id>" so a client
// subscribes to exactly its own notices.
type Redis struct {
	pub     Publisher
	channel string
	now     func() time.Time
}

func NewRedis(pub Publisher, channel string) *Redis {
	return &Redis{pub: pub, channel: channel, now: time.Now}
}

func (r *Redis) Channel(userID string) string {
	return r.channel + ":" + userID
}

func (r *Redis) Notify(ctx context.Context, n Notice) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = r.now()
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshaling notice: %w", err)
	}

	if err := r.pub.Publish(ctx, r.Channel(n.UserID), payload).Err(); err != nil {
		return fmt.Errorf("publishing notice: %w", err)
	}

	return nil
}
