package services

import (
	"context"
	"encoding/json"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
)

// DefaultEventChannel is the pub/sub channel used when none is configured.
const DefaultEventChannel = "moodmix:events"

// RedisNotifier publishes [Event] values as JSON on a Redis channel.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	logger  *log.Logger
}

// NewRedisNotifier creates a notifier on channel (defaults to [DefaultEventChannel]).
func NewRedisNotifier(rdb *redis.Client, channel string, logger *log.Logger) *RedisNotifier {
	if channel == "" {
		channel = DefaultEventChannel
	}
	return &RedisNotifier{rdb: rdb, channel: channel, logger: logger}
}

// Notify publishes event. Failures are logged and otherwise ignored.
func (n *RedisNotifier) Notify(ctx context.Context, event Event) {
	if n == nil || n.rdb == nil {
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn("failed to marshal event", "type", event.Type, "error", err)
		return
	}

	if err := n.rdb.Publish(ctx, n.channel, data).Err(); err != nil {
		n.logger.Warn("failed to publish event", "type", event.Type, "channel", n.channel, "error", err)
	}
}
