// Package notify pushes real-time events to a user's channel.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"greentrack/pkg/types"

	"github.com/redis/go-redis/v9"
)

const EventScanCompleted = "scanCompleted"

// Envelope is the message published on a user channel.
type Envelope struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

func UserChannel(userID string) string {
	return "user-" + userID
}

type Publisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

type RedisNotifier struct {
	client Publisher
}

func NewRedisNotifier(client Publisher) *RedisNotifier {
	return &RedisNotifier{client: client}
}

// Connect opens a client for a redis:// URL and checks it answers.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	opts.DialTimeout = 3 * time.Second
	opts.ReadTimeout = 2 * time.Second
	opts.WriteTimeout = 2 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return client, nil
}

func (n *RedisNotifier) ScanCompleted(ctx context.Context, userID string, event *types.ScanCompletedEvent) error {
	payload, err := json.Marshal(Envelope{Event: EventScanCompleted, Data: event})
	if err != nil {
		return fmt.Errorf("encode %s event: %w", EventScanCompleted, err)
	}

	if err := n.client.Publish(ctx, UserChannel(userID), payload).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", EventScanCompleted, err)
	}

	return nil
}

// Discard is used when no Redis URL is configured.
type Discard struct{}

func (Discard) ScanCompleted(context.Context, string, *types.ScanCompletedEvent) error {
	return nil
}
