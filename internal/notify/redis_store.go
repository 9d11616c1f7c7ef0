package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists notifications between polls. Save is an upsert keyed
// by notification ID, so re-deriving the same notification on the next poll
// does not duplicate it or reset its read flag.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client), nil
}

func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client: client,
		prefix: "notification:",
		ttl:    24 * time.Hour,
	}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save upserts a batch of notifications. Existing entries keep their stored
// state; only new IDs are written.
func (s *RedisStore) Save(ctx context.Context, notifications []Notification) error {
	for _, notification := range notifications {
		data, err := json.Marshal(notification)
		if err != nil {
			return fmt.Errorf("marshal notification: %w", err)
		}
		ok, err := s.client.SetNX(ctx, s.key(notification.ID), data, s.ttl).Result()
		if err != nil {
			return fmt.Errorf("save notification: %w", err)
		}
		if ok {
			continue
		}
		// refresh the TTL on entries that are still being derived
		if err := s.client.Expire(ctx, s.key(notification.ID), s.ttl).Err(); err != nil {
			return fmt.Errorf("refresh notification ttl: %w", err)
		}
	}
	return nil
}

// List returns all stored notifications, newest first.
func (s *RedisStore) List(ctx context.Context) ([]Notification, error) {
	keys, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("list notification keys: %w", err)
	}

	notifications := make([]Notification, 0, len(keys))
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Result()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get notification: %w", err)
		}
		var notification Notification
		if err := json.Unmarshal([]byte(data), &notification); err != nil {
			return nil, fmt.Errorf("unmarshal notification: %w", err)
		}
		notifications = append(notifications, notification)
	}

	sort.Slice(notifications, func(i, j int) bool {
		if !notifications[i].CreatedAt.Equal(notifications[j].CreatedAt) {
			return notifications[i].CreatedAt.After(notifications[j].CreatedAt)
		}
		return notifications[i].ID < notifications[j].ID
	})
	return notifications, nil
}

// MarkRead flips the read flag on one stored notification. Unknown IDs are
// not an error.
func (s *RedisStore) MarkRead(ctx context.Context, id string) error {
	data, err := s.client.Get(ctx, s.key(id)).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get notification: %w", err)
	}

	var notification Notification
	if err := json.Unmarshal([]byte(data), &notification); err != nil {
		return fmt.Errorf("unmarshal notification: %w", err)
	}
	notification.Read = true

	updated, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := s.client.Set(ctx, s.key(id), updated, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead flips the read flag on every stored notification.
func (s *RedisStore) MarkAllRead(ctx context.Context) error {
	keys, err := s.client.Keys(ctx, s.prefix+"*").Result()
	if err != nil {
		return fmt.Errorf("list notification keys: %w", err)
	}
	for _, key := range keys {
		if err := s.MarkRead(ctx, key[len(s.prefix):]); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
