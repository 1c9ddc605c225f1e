package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ChatStore keeps per-user chat transcripts as Redis lists:
// RPUSH chat:transcript:{username} {message}
type ChatStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewChatStore(client *redis.Client, ttl time.Duration) *ChatStore {
	return &ChatStore{client: client, ttl: ttl}
}

func (s *ChatStore) Append(ctx context.Context, username string, messages ...string) error {
	if len(messages) == 0 {
		return nil
	}
	key := s.key(username)
	args := make([]interface{}, 0, len(messages))
	for _, msg := range messages {
		args = append(args, msg)
	}
	if err := s.client.RPush(ctx, key, args...).Err(); err != nil {
		return err
	}
	if s.ttl > 0 {
		_ = s.client.Expire(ctx, key, s.ttl).Err()
	}
	return nil
}

func (s *ChatStore) Messages(ctx context.Context, username string) ([]string, error) {
	return s.client.LRange(ctx, s.key(username), 0, -1).Result()
}

func (s *ChatStore) Clear(ctx context.Context, username string) error {
	return s.client.Del(ctx, s.key(username)).Err()
}

func (s *ChatStore) key(username string) string {
	return "chat:transcript:" + username
}
