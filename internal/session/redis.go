package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "sess:"

// NewRedisClient opens a client and checks the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return client, nil
}

// RedisStore keeps sessions as JSON strings with a key TTL.
type RedisStore struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStore creates a RedisStore whose sessions live for ttl after their
// last use.
func NewRedisStore(client redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl, now: time.Now}
}

// Create stores a new session key for userID with the store TTL.
func (s *RedisStore) Create(ctx context.Context, userID string) (string, error) {
	token, err := newToken()
	if err != nil {
		return "", err
	}

	data, err := json.Marshal(record{UserID: userID, CreatedAt: s.now().UTC()})
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}

	created, err := s.client.SetNX(ctx, redisKeyPrefix+token, data, s.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("saving session: %w", err)
	}
	if !created {
		return "", ErrTokenCollision
	}

	return token, nil
}

// Get returns the owner of a session and resets the key TTL.
func (s *RedisStore) Get(ctx context.Context, token string) (string, bool, error) {
	data, err := s.client.GetEx(ctx, redisKeyPrefix+token, s.ttl).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("loading session: %w", err)
	}

	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return "", false, fmt.Errorf("decoding session: %w", err)
	}

	return rec.UserID, true, nil
}

// Destroy removes the session key.
func (s *RedisStore) Destroy(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, redisKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}
