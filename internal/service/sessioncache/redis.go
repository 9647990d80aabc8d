package sessioncache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/lexhq/lex-backend/internal/model/session"
)

// RedisStore keeps session records in Redis as JSON blobs under
// lex:user:<id> keys.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis. ttl <= 0 selects DefaultTTL.
func NewRedisStore(addr, password string, db int, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		ttl: ttl,
	}
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Get returns the user's session, or a fresh default when the key is absent,
// expired, or holds a record this version cannot decode.
func (s *RedisStore) Get(ctx context.Context, userID string) (session.UserSession, error) {
	data, err := s.client.Get(ctx, keyPrefix+userID).Result()
	if err == redis.Nil {
		return session.New(), nil
	}
	if err != nil {
		return session.UserSession{}, fmt.Errorf("reading session: %w", err)
	}

	var sess session.UserSession
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		log.Printf("[cache] discarding undecodable session for user=%s: %v", userID, err)
		return session.New(), nil
	}
	if sess.Version != session.SchemaVersion {
		log.Printf("[cache] discarding session with stale schema v%d for user=%s", sess.Version, userID)
		return session.New(), nil
	}
	if sess.ChatHistory == nil {
		sess.ChatHistory = []session.ChatTurn{}
	}
	return sess, nil
}

// Put overwrites the whole record and resets the rolling TTL.
func (s *RedisStore) Put(ctx context.Context, userID string, sess session.UserSession) error {
	sess.Version = session.SchemaVersion
	sess.Timestamp = time.Now().UTC()

	payload, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	if err := s.client.Set(ctx, keyPrefix+userID, payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}
