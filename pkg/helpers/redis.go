package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// KeyUserProfile is the Redis key for the cached profile view of a user.
func KeyUserProfile(uid string) string {
	return "user:profile:" + uid
}

// KeyUserSession is the Redis hash holding an admin's active session.
func KeyUserSession(uid string) string {
	return "user:session:" + uid
}

func RedisSetJSON(ctx context.Context, rdb redis.Cmdable, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return rdb.Set(ctx, key, b, ttl).Err()
}

// RedisGetJSON decodes key into dest. A missing key reports false, nil.
func RedisGetJSON[T any](ctx context.Context, rdb redis.Cmdable, key string, dest *T) (bool, error) {
	res, err := rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(res, dest); err != nil {
		return false, err
	}
	return true, nil
}

func RedisDel(ctx context.Context, rdb redis.Cmdable, key string) error {
	return rdb.Del(ctx, key).Err()
}

// SaveSession writes fields into the user's session hash and resets its TTL.
func SaveSession(ctx context.Context, rdb redis.Cmdable, uid string, fields map[string]any, ttl time.Duration) error {
	key := KeyUserSession(uid)
	_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	return err
}

// LoadSession returns the user's session hash; an absent session is an
// empty map.
func LoadSession(ctx context.Context, rdb redis.Cmdable, uid string) (map[string]string, error) {
	return rdb.HGetAll(ctx, KeyUserSession(uid)).Result()
}

// TouchSession updates fields on an existing session. HSET keeps the key's
// TTL, so the session does not outlive its login. It reports false when the
// user has no session.
func TouchSession(ctx context.Context, rdb redis.Cmdable, uid string, fields map[string]any) (bool, error) {
	key := KeyUserSession(uid)
	n, err := rdb.Exists(ctx, key).Result()
	if err != nil || n == 0 {
		return false, err
	}
	if err := rdb.HSet(ctx, key, fields).Err(); err != nil {
		return false, err
	}
	return true, nil
}
