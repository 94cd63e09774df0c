package credstore

import (
	"context"
	"fmt"

	autherrors "github.com/jrsteele09/hotel-session/internal/errors"
	"github.com/redis/go-redis/v9"
)

var _ Store = (*Redis)(nil)

// Redis keeps the pair in one hash so both fields change in a single MULTI.
// Useful when several client processes on one host share a profile.
type Redis struct {
	rdb *redis.Client
	key string
}

// NewRedis stores the pair for profile under "<prefix>:<profile>".
func NewRedis(rdb *redis.Client, prefix, profile string) *Redis {
	return &Redis{
		rdb: rdb,
		key: prefix + ":" + profile,
	}
}

func (r *Redis) Key() string {
	return r.key
}

func (r *Redis) Save(ctx context.Context, access, refresh string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, AccessTokenKey, access, RefreshTokenKey, refresh)
		return nil
	})
	if err != nil {
		return redisErr("Redis.Save", err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context) (string, string, error) {
	vals, err := r.rdb.HMGet(ctx, r.key, AccessTokenKey, RefreshTokenKey).Result()
	if err != nil {
		return "", "", redisErr("Redis.Load", err)
	}
	return stringAt(vals, 0), stringAt(vals, 1), nil
}

func (r *Redis) Clear(ctx context.Context) error {
	if err := r.rdb.Del(ctx, r.key).Err(); err != nil {
		return redisErr("Redis.Clear", err)
	}
	return nil
}

func stringAt(vals []any, i int) string {
	if i >= len(vals) {
		return ""
	}
	s, _ := vals[i].(string)
	return s
}

func redisErr(op string, err error) error {
	return fmt.Errorf("[credstore %s] %w", op, autherrors.Join(autherrors.ErrStorageUnavailable, err))
}
