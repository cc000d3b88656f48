package credentials

import (
	"time"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

const (
	accessTokenField  = "access_token"
	refreshTokenField = "refresh_token"
)

type redisStore struct {
	redisClient *redis.Client
	key         string
	ttl         time.Duration
}

// NewRedisStore returns a Store that keeps the Pair in a Redis hash with the
// given key. Each write resets the hash's expiry to the given TTL. A TTL of
// zero means the hash never expires.
func NewRedisStore(
	redisClient *redis.Client,
	key string,
	ttl time.Duration,
) Store {
	return &redisStore{
		redisClient: redisClient,
		key:         key,
		ttl:         ttl,
	}
}

func (r *redisStore) Read() (Pair, error) {
	fields, err := r.redisClient.HGetAll(r.key).Result()
	if err != nil {
		return Pair{}, errors.Wrapf(
			err,
			"error reading credentials from redis hash %q",
			r.key,
		)
	}
	return Pair{
		Access:  fields[accessTokenField],
		Refresh: fields[refreshTokenField],
	}, nil
}

// Write replaces the hash within a MULTI/EXEC transaction so that both tokens
// change together.
func (r *redisStore) Write(pair Pair) error {
	fields := map[string]interface{}{}
	if pair.Access != "" {
		fields[accessTokenField] = pair.Access
	}
	if pair.Refresh != "" {
		fields[refreshTokenField] = pair.Refresh
	}
	if _, err := r.redisClient.TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Del(r.key)
		if len(fields) > 0 {
			pipe.HMSet(r.key, fields)
			if r.ttl > 0 {
				pipe.Expire(r.key, r.ttl)
			}
		}
		return nil
	}); err != nil {
		return errors.Wrapf(
			err,
			"error writing credentials to redis hash %q",
			r.key,
		)
	}
	return nil
}

func (r *redisStore) Clear() error {
	if err := r.redisClient.Del(r.key).Err(); err != nil {
		return errors.Wrapf(
			err,
			"error deleting credentials from redis hash %q",
			r.key,
		)
	}
	return nil
}
