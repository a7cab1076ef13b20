package state

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/m3rciful/dietbot/core/metrics"
)

// RedisStore keeps the pending state in a string key and the scratch area
// in a hash, both under prefix and both expiring after ttl.
type RedisStore struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisStore(rdb redis.UniversalClient, prefix string, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if prefix == "" {
		prefix = "dietbot"
	}
	return &RedisStore{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (r *RedisStore) stateKey(userID int64) string {
	return r.prefix + ":state:" + strconv.FormatInt(userID, 10)
}

func (r *RedisStore) tempKey(userID int64) string {
	return r.prefix + ":temp:" + strconv.FormatInt(userID, 10)
}

func (r *RedisStore) Get(ctx context.Context, userID int64) (State, error) {
	v, err := r.rdb.Get(ctx, r.stateKey(userID)).Result()
	return r.state("get", v, err)
}

func (r *RedisStore) Set(ctx context.Context, userID int64, st State) error {
	var err error
	if st == StateIdle {
		err = r.rdb.Del(ctx, r.stateKey(userID)).Err()
	} else {
		err = r.rdb.Set(ctx, r.stateKey(userID), string(st), r.ttl).Err()
	}
	return r.done("set", err)
}

func (r *RedisStore) Clear(ctx context.Context, userID int64) error {
	return r.done("clear", r.rdb.Del(ctx, r.stateKey(userID)).Err())
}

// Take relies on GETDEL so concurrent callers never both observe the state.
func (r *RedisStore) Take(ctx context.Context, userID int64) (State, error) {
	v, err := r.rdb.GetDel(ctx, r.stateKey(userID)).Result()
	return r.state("take", v, err)
}

// SetIfIdle uses SET NX, so it loses to any state written in the meantime.
func (r *RedisStore) SetIfIdle(ctx context.Context, userID int64, st State) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, r.stateKey(userID), string(st), r.ttl).Result()
	return ok, r.done("set_if_idle", err)
}

func (r *RedisStore) SetTemp(ctx context.Context, userID int64, key, value string) error {
	k := r.tempKey(userID)
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, key, value)
		p.Expire(ctx, k, r.ttl)
		return nil
	})
	return r.done("set_temp", err)
}

func (r *RedisStore) GetTemp(ctx context.Context, userID int64, key string) (string, bool, error) {
	v, err := r.rdb.HGet(ctx, r.tempKey(userID), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, r.done("get_temp", nil)
	}
	if err != nil {
		return "", false, r.done("get_temp", err)
	}
	return v, true, r.done("get_temp", nil)
}

func (r *RedisStore) state(op, v string, err error) (State, error) {
	if errors.Is(err, redis.Nil) {
		return StateIdle, r.done(op, nil)
	}
	if err != nil {
		return StateIdle, r.done(op, err)
	}
	return State(v), r.done(op, nil)
}

func (r *RedisStore) done(op string, err error) error {
	metrics.StateOps.WithLabelValues("redis", op, metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("state %s: %w", op, err)
	}
	return nil
}
