package kv

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"openmod/pkg/platform/sentinel"
)

var opDurationMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "openmod_kv_op_duration_ms",
	Help:    "Latency of backing store operations in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50},
}, []string{"op"})

const scanCount = 200

// Redis is the production Store backed by go-redis.
type Redis struct {
	client redis.UniversalClient
}

// NewRedis constructs a Redis-backed store. The client lifecycle is managed
// by the caller.
func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func observe(op string) func() {
	start := time.Now()
	return func() {
		opDurationMs.WithLabelValues(op).Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}
}

func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	defer observe("get")()

	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("key %s: %w", key, sentinel.ErrNotFound)
	}
	return v, err
}

// SetNX uses SET NX EX so the check and the write are one command.
func (r *Redis) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	defer observe("setnx")()

	return r.client.SetNX(ctx, key, value, ttl).Result()
}

func (r *Redis) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	defer observe("del")()

	return r.client.Del(ctx, keys...).Err()
}

func (r *Redis) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	defer observe("expire")()

	return r.client.Expire(ctx, key, ttl).Result()
}

func (r *Redis) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	defer observe("hgetall")()

	return r.client.HGetAll(ctx, key).Result()
}

func (r *Redis) HSet(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	if len(fields) == 0 {
		return nil
	}
	defer observe("hset")()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, pairs(fields)...)
		if ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		return nil
	})
	return err
}

// HReplace runs DEL and HSET in one MULTI so readers never observe a merge
// of the old and new shapes.
func (r *Redis) HReplace(ctx context.Context, key string, fields map[string]string) error {
	defer observe("hreplace")()

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(fields) > 0 {
			pipe.HSet(ctx, key, pairs(fields)...)
		}
		return nil
	})
	return err
}

func (r *Redis) ZAdd(ctx context.Context, key string, members ...Member) error {
	if len(members) == 0 {
		return nil
	}
	defer observe("zadd")()

	return r.client.ZAdd(ctx, key, toZ(members)...).Err()
}

func (r *Redis) ZAddNX(ctx context.Context, key string, members ...Member) error {
	if len(members) == 0 {
		return nil
	}
	defer observe("zaddnx")()

	return r.client.ZAddNX(ctx, key, toZ(members)...).Err()
}

func (r *Redis) ZRange(ctx context.Context, key string) ([]Member, error) {
	defer observe("zrange")()

	zs, err := r.client.ZRangeWithScores(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return fromZ(zs), nil
}

func (r *Redis) ZRangeByScore(ctx context.Context, key string, max float64) ([]Member, error) {
	defer observe("zrangebyscore")()

	zs, err := r.client.ZRangeByScoreWithScores(ctx, key, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatFloat(max, 'f', -1, 64),
	}).Result()
	if err != nil {
		return nil, err
	}
	return fromZ(zs), nil
}

func (r *Redis) ZRem(ctx context.Context, key string, members ...string) (int64, error) {
	if len(members) == 0 {
		return 0, nil
	}
	defer observe("zrem")()

	args := make([]any, len(members))
	for i, m := range members {
		args[i] = m
	}
	return r.client.ZRem(ctx, key, args...).Result()
}

func (r *Redis) ZScore(ctx context.Context, key, member string) (float64, bool, error) {
	defer observe("zscore")()

	score, err := r.client.ZScore(ctx, key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return score, true, nil
}

func (r *Redis) Scan(ctx context.Context, pattern string) ([]string, error) {
	defer observe("scan")()

	var keys []string
	iter := r.client.Scan(ctx, 0, pattern, scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}

func pairs(fields map[string]string) []any {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

func toZ(members []Member) []redis.Z {
	zs := make([]redis.Z, len(members))
	for i, m := range members {
		zs[i] = redis.Z{Score: m.Score, Member: m.Member}
	}
	return zs
}

func fromZ(zs []redis.Z) []Member {
	members := make([]Member, 0, len(zs))
	for _, z := range zs {
		member, _ := z.Member.(string)
		members = append(members, Member{Member: member, Score: z.Score})
	}
	return members
}
