package windowstore

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

var redisWindowPrefix string = "window/"

// RedisStore keeps each window as a sorted set scored by unix nanos.
type RedisStore struct {
	Client *redis.Client

	// sorted-set members must be unique per message even when timestamps
	// collide, or colliding messages collapse and undercount the window
	seq atomic.Uint64
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	// check redis connection
	_, err = rdb.Ping(context.TODO()).Result()
	if err != nil {
		return nil, err
	}
	return &RedisStore{Client: rdb}, nil
}

func (s *RedisStore) RecordAndCheck(ctx context.Context, tenantID, userID string, now time.Time, threshold int, window time.Duration) (bool, error) {
	key := redisWindowPrefix + windowKey(tenantID, userID)
	cutoff := now.Add(-window).UnixNano()

	// append, trim, and count in a single redis round-trip
	multi := s.Client.Pipeline()
	multi.ZAdd(ctx, key, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: fmt.Sprintf("%d:%d", now.UnixNano(), s.seq.Add(1)),
	})
	multi.ZRemRangeByScore(ctx, key, "-inf", fmt.Sprintf("(%d", cutoff))
	count := multi.ZCard(ctx, key)
	multi.Expire(ctx, key, window+time.Second)
	if _, err := multi.Exec(ctx); err != nil {
		return false, err
	}
	return int(count.Val()) > threshold, nil
}
