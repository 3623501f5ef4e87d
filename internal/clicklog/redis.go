package clicklog

import (
	"context"
	"strconv"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "clicklog:"

// Redis is a Store backed by a per-IP sorted set scored by click time.
// Entries carry a uuid member so simultaneous clicks do not collapse.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis constructs a Redis-backed store. Keys expire after ttl of
// inactivity, which bounds memory without an explicit prune job.
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func key(ipHash string) string { return redisKeyPrefix + ipHash }

func (s *Redis) Record(ctx context.Context, ipHash string, at time.Time) error {
	member, err := uuid.NewV4()
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key(ipHash), redis.Z{
		Score:  float64(at.UnixMilli()),
		Member: member.String(),
	})
	pipe.Expire(ctx, key(ipHash), s.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Redis) CountSince(ctx context.Context, ipHash string, since time.Time) (int, error) {
	min := strconv.FormatInt(since.UnixMilli(), 10)
	n, err := s.client.ZCount(ctx, key(ipHash), "("+min, "+inf").Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (s *Redis) Prune(ctx context.Context, before time.Time) error {
	max := strconv.FormatInt(before.UnixMilli(), 10)
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return err
		}
		for _, k := range keys {
			if err := s.client.ZRemRangeByScore(ctx, k, "-inf", "("+max).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
