package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	errx "github.com/bowlmetrics/server/internal/core/error"
	"github.com/bowlmetrics/server/internal/model"
	logx "github.com/bowlmetrics/server/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "report:"

type RedisReportCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisReportCache(rdb redis.Cmdable, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{rdb: rdb, ttl: ttl}
}

// DailyKey scopes a daily report to the catalog fingerprint that built it.
func DailyKey(fingerprint, date string) string {
	return fmt.Sprintf("%sdaily:%s:%s", keyPrefix, fingerprint, date)
}

func WeeklyKey(fingerprint, start, end string) string {
	return fmt.Sprintf("%sweekly:%s:%s:%s", keyPrefix, fingerprint, start, end)
}

func (r *RedisReportCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	b, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to read report from redis")
		return false, errx.WrapRedis(err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to unmarshal cached report")
		return false, fmt.Errorf("unmarshal report %s: %w", key, err)
	}
	return true, nil
}

func (r *RedisReportCache) Set(ctx context.Context, key string, report any) error {
	b, err := json.Marshal(report)
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to marshal report")
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to write report to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisReportCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			logx.Error().Err(err).Msg("failed to scan report keys")
			return errx.WrapRedis(err)
		}
		if len(keys) > 0 {
			if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
				logx.Error().Err(err).Int("keys", len(keys)).Msg("failed to delete report keys")
				return errx.WrapRedis(err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

var _ model.ReportCache = (*RedisReportCache)(nil)
