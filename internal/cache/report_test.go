package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errx "github.com/bowlmetrics/server/internal/core/error"
)

// fakeRedis implements the handful of commands the cache uses over a map.
type fakeRedis struct {
	redis.Cmdable
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Scan(_ context.Context, _ uint64, match string, _ int64) *redis.ScanCmd {
	prefix := strings.TrimSuffix(match, "*")
	var keys []string
	for k := range f.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return redis.NewScanCmdResult(keys, 0, nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

type cachedReport struct {
	Date  string `json:"date"`
	Units int    `json:"units"`
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "report:daily:9f2c:2026-01-15", DailyKey("9f2c", "2026-01-15"))
	assert.Equal(t, "report:weekly:9f2c:2026-02-22:2026-02-28", WeeklyKey("9f2c", "2026-02-22", "2026-02-28"))
	assert.NotEqual(t, DailyKey("9f2c", "2026-01-15"), DailyKey("a1b0", "2026-01-15"))
}

func TestSetThenGet(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	c := NewRedisReportCache(rdb, time.Hour)

	var miss cachedReport
	ok, err := c.Get(ctx, DailyKey("fp", "2026-01-15"), &miss)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, DailyKey("fp", "2026-01-15"), cachedReport{Date: "2026-01-15", Units: 4}))
	assert.Equal(t, time.Hour, rdb.ttls[DailyKey("fp", "2026-01-15")])

	var got cachedReport
	ok, err = c.Get(ctx, DailyKey("fp", "2026-01-15"), &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, cachedReport{Date: "2026-01-15", Units: 4}, got)
}

func TestGetWrapsRedisErrors(t *testing.T) {
	rdb := newFakeRedis()
	rdb.failGet = errors.New("connection refused")
	c := NewRedisReportCache(rdb, time.Hour)

	var got cachedReport
	ok, err := c.Get(context.Background(), DailyKey("fp", "2026-01-15"), &got)
	assert.False(t, ok)
	require.Error(t, err)
	assert.True(t, errx.IsKind(err, errx.KindCache))
}

func TestGetCorruptValue(t *testing.T) {
	rdb := newFakeRedis()
	rdb.data[DailyKey("fp", "2026-01-15")] = "{not json"
	c := NewRedisReportCache(rdb, time.Hour)

	var got cachedReport
	ok, err := c.Get(context.Background(), DailyKey("fp", "2026-01-15"), &got)
	assert.False(t, ok)
	assert.Error(t, err)
}

func TestInvalidateOnlyDropsReports(t *testing.T) {
	ctx := context.Background()
	rdb := newFakeRedis()
	rdb.data["session:abc"] = "keep"
	c := NewRedisReportCache(rdb, time.Hour)

	require.NoError(t, c.Set(ctx, DailyKey("fp", "2026-01-15"), cachedReport{}))
	require.NoError(t, c.Set(ctx, WeeklyKey("fp", "2026-02-22", "2026-02-28"), cachedReport{}))
	require.NoError(t, c.Invalidate(ctx))

	assert.Equal(t, map[string]string{"session:abc": "keep"}, rdb.data)
}
