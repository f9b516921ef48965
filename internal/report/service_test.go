package report

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bowlmetrics/server/internal/cache"
	"github.com/bowlmetrics/server/internal/menu"
	"github.com/bowlmetrics/server/internal/model"
)

type fakeSource struct {
	orders    []model.Order
	modifiers []model.ModifierRecord
	loads     int
	err       error
}

func (f *fakeSource) LoadOrders(_ context.Context, _, _ string) ([]model.Order, error) {
	f.loads++
	return f.orders, f.err
}

func (f *fakeSource) LoadModifiers(_ context.Context, _, _ string, match func(string) bool) ([]model.ModifierRecord, error) {
	var out []model.ModifierRecord
	for _, m := range f.modifiers {
		if match == nil || match(m.Name) {
			out = append(out, m)
		}
	}
	return out, f.err
}

type memCache struct {
	data    map[string][]byte
	failing bool
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string, dst any) (bool, error) {
	if c.failing {
		return false, errors.New("cache down")
	}
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(_ context.Context, key string, report any) error {
	if c.failing {
		return errors.New("cache down")
	}
	b, err := json.Marshal(report)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *memCache) Invalidate(context.Context) error {
	clear(c.data)
	return nil
}

func TestServiceDailyCaches(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{orders: basicDay()}
	mc := newMemCache()
	svc := NewService(src, mc, menu.DefaultCatalog(), DefaultSettings())

	first, err := svc.Daily(ctx, "2026-01-15")
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Contains(t, mc.data, cache.DailyKey(menu.DefaultCatalog().Fingerprint(), "2026-01-15"))

	second, err := svc.Daily(ctx, "2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, 1, src.loads)
	assert.Equal(t, first, second)

	require.NoError(t, svc.Invalidate(ctx))
	_, err = svc.Daily(ctx, "2026-01-15")
	require.NoError(t, err)
	assert.Equal(t, 2, src.loads)
}

func TestServiceCatalogChangeRecomputes(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{orders: basicDay()}
	mc := newMemCache()

	before, err := NewService(src, mc, menu.DefaultCatalog(), DefaultSettings()).Daily(ctx, "2026-01-15")
	require.NoError(t, err)
	require.NotNil(t, before)
	assert.Equal(t, 4, before.Metrics.TotalUnits)

	renamed := menu.DefaultCatalog()
	renamed.UnitMarkers = []string{"不存在"}
	after, err := NewService(src, mc, renamed, DefaultSettings()).Daily(ctx, "2026-01-15")
	require.NoError(t, err)
	require.NotNil(t, after)

	assert.Equal(t, 2, src.loads)
	assert.Equal(t, 0, after.Metrics.TotalUnits)
	assert.Len(t, mc.data, 2)
}

func TestServiceDailyNoDataIsNotCached(t *testing.T) {
	mc := newMemCache()
	svc := NewService(&fakeSource{}, mc, menu.DefaultCatalog(), DefaultSettings())

	d, err := svc.Daily(context.Background(), "2099-01-01")
	require.NoError(t, err)
	assert.Nil(t, d)
	assert.Empty(t, mc.data)
}

func TestServiceWeeklyFiltersModifiers(t *testing.T) {
	src := &fakeSource{
		orders: []model.Order{order("2026-02-24 12:10:00", "壽喜燒豬自選碗 $160.0", 160)},
		modifiers: []model.ModifierRecord{
			{Name: "加購一份壽喜燒豬", Count: 2},
			{Name: "七味粉", Count: 5},
		},
	}
	svc := NewService(src, nil, menu.DefaultCatalog(), DefaultSettings())

	w, err := svc.Weekly(context.Background(), "2026-02-22", "2026-02-28")
	require.NoError(t, err)
	require.NotNil(t, w)
	assert.Equal(t, 2, w.Proteins.Sources[model.SourceAdds].Total())
	assert.Equal(t, 3, w.Proteins.Combined["pork"])
}

func TestServiceCacheFailureFallsBack(t *testing.T) {
	src := &fakeSource{orders: basicDay()}
	svc := NewService(src, &memCache{failing: true}, menu.DefaultCatalog(), DefaultSettings())

	d, err := svc.Daily(context.Background(), "2026-01-15")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 4, d.Metrics.TotalUnits)
}

func TestServiceSourceError(t *testing.T) {
	svc := NewService(&fakeSource{err: errors.New("disk gone")}, nil, menu.DefaultCatalog(), DefaultSettings())

	_, err := svc.Daily(context.Background(), "2026-01-15")
	assert.Error(t, err)
	_, err = svc.Weekly(context.Background(), "2026-02-22", "2026-02-28")
	assert.Error(t, err)
	_, err = svc.UnitPriceDiagnostics(context.Background(), "2026-01-15")
	assert.Error(t, err)
}
