package report

import (
	"context"
	"fmt"

	"github.com/bowlmetrics/server/internal/cache"
	"github.com/bowlmetrics/server/internal/menu"
	"github.com/bowlmetrics/server/internal/model"
	logx "github.com/bowlmetrics/server/pkg/logger"
)

// OrderSource is the read side of the order store.
type OrderSource interface {
	LoadOrders(ctx context.Context, start, end string) ([]model.Order, error)
	LoadModifiers(ctx context.Context, start, end string, match func(name string) bool) ([]model.ModifierRecord, error)
}

// Service loads orders, assembles reports and keeps them in an optional cache.
// Cache failures are logged and never fail a report.
type Service struct {
	source      OrderSource
	cache       model.ReportCache
	catalog     *menu.Catalog
	fingerprint string
	assembler   *Assembler
}

// NewService accepts a nil cache.
func NewService(source OrderSource, reports model.ReportCache, catalog *menu.Catalog, settings Settings) *Service {
	return &Service{
		source:      source,
		cache:       reports,
		catalog:     catalog,
		fingerprint: catalog.Fingerprint(),
		assembler:   NewAssembler(catalog, settings),
	}
}

// Daily returns nil with no error when the date has no eligible orders.
func (s *Service) Daily(ctx context.Context, date string) (*Daily, error) {
	key := cache.DailyKey(s.fingerprint, date)
	var cached Daily
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	orders, err := s.source.LoadOrders(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("load orders for %s: %w", date, err)
	}
	d := s.assembler.Daily(date, orders)
	if d != nil {
		s.store(ctx, key, d)
	}
	return d, nil
}

// Weekly returns nil with no error when the range has no eligible orders.
func (s *Service) Weekly(ctx context.Context, start, end string) (*Weekly, error) {
	key := cache.WeeklyKey(s.fingerprint, start, end)
	var cached Weekly
	if s.lookup(ctx, key, &cached) {
		return &cached, nil
	}

	orders, err := s.source.LoadOrders(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("load orders for %s~%s: %w", start, end, err)
	}
	modifiers, err := s.source.LoadModifiers(ctx, start, end, s.catalog.MentionsProtein)
	if err != nil {
		return nil, fmt.Errorf("load modifiers for %s~%s: %w", start, end, err)
	}

	w := s.assembler.Weekly(start, end, orders, modifiers)
	if w != nil {
		s.store(ctx, key, w)
	}
	return w, nil
}

// UnitPriceDiagnostics is never cached.
func (s *Service) UnitPriceDiagnostics(ctx context.Context, date string) (*UnitPriceDiagnostics, error) {
	orders, err := s.source.LoadOrders(ctx, date, date)
	if err != nil {
		return nil, fmt.Errorf("load orders for %s: %w", date, err)
	}
	return s.assembler.UnitPriceDiagnostics(date, orders), nil
}

// Invalidate drops cached reports after the underlying rows change.
func (s *Service) Invalidate(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx)
}

func (s *Service) lookup(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("report cache read failed, recomputing")
		return false
	}
	if ok {
		logx.Debug().Str("key", key).Msg("report cache hit")
	}
	return ok
}

func (s *Service) store(ctx context.Context, key string, report any) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, report); err != nil {
		logx.Warn().Err(err).Str("key", key).Msg("report cache write failed")
	}
}
