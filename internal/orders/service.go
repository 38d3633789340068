package orders

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/cavea/backoffice/internal/domain"
	"github.com/cavea/backoffice/internal/observability"
)

//go:generate mockgen -source service.go -destination=mock_gateway_test.go -package=orders

// Gateway is the slice of the remote gateway the order pages read through.
type Gateway interface {
	ListOrders(ctx context.Context, page, pageSize int) (domain.OrdersPage, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
}

type LookupSource string

const (
	SourceCache   LookupSource = "cache"
	SourceGateway LookupSource = "gateway"
)

type LookupStats struct {
	Source    LookupSource
	CacheMs   float64
	GatewayMs float64
}

// Service serves the order list and detail pages. Details are cached in an
// LRU so reopening the same order dialog does not hit the backend again; the
// cache is invalidated on every write and on backend order events.
type Service struct {
	cache   *lru.Cache[string, domain.Order]
	gateway Gateway
	logger  *zap.Logger
	metrics observability.Metrics
}

func NewService(cacheCap int, gateway Gateway, logger *zap.Logger, metrics observability.Metrics) (*Service, error) {
	if cacheCap <= 0 {
		cacheCap = 1
	}
	c, err := lru.New[string, domain.Order](cacheCap)
	if err != nil {
		return nil, err
	}
	return &Service{
		cache:   c,
		gateway: gateway,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// List always goes to the gateway; the listing reflects backend state and is
// the refetch target after editor close. Fetched orders are cached by ID as
// a side effect so the detail view is warm.
func (s *Service) List(ctx context.Context, page, pageSize int) (domain.OrdersPage, error) {
	p, err := s.gateway.ListOrders(ctx, page, pageSize)
	if err != nil {
		s.logger.Error("order list fetch failed",
			zap.Int("page", page),
			zap.Error(err),
		)
		return domain.OrdersPage{}, err
	}
	for _, o := range p.Items {
		s.cache.Add(o.ID, o)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Order, error) {
	o, _, err := s.GetWithStats(ctx, id)
	return o, err
}

func (s *Service) GetWithStats(ctx context.Context, id string) (*domain.Order, LookupStats, error) {
	var st LookupStats

	tCacheStart := time.Now()
	if order, ok := s.cache.Get(id); ok {
		st.Source = SourceCache
		st.CacheMs = convertToMs(tCacheStart)
		s.metrics.IncCacheHit()
		s.metrics.ObserveLookup(string(st.Source), st.CacheMs, 0)

		s.logger.Debug("order fetched from cache",
			zap.String("order_id", id),
			zap.Float64("cache_ms", st.CacheMs),
		)
		return &order, st, nil
	}

	s.metrics.IncCacheMiss()
	st.CacheMs = convertToMs(tCacheStart)

	tGwStart := time.Now()
	order, err := s.gateway.GetOrder(ctx, id)
	if err != nil {
		s.logger.Error("can't find order",
			zap.String("order_id", id),
			zap.Error(err),
			zap.Float64("cache_ms", st.CacheMs),
		)
		return nil, st, err
	}

	st.Source = SourceGateway
	st.GatewayMs = convertToMs(tGwStart)

	s.cache.Add(order.ID, *order)

	s.metrics.ObserveLookup(string(st.Source), st.CacheMs, st.GatewayMs)
	s.logger.Debug("order fetched from gateway",
		zap.String("order_id", id),
		zap.Float64("cache_ms", st.CacheMs),
		zap.Float64("gateway_ms", st.GatewayMs),
	)
	return order, st, nil
}

// Invalidate drops one order from the cache. Called after saves and status
// changes, and by the order-events consumer.
func (s *Service) Invalidate(id string) {
	s.cache.Remove(id)
}

// Warm preloads the cache with the first pages of the listing.
func (s *Service) Warm(ctx context.Context, pages, pageSize int) {
	for page := 1; page <= pages; page++ {
		p, err := s.gateway.ListOrders(ctx, page, pageSize)
		if err != nil {
			s.logger.Warn("cache warmup stopped", zap.Int("page", page), zap.Error(err))
			return
		}
		for _, o := range p.Items {
			s.cache.Add(o.ID, o)
		}
		if page >= p.TotalPages {
			return
		}
	}
}

func convertToMs(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}
