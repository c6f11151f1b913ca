package service

import (
	"context"
	"encoding/json"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/carevia/carevia-api/internal/models"
	"github.com/carevia/carevia-api/internal/upstream"
)

// CatalogFetcher is the slice of the resilient client this service needs.
type CatalogFetcher interface {
	Get(ctx context.Context, path string, query url.Values) (*upstream.Result, error)
}

// FallbackCache stores the last known good copy of a catalog payload.
type FallbackCache interface {
	Load(ctx context.Context, resource string, dest interface{}) error
	Store(ctx context.Context, resource string, value interface{}, ttl time.Duration) error
}

// FallbackObserver counts fallback hits and misses, typically for metrics.
type FallbackObserver interface {
	RecordFallback(resource string, hit bool)
}

// catalogPayload is the wire shape of a core collection response. Items stay
// raw: the gateway relays catalog data, it does not interpret it.
type catalogPayload struct {
	Items []json.RawMessage `json:"items"`
	Total int               `json:"total"`
}

// UpstreamCatalogService fronts the core store's catalog reads. Healthy
// responses refresh the last known copy; degraded responses are upgraded
// from that copy when one exists, so an outage shows yesterday's catalog
// instead of an empty screen.
type UpstreamCatalogService struct {
	fetcher  CatalogFetcher
	cache    FallbackCache
	observer FallbackObserver
	logger   *zap.Logger
	basePath string
	ttl      time.Duration
	enabled  bool
}

// NewUpstreamCatalogService creates the gateway-side catalog service.
func NewUpstreamCatalogService(fetcher CatalogFetcher, cache FallbackCache, observer FallbackObserver, logger *zap.Logger, basePath string, ttl time.Duration, fallbackEnabled bool) *UpstreamCatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if basePath == "" {
		basePath = "/core/catalog"
	}
	if ttl <= 0 {
		ttl = 6 * time.Hour
	}
	return &UpstreamCatalogService{
		fetcher:  fetcher,
		cache:    cache,
		observer: observer,
		logger:   logger,
		basePath: basePath,
		ttl:      ttl,
		enabled:  fallbackEnabled,
	}
}

// List reads a catalog resource through the resilient client.
func (s *UpstreamCatalogService) List(ctx context.Context, resource string, query url.Values) ([]json.RawMessage, models.ListMeta, error) {
	res, err := s.fetcher.Get(ctx, s.basePath+"/"+resource, query)
	if err != nil {
		return nil, models.ListMeta{}, err
	}

	var payload catalogPayload
	if err := res.Decode(&payload); err != nil {
		s.logger.Warn("malformed catalog payload", zap.String("resource", resource), zap.Error(err))
		return []json.RawMessage{}, models.ListMeta{}, nil
	}

	if res.Degraded {
		return s.fromFallback(ctx, resource)
	}

	if s.enabled && s.cache != nil && !res.Stale {
		if err := s.cache.Store(ctx, resource, payload, s.ttl); err != nil {
			s.logger.Warn("failed to refresh catalog fallback copy", zap.String("resource", resource), zap.Error(err))
		}
	}

	items := payload.Items
	if items == nil {
		items = []json.RawMessage{}
	}
	return items, models.ListMeta{Total: payload.Total, Stale: res.Stale}, nil
}

// fromFallback upgrades a degraded empty result with the last known copy.
func (s *UpstreamCatalogService) fromFallback(ctx context.Context, resource string) ([]json.RawMessage, models.ListMeta, error) {
	if s.enabled && s.cache != nil {
		var cached catalogPayload
		if err := s.cache.Load(ctx, resource, &cached); err == nil {
			if s.observer != nil {
				s.observer.RecordFallback(resource, true)
			}
			s.logger.Info("serving catalog from last known copy", zap.String("resource", resource))
			items := cached.Items
			if items == nil {
				items = []json.RawMessage{}
			}
			return items, models.ListMeta{Total: cached.Total, Degraded: true, Stale: true}, nil
		}
	}
	if s.observer != nil {
		s.observer.RecordFallback(resource, false)
	}
	return []json.RawMessage{}, models.ListMeta{Degraded: true}, nil
}
