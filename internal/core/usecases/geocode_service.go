package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
	"github.com/mgonzalezcanudas/print3dhood/internal/core/ports"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/metrics"
)

const geocodeResultLimit = 5

// GeocodeService resolves free-text addresses through the geocoder port with
// a read-through cache in front of it.
type GeocodeService struct {
	geocoder ports.Geocoder
	cache    ports.CacheService
	ttl      int
}

// NewGeocodeService creates a new GeocodeService.
func NewGeocodeService(geocoder ports.Geocoder, cache ports.CacheService, ttlSeconds int) *GeocodeService {
	return &GeocodeService{geocoder: geocoder, cache: cache, ttl: ttlSeconds}
}

// Search geocodes a query string.
func (s *GeocodeService) Search(ctx context.Context, query string) ([]domain.GeocodeResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("geocode query must not be empty")
	}

	cacheKey := "geocode:" + strings.ToLower(query)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var results []domain.GeocodeResult
			if err := json.Unmarshal(data, &results); err == nil {
				metrics.CacheHits.WithLabelValues("geocode").Inc()
				return results, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("geocode").Inc()
	}

	results, err := s.geocoder.Search(ctx, query, geocodeResultLimit)
	if err != nil {
		metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.GeocodeRequests.WithLabelValues("success").Inc()

	if s.cache != nil {
		if data, err := json.Marshal(results); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.ttl)
		}
	}

	return results, nil
}
