package ports

import (
	"context"

	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
)

// FeatureSource fetches deduplicated, area-sorted map features around a
// query point. Failures surface as *domain.FetchError.
type FeatureSource interface {
	FetchEnvironment(ctx context.Context, lat, lon float64, radiusM int) (*domain.FeatureSet, error)
}

// Geocoder resolves free-form addresses to coordinates.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error)
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
