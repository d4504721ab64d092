package http

import (
	"github.com/mgonzalezcanudas/print3dhood/internal/adapters/valkey"
	"github.com/mgonzalezcanudas/print3dhood/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Models  *usecases.ModelService
	Geocode *usecases.GeocodeService
	Cache   *valkey.Cache
}
