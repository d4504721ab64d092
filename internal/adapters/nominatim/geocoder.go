// Package nominatim implements the geocoder port against the Nominatim
// search API.
package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/config"
)

// Geocoder implements ports.Geocoder.
type Geocoder struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

// New creates a new Nominatim geocoder.
func New(cfg config.NominatimConfig) *Geocoder {
	return &Geocoder{
		client:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL:   cfg.URL,
		userAgent: cfg.UserAgent,
	}
}

// nominatimRow is one entry of a jsonv2 search response. Lat/lon arrive as
// strings.
type nominatimRow struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

// Search looks up an address. Rows with unparseable coordinates are skipped.
func (g *Geocoder) Search(ctx context.Context, query string, limit int) ([]domain.GeocodeResult, error) {
	if query == "" {
		return nil, nil
	}

	params := url.Values{
		"q":              {query},
		"format":         {"jsonv2"},
		"addressdetails": {"1"},
		"limit":          {strconv.Itoa(limit)},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, domain.NewFetchError(503, "unable to reach the geocoding service: %v", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return nil, domain.NewFetchError(503,
			"geocoding request rejected (HTTP 403); configure a unique, contactable user agent")
	case http.StatusTooManyRequests:
		return nil, domain.NewFetchError(503,
			"geocoding service rate-limited the request (HTTP 429); wait a few seconds before trying again")
	default:
		return nil, domain.NewFetchError(503, "geocoding request failed with status %d", resp.StatusCode)
	}

	var rows []nominatimRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, domain.NewFetchError(503, "decode geocoding response: %v", err)
	}

	results := make([]domain.GeocodeResult, 0, len(rows))
	for _, row := range rows {
		lat, latErr := strconv.ParseFloat(row.Lat, 64)
		lon, lonErr := strconv.ParseFloat(row.Lon, 64)
		if latErr != nil || lonErr != nil {
			continue
		}
		name := row.DisplayName
		if name == "" {
			name = "Unknown location"
		}
		results = append(results, domain.GeocodeResult{
			DisplayName: name,
			Latitude:    lat,
			Longitude:   lon,
		})
	}
	return results, nil
}
