// Package overpass fetches buildings, roads, parks and water bodies around a
// point from the Overpass OSM API. Large query areas are split into tiles so
// a single slow query cannot time out the whole fetch.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/config"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/geoproj"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/metrics"
)

// Fetcher implements ports.FeatureSource against an Overpass endpoint.
type Fetcher struct {
	client *http.Client
	cfg    config.OverpassConfig
	print  config.PrintConfig
	model  config.ModelConfig
}

// New creates a new Overpass fetcher.
func New(cfg *config.Config) *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: time.Duration(cfg.Overpass.TimeoutSeconds+30) * time.Second,
		},
		cfg:   cfg.Overpass,
		print: cfg.Print,
		model: cfg.Model,
	}
}

// bbox is one query tile in geographic degrees.
type bbox struct {
	south, west, north, east float64
}

// FetchEnvironment queries every tile covering the request square, merges
// the per-tile results by OSM id, filters to features touching the request
// circle and caps buildings at the configured maximum. Merging keeps first-seen
// order so identical input always produces byte-identical downstream geometry:
// union results depend on operand order at boundary vertices.
func (f *Fetcher) FetchEnvironment(ctx context.Context, lat, lon float64, radiusM int) (*domain.FeatureSet, error) {
	centerX, centerY, err := geoproj.ToMercator(lon, lat)
	if err != nil {
		return nil, domain.NewFetchError(503, "project request center: %v", err)
	}

	tiles, err := buildTiles(centerX, centerY, float64(radiusM), float64(f.cfg.TileSizeMeters))
	if err != nil {
		return nil, domain.NewFetchError(503, "compute query tiles: %v", err)
	}

	var (
		buildings []domain.BuildingFootprint
		roads     []domain.RoadFeature
		parks     []domain.ParkFeature
		waters    []domain.WaterFeature

		seenBuildings = map[int64]struct{}{}
		seenRoads     = map[int64]struct{}{}
		seenParks     = map[int64]struct{}{}
		seenWaters    = map[int64]struct{}{}
	)

	for _, tile := range tiles {
		payload, err := f.executeTile(ctx, tile)
		if err != nil {
			return nil, err
		}
		parsed := parsePayload(payload, f.print)
		for _, b := range parsed.Buildings {
			if _, ok := seenBuildings[b.OSMID]; !ok {
				seenBuildings[b.OSMID] = struct{}{}
				buildings = append(buildings, b)
			}
		}
		for _, r := range parsed.Roads {
			if _, ok := seenRoads[r.OSMID]; !ok {
				seenRoads[r.OSMID] = struct{}{}
				roads = append(roads, r)
			}
		}
		for _, p := range parsed.Parks {
			if _, ok := seenParks[p.OSMID]; !ok {
				seenParks[p.OSMID] = struct{}{}
				parks = append(parks, p)
			}
		}
		for _, w := range parsed.Waters {
			if _, ok := seenWaters[w.OSMID]; !ok {
				seenWaters[w.OSMID] = struct{}{}
				waters = append(waters, w)
			}
		}
	}

	out := &domain.FeatureSet{}
	if len(buildings) == 0 {
		return out, nil
	}

	radius := float64(radiusM)
	for _, b := range buildings {
		if polygonTouchesCircle(b.Footprint, centerX, centerY, radius) {
			out.Buildings = append(out.Buildings, b)
		}
	}
	// Largest footprints first; OSM id breaks area ties so the MaxBuildings
	// cut is reproducible.
	sort.SliceStable(out.Buildings, func(i, j int) bool {
		ai, aj := out.Buildings[i].AreaM2(), out.Buildings[j].AreaM2()
		if ai != aj {
			return ai > aj
		}
		return out.Buildings[i].OSMID < out.Buildings[j].OSMID
	})
	if len(out.Buildings) > f.model.MaxBuildings {
		out.Buildings = out.Buildings[:f.model.MaxBuildings]
	}

	for _, r := range roads {
		if lineTouchesCircle(r.Centerline, centerX, centerY, radius) {
			out.Roads = append(out.Roads, r)
		}
	}
	for _, p := range parks {
		if polygonTouchesCircle(p.Outline, centerX, centerY, radius) {
			out.Parks = append(out.Parks, p)
		}
	}
	for _, w := range waters {
		if polygonTouchesCircle(w.Outline, centerX, centerY, radius) {
			out.Waters = append(out.Waters, w)
		}
	}

	slog.Debug("overpass fetch complete",
		"tiles", len(tiles),
		"buildings", len(out.Buildings),
		"roads", len(out.Roads),
		"parks", len(out.Parks),
		"waters", len(out.Waters),
	)
	return out, nil
}

// buildTiles covers the request square with tile-sized cells, projecting
// each cell's corners back to geographic bounds for the Overpass query.
func buildTiles(centerX, centerY, radiusM, tileSizeM float64) ([]bbox, error) {
	minX, maxX := centerX-radiusM, centerX+radiusM
	minY, maxY := centerY-radiusM, centerY+radiusM

	var tiles []bbox
	for y := minY; y < maxY; {
		nextY := y + tileSizeM
		if nextY > maxY {
			nextY = maxY
		}
		for x := minX; x < maxX; {
			nextX := x + tileSizeM
			if nextX > maxX {
				nextX = maxX
			}
			west, south, err := geoproj.FromMercator(x, y)
			if err != nil {
				return nil, err
			}
			east, north, err := geoproj.FromMercator(nextX, nextY)
			if err != nil {
				return nil, err
			}
			tiles = append(tiles, bbox{
				south: min(south, north),
				west:  min(west, east),
				north: max(south, north),
				east:  max(west, east),
			})
			x = nextX
		}
		y = nextY
	}
	return tiles, nil
}

func (f *Fetcher) tileQuery(t bbox) string {
	box := fmt.Sprintf("(%f,%f,%f,%f)", t.south, t.west, t.north, t.east)
	var b strings.Builder
	fmt.Fprintf(&b, "[out:json][timeout:%d];\n(\n", f.cfg.TimeoutSeconds)
	for _, selector := range []string{
		`way["building"]`,
		`way["highway"]`,
		`way["leisure"="park"]`,
		`way["landuse"="grass"]`,
		`way["landuse"="recreation_ground"]`,
		`way["landuse"="meadow"]`,
		`way["natural"="water"]`,
		`way["waterway"="riverbank"]`,
		`way["water"="lake"]`,
		`way["landuse"="reservoir"]`,
	} {
		b.WriteString("  " + selector + box + ";\n")
	}
	b.WriteString(");\n(._;>;);\nout body;")
	return b.String()
}

// executeTile posts one tile query, retrying throttled (429) and timed-out
// (504) responses with exponential backoff.
func (f *Fetcher) executeTile(ctx context.Context, tile bbox) (*payload, error) {
	query := f.tileQuery(tile)

	var result *payload
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.cfg.URL,
			strings.NewReader(url.Values{"data": {query}}.Encode()))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("User-Agent", f.cfg.UserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			metrics.OverpassRequests.WithLabelValues("error").Inc()
			return backoff.Permanent(domain.NewFetchError(503, "unable to reach the Overpass API: %v", err))
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusOK:
			var p payload
			if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
				metrics.OverpassRequests.WithLabelValues("error").Inc()
				return backoff.Permanent(domain.NewFetchError(503, "decode Overpass response: %v", err))
			}
			metrics.OverpassRequests.WithLabelValues("success").Inc()
			result = &p
			return nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusGatewayTimeout:
			io.Copy(io.Discard, resp.Body)
			metrics.OverpassRequests.WithLabelValues("retry").Inc()
			metrics.OverpassRetries.Inc()
			return retryableStatus(resp.StatusCode)
		default:
			io.Copy(io.Discard, resp.Body)
			metrics.OverpassRequests.WithLabelValues("error").Inc()
			return backoff.Permanent(domain.NewFetchError(503, "Overpass request failed with status %d", resp.StatusCode))
		}
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(f.cfg.MaxRetries)),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if fe, ok := err.(*domain.FetchError); ok {
			return nil, fe
		}
		if se, ok := err.(statusError); ok {
			return nil, se.fetchError()
		}
		return nil, domain.NewFetchError(503, "Overpass query failed after multiple retries: %v", err)
	}
	return result, nil
}

// statusError marks a retryable HTTP status so exhausted retries can still
// produce a descriptive user-facing message.
type statusError int

func retryableStatus(code int) statusError { return statusError(code) }

func (s statusError) Error() string {
	return fmt.Sprintf("overpass returned status %d", int(s))
}

func (s statusError) fetchError() *domain.FetchError {
	switch int(s) {
	case http.StatusTooManyRequests:
		return domain.NewFetchError(503,
			"Overpass rate limit hit (HTTP 429); wait a few seconds or reduce the radius before retrying")
	case http.StatusGatewayTimeout:
		return domain.NewFetchError(503,
			"Overpass timed out while retrieving buildings (HTTP 504); try a smaller radius or retry shortly")
	default:
		return domain.NewFetchError(503, "Overpass request failed with status %d", int(s))
	}
}
