package domain

import (
	"fmt"
	"strings"
)

// ModelRequest is the user's order: where, how far out, and what to export.
type ModelRequest struct {
	Latitude      float64  `json:"latitude"`
	Longitude     float64  `json:"longitude"`
	RadiusMeters  int      `json:"radius_meters"`
	HighlightHome bool     `json:"highlight_home"`
	Formats       []string `json:"formats"`
}

// Normalize validates coordinates and radius and canonicalizes the format
// list: lowercase, deduplicated, capped at maxFormats, defaulting to the
// first allowed format when empty.
func (r *ModelRequest) Normalize(allowedFormats []string, maxFormats int) error {
	if r.Latitude < -90 || r.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %g", r.Latitude)
	}
	if r.Longitude < -180 || r.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %g", r.Longitude)
	}
	if r.RadiusMeters <= 10 || r.RadiusMeters >= 2000 {
		return fmt.Errorf("radius_meters must be between 11 and 1999, got %d", r.RadiusMeters)
	}

	allowed := make(map[string]bool, len(allowedFormats))
	for _, f := range allowedFormats {
		allowed[f] = true
	}

	var normalized []string
	for _, f := range r.Formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if !allowed[f] {
			return fmt.Errorf("unsupported format %q, choose from %v", f, allowedFormats)
		}
		seen := false
		for _, n := range normalized {
			if n == f {
				seen = true
				break
			}
		}
		if !seen {
			normalized = append(normalized, f)
		}
	}
	if len(normalized) == 0 && len(allowedFormats) > 0 {
		normalized = append(normalized, allowedFormats[0])
	}
	if maxFormats > 0 && len(normalized) > maxFormats {
		return fmt.Errorf("select at most %d formats per request", maxFormats)
	}
	r.Formats = normalized
	return nil
}

// BuildingSummary describes one building that made it into the model.
type BuildingSummary struct {
	OSMID           int64   `json:"osm_id"`
	HeightM         float64 `json:"height_m"`
	FootprintAreaM2 float64 `json:"footprint_area_m2"`
	Name            string  `json:"name,omitempty"`
}

// LayerInfo describes one printed layer.
type LayerInfo struct {
	Name        string  `json:"name"`
	ThicknessM  float64 `json:"thickness_m"`
	Description string  `json:"description"`
}

// PolygonPath is one polygon of a layer preview, normalized to [0,1]x[0,1]
// with a top-left origin.
type PolygonPath struct {
	Outer [][2]float64   `json:"outer"`
	Holes [][][2]float64 `json:"holes"`
}

// LayerPreview is the 2D rendering description of one layer: up to three
// visual channels (base, feature, overlay) of normalized paths.
type LayerPreview struct {
	Name         string        `json:"name"`
	ThicknessM   float64       `json:"thickness_m"`
	BaseColor    string        `json:"base_color"`
	FeatureColor string        `json:"feature_color"`
	OverlayColor string        `json:"overlay_color,omitempty"`
	Description  string        `json:"description"`
	BasePaths    []PolygonPath `json:"base_paths"`
	FeaturePaths []PolygonPath `json:"feature_paths"`
	OverlayPaths []PolygonPath `json:"overlay_paths"`
}

// ModelMetadata is the single source of truth serialized alongside every
// exported archive and echoed with previews.
type ModelMetadata struct {
	BuildingCount int               `json:"building_count"`
	RadiusMeters  int               `json:"radius_meters"`
	Highlighted   bool              `json:"highlighted"`
	Formats       []string          `json:"formats"`
	Origin        [2]float64        `json:"origin"`
	ScaleRatio    float64           `json:"scale_ratio"`
	Layers        []LayerInfo       `json:"layers"`
	Buildings     []BuildingSummary `json:"buildings"`
}

// GeocodeResult is one address match from the geocoder.
type GeocodeResult struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// PreviewResponse bundles metadata with per-layer previews.
type PreviewResponse struct {
	Metadata *ModelMetadata `json:"metadata"`
	Previews []LayerPreview `json:"previews"`
}
