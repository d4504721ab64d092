package domain

import (
	"github.com/ctessum/geom"
)

// BuildingFootprint is one building fetched from the map source. The
// footprint is carried both in web-mercator meters (all area and boolean
// math) and in WGS84 degrees (containment tests against the query point).
type BuildingFootprint struct {
	OSMID        int64             `json:"osm_id"`
	Footprint    geom.Polygon      `json:"-"`
	GeoFootprint geom.Polygon      `json:"-"`
	HeightM      float64           `json:"height_m"`
	Name         string            `json:"name,omitempty"`
	Tags         map[string]string `json:"-"`
}

// AreaM2 is the projected footprint area in square meters.
func (b BuildingFootprint) AreaM2() float64 {
	return b.Footprint.Area()
}

// RoadFeature is a road centerline in web-mercator meters.
type RoadFeature struct {
	OSMID      int64             `json:"osm_id"`
	Centerline geom.LineString   `json:"-"`
	Tags       map[string]string `json:"-"`
}

// ParkFeature is a park or green-space outline in web-mercator meters.
type ParkFeature struct {
	OSMID   int64             `json:"osm_id"`
	Outline geom.Polygon      `json:"-"`
	Tags    map[string]string `json:"-"`
}

// WaterFeature is a water-body outline in web-mercator meters.
type WaterFeature struct {
	OSMID   int64             `json:"osm_id"`
	Outline geom.Polygon      `json:"-"`
	Tags    map[string]string `json:"-"`
}

// FeatureSet holds everything the fetcher found around a query point.
// Buildings are deduplicated, sorted by descending footprint area and capped
// at the configured maximum before the set reaches the model pipeline.
type FeatureSet struct {
	Buildings []BuildingFootprint
	Roads     []RoadFeature
	Parks     []ParkFeature
	Waters    []WaterFeature
}
