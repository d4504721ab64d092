package overpass

import (
	"math"
	"regexp"
	"strconv"

	"github.com/ctessum/geom"

	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/config"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/geoproj"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/shape"
)

// Simplification tolerances: geographic footprints keep sub-meter accuracy
// for home-point containment; projected geometry is simplified harder since
// it will be scaled down three orders of magnitude anyway.
const (
	geoTolerance      = 1e-6
	buildingTolerance = 0.05
	featureTolerance  = 0.25
)

type payload struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type  string            `json:"type"`
	ID    int64             `json:"id"`
	Lat   float64           `json:"lat"`
	Lon   float64           `json:"lon"`
	Nodes []int64           `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

var numberRe = regexp.MustCompile(`[0-9]+(?:\.[0-9]+)?`)

// parsePayload resolves way node references and classifies each way by its
// tags. Ways with broken node references or degenerate geometry are skipped.
func parsePayload(p *payload, print config.PrintConfig) *domain.FeatureSet {
	nodes := make(map[int64]geom.Point)
	for _, el := range p.Elements {
		if el.Type == "node" {
			nodes[el.ID] = geom.Point{X: el.Lon, Y: el.Lat}
		}
	}

	out := &domain.FeatureSet{}
	for _, el := range p.Elements {
		if el.Type != "way" {
			continue
		}
		coords := make([]geom.Point, 0, len(el.Nodes))
		for _, id := range el.Nodes {
			if pt, ok := nodes[id]; ok {
				coords = append(coords, pt)
			}
		}
		if len(coords) < 3 {
			continue
		}
		tags := el.Tags

		switch {
		case tags["building"] != "":
			geoPoly := buildPolygon(coords, geoTolerance)
			if geoPoly == nil {
				continue
			}
			projected, err := projectRing(coords)
			if err != nil {
				continue
			}
			projPoly := buildPolygon(projected, buildingTolerance)
			if projPoly == nil {
				continue
			}
			out.Buildings = append(out.Buildings, domain.BuildingFootprint{
				OSMID:        el.ID,
				Footprint:    projPoly,
				GeoFootprint: geoPoly,
				HeightM:      resolveHeight(tags, print),
				Name:         tags["name"],
				Tags:         tags,
			})

		case isPark(tags):
			projected, err := projectRing(coords)
			if err != nil {
				continue
			}
			poly := buildPolygon(projected, featureTolerance)
			if poly == nil {
				continue
			}
			out.Parks = append(out.Parks, domain.ParkFeature{OSMID: el.ID, Outline: poly, Tags: tags})

		case isWater(tags):
			projected, err := projectRing(coords)
			if err != nil {
				continue
			}
			poly := buildPolygon(projected, featureTolerance)
			if poly == nil {
				continue
			}
			out.Waters = append(out.Waters, domain.WaterFeature{OSMID: el.ID, Outline: poly, Tags: tags})

		case tags["highway"] != "":
			projected, err := projectRing(coords)
			if err != nil {
				continue
			}
			line := buildLine(projected, featureTolerance)
			if line == nil {
				continue
			}
			out.Roads = append(out.Roads, domain.RoadFeature{OSMID: el.ID, Centerline: line, Tags: tags})
		}
	}
	return out
}

// buildPolygon repairs an OSM ring into a usable polygon: boolean-kernel
// validity repair, winding normalization and simplification. Returns nil
// when the ring collapses.
func buildPolygon(ring []geom.Point, tolerance float64) geom.Polygon {
	s := shape.New(geom.Polygon{ring}).Repair()
	if s.IsEmpty() {
		return nil
	}
	if tolerance > 0 {
		s = s.Simplify(tolerance)
		if s.IsEmpty() {
			return nil
		}
	}
	s = s.Normalized()
	return s.Polygon()
}

// buildLine drops zero-length centerlines and thins redundant vertices.
func buildLine(points []geom.Point, tolerance float64) geom.LineString {
	if len(points) < 2 {
		return nil
	}
	length := 0.0
	for i := 1; i < len(points); i++ {
		length += math.Hypot(points[i].X-points[i-1].X, points[i].Y-points[i-1].Y)
	}
	if length == 0 {
		return nil
	}
	line := geom.LineString(points)
	if tolerance > 0 {
		if simplified, ok := line.Simplify(tolerance).(geom.LineString); ok && len(simplified) >= 2 {
			line = simplified
		}
	}
	return line
}

func projectRing(coords []geom.Point) ([]geom.Point, error) {
	out := make([]geom.Point, len(coords))
	for i, c := range coords {
		x, y, err := geoproj.ToMercator(c.X, c.Y)
		if err != nil {
			return nil, err
		}
		out[i] = geom.Point{X: x, Y: y}
	}
	return out, nil
}

// resolveHeight derives a building height from its tags: an explicit height
// tag wins, then building:levels at the configured meters per level, then
// the default. Everything is clamped to the printable minimum.
func resolveHeight(tags map[string]string, print config.PrintConfig) float64 {
	if h, ok := parseLeadingNumber(tags["height"]); ok && h > 0 {
		if h < print.MinHeightM {
			return print.MinHeightM
		}
		return h
	}
	if levels, ok := parseLeadingNumber(tags["building:levels"]); ok && levels > 0 {
		h := levels * print.LevelHeightM
		if h < print.MinHeightM {
			return print.MinHeightM
		}
		return h
	}
	return print.DefaultHeightM
}

// parseLeadingNumber extracts the first decimal number from a tag value,
// tolerating suffixes like "12 m" or "12;14".
func parseLeadingNumber(value string) (float64, bool) {
	if value == "" {
		return 0, false
	}
	match := numberRe.FindString(value)
	if match == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func isPark(tags map[string]string) bool {
	if tags["leisure"] == "park" {
		return true
	}
	switch tags["landuse"] {
	case "grass", "recreation_ground", "meadow":
		return true
	}
	return false
}

func isWater(tags map[string]string) bool {
	if tags["natural"] == "water" || tags["waterway"] == "riverbank" || tags["landuse"] == "reservoir" {
		return true
	}
	switch tags["water"] {
	case "lake", "pond", "reservoir":
		return true
	}
	return false
}

// polygonTouchesCircle reports whether any part of the polygon lies within
// radius of the center: an edge passes close enough or the center sits
// inside the polygon.
func polygonTouchesCircle(poly geom.Polygon, cx, cy, radius float64) bool {
	center := geom.Point{X: cx, Y: cy}
	if center.Within(poly) != geom.Outside {
		return true
	}
	for _, ring := range poly {
		n := len(ring)
		for i := 0; i < n; i++ {
			if segmentDistance(center, ring[i], ring[(i+1)%n]) <= radius {
				return true
			}
		}
	}
	return false
}

func lineTouchesCircle(line geom.LineString, cx, cy, radius float64) bool {
	center := geom.Point{X: cx, Y: cy}
	for i := 1; i < len(line); i++ {
		if segmentDistance(center, line[i-1], line[i]) <= radius {
			return true
		}
	}
	return false
}

// segmentDistance is the distance from p to the segment ab.
func segmentDistance(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
