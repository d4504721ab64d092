package overpass

import (
	"encoding/json"
	"testing"

	"github.com/ctessum/geom"

	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/config"
)

func testPrint() config.PrintConfig {
	return config.PrintConfig{
		DefaultHeightM: 10,
		LevelHeightM:   3,
		MinHeightM:     3,
	}
}

// A tiny Overpass response: one building way, one road, one park, one way
// with a missing node reference.
const fixture = `{
  "elements": [
    {"type": "node", "id": 1, "lat": 0.0000, "lon": 0.0000},
    {"type": "node", "id": 2, "lat": 0.0000, "lon": 0.0002},
    {"type": "node", "id": 3, "lat": 0.0002, "lon": 0.0002},
    {"type": "node", "id": 4, "lat": 0.0002, "lon": 0.0000},
    {"type": "node", "id": 5, "lat": 0.0010, "lon": 0.0000},
    {"type": "node", "id": 6, "lat": 0.0010, "lon": 0.0010},
    {"type": "node", "id": 7, "lat": 0.0012, "lon": 0.0010},
    {"type": "node", "id": 8, "lat": 0.0012, "lon": 0.0000},
    {"type": "way", "id": 100, "nodes": [1, 2, 3, 4, 1],
     "tags": {"building": "yes", "building:levels": "4", "name": "Library"}},
    {"type": "way", "id": 101, "nodes": [5, 6],
     "tags": {"highway": "residential"}},
    {"type": "way", "id": 102, "nodes": [5, 6, 7, 8, 5],
     "tags": {"leisure": "park"}},
    {"type": "way", "id": 103, "nodes": [1, 2, 999],
     "tags": {"building": "yes"}}
  ]
}`

func TestParsePayload(t *testing.T) {
	var p payload
	if err := json.Unmarshal([]byte(fixture), &p); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	fs := parsePayload(&p, testPrint())

	if len(fs.Buildings) != 1 {
		t.Fatalf("buildings = %d, want 1 (broken way skipped)", len(fs.Buildings))
	}
	b := fs.Buildings[0]
	if b.OSMID != 100 {
		t.Errorf("building id = %d, want 100", b.OSMID)
	}
	if b.Name != "Library" {
		t.Errorf("building name = %q", b.Name)
	}
	if b.HeightM != 12 {
		t.Errorf("height = %g, want 12 (4 levels x 3 m)", b.HeightM)
	}
	if b.AreaM2() <= 0 {
		t.Error("projected footprint area should be positive")
	}
	if len(b.GeoFootprint) == 0 {
		t.Error("geographic footprint missing")
	}

	if len(fs.Roads) != 1 || fs.Roads[0].OSMID != 101 {
		t.Fatalf("roads = %v", fs.Roads)
	}
	if len(fs.Parks) != 1 || fs.Parks[0].OSMID != 102 {
		t.Fatalf("parks = %v", fs.Parks)
	}
	if len(fs.Waters) != 0 {
		t.Fatalf("waters = %d, want 0", len(fs.Waters))
	}
}

func TestResolveHeight(t *testing.T) {
	print := testPrint()
	cases := []struct {
		tags map[string]string
		want float64
	}{
		{map[string]string{"height": "21.5"}, 21.5},
		{map[string]string{"height": "12 m"}, 12},
		{map[string]string{"height": "1"}, 3},            // below minimum
		{map[string]string{"building:levels": "5"}, 15},  // 5 x 3 m
		{map[string]string{"building:levels": "0.5"}, 3}, // clamped
		{map[string]string{"height": "tall"}, 10},        // unparseable -> default
		{map[string]string{}, 10},
		{map[string]string{"height": "8", "building:levels": "20"}, 8}, // height wins
	}
	for _, c := range cases {
		if got := resolveHeight(c.tags, print); got != c.want {
			t.Errorf("resolveHeight(%v) = %g, want %g", c.tags, got, c.want)
		}
	}
}

func TestTagClassification(t *testing.T) {
	if !isPark(map[string]string{"landuse": "meadow"}) {
		t.Error("meadow should classify as park")
	}
	if isPark(map[string]string{"landuse": "industrial"}) {
		t.Error("industrial should not classify as park")
	}
	if !isWater(map[string]string{"water": "pond"}) {
		t.Error("pond should classify as water")
	}
	if !isWater(map[string]string{"waterway": "riverbank"}) {
		t.Error("riverbank should classify as water")
	}
	if isWater(map[string]string{"waterway": "canal"}) {
		t.Error("canal should not classify as water")
	}
}

func TestBuildTiles(t *testing.T) {
	// 500 m square with 400 m tiles: 2x2 grid.
	tiles, err := buildTiles(0, 0, 250, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tiles) != 4 {
		t.Fatalf("tiles = %d, want 4", len(tiles))
	}
	for _, tile := range tiles {
		if tile.south >= tile.north || tile.west >= tile.east {
			t.Errorf("degenerate tile: %+v", tile)
		}
	}

	// Single tile when the square fits.
	tiles, err = buildTiles(0, 0, 100, 400)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tiles) != 1 {
		t.Errorf("tiles = %d, want 1", len(tiles))
	}
}

func TestTouchesCircle(t *testing.T) {
	square := geom.Polygon{{
		{X: 90, Y: -10}, {X: 110, Y: -10}, {X: 110, Y: 10}, {X: 90, Y: 10},
	}}
	if !polygonTouchesCircle(square, 0, 0, 100) {
		t.Error("square overlapping circle edge should touch")
	}
	if polygonTouchesCircle(square, 0, 0, 50) {
		t.Error("distant square should not touch")
	}
	// Circle center inside a huge polygon whose edges are all far away.
	huge := geom.Polygon{{
		{X: -1000, Y: -1000}, {X: 1000, Y: -1000}, {X: 1000, Y: 1000}, {X: -1000, Y: 1000},
	}}
	if !polygonTouchesCircle(huge, 0, 0, 10) {
		t.Error("containing polygon should touch")
	}

	line := geom.LineString{{X: -500, Y: 30}, {X: 500, Y: 30}}
	if !lineTouchesCircle(line, 0, 0, 100) {
		t.Error("crossing line should touch")
	}
	if lineTouchesCircle(line, 0, 0, 20) {
		t.Error("distant line should not touch")
	}
}
