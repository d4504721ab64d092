package usecases

import (
	"math"
	"testing"

	"github.com/ctessum/geom"

	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/config"
)

func testPrintConfig() config.PrintConfig {
	return config.PrintConfig{
		PlateDiameterM:     0.2,
		BaseThicknessM:     0.0075,
		GreenThicknessM:    0.0075,
		BuildingThicknessM: 0.0075,
		GrooveDepthM:       0.0015,
		PegDepthM:          0.0045,
		RoadWidthM:         4.0,
		ParkShrinkM:        1.0,
		BasePaddingM:       5.0,
		BuildingPaddingM:   2.5,
		DefaultHeightM:     10.0,
		LevelHeightM:       3.0,
		MinHeightM:         3.0,
		HighlightHome:      true,
	}
}

// squareAt returns a size x size footprint in local mercator meters.
// At latitude/longitude zero, mercator coordinates coincide with meters.
func squareAt(x, y, size float64) geom.Polygon {
	return geom.Polygon{{
		{X: x, Y: y},
		{X: x + size, Y: y},
		{X: x + size, Y: y + size},
		{X: x, Y: y + size},
	}}
}

func geoSquareAt(lon, lat, sizeDeg float64) geom.Polygon {
	return geom.Polygon{{
		{X: lon, Y: lat},
		{X: lon + sizeDeg, Y: lat},
		{X: lon + sizeDeg, Y: lat + sizeDeg},
		{X: lon, Y: lat + sizeDeg},
	}}
}

func equatorFeatures() *domain.FeatureSet {
	return &domain.FeatureSet{
		Buildings: []domain.BuildingFootprint{
			{
				OSMID:        1,
				Footprint:    squareAt(-10, -10, 20),
				GeoFootprint: geoSquareAt(-0.0001, -0.0001, 0.0002),
				HeightM:      12,
			},
			{
				OSMID:        2,
				Footprint:    squareAt(60, 60, 15),
				GeoFootprint: geoSquareAt(0.0005, 0.0005, 0.0002),
				HeightM:      6,
			},
		},
		Roads: []domain.RoadFeature{
			{OSMID: 10, Centerline: geom.LineString{{X: -100, Y: 0}, {X: 100, Y: 0}}},
		},
		Parks: []domain.ParkFeature{
			{OSMID: 20, Outline: squareAt(-80, 20, 40)},
		},
		Waters: []domain.WaterFeature{
			{OSMID: 30, Outline: squareAt(20, -90, 50)},
		},
	}
}

func equatorRequest() domain.ModelRequest {
	return domain.ModelRequest{
		Latitude:      0,
		Longitude:     0,
		RadiusMeters:  250,
		HighlightHome: true,
		Formats:       []string{"stl"},
	}
}

func TestBuildSceneContext(t *testing.T) {
	scene, err := buildSceneContext(equatorRequest(), equatorFeatures(), testPrintConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantScale := 0.1 / 255.0
	if math.Abs(scene.scaleFactor-wantScale)/wantScale > 1e-9 {
		t.Errorf("scale factor = %g, want %g", scene.scaleFactor, wantScale)
	}
	if math.Abs(scene.printRadius-0.1) > 1e-12 {
		t.Errorf("print radius = %g, want 0.1", scene.printRadius)
	}

	p := scene.prepared
	if !p.hasHome {
		t.Fatal("home building was not identified")
	}
	if len(p.buildings) != 1 {
		t.Fatalf("expected 1 non-home building, got %d", len(p.buildings))
	}
	if len(p.summaries) != 2 {
		t.Fatalf("expected 2 summaries, got %d", len(p.summaries))
	}
	if p.summaries[0].OSMID != 1 {
		t.Errorf("first summary id = %d, want 1", p.summaries[0].OSMID)
	}

	// Home footprint is 20 m x 20 m scaled down.
	wantArea := 400 * wantScale * wantScale
	if got := p.homeShape.Area(); math.Abs(got-wantArea)/wantArea > 1e-6 {
		t.Errorf("home area = %g, want %g", got, wantArea)
	}
	wantHeight := 12 * wantScale
	if math.Abs(p.homeHeight-wantHeight) > 1e-12 {
		t.Errorf("home height = %g, want %g", p.homeHeight, wantHeight)
	}

	baseArea := math.Pi * 0.1 * 0.1
	if got := p.landNoWater.Area(); got >= baseArea {
		t.Errorf("land area %g should be smaller than full disk %g after water cut", got, baseArea)
	}
	if p.waterUnion.IsEmpty() {
		t.Error("water union should not be empty")
	}
	if p.parkUnion.IsEmpty() {
		t.Error("park union should not be empty")
	}
	if p.roadUnion.IsEmpty() {
		t.Error("road union should not be empty")
	}
	if got := p.buildingBase.Area(); got >= p.landNoWater.Area() {
		t.Errorf("building base %g should be smaller than land %g after park cut", got, p.landNoWater.Area())
	}
}

func TestBuildSceneContextNoSurvivors(t *testing.T) {
	features := &domain.FeatureSet{
		Buildings: []domain.BuildingFootprint{
			// Entirely outside the 250 m clip circle.
			{OSMID: 1, Footprint: squareAt(5000, 5000, 20), GeoFootprint: geoSquareAt(0.05, 0.05, 0.0002), HeightM: 10},
		},
	}
	_, err := buildSceneContext(equatorRequest(), features, testPrintConfig())
	if err == nil {
		t.Fatal("expected build error when no footprint survives clipping")
	}
	if _, ok := err.(*domain.BuildError); !ok {
		t.Errorf("expected *domain.BuildError, got %T", err)
	}
}

func TestBuildSceneContextHomeByDistance(t *testing.T) {
	features := equatorFeatures()
	// Move the first building's geographic footprint away from the query
	// point so containment fails; nearest centroid should still win.
	features.Buildings[0].GeoFootprint = geoSquareAt(0.0002, 0.0002, 0.0001)
	scene, err := buildSceneContext(equatorRequest(), features, testPrintConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !scene.prepared.hasHome {
		t.Fatal("expected nearest building to be chosen as home")
	}
	if len(scene.prepared.buildings) != 1 {
		t.Errorf("expected the other building to stay in the regular list")
	}
}

func TestMinimumScaledHeight(t *testing.T) {
	features := equatorFeatures()
	features.Buildings[1].HeightM = 0.01 // scales far below half a millimeter
	scene, err := buildSceneContext(equatorRequest(), features, testPrintConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := scene.prepared.buildings[0].height; got != minScaledHeight {
		t.Errorf("scaled height = %g, want clamp at %g", got, minScaledHeight)
	}
}

func TestWaterLayerVolume(t *testing.T) {
	cfg := testPrintConfig()
	scene, err := buildSceneContext(equatorRequest(), equatorFeatures(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := &scene.prepared

	solid, err := buildWaterLayer(p, cfg)
	if err != nil {
		t.Fatalf("water layer: %v", err)
	}
	want := p.baseCircle.Area()*cfg.BaseThicknessM + p.waterUnion.Area()*2*cfg.BaseThicknessM
	if got := solid.Volume(); math.Abs(got-want)/want > 1e-6 {
		t.Errorf("water layer volume = %g, want %g", got, want)
	}
}

func TestGreenLayerVolume(t *testing.T) {
	cfg := testPrintConfig()
	scene, err := buildSceneContext(equatorRequest(), equatorFeatures(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := &scene.prepared

	solid, err := buildGreenLayer(p, cfg)
	if err != nil {
		t.Fatalf("green layer: %v", err)
	}
	want := (p.landNoWater.Area() + p.parkUnion.Area()) * cfg.GreenThicknessM
	if got := solid.Volume(); math.Abs(got-want)/want > 1e-6 {
		t.Errorf("green layer volume = %g, want %g", got, want)
	}
}

func TestBuildingLayerCutsHomeCavity(t *testing.T) {
	cfg := testPrintConfig()
	scene, err := buildSceneContext(equatorRequest(), equatorFeatures(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := &scene.prepared

	withCavity, err := buildBuildingLayer(p, true, cfg)
	if err != nil {
		t.Fatalf("building layer: %v", err)
	}
	without, err := buildBuildingLayer(p, false, cfg)
	if err != nil {
		t.Fatalf("building layer: %v", err)
	}
	if withCavity.Volume() >= without.Volume() {
		t.Errorf("cavity volume %g should be below uncut volume %g",
			withCavity.Volume(), without.Volume())
	}
}

func TestHighlightLayerVolume(t *testing.T) {
	cfg := testPrintConfig()
	scene, err := buildSceneContext(equatorRequest(), equatorFeatures(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p := &scene.prepared

	solid, err := buildHighlightLayer(p.homeShape, p.homeHeight, cfg)
	if err != nil {
		t.Fatalf("highlight layer: %v", err)
	}
	want := p.homeShape.Area() * (cfg.PegDepthM + p.homeHeight)
	if got := solid.Volume(); math.Abs(got-want)/want > 1e-6 {
		t.Errorf("highlight volume = %g, want %g", got, want)
	}
}

func TestNormalizePoint(t *testing.T) {
	cases := []struct {
		x, y, r float64
		nx, ny  float64
	}{
		{0, 0, 0.1, 0.5, 0.5},
		{0.1, 0.1, 0.1, 1, 0},
		{-0.1, -0.1, 0.1, 0, 1},
		{3, -3, 0, 0, 0},
	}
	for _, c := range cases {
		got := normalizePoint(c.x, c.y, c.r)
		if math.Abs(got[0]-c.nx) > 1e-12 || math.Abs(got[1]-c.ny) > 1e-12 {
			t.Errorf("normalizePoint(%g, %g, %g) = %v, want (%g, %g)", c.x, c.y, c.r, got, c.nx, c.ny)
		}
	}
}

func TestGreenPreviewWhenParksCollapse(t *testing.T) {
	cfg := testPrintConfig()
	features := equatorFeatures()
	// Slivers narrower than twice the shrink margin (1 m each side) vanish
	// entirely; the green layer then has a base disk but no raised parks.
	features.Parks = []domain.ParkFeature{
		{OSMID: 21, Outline: geom.Polygon{{
			{X: -40, Y: 20}, {X: -39.2, Y: 20}, {X: -39.2, Y: 60}, {X: -40, Y: 60},
		}}},
		{OSMID: 22, Outline: geom.Polygon{{
			{X: 10, Y: -50}, {X: 50, Y: -50}, {X: 50, Y: -49.5}, {X: 10, Y: -49.5},
		}}},
	}

	scene, err := buildSceneContext(equatorRequest(), features, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !scene.prepared.parkUnion.IsEmpty() {
		t.Fatal("sliver parks should collapse under the shrink margin")
	}

	previews := createLayerPreviews(&scene.prepared, scene.printRadius, cfg)
	var green *domain.LayerPreview
	for i := range previews {
		if previews[i].Name == layerGreen {
			green = &previews[i]
		}
	}
	if green == nil {
		t.Fatal("green preview missing")
	}
	if len(green.FeaturePaths) != 0 {
		t.Errorf("green feature paths = %d, want none after park collapse", len(green.FeaturePaths))
	}
	if len(green.BasePaths) == 0 {
		t.Error("green base paths should still contain the land disk")
	}
}

func TestLayerPreviews(t *testing.T) {
	cfg := testPrintConfig()
	scene, err := buildSceneContext(equatorRequest(), equatorFeatures(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	previews := createLayerPreviews(&scene.prepared, scene.printRadius, cfg)
	if len(previews) != 4 {
		t.Fatalf("expected 4 previews with a home building, got %d", len(previews))
	}
	if previews[3].Name != layerHighlight {
		t.Errorf("last preview = %s, want %s", previews[3].Name, layerHighlight)
	}
	for _, pv := range previews {
		for _, path := range pv.BasePaths {
			for _, pt := range path.Outer {
				if pt[0] < -1e-9 || pt[0] > 1+1e-9 || pt[1] < -1e-9 || pt[1] > 1+1e-9 {
					t.Fatalf("%s path point outside unit square: %v", pv.Name, pt)
				}
			}
		}
	}
}
