package usecases

import (
	"github.com/ctessum/geom"

	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/config"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/geoproj"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/geospatial"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/shape"
)

// Segment counts for the two clipping disks. The world disk bounds feature
// geometry before scaling; the base disk is the printed plate outline and
// gets the finer tessellation.
const (
	worldCircleSegments = 384
	baseCircleSegments  = 512
)

// minScaledHeight keeps degenerate buildings printable (half a millimeter).
const minScaledHeight = 0.0005

// scaledBuilding is one building footprint carried into mesh synthesis:
// print-space geometry plus its scaled extrusion height.
type scaledBuilding struct {
	shape  shape.Shape
	height float64
}

// preparedGeometries is the fully clipped, scaled geometry of one request.
// Everything is in print-space meters centered on the plate.
type preparedGeometries struct {
	baseCircle   shape.Shape
	waterUnion   shape.Shape
	landNoWater  shape.Shape
	parkUnion    shape.Shape
	buildingBase shape.Shape
	roadUnion    shape.Shape

	buildings  []scaledBuilding // home excluded
	summaries  []domain.BuildingSummary
	homeShape  shape.Shape
	homeHeight float64
	hasHome    bool
}

// sceneContext pairs prepared geometry with the request-derived scaling.
type sceneContext struct {
	originX, originY float64
	scaleFactor      float64
	printRadius      float64
	prepared         preparedGeometries
}

// buildSceneContext projects the query point, derives the print scale and
// prepares all layer geometry. It fails with a BuildError when no building
// footprint survives clipping.
func buildSceneContext(req domain.ModelRequest, features *domain.FeatureSet, print config.PrintConfig) (*sceneContext, error) {
	originX, originY, err := geoproj.ToMercator(req.Longitude, req.Latitude)
	if err != nil {
		return nil, domain.NewBuildError("project query point: %v", err)
	}

	baseRadiusWorld := float64(req.RadiusMeters) + print.BasePaddingM
	printRadius := print.PlateDiameterM / 2
	if printRadius < 0.001 {
		printRadius = 0.001
	}
	scaleFactor := 1.0
	if baseRadiusWorld > 0 {
		scaleFactor = printRadius / baseRadiusWorld
	}

	circleWorld := shape.Circle(0, 0, float64(req.RadiusMeters), worldCircleSegments)
	baseCircle := shape.Circle(0, 0, printRadius, baseCircleSegments)

	home := identifyHomeBuilding(features.Buildings, req.Latitude, req.Longitude)

	prepared, err := prepareGeometries(features, circleWorld, baseCircle, originX, originY, scaleFactor, home, print)
	if err != nil {
		return nil, err
	}

	return &sceneContext{
		originX:     originX,
		originY:     originY,
		scaleFactor: scaleFactor,
		printRadius: printRadius,
		prepared:    prepared,
	}, nil
}

func prepareGeometries(
	features *domain.FeatureSet,
	circleWorld, baseCircle shape.Shape,
	originX, originY, scaleFactor float64,
	home *domain.BuildingFootprint,
	print config.PrintConfig,
) (preparedGeometries, error) {
	p := preparedGeometries{baseCircle: baseCircle}

	var allBuildingShapes []shape.Shape
	for i := range features.Buildings {
		b := &features.Buildings[i]
		clipped := shape.New(b.Footprint).Translate(-originX, -originY).Intersect(circleWorld)
		if clipped.IsEmpty() {
			continue
		}
		local := clipped.Scale(scaleFactor)
		if local.IsEmpty() {
			continue
		}
		scaledHeight := b.HeightM * scaleFactor
		if scaledHeight < minScaledHeight {
			scaledHeight = minScaledHeight
		}
		p.summaries = append(p.summaries, domain.BuildingSummary{
			OSMID:           b.OSMID,
			HeightM:         b.HeightM,
			FootprintAreaM2: b.AreaM2(),
			Name:            b.Name,
		})
		if home != nil && b.OSMID == home.OSMID {
			p.homeShape = local
			p.homeHeight = scaledHeight
			p.hasHome = true
		} else {
			p.buildings = append(p.buildings, scaledBuilding{shape: local, height: scaledHeight})
		}
		allBuildingShapes = append(allBuildingShapes, local)
	}

	if len(allBuildingShapes) == 0 {
		return p, domain.NewBuildError("unable to construct scaled footprints for this area")
	}

	parkShrink := print.ParkShrinkM * scaleFactor
	if parkShrink < 0 {
		parkShrink = 0
	}
	var parkShapes []shape.Shape
	for i := range features.Parks {
		local := shape.New(features.Parks[i].Outline).Translate(-originX, -originY).Scale(scaleFactor)
		if parkShrink > 0 {
			local = local.Shrink(parkShrink)
		}
		if !local.IsEmpty() {
			parkShapes = append(parkShapes, local)
		}
	}

	var waterShapes []shape.Shape
	for i := range features.Waters {
		local := shape.New(features.Waters[i].Outline).Translate(-originX, -originY).Scale(scaleFactor)
		if !local.IsEmpty() {
			waterShapes = append(waterShapes, local)
		}
	}

	roadWidth := print.RoadWidthM * scaleFactor
	if roadWidth < 0.001 {
		roadWidth = 0.001
	}
	var roadShapes []shape.Shape
	for i := range features.Roads {
		line := localLine(features.Roads[i].Centerline, originX, originY, scaleFactor)
		buffered := shape.BufferLine(line, roadWidth)
		if !buffered.IsEmpty() {
			roadShapes = append(roadShapes, buffered)
		}
	}

	p.waterUnion = shape.UnionAll(waterShapes).Intersect(baseCircle)
	p.landNoWater = baseCircle
	if !p.waterUnion.IsEmpty() {
		p.landNoWater = baseCircle.Subtract(p.waterUnion)
	}
	if p.landNoWater.IsEmpty() {
		p.landNoWater = baseCircle
	}

	p.parkUnion = shape.UnionAll(parkShapes).Intersect(p.landNoWater)
	p.roadUnion = shape.UnionAll(roadShapes).Intersect(baseCircle)

	p.buildingBase = p.landNoWater
	if !p.parkUnion.IsEmpty() {
		p.buildingBase = p.buildingBase.Subtract(p.parkUnion)
	}
	if p.buildingBase.IsEmpty() {
		p.buildingBase = p.landNoWater
	}

	return p, nil
}

func localLine(line geom.LineString, originX, originY, scaleFactor float64) geom.LineString {
	out := make(geom.LineString, len(line))
	for i, pt := range line {
		out[i] = geom.Point{
			X: (pt.X - originX) * scaleFactor,
			Y: (pt.Y - originY) * scaleFactor,
		}
	}
	return out
}

// identifyHomeBuilding picks the building containing the query point, or
// failing that the one with the nearest footprint centroid.
func identifyHomeBuilding(buildings []domain.BuildingFootprint, lat, lon float64) *domain.BuildingFootprint {
	if len(buildings) == 0 {
		return nil
	}
	pt := geom.Point{X: lon, Y: lat}
	for i := range buildings {
		if len(buildings[i].GeoFootprint) == 0 {
			continue
		}
		if pt.Within(buildings[i].GeoFootprint) != geom.Outside {
			return &buildings[i]
		}
	}

	best := -1
	bestDist := 0.0
	for i := range buildings {
		if len(buildings[i].GeoFootprint) == 0 {
			continue
		}
		c := buildings[i].GeoFootprint.Centroid()
		d := geospatial.Haversine(lat, lon, c.Y, c.X)
		if best < 0 || d < bestDist {
			best = i
			bestDist = d
		}
	}
	if best < 0 {
		return nil
	}
	return &buildings[best]
}
