package usecases

import (
	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/config"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/shape"
)

// Layer preview palette, matched to the web client.
const (
	waterBaseColor    = "#bfdbfe"
	waterFeatureColor = "#1d4ed8"

	greenBaseColor    = "#dcfce7"
	greenFeatureColor = "#16a34a"

	buildingBaseColor    = "#e5e7eb"
	buildingFeatureColor = "#111827"
	buildingOverlayColor = "#d1d5db"

	highlightBaseColor    = "#fed7aa"
	highlightFeatureColor = "#f97316"
)

// createLayerPreviews renders each layer's geometry as normalized 2D paths.
func createLayerPreviews(p *preparedGeometries, printRadius float64, print config.PrintConfig) []domain.LayerPreview {
	previews := []domain.LayerPreview{
		{
			Name:         layerWater,
			ThicknessM:   print.BaseThicknessM,
			BaseColor:    waterBaseColor,
			FeatureColor: waterFeatureColor,
			Description:  descWater,
			BasePaths:    geometryToPaths(p.baseCircle, printRadius),
			FeaturePaths: geometryToPaths(p.waterUnion, printRadius),
		},
		{
			Name:         layerGreen,
			ThicknessM:   print.GreenThicknessM,
			BaseColor:    greenBaseColor,
			FeatureColor: greenFeatureColor,
			Description:  descGreen,
			BasePaths:    geometryToPaths(p.landNoWater, printRadius),
			FeaturePaths: geometryToPaths(p.parkUnion, printRadius),
		},
	}

	buildingShapes := make([]shape.Shape, 0, len(p.buildings))
	for _, b := range p.buildings {
		buildingShapes = append(buildingShapes, b.shape)
	}
	previews = append(previews, domain.LayerPreview{
		Name:         layerBuilding,
		ThicknessM:   print.BuildingThicknessM,
		BaseColor:    buildingBaseColor,
		FeatureColor: buildingFeatureColor,
		OverlayColor: buildingOverlayColor,
		Description:  descBuilding,
		BasePaths:    geometryToPaths(p.buildingBase, printRadius),
		FeaturePaths: geometryToPaths(shape.UnionAll(buildingShapes), printRadius),
		OverlayPaths: geometryToPaths(p.roadUnion, printRadius),
	})

	if p.hasHome {
		previews = append(previews, domain.LayerPreview{
			Name:         layerHighlight,
			ThicknessM:   print.BuildingThicknessM,
			BaseColor:    highlightBaseColor,
			FeatureColor: highlightFeatureColor,
			Description:  descHighlight,
			BasePaths:    geometryToPaths(p.homeShape, printRadius),
		})
	}

	return previews
}

func geometryToPaths(s shape.Shape, radius float64) []domain.PolygonPath {
	if s.IsEmpty() {
		return nil
	}
	var paths []domain.PolygonPath
	for _, poly := range s.PolygonsWithHoles() {
		path := domain.PolygonPath{Outer: make([][2]float64, 0, len(poly.Outer))}
		for _, pt := range poly.Outer {
			path.Outer = append(path.Outer, normalizePoint(pt.X, pt.Y, radius))
		}
		for _, hole := range poly.Holes {
			ring := make([][2]float64, 0, len(hole))
			for _, pt := range hole {
				ring = append(ring, normalizePoint(pt.X, pt.Y, radius))
			}
			path.Holes = append(path.Holes, ring)
		}
		paths = append(paths, path)
	}
	return paths
}

// normalizePoint maps print-space coordinates to the unit square with a
// top-left origin, the convention the preview renderer draws in.
func normalizePoint(x, y, radius float64) [2]float64 {
	if radius == 0 {
		return [2]float64{0, 0}
	}
	nx := (x + radius) / (2 * radius)
	ny := 1 - (y+radius)/(2*radius)
	return [2]float64{nx, ny}
}
