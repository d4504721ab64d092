package usecases

import (
	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/config"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/mesh"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/shape"
)

// Layer names are stable identifiers used in archive entries, metadata and
// previews.
const (
	layerWater     = "water_layer"
	layerGreen     = "green_layer"
	layerBuilding  = "building_layer"
	layerHighlight = "highlight_layer"
)

const (
	descWater     = "Water/base disk (thickness x) with water bodies extruded 2x to reach street level."
	descGreen     = "Land disk (thickness x) with holes for water extrusions plus parks raised another x."
	descBuilding  = "Street disk (thickness x) with cavities for water/green extrusions and buildings rising above."
	descHighlight = "Removable home building with a base that keys into the cavity on the buildings layer."
)

// buildWaterLayer stacks water columns at double thickness on the base disk
// so they reach street level through the green layer's holes.
func buildWaterLayer(p *preparedGeometries, print config.PrintConfig) (*mesh.Solid, error) {
	baseHeight := print.BaseThicknessM
	pieces := []*mesh.Solid{mesh.Extrude(p.baseCircle, baseHeight)}

	if !p.waterUnion.IsEmpty() {
		column := mesh.Extrude(p.waterUnion, baseHeight*2)
		column.Translate(0, 0, baseHeight)
		pieces = append(pieces, column)
	}
	return combinePieces(pieces)
}

// buildGreenLayer is the land disk with parks raised one extra thickness.
func buildGreenLayer(p *preparedGeometries, print config.PrintConfig) (*mesh.Solid, error) {
	if p.landNoWater.IsEmpty() {
		return nil, domain.NewBuildError("no geometry available for the green layer")
	}
	baseHeight := print.GreenThicknessM
	pieces := []*mesh.Solid{mesh.Extrude(p.landNoWater, baseHeight)}

	if !p.parkUnion.IsEmpty() {
		raised := mesh.Extrude(p.parkUnion, baseHeight)
		raised.Translate(0, 0, baseHeight)
		pieces = append(pieces, raised)
	}
	return combinePieces(pieces)
}

// buildBuildingLayer assembles the street slab, the road-grooved top plate
// and every building prism. When highlighting, the home footprint is cut out
// of the slab so the highlight piece can key into it.
func buildBuildingLayer(p *preparedGeometries, cutHome bool, print config.PrintConfig) (*mesh.Solid, error) {
	if p.buildingBase.IsEmpty() {
		return nil, domain.NewBuildError("no geometry available for the building layer")
	}

	baseGeom := p.buildingBase
	if cutHome && p.hasHome {
		baseGeom = baseGeom.Subtract(p.homeShape)
	}

	roadIndent := print.GrooveDepthM
	if maxIndent := print.BuildingThicknessM * 0.8; roadIndent > maxIndent {
		roadIndent = maxIndent
	}
	baseHeight := print.BuildingThicknessM
	slabHeight := baseHeight - roadIndent
	if slabHeight < minScaledHeight {
		slabHeight = minScaledHeight
	}

	pieces := []*mesh.Solid{mesh.Extrude(baseGeom, slabHeight)}

	if roadIndent > 0 {
		topGeom := baseGeom
		if !p.roadUnion.IsEmpty() {
			topGeom = topGeom.Subtract(p.roadUnion)
		}
		plate := mesh.Extrude(topGeom, roadIndent)
		plate.Translate(0, 0, slabHeight)
		pieces = append(pieces, plate)
	}

	for _, b := range p.buildings {
		if b.shape.IsEmpty() || b.shape.Area() == 0 {
			continue
		}
		prism := mesh.Extrude(b.shape, b.height)
		prism.Translate(0, 0, baseHeight)
		pieces = append(pieces, prism)
	}

	return combinePieces(pieces)
}

// buildHighlightLayer is the removable home piece: a shallow peg matching
// the building-layer cavity with the full-height body on top.
func buildHighlightLayer(homeShape shape.Shape, homeHeight float64, print config.PrintConfig) (*mesh.Solid, error) {
	if homeShape.IsEmpty() {
		return nil, domain.NewBuildError("highlight geometry is missing")
	}
	pegDepth := print.PegDepthM
	if pegDepth > print.BuildingThicknessM {
		pegDepth = print.BuildingThicknessM
	}

	var pieces []*mesh.Solid
	if pegDepth > 0 {
		pieces = append(pieces, mesh.Extrude(homeShape, pegDepth))
	}
	body := mesh.Extrude(homeShape, homeHeight)
	body.Translate(0, 0, pegDepth)
	pieces = append(pieces, body)

	return combinePieces(pieces)
}

func combinePieces(pieces []*mesh.Solid) (*mesh.Solid, error) {
	combined := mesh.Concat(pieces...)
	if combined.IsEmpty() {
		return nil, domain.NewBuildError("layer mesh could not be constructed")
	}
	return combined, nil
}

// layerInfos describes the printed stack for metadata and previews.
func layerInfos(print config.PrintConfig, includeHighlight bool) []domain.LayerInfo {
	infos := []domain.LayerInfo{
		{Name: layerWater, ThicknessM: print.BaseThicknessM, Description: descWater},
		{Name: layerGreen, ThicknessM: print.GreenThicknessM, Description: descGreen},
		{Name: layerBuilding, ThicknessM: print.BuildingThicknessM, Description: descBuilding},
	}
	if includeHighlight {
		infos = append(infos, domain.LayerInfo{
			Name: layerHighlight, ThicknessM: print.BuildingThicknessM, Description: descHighlight,
		})
	}
	return infos
}
