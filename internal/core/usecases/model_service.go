package usecases

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mgonzalezcanudas/print3dhood/internal/core/domain"
	"github.com/mgonzalezcanudas/print3dhood/internal/core/ports"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/config"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/mesh"
	"github.com/mgonzalezcanudas/print3dhood/internal/pkg/metrics"
)

// ModelService turns a model request into a printable layer archive or a
// preview. Geometry work is CPU-bound, so a counting semaphore bounds how
// many builds run at once.
type ModelService struct {
	features ports.FeatureSource
	cfg      *config.Config
	sem      chan struct{}
	tracer   trace.Tracer
}

// NewModelService creates a new ModelService.
func NewModelService(features ports.FeatureSource, cfg *config.Config) *ModelService {
	return &ModelService{
		features: features,
		cfg:      cfg,
		sem:      make(chan struct{}, cfg.Server.MaxConcurrentBuilds),
		tracer:   otel.Tracer("usecases/model"),
	}
}

// namedLayer keeps archive entries in stack order.
type namedLayer struct {
	name  string
	solid *mesh.Solid
}

// BuildArchive fetches the surrounding features, synthesizes every layer and
// returns the zip archive bytes together with its suggested filename and the
// embedded metadata.
func (s *ModelService) BuildArchive(ctx context.Context, req domain.ModelRequest) (string, []byte, *domain.ModelMetadata, error) {
	ctx, span := s.tracer.Start(ctx, "model.build_archive")
	defer span.End()

	if err := s.normalize(&req); err != nil {
		return "", nil, nil, err
	}
	span.SetAttributes(
		attribute.Int("model.radius_m", req.RadiusMeters),
		attribute.Bool("model.highlight", req.HighlightHome),
	)

	if err := s.acquire(ctx); err != nil {
		return "", nil, nil, err
	}
	defer s.release()

	start := time.Now()
	scene, err := s.buildScene(ctx, req)
	if err != nil {
		metrics.ModelsBuilt.WithLabelValues("error").Inc()
		return "", nil, nil, err
	}

	layers, err := s.synthesizeLayers(ctx, req, scene)
	if err != nil {
		metrics.ModelsBuilt.WithLabelValues("error").Inc()
		return "", nil, nil, err
	}
	metrics.BuildDuration.WithLabelValues("mesh").Observe(time.Since(start).Seconds())

	highlighted := false
	for _, l := range layers {
		if l.name == layerHighlight {
			highlighted = true
		}
	}

	meta := &domain.ModelMetadata{
		BuildingCount: len(scene.prepared.summaries),
		RadiusMeters:  req.RadiusMeters,
		Highlighted:   highlighted,
		Formats:       req.Formats,
		Origin:        [2]float64{scene.originX, scene.originY},
		ScaleRatio:    scene.scaleFactor,
		Layers:        layerInfos(s.cfg.Print, highlighted),
		Buildings:     scene.prepared.summaries,
	}

	data, err := packArchive(req.Formats, layers, meta)
	if err != nil {
		metrics.ModelsBuilt.WithLabelValues("error").Inc()
		return "", nil, nil, err
	}

	metrics.ModelsBuilt.WithLabelValues("success").Inc()
	metrics.BuildingsPerModel.Observe(float64(meta.BuildingCount))

	filename := fmt.Sprintf("print3dhood_%dm_layers.zip", req.RadiusMeters)
	return filename, data, meta, nil
}

// Preview fetches features and renders layer previews without meshing.
func (s *ModelService) Preview(ctx context.Context, req domain.ModelRequest) (*domain.PreviewResponse, error) {
	ctx, span := s.tracer.Start(ctx, "model.preview")
	defer span.End()

	if err := s.normalize(&req); err != nil {
		return nil, err
	}

	if err := s.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.release()

	scene, err := s.buildScene(ctx, req)
	if err != nil {
		return nil, err
	}

	meta := &domain.ModelMetadata{
		BuildingCount: len(scene.prepared.summaries),
		RadiusMeters:  req.RadiusMeters,
		Highlighted:   scene.prepared.hasHome,
		Formats:       []string{"stl"},
		Origin:        [2]float64{scene.originX, scene.originY},
		ScaleRatio:    scene.scaleFactor,
		Layers:        layerInfos(s.cfg.Print, scene.prepared.hasHome),
		Buildings:     scene.prepared.summaries,
	}
	previews := createLayerPreviews(&scene.prepared, scene.printRadius, s.cfg.Print)

	return &domain.PreviewResponse{Metadata: meta, Previews: previews}, nil
}

func (s *ModelService) normalize(req *domain.ModelRequest) error {
	if req.RadiusMeters <= 0 {
		req.RadiusMeters = s.cfg.Model.DefaultRadiusM
	}
	if req.RadiusMeters > s.cfg.Model.MaxRadiusM {
		req.RadiusMeters = s.cfg.Model.MaxRadiusM
	}
	if err := req.Normalize(s.cfg.Model.AllowedFormats, s.cfg.Model.MaxFormats); err != nil {
		return domain.NewBuildError("%v", err)
	}
	return nil
}

func (s *ModelService) acquire(ctx context.Context) error {
	select {
	case s.sem <- struct{}{}:
		metrics.BuildsInFlight.Inc()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *ModelService) release() {
	metrics.BuildsInFlight.Dec()
	<-s.sem
}

func (s *ModelService) buildScene(ctx context.Context, req domain.ModelRequest) (*sceneContext, error) {
	fetchStart := time.Now()
	features, err := s.features.FetchEnvironment(ctx, req.Latitude, req.Longitude, req.RadiusMeters)
	if err != nil {
		return nil, err
	}
	metrics.BuildDuration.WithLabelValues("fetch").Observe(time.Since(fetchStart).Seconds())

	if len(features.Buildings) == 0 {
		return nil, domain.NewFetchError(404,
			"no buildings were found for the requested area; try a larger radius or a different location")
	}

	return buildSceneContext(req, features, s.cfg.Print)
}

func (s *ModelService) synthesizeLayers(ctx context.Context, req domain.ModelRequest, scene *sceneContext) ([]namedLayer, error) {
	p := &scene.prepared
	print := s.cfg.Print

	water, err := buildWaterLayer(p, print)
	if err != nil {
		return nil, err
	}
	green, err := buildGreenLayer(p, print)
	if err != nil {
		return nil, err
	}

	cutHome := req.HighlightHome && p.hasHome
	building, err := buildBuildingLayer(p, cutHome, print)
	if err != nil {
		return nil, err
	}

	layers := []namedLayer{
		{layerWater, water},
		{layerGreen, green},
		{layerBuilding, building},
	}

	if req.HighlightHome && print.HighlightHome && p.hasHome && p.homeHeight > 0 {
		highlight, err := buildHighlightLayer(p.homeShape, p.homeHeight, print)
		if err != nil {
			return nil, err
		}
		layers = append(layers, namedLayer{layerHighlight, highlight})
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return layers, nil
}

// packArchive writes layers/<name>.<format> for every requested format plus
// metadata.json, entirely in memory.
func packArchive(formats []string, layers []namedLayer, meta *domain.ModelMetadata) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, format := range formats {
		for _, layer := range layers {
			w, err := zw.Create(fmt.Sprintf("layers/%s.%s", layer.name, format))
			if err != nil {
				return nil, fmt.Errorf("create archive entry: %w", err)
			}
			if err := mesh.Encode(w, layer.solid, format); err != nil {
				return nil, fmt.Errorf("encode %s as %s: %w", layer.name, format, err)
			}
		}
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	w, err := zw.Create("metadata.json")
	if err != nil {
		return nil, fmt.Errorf("create metadata entry: %w", err)
	}
	if _, err := w.Write(metaJSON); err != nil {
		return nil, fmt.Errorf("write metadata: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	return buf.Bytes(), nil
}
