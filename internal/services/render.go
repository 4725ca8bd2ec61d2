package services

import (
	"context"
	"fmt"
	"strings"

	"VDP-SVG/internal/export"
	"VDP-SVG/internal/mapping"
	"VDP-SVG/internal/processor"
	"VDP-SVG/internal/records"
)

const (
	MinPreviewScale = 0.25
	MaxPreviewScale = 3.0
)

// Rendered is one bound record in a single output format.
type Rendered struct {
	Data        []byte
	ContentType string
	Fallbacks   []processor.Fallback
}

// RenderService binds single records for previews and one-off renders.
type RenderService struct {
	binder    *processor.Binder
	raster    export.Rasterizer
	templates *TemplateService
	mappings  *MappingService
}

func NewRenderService(binder *processor.Binder, raster export.Rasterizer, templates *TemplateService, mappings *MappingService) *RenderService {
	if raster == nil {
		raster = export.NewSVGRasterizer()
	}
	return &RenderService{
		binder:    binder,
		raster:    raster,
		templates: templates,
		mappings:  mappings,
	}
}

// ClampPreviewScale keeps a preview scale within the supported range. Zero
// means 1.
func ClampPreviewScale(scale float64) float64 {
	switch {
	case scale == 0:
		return 1
	case scale < MinPreviewScale:
		return MinPreviewScale
	case scale > MaxPreviewScale:
		return MaxPreviewScale
	}
	return scale
}

// Preview binds one of rows to a stored template with its stored mapping.
// row is 1-based; 0 selects the first row with a mapped value.
func (s *RenderService) Preview(ctx context.Context, templateID string, rows []records.Record, row int, format string, scale float64) (*Rendered, error) {
	tpl, err := s.templates.LoadSanitized(ctx, templateID)
	if err != nil {
		return nil, err
	}
	m, err := s.mappings.GetMapping(templateID)
	if err != nil {
		return nil, err
	}
	return s.Render(tpl, m, export.PreviewRecord(m, rows, row), format, scale)
}

// RenderRaw sanitizes an uploaded template and binds rec to it without
// touching any storage.
func (s *RenderService) RenderRaw(raw []byte, m mapping.Mapping, rec records.Record, format string, scale float64) (*Rendered, error) {
	tpl, err := processor.Sanitize(raw)
	if err != nil {
		return nil, err
	}
	return s.Render(tpl, m, rec, format, scale)
}

// Render binds rec and encodes the result as "svg" or "png". PNG output is
// rasterized at twice the preview scale, never below 1.
func (s *RenderService) Render(tpl *processor.Document, m mapping.Mapping, rec records.Record, format string, scale float64) (*Rendered, error) {
	bound := s.binder.Bind(tpl, m, rec)
	bound.EnsureSize()
	svg, err := bound.String()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize bound template: %w", err)
	}

	switch strings.ToLower(format) {
	case "", "svg":
		return &Rendered{Data: []byte(svg), ContentType: "image/svg+xml", Fallbacks: bound.Fallbacks}, nil
	case "png":
		rasterScale := 2 * ClampPreviewScale(scale)
		if rasterScale < 1 {
			rasterScale = 1
		}
		data, err := s.raster.PNG(svg, rasterScale)
		if err != nil {
			return nil, fmt.Errorf("failed to rasterize: %w", err)
		}
		return &Rendered{Data: data, ContentType: "image/png", Fallbacks: bound.Fallbacks}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported preview format %q", ErrInvalidInput, format)
	}
}
