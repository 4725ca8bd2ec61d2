package services

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"VDP-SVG/internal"
	"VDP-SVG/internal/mapping"
	"VDP-SVG/internal/models"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MappingService struct{}

func NewMappingService() *MappingService {
	return &MappingService{}
}

// GetMapping returns the stored mapping of a template, or an empty one.
func (s *MappingService) GetMapping(templateID string) (mapping.Mapping, error) {
	var row models.TemplateMapping
	err := internal.DB.First(&row, "template_id = ?", templateID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return mapping.Mapping{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load mapping: %w", err)
	}
	return mapping.ParseJSON(row.Document)
}

// ImportMapping parses a mapping document and replaces the stored mapping
// with it. A document that fails to parse leaves the stored mapping as it
// was.
// MaxMappingSize bounds uploaded mapping documents.
const MaxMappingSize = 1 << 20

func (s *MappingService) ImportMapping(templateID, filename string, r io.Reader) (mapping.Mapping, error) {
	m, err := mapping.Load(filename, r)
	if err != nil {
		return nil, err
	}
	if err := s.SaveMapping(templateID, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MappingService) SaveMapping(templateID string, m mapping.Mapping) error {
	var buf bytes.Buffer
	if err := mapping.WriteJSON(&buf, m); err != nil {
		return fmt.Errorf("failed to encode mapping: %w", err)
	}

	row := &models.TemplateMapping{
		ID:         uuid.New().String(),
		TemplateID: templateID,
		Document:   datatypes.JSON(buf.Bytes()),
	}
	err := internal.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "template_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"document", "updated_at"}),
	}).Create(row).Error
	if err != nil {
		return fmt.Errorf("failed to save mapping: %w", err)
	}
	return nil
}

// ExportMapping writes the stored mapping as "json" or "csv".
func (s *MappingService) ExportMapping(templateID, format string, w io.Writer) error {
	m, err := s.GetMapping(templateID)
	if err != nil {
		return err
	}
	switch format {
	case "", "json":
		return mapping.WriteJSON(w, m)
	case "csv":
		return mapping.WriteCSV(w, m)
	default:
		return fmt.Errorf("unsupported mapping format %q", format)
	}
}
