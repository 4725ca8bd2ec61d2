package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SVGTemplate is an uploaded template. RawPath holds the file as uploaded,
// SanitizedPath the repaired markup the renderer works from.
type SVGTemplate struct {
	ID            string         `gorm:"primaryKey" json:"id"`
	Filename      string         `gorm:"not null" json:"filename"`
	OriginalName  string         `json:"original_name"`
	DisplayName   string         `json:"display_name"`
	RawPath       string         `gorm:"not null" json:"raw_path"`
	SanitizedPath string         `gorm:"not null" json:"sanitized_path"`
	FileSize      int64          `json:"file_size"`
	Placeholders  datatypes.JSON `gorm:"type:json" json:"placeholders"` // sorted JSON array of names
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Mapping *TemplateMapping `gorm:"foreignKey:TemplateID" json:"mapping,omitempty"`
}

func (SVGTemplate) TableName() string {
	return "svg_templates"
}

// TemplateMapping stores the mapping document of a template in its JSON
// form. There is at most one per template.
type TemplateMapping struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	TemplateID string         `gorm:"not null;uniqueIndex" json:"template_id"`
	Document   datatypes.JSON `gorm:"type:json" json:"document"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func (TemplateMapping) TableName() string {
	return "template_mappings"
}
