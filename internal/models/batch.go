package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	BatchStatusProcessing = "processing"
	BatchStatusCompleted  = "completed"
	BatchStatusFailed     = "failed"
)

// Batch is one export run of a template over an uploaded data file.
type Batch struct {
	ID           string         `gorm:"primaryKey" json:"id"`
	TemplateID   string         `gorm:"not null;index" json:"template_id"`
	DataFilename string         `json:"data_filename"`
	Mode         string         `gorm:"type:varchar(32)" json:"mode"`
	Formats      string         `gorm:"type:varchar(64)" json:"formats"`
	NameField    string         `json:"name_field"`
	Status       string         `gorm:"type:varchar(32);default:'processing'" json:"status"`
	Error        string         `gorm:"type:text" json:"error,omitempty"`
	BundlePath   string         `json:"bundle_path"`
	BundleSize   int64          `json:"bundle_size"`
	Report       datatypes.JSON `gorm:"type:json" json:"report"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Template SVGTemplate `gorm:"foreignKey:TemplateID" json:"template,omitempty"`
}

func (Batch) TableName() string {
	return "batches"
}
