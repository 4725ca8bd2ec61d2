package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"VDP-SVG/internal"
	"VDP-SVG/internal/export"
	"VDP-SVG/internal/models"
	"VDP-SVG/internal/records"
	"VDP-SVG/internal/storage"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrInvalidInput marks request problems the caller can fix, such as an
// unknown export mode or an unreadable data file.
var ErrInvalidInput = errors.New("invalid input")

type BatchRequest struct {
	TemplateID   string
	DataFilename string
	Data         io.Reader
	Mode         string
	Formats      string
	NameField    string
}

type BatchService struct {
	store     storage.Store
	templates *TemplateService
	mappings  *MappingService
	exporter  *export.Exporter
	workers   int
}

func NewBatchService(store storage.Store, templates *TemplateService, mappings *MappingService, exporter *export.Exporter, workers int) *BatchService {
	return &BatchService{
		store:     store,
		templates: templates,
		mappings:  mappings,
		exporter:  exporter,
		workers:   workers,
	}
}

// CreateBatch exports every selected record of the data file against the
// template and its stored mapping, then stores the ZIP bundle. Records
// that fail are listed in the report; the batch itself only fails when
// nothing could be bundled.
func (s *BatchService) CreateBatch(ctx context.Context, req BatchRequest) (*models.Batch, *export.Report, error) {
	mode, err := export.ParseMode(req.Mode)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	formats, err := export.ParseFormats(req.Formats)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	tpl, err := s.templates.LoadSanitized(ctx, req.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	m, err := s.mappings.GetMapping(req.TemplateID)
	if err != nil {
		return nil, nil, err
	}
	table, err := records.Load(req.DataFilename, req.Data)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	batch := &models.Batch{
		ID:           uuid.New().String(),
		TemplateID:   req.TemplateID,
		DataFilename: req.DataFilename,
		Mode:         string(mode),
		Formats:      joinFormats(formats),
		NameField:    req.NameField,
		Status:       models.BatchStatusProcessing,
	}
	if err := internal.DB.Create(batch).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to save batch: %w", err)
	}

	start := time.Now()
	result, err := s.exporter.Run(ctx, tpl, m, table, export.Options{
		Mode:      mode,
		Formats:   formats,
		NameField: req.NameField,
		Workers:   s.workers,
	})
	if err != nil {
		s.fail(batch, err)
		return nil, nil, fmt.Errorf("failed to export batch: %w", err)
	}

	var buf bytes.Buffer
	if err := export.WriteZip(&buf, result.Files); err != nil {
		s.fail(batch, err)
		return nil, nil, fmt.Errorf("failed to write bundle: %w", err)
	}

	objectName := storage.BatchObjectName(batch.ID)
	upload, err := s.store.UploadFile(ctx, &buf, objectName, "application/zip")
	if err != nil {
		s.fail(batch, err)
		return nil, nil, fmt.Errorf("failed to upload bundle: %w", err)
	}

	reportJSON, err := json.Marshal(result.Report)
	if err != nil {
		s.fail(batch, err)
		return nil, nil, fmt.Errorf("failed to marshal report: %w", err)
	}

	batch.Status = models.BatchStatusCompleted
	batch.BundlePath = objectName
	batch.BundleSize = upload.Size
	batch.Report = datatypes.JSON(reportJSON)
	if err := internal.DB.Save(batch).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to update batch: %w", err)
	}

	log.Printf("[INFO] batch %s: %d exported, %d skipped, %d failed in %s",
		batch.ID, result.Report.Exported, result.Report.Skipped, result.Report.Failed, time.Since(start).Round(time.Millisecond))
	return batch, &result.Report, nil
}

func (s *BatchService) fail(batch *models.Batch, cause error) {
	err := internal.DB.Model(batch).Updates(map[string]interface{}{
		"status": models.BatchStatusFailed,
		"error":  cause.Error(),
	}).Error
	if err != nil {
		log.Printf("[WARN] failed to mark batch %s as failed: %v", batch.ID, err)
	}
}

func (s *BatchService) GetBatch(batchID string) (*models.Batch, error) {
	var batch models.Batch
	if err := internal.DB.First(&batch, "id = ?", batchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("batch %s: %w", batchID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}
	return &batch, nil
}

// OpenBundle returns a reader over the stored ZIP bundle of a completed
// batch and the file name to offer for download.
func (s *BatchService) OpenBundle(ctx context.Context, batchID string) (io.ReadCloser, string, error) {
	batch, err := s.GetBatch(batchID)
	if err != nil {
		return nil, "", err
	}
	if batch.Status != models.BatchStatusCompleted || batch.BundlePath == "" {
		return nil, "", fmt.Errorf("batch %s has no bundle: %w", batchID, ErrNotFound)
	}

	reader, err := s.store.ReadFile(ctx, batch.BundlePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, "", fmt.Errorf("bundle of batch %s: %w", batchID, ErrNotFound)
		}
		return nil, "", fmt.Errorf("failed to read bundle: %w", err)
	}
	return reader, fmt.Sprintf("batch_%s.zip", batch.ID), nil
}

// BundleURL returns a signed download link when the store supports them.
func (s *BatchService) BundleURL(batchID string, expiry time.Duration) (string, bool, error) {
	signer, ok := s.store.(storage.URLSigner)
	if !ok {
		return "", false, nil
	}
	batch, err := s.GetBatch(batchID)
	if err != nil {
		return "", false, err
	}
	if batch.BundlePath == "" {
		return "", false, fmt.Errorf("batch %s has no bundle: %w", batchID, ErrNotFound)
	}
	url, err := signer.GetSignedURL(batch.BundlePath, expiry)
	if err != nil {
		return "", false, fmt.Errorf("failed to sign bundle url: %w", err)
	}
	return url, true, nil
}

func joinFormats(formats []export.Format) string {
	parts := make([]string, len(formats))
	for i, f := range formats {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
