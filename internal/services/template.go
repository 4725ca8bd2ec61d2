package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"

	"VDP-SVG/internal"
	"VDP-SVG/internal/cache"
	"VDP-SVG/internal/models"
	"VDP-SVG/internal/processor"
	"VDP-SVG/internal/storage"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MaxTemplateSize bounds uploaded template files.
const MaxTemplateSize = 20 << 20

var ErrNotFound = errors.New("not found")

type TemplateService struct {
	store storage.Store
	cache cache.TemplateCache
}

func NewTemplateService(store storage.Store, templateCache cache.TemplateCache) *TemplateService {
	if templateCache == nil {
		templateCache = cache.Nop{}
	}
	return &TemplateService{
		store: store,
		cache: templateCache,
	}
}

// UploadTemplate sanitizes the uploaded SVG and stores both the original
// and the sanitized markup. A template that cannot be repaired is rejected
// with a *processor.TemplateParseError.
func (s *TemplateService) UploadTemplate(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*models.SVGTemplate, []string, error) {
	raw, err := io.ReadAll(io.LimitReader(file, MaxTemplateSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read template: %w", err)
	}
	if len(raw) > MaxTemplateSize {
		return nil, nil, fmt.Errorf("template exceeds %d bytes", MaxTemplateSize)
	}

	doc, err := processor.Sanitize(raw)
	if err != nil {
		return nil, nil, err
	}
	sanitized, err := doc.String()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to serialize template: %w", err)
	}
	placeholders := processor.Discover(sanitized)

	templateID := uuid.New().String()
	filename := filepath.Base(header.Filename)
	rawName := storage.TemplateObjectName(templateID, "raw", filename)
	sanitizedName := storage.TemplateObjectName(templateID, "sanitized", strings.TrimSuffix(filename, filepath.Ext(filename))+".svg")

	result, err := s.store.UploadFile(ctx, bytes.NewReader(raw), rawName, header.Header.Get("Content-Type"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to upload template: %w", err)
	}
	if _, err := s.store.UploadFile(ctx, strings.NewReader(sanitized), sanitizedName, "image/svg+xml"); err != nil {
		s.store.DeleteFile(ctx, rawName)
		return nil, nil, fmt.Errorf("failed to upload sanitized template: %w", err)
	}

	placeholdersJSON, err := json.Marshal(placeholders)
	if err != nil {
		s.deleteObjects(ctx, rawName, sanitizedName)
		return nil, nil, fmt.Errorf("failed to marshal placeholders: %w", err)
	}

	template := &models.SVGTemplate{
		ID:            templateID,
		Filename:      filename,
		OriginalName:  header.Filename,
		DisplayName:   strings.TrimSuffix(filename, filepath.Ext(filename)),
		RawPath:       rawName,
		SanitizedPath: sanitizedName,
		FileSize:      result.Size,
		Placeholders:  datatypes.JSON(placeholdersJSON),
	}
	if err := internal.DB.Create(template).Error; err != nil {
		s.deleteObjects(ctx, rawName, sanitizedName)
		return nil, nil, fmt.Errorf("failed to save template metadata: %w", err)
	}

	if err := s.cache.Set(ctx, templateID, sanitized); err != nil {
		log.Printf("[WARN] failed to cache template %s: %v", templateID, err)
	}
	log.Printf("[INFO] template %s uploaded (%d placeholders)", templateID, len(placeholders))
	return template, placeholders, nil
}

func (s *TemplateService) GetTemplate(templateID string) (*models.SVGTemplate, error) {
	var template models.SVGTemplate
	if err := internal.DB.First(&template, "id = ?", templateID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template %s: %w", templateID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load template: %w", err)
	}
	return &template, nil
}

func (s *TemplateService) GetPlaceholders(templateID string) ([]string, error) {
	template, err := s.GetTemplate(templateID)
	if err != nil {
		return nil, err
	}

	placeholders := []string{}
	if len(template.Placeholders) > 0 {
		if err := json.Unmarshal(template.Placeholders, &placeholders); err != nil {
			return nil, fmt.Errorf("failed to unmarshal placeholders: %w", err)
		}
	}
	return placeholders, nil
}

// GetPlaceholderPositions locates every placeholder occurrence in the
// sanitized template.
func (s *TemplateService) GetPlaceholderPositions(ctx context.Context, templateID string) ([]processor.PlaceholderPosition, error) {
	doc, err := s.LoadSanitized(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return doc.Positions(), nil
}

// LoadSanitized returns the parsed sanitized template, from the cache when
// possible.
func (s *TemplateService) LoadSanitized(ctx context.Context, templateID string) (*processor.Document, error) {
	text, ok, err := s.cache.Get(ctx, templateID)
	if err != nil {
		log.Printf("[WARN] template cache read failed for %s: %v", templateID, err)
	}
	if !ok {
		template, err := s.GetTemplate(templateID)
		if err != nil {
			return nil, err
		}
		rc, err := s.store.ReadFile(ctx, template.SanitizedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read sanitized template: %w", err)
		}
		defer rc.Close()
		data, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("failed to read sanitized template: %w", err)
		}
		text = string(data)
		if err := s.cache.Set(ctx, templateID, text); err != nil {
			log.Printf("[WARN] failed to cache template %s: %v", templateID, err)
		}
	}
	return processor.ParseDocument(text)
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, templateID string) error {
	template, err := s.GetTemplate(templateID)
	if err != nil {
		return err
	}

	s.deleteObjects(ctx, template.RawPath, template.SanitizedPath)
	if err := s.cache.Delete(ctx, templateID); err != nil {
		log.Printf("[WARN] failed to evict template %s from cache: %v", templateID, err)
	}

	// Soft delete from database
	return internal.DB.Delete(template).Error
}

func (s *TemplateService) deleteObjects(ctx context.Context, names ...string) {
	for _, name := range names {
		if err := s.store.DeleteFile(ctx, name); err != nil {
			log.Printf("[WARN] failed to delete object %s: %v", name, err)
		}
	}
}
