package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

var ErrNotFound = errors.New("object not found")

type UploadResult struct {
	ObjectName string `json:"object_name"`
	PublicURL  string `json:"public_url"`
	Size       int64  `json:"size"`
}

// Store holds template sources and batch bundles.
type Store interface {
	UploadFile(ctx context.Context, reader io.Reader, objectName, contentType string) (*UploadResult, error)
	ReadFile(ctx context.Context, objectName string) (io.ReadCloser, error)
	DeleteFile(ctx context.Context, objectName string) error
	Close() error
}

// URLSigner is implemented by stores that can hand out time-limited
// download links.
type URLSigner interface {
	GetSignedURL(objectName string, expiry time.Duration) (string, error)
}

// TemplateObjectName names a stored template file; kind is "raw" or
// "sanitized".
func TemplateObjectName(templateID, kind, filename string) string {
	return fmt.Sprintf("templates/%s/%s/%d_%s", templateID, kind, time.Now().Unix(), filename)
}

func BatchObjectName(batchID string) string {
	return fmt.Sprintf("batches/%s/bundle.zip", batchID)
}

const (
	KindTemplate = "template"
	KindBatch    = "batch"
	KindOther    = "other"
)

// ObjectKind classifies an object name produced by TemplateObjectName or
// BatchObjectName.
func ObjectKind(objectName string) string {
	switch {
	case strings.HasPrefix(objectName, "templates/"):
		return KindTemplate
	case strings.HasPrefix(objectName, "batches/"):
		return KindBatch
	default:
		return KindOther
	}
}
