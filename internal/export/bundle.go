package export

import (
	"archive/zip"
	"fmt"
	"io"
	"time"
)

// Artifact is one named output file.
type Artifact struct {
	Name string
	Data []byte
}

// WriteZip writes files into a deflate-compressed ZIP archive.
func WriteZip(w io.Writer, files []Artifact) error {
	zw := zip.NewWriter(w)
	now := time.Now()
	for _, f := range files {
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: now,
		})
		if err != nil {
			return fmt.Errorf("failed to add %s to archive: %w", f.Name, err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			return fmt.Errorf("failed to write %s to archive: %w", f.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}
