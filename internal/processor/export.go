package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pauljones0/brick-deals/internal/models"
)

// FileExporter writes deals as an indented JSON array in the API wire shape.
type FileExporter struct {
	path string
}

func NewFileExporter(path string) *FileExporter {
	return &FileExporter{path: path}
}

// Export replaces the file atomically so readers never see a partial array.
func (e *FileExporter) Export(deals []models.Record) error {
	raw, err := models.EncodeRecords(deals)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return fmt.Errorf("failed to format export: %w", err)
	}
	buf.WriteByte('\n')

	tmp, err := os.CreateTemp(filepath.Dir(e.path), ".export-*.json")
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write export file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.path); err != nil {
		return fmt.Errorf("failed to move export into place: %w", err)
	}
	return nil
}
