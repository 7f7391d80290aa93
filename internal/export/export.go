package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// GalleryRow is one gallery image flattened with its album for tabular export
type GalleryRow struct {
	AlbumID     string `parquet:"album_id"`
	AlbumTitle  string `parquet:"album_title"`
	ImageID     string `parquet:"image_id"`
	Title       string `parquet:"title"`
	Description string `parquet:"description"`
	ImageURL    string `parquet:"image_url"`
	Filename    string `parquet:"filename"`
	CreatedAt   string `parquet:"created_at"`
}

// Format picks an export format from an explicit name or the output
// file extension.
func Format(format, outputPath string) (string, error) {
	if format == "" {
		format = strings.TrimPrefix(strings.ToLower(filepath.Ext(outputPath)), ".")
	}

	switch format {
	case "yaml", "yml":
		return "yaml", nil
	case "parquet":
		return "parquet", nil
	case "":
		return "yaml", nil
	default:
		return "", fmt.Errorf("unsupported export format: %s (supported: yaml, parquet)", format)
	}
}

// YAML writes the whole album collection as a YAML document
func YAML(w io.Writer, albums []models.Album) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(albums); err != nil {
		return fmt.Errorf("failed to encode albums as YAML: %w", err)
	}
	return enc.Close()
}

// Rows flattens every album's gallery, preserving album and gallery order
func Rows(albums []models.Album) []GalleryRow {
	var rows []GalleryRow
	for _, a := range albums {
		for _, img := range a.GalleryImages {
			rows = append(rows, GalleryRow{
				AlbumID:     a.ID,
				AlbumTitle:  a.Title,
				ImageID:     img.ID,
				Title:       img.Title,
				Description: img.Description,
				ImageURL:    img.ImageURL,
				Filename:    img.Filename,
				CreatedAt:   img.CreatedAt.UTC().Format(time.RFC3339Nano),
			})
		}
	}
	return rows
}

// Parquet writes one row per gallery image to path
func Parquet(path string, albums []models.Album) (int, error) {
	rows := Rows(albums)
	if err := parquet.WriteFile(path, rows); err != nil {
		return 0, fmt.Errorf("failed to write parquet file: %w", err)
	}
	return len(rows), nil
}
