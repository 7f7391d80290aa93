package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/alitto/pond/v2"
	"github.com/lehigh-university-libraries/gallery/internal/models"
)

var importExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
}

// ImportDir runs every image file directly inside dir through SaveUpload on
// a worker pool. It returns the records that were stored, in directory
// order, along with the joined errors of any files that failed.
func ImportDir(ctx context.Context, in *Ingester, dir, albumID string, workers int) ([]models.ImageRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read import directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !importExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	if len(paths) == 0 {
		slog.Warn("No images found to import", "dir", dir)
		return nil, nil
	}

	if workers < 1 {
		workers = 1
	}
	pool := pond.NewPool(workers, pond.WithContext(ctx))
	defer pool.StopAndWait()

	var (
		mu      sync.Mutex
		errs    []error
		results = make([]*models.ImageRecord, len(paths))
	)

	group := pool.NewGroup()
	for i, path := range paths {
		group.Submit(func() {
			rec, err := importFile(ctx, in, path, albumID)
			if err != nil {
				slog.Error("Failed to import image", "path", path, "error", err)
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
				mu.Unlock()
				return
			}
			results[i] = rec
		})
	}
	if err := group.Wait(); err != nil {
		errs = append(errs, err)
	}

	records := make([]models.ImageRecord, 0, len(results))
	for _, rec := range results {
		if rec != nil {
			records = append(records, *rec)
		}
	}
	return records, errors.Join(errs...)
}

func importFile(ctx context.Context, in *Ingester, path, albumID string) (*models.ImageRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := filepath.Base(path)
	title := strings.TrimSuffix(name, filepath.Ext(name))
	return in.SaveUpload(ctx, f, name, title, "", albumID)
}
