package cmd

import (
	"context"
	"fmt"

	"github.com/lehigh-university-libraries/gallery/internal/blobs"
	"github.com/lehigh-university-libraries/gallery/internal/config"
	"github.com/lehigh-university-libraries/gallery/internal/ingest"
	"github.com/lehigh-university-libraries/gallery/internal/storage"
)

type stores struct {
	albums   *storage.JSONFileStore
	blobs    blobs.Store
	ingester *ingest.Ingester
}

func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	albums, err := storage.NewJSONFileStore(cfg.DataFile)
	if err != nil {
		return nil, err
	}

	var blobStore blobs.Store
	switch cfg.BlobBackend {
	case config.BlobBackendS3:
		blobStore, err = blobs.NewS3(ctx, blobs.S3Config{
			Bucket:          cfg.S3Bucket,
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Prefix:          cfg.S3Prefix,
		})
	default:
		blobStore, err = blobs.NewLocal(cfg.UploadDir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s blob store: %w", cfg.BlobBackend, err)
	}

	return &stores{
		albums: albums,
		blobs:  blobStore,
		ingester: ingest.New(ingest.Config{
			Blobs:    blobStore,
			Albums:   albums,
			BaseURL:  cfg.PublicBaseURL(),
			MaxBytes: cfg.MaxUploadBytes,
		}),
	}, nil
}
