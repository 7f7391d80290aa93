package cmd

import (
	"fmt"
	"log/slog"

	"github.com/lehigh-university-libraries/gallery/internal/config"
	"github.com/lehigh-university-libraries/gallery/internal/ingest"
	"github.com/spf13/cobra"
)

func newImportCmd() *cobra.Command {
	var albumID string
	var workers int

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Bulk-import a directory of images",
		Long: `Stores every image file in a directory exactly as an HTTP upload would,
optionally linking each one into an album's gallery.

Files are picked up by extension (.png, .jpg, .jpeg, .gif, .webp) and are
not recursed into subdirectories.`,
		Example: `  # Import scans into an existing album with 8 workers
  gallery import ./scans --album 3f0c... --workers 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			s, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			if albumID != "" {
				if _, err := s.albums.Get(albumID); err != nil {
					return fmt.Errorf("album %s: %w", albumID, err)
				}
			}

			records, err := ingest.ImportDir(cmd.Context(), s.ingester, args[0], albumID, workers)
			slog.Info("Import finished", "dir", args[0], "album_id", albumID, "imported", len(records))
			for _, rec := range records {
				fmt.Fprintln(cmd.OutOrStdout(), rec.ImageURL)
			}
			return err
		},
	}

	cmd.Flags().StringVar(&albumID, "album", "", "Album ID to link imported images into")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "Number of concurrent imports")

	return cmd
}
