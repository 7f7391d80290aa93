package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/gallery/internal/config"
	"github.com/lehigh-university-libraries/gallery/internal/export"
	"github.com/lehigh-university-libraries/gallery/internal/storage"
	"github.com/spf13/cobra"
)

func newExportCmd() *cobra.Command {
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export albums as YAML or gallery images as Parquet",
		Long: `Reads the album store and writes it out in another format.

yaml     the full album collection, chat history included
parquet  one row per gallery image, flattened with its album`,
		Example: `  # Print every album as YAML
  gallery export

  # Write a gallery table for analysis
  gallery export --output gallery.parquet`,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := export.Format(format, output)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			albums, err := storage.NewJSONFileStore(cfg.DataFile)
			if err != nil {
				return err
			}
			list, err := albums.List()
			if err != nil {
				return err
			}

			switch kind {
			case "parquet":
				if output == "" {
					return fmt.Errorf("--output is required for parquet exports")
				}
				n, err := export.Parquet(output, list)
				if err != nil {
					return err
				}
				slog.Info("Exported gallery images", "rows", n, "path", output)
				return nil
			default:
				w := cmd.OutOrStdout()
				if output != "" {
					f, err := os.Create(output)
					if err != nil {
						return fmt.Errorf("failed to create output file: %w", err)
					}
					defer f.Close()
					w = f
				}
				if err := export.YAML(w, list); err != nil {
					return err
				}
				slog.Info("Exported albums", "albums", len(list), "path", output)
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Export format: yaml or parquet (default: from --output extension, else yaml)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout for yaml)")

	return cmd
}
