package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/lehigh-university-libraries/gallery/internal/config"
	"github.com/lehigh-university-libraries/gallery/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		host    string
		port    int
		baseURL string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the gallery HTTP API",
		Long: `Starts the gallery HTTP API.

Albums are read from and written to ALBUMS_DB; uploaded images go to the
configured blob store and are served back from /api/images/{filename}.
Every image URL handed out is absolute, built from BASE_URL.`,
		Example: `  # Start server on default port 8001
  gallery serve

  # Serve behind a public hostname
  gallery serve --port 3000 --base-url https://gallery.example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("base-url") {
				cfg.BaseURL = baseURL
			}

			s, err := openStores(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			handler := handlers.New(handlers.Config{
				Albums:             s.albums,
				Blobs:              s.blobs,
				Ingester:           s.ingester,
				MaxUploadBytes:     cfg.MaxUploadBytes,
				RateLimitPerMinute: cfg.RateLimitPerMinute,
			})

			addr := cfg.Addr()
			server := &http.Server{
				Addr:              addr,
				Handler:           handler.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Gallery API available",
					"addr", addr,
					"base_url", cfg.PublicBaseURL(),
					"albums_db", cfg.DataFile,
					"blob_backend", cfg.BlobBackend,
				)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Interface to bind (overrides HOST)")
	cmd.Flags().IntVarP(&port, "port", "p", 8001, "Port to listen on (overrides PORT)")
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Public base URL for image links (overrides BASE_URL)")

	return cmd
}
