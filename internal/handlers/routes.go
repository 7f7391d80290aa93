package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/rs/cors"
)

// Routes builds the full HTTP surface, CORS included.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.HandleRoot)
	r.Get("/health", h.HandleHealth)

	r.Route("/api", func(r chi.Router) {
		if h.rateLimitPerMinute > 0 {
			r.Use(httprate.Limit(
				h.rateLimitPerMinute,
				1*time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP, httprate.KeyByEndpoint),
			))
		}

		r.Get("/albums", h.HandleListAlbums)
		r.Post("/albums", h.HandleCreateAlbum)
		r.Get("/albums/{albumID}", h.HandleGetAlbum)
		r.Put("/albums/{albumID}", h.HandleUpdateAlbum)
		r.Delete("/albums/{albumID}", h.HandleDeleteAlbum)

		r.Post("/images/upload", h.HandleUpload)
		r.Post("/images/base64", h.HandleBase64Upload)
		r.Get("/images/{filename}", h.HandleImage)
	})

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(r)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Info("request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
