package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/gallery/internal/blobs"
	"github.com/lehigh-university-libraries/gallery/internal/ingest"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/storage"
)

type Handler struct {
	albumStore         storage.AlbumStore
	blobStore          blobs.Store
	ingester           *ingest.Ingester
	maxUploadBytes     int64
	rateLimitPerMinute int
}

type Config struct {
	Albums             storage.AlbumStore
	Blobs              blobs.Store
	Ingester           *ingest.Ingester
	MaxUploadBytes     int64
	RateLimitPerMinute int
}

func New(cfg Config) *Handler {
	return &Handler{
		albumStore:         cfg.Albums,
		blobStore:          cfg.Blobs,
		ingester:           cfg.Ingester,
		maxUploadBytes:     cfg.MaxUploadBytes,
		rateLimitPerMinute: cfg.RateLimitPerMinute,
	}
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type messageResponse struct {
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message, "status", code)
	} else {
		slog.Warn(message, "status", code)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(errorResponse{Detail: message}); err != nil {
		slog.Error("Unable to encode error response", "err", err)
	}
}

// writeServiceError maps store, blob, and ingest errors onto HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		h.writeError(w, "Album not found", http.StatusNotFound)
	case errors.Is(err, blobs.ErrNotFound):
		h.writeError(w, "Image not found", http.StatusNotFound)
	case errors.Is(err, ingest.ErrEmptyImage), errors.Is(err, blobs.ErrInvalidName):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ingest.ErrTooLarge):
		h.writeError(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

// Album helpers
func (h *Handler) getAlbumOrError(w http.ResponseWriter, albumID string) (*models.Album, bool) {
	album, err := h.albumStore.Get(albumID)
	if err != nil {
		h.writeServiceError(w, err)
		return nil, false
	}
	return album, true
}
