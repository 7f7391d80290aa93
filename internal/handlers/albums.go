package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/lehigh-university-libraries/gallery/internal/models"
)

func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, messageResponse{Message: "Gallery backend is running", Status: "ok"})
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	count, err := h.albumStore.Count()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, map[string]any{
		"status":       "healthy",
		"albums_count": count,
	})
}

func (h *Handler) HandleListAlbums(w http.ResponseWriter, r *http.Request) {
	albums, err := h.albumStore.List()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	slog.Debug("Returning albums", "count", len(albums))
	h.writeJSON(w, albums)
}

func (h *Handler) HandleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Title *string `json:"title"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	if request.Title == nil {
		h.writeError(w, "title is required", http.StatusBadRequest)
		return
	}

	album, err := h.albumStore.Create(*request.Title)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	slog.Info("Album created", "album_id", album.ID, "title", album.Title)
	h.writeJSON(w, album)
}

func (h *Handler) HandleGetAlbum(w http.ResponseWriter, r *http.Request) {
	album, ok := h.getAlbumOrError(w, chi.URLParam(r, "albumID"))
	if !ok {
		return
	}
	h.writeJSON(w, album)
}

func (h *Handler) HandleUpdateAlbum(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumID")

	var update models.AlbumUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	h.ingester.AbsolutizeUpdate(&update)

	album, err := h.albumStore.Update(albumID, update)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	slog.Info("Album updated", "album_id", albumID)
	h.writeJSON(w, album)
}

func (h *Handler) HandleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	albumID := chi.URLParam(r, "albumID")

	if err := h.albumStore.Delete(albumID); err != nil {
		h.writeServiceError(w, err)
		return
	}

	slog.Info("Album deleted", "album_id", albumID)
	h.writeJSON(w, messageResponse{Message: "Album deleted"})
}
