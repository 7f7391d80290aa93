package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
)

const (
	maxMultipartMemory = 32 << 20
	// room for form fields and multipart framing on top of the image itself
	multipartOverhead = 1 << 20
)

func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, "No image file provided", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// FormValue also covers title/description/albumId sent as query parameters
	record, err := h.ingester.SaveUpload(
		r.Context(),
		file,
		header.Filename,
		r.FormValue("title"),
		r.FormValue("description"),
		r.FormValue("albumId"),
	)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, record)
}

func (h *Handler) HandleBase64Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUploadBytes > 0 {
		// base64 inflates by 4/3
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes/3*4+multipartOverhead)
	}

	var request struct {
		ImageData   string `json:"imageData"`
		Title       string `json:"title"`
		Description string `json:"description"`
		AlbumID     string `json:"albumId"`
		Objects     any    `json:"objects"`
	}

	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, "Image too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.ingester.SaveBase64(
		r.Context(),
		request.ImageData,
		request.Title,
		request.Description,
		request.AlbumID,
		request.Objects,
	)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	h.writeJSON(w, record)
}
