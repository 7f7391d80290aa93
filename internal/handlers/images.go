package handlers

import (
	"bufio"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/lehigh-university-libraries/gallery/internal/blobs"
	"github.com/lehigh-university-libraries/gallery/internal/ingest"
)

// sniffLen is how much of a blob http.DetectContentType looks at.
const sniffLen = 512

func (h *Handler) HandleImage(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")

	// Prevent directory traversal attacks
	if err := blobs.ValidateName(filename); err != nil {
		h.writeError(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	rc, err := h.blobStore.Open(r.Context(), filename)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	defer rc.Close()

	// Images are embedded directly by browser clients on other origins
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// Local files get ranges, Content-Length and conditional requests
	if f, ok := rc.(*os.File); ok {
		info, err := f.Stat()
		if err != nil {
			h.writeError(w, "Failed to read image: "+err.Error(), http.StatusInternalServerError)
			return
		}
		// ServeContent types by extension, then by sniffing, like ingest.ContentType
		http.ServeContent(w, r, filename, info.ModTime(), f)
		return
	}

	br := bufio.NewReaderSize(rc, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF {
		h.writeError(w, "Failed to read image: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ingest.ContentType(filename, head))
	if _, err := io.Copy(w, br); err != nil {
		slog.Error("Unable to write image", "filename", filename, "err", err)
	}
}
