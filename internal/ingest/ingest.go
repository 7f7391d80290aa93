package ingest

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/gallery/internal/blobs"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/storage"
)

const (
	DefaultExtension = "png"
	ImagePathPrefix  = "/api/images/"
)

var (
	ErrEmptyImage = errors.New("no image data provided")
	ErrTooLarge   = errors.New("image too large")
	ErrDecode     = errors.New("failed to decode base64 image")
)

// Ingester is the only code path that writes images. It assigns IDs,
// stores the bytes, and links the resulting record into an album.
type Ingester struct {
	blobs    blobs.Store
	albums   storage.AlbumStore
	baseURL  string
	maxBytes int64
	now      func() time.Time
}

type Config struct {
	Blobs    blobs.Store
	Albums   storage.AlbumStore
	BaseURL  string // absolute, e.g. http://localhost:8001
	MaxBytes int64  // 0 means unlimited
}

func New(cfg Config) *Ingester {
	return &Ingester{
		blobs:    cfg.Blobs,
		albums:   cfg.Albums,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		maxBytes: cfg.MaxBytes,
		now:      time.Now,
	}
}

// SaveUpload stores an uploaded file stream. The title falls back to the
// original filename.
func (in *Ingester) SaveUpload(ctx context.Context, r io.Reader, originalFilename, title, description, albumID string) (*models.ImageRecord, error) {
	if r == nil {
		return nil, ErrEmptyImage
	}

	reader := r
	if in.maxBytes > 0 {
		reader = io.LimitReader(r, in.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file contents: %w", err)
	}
	if in.maxBytes > 0 && int64(len(data)) > in.maxBytes {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, in.maxBytes)
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}

	if title == "" {
		title = originalFilename
	}

	return in.save(ctx, data, ExtensionFor(originalFilename), title, description, albumID, nil)
}

// SaveBase64 stores a base64 payload, with or without a data URL prefix.
func (in *Ingester) SaveBase64(ctx context.Context, imageData, title, description, albumID string, objects any) (*models.ImageRecord, error) {
	if imageData == "" {
		return nil, ErrEmptyImage
	}

	data, err := DecodeBase64(imageData)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if in.maxBytes > 0 && int64(len(data)) > in.maxBytes {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, in.maxBytes)
	}

	return in.save(ctx, data, DefaultExtension, title, description, albumID, objects)
}

func (in *Ingester) save(ctx context.Context, data []byte, ext, title, description, albumID string, objects any) (*models.ImageRecord, error) {
	id := uuid.NewString()
	filename := id + "." + ext

	if err := in.blobs.Put(ctx, filename, data, ContentType(filename, data)); err != nil {
		return nil, err
	}

	record := &models.ImageRecord{
		ID:          id,
		Title:       title,
		Description: description,
		ImageURL:    in.ImageURL(filename),
		Filename:    filename,
		CreatedAt:   models.NewTimestamp(in.now()),
	}
	if !isEmptyValue(objects) {
		record.Objects = objects
	}

	if albumID != "" {
		linked, err := in.albums.AppendImage(albumID, *record)
		if err != nil {
			return nil, fmt.Errorf("failed to link image to album %s: %w", albumID, err)
		}
		if !linked {
			slog.Info("Album not found, image stored unlinked", "album_id", albumID, "filename", filename)
		}
	}

	slog.Info("Image stored", "id", id, "filename", filename, "album_id", albumID, "bytes", len(data))
	return record, nil
}

// isEmptyValue reports whether a decoded JSON value carries nothing worth
// storing: null, false, zero, "", [] or {}.
func isEmptyValue(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case bool:
		return !x
	case float64:
		return x == 0
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

// ImageURL is the public URL an image is served from.
func (in *Ingester) ImageURL(filename string) string {
	return in.baseURL + ImagePathPrefix + filename
}

// Absolutize prefixes a root-relative URL with the base URL. Anything
// else, including data URLs and absolute URLs, is returned unchanged.
func (in *Ingester) Absolutize(u string) string {
	if strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") {
		return in.baseURL + u
	}
	return u
}

// AbsolutizeUpdate rewrites every image URL carried by an album update so
// no root-relative path is ever persisted.
func (in *Ingester) AbsolutizeUpdate(u *models.AlbumUpdate) {
	if u.GalleryImages != nil {
		for i := range *u.GalleryImages {
			img := &(*u.GalleryImages)[i]
			img.ImageURL = in.Absolutize(img.ImageURL)
		}
	}

	if u.ChatHistory == nil {
		return
	}
	for i := range *u.ChatHistory {
		msg := &(*u.ChatHistory)[i]
		for j := range msg.ImageURLs {
			msg.ImageURLs[j] = in.Absolutize(msg.ImageURLs[j])
		}
		if msg.SourceImageURL != nil {
			abs := in.Absolutize(*msg.SourceImageURL)
			msg.SourceImageURL = &abs
		}
		for _, v := range msg.Variations {
			if s, ok := v["imageUrl"].(string); ok {
				v["imageUrl"] = in.Absolutize(s)
			}
		}
	}
}

// DecodeBase64 strips an optional data URL prefix ("data:image/png;base64,")
// and decodes the rest.
func DecodeBase64(s string) ([]byte, error) {
	if i := strings.Index(s, ","); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSpace(s)

	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some clients drop the padding.
		if raw, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
			return raw, nil
		}
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return data, nil
}

// ExtensionFor returns the text after the last dot of filename, reduced to
// letters and digits, or DefaultExtension.
func ExtensionFor(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return DefaultExtension
	}

	ext := strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, filename[i+1:])
	if ext == "" {
		return DefaultExtension
	}
	return ext
}

// ContentType picks a MIME type from the file extension, falling back to
// sniffing the bytes.
func ContentType(filename string, data []byte) string {
	if i := strings.LastIndex(filename, "."); i >= 0 {
		if ct := mime.TypeByExtension(strings.ToLower(filename[i:])); ct != "" {
			return ct
		}
	}
	return http.DetectContentType(data)
}
