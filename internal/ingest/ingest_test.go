package ingest

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/gallery/internal/blobs"
	"github.com/lehigh-university-libraries/gallery/internal/models"
	"github.com/lehigh-university-libraries/gallery/internal/storage"
)

type fixture struct {
	ingester  *Ingester
	albums    *storage.JSONFileStore
	uploadDir string
}

func newFixture(t *testing.T, maxBytes int64) fixture {
	t.Helper()
	dir := t.TempDir()
	uploadDir := filepath.Join(dir, "uploads")

	local, err := blobs.NewLocal(uploadDir)
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	albums, err := storage.NewJSONFileStore(filepath.Join(dir, "data", "albums.json"))
	if err != nil {
		t.Fatalf("NewJSONFileStore: %v", err)
	}

	return fixture{
		ingester: New(Config{
			Blobs:    local,
			Albums:   albums,
			BaseURL:  "http://localhost:8001/",
			MaxBytes: maxBytes,
		}),
		albums:    albums,
		uploadDir: uploadDir,
	}
}

func (f fixture) files(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.uploadDir)
	if err != nil {
		t.Fatal(err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		filename string
		expected string
	}{
		{"photo.jpg", "jpg"},
		{"archive.tar.gz", "gz"},
		{"SCAN.PNG", "PNG"},
		{"noext", "png"},
		{"", "png"},
		{"trailing.", "png"},
		{"weird.j/pg", "jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := ExtensionFor(tt.filename); got != tt.expected {
				t.Errorf("ExtensionFor(%q) = %q, expected %q", tt.filename, got, tt.expected)
			}
		})
	}
}

func TestDecodeBase64(t *testing.T) {
	raw := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	encoded := base64.StdEncoding.EncodeToString(raw)

	tests := []struct {
		name  string
		input string
	}{
		{name: "plain", input: encoded},
		{name: "data url prefix", input: "data:image/png;base64," + encoded},
		{name: "missing padding", input: strings.TrimRight(base64.StdEncoding.EncodeToString([]byte("ab")), "=")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeBase64(tt.input)
			if err != nil {
				t.Fatalf("DecodeBase64: %v", err)
			}
			if tt.name == "missing padding" {
				if string(got) != "ab" {
					t.Errorf("Expected %q, got %q", "ab", got)
				}
				return
			}
			if !bytes.Equal(got, raw) {
				t.Errorf("Expected %v, got %v", raw, got)
			}
		})
	}

	if _, err := DecodeBase64("data:image/png;base64,!!!not-base64!!!"); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
}

func TestSaveUploadLinksIntoAlbum(t *testing.T) {
	f := newFixture(t, 0)
	album, _ := f.albums.Create("trip")

	rec, err := f.ingester.SaveUpload(context.Background(), strings.NewReader("jpeg bytes"), "sunset.jpg", "", "golden hour", album.ID)
	if err != nil {
		t.Fatalf("SaveUpload: %v", err)
	}

	if rec.Filename != rec.ID+".jpg" {
		t.Errorf("Expected filename %s.jpg, got %s", rec.ID, rec.Filename)
	}
	if rec.ImageURL != "http://localhost:8001/api/images/"+rec.Filename {
		t.Errorf("Unexpected image URL %s", rec.ImageURL)
	}
	if rec.Title != "sunset.jpg" {
		t.Errorf("Expected title to default to filename, got %q", rec.Title)
	}
	if rec.Description != "golden hour" {
		t.Errorf("Expected description to be kept, got %q", rec.Description)
	}

	data, err := os.ReadFile(filepath.Join(f.uploadDir, rec.Filename))
	if err != nil || string(data) != "jpeg bytes" {
		t.Errorf("Expected stored bytes, got %q, %v", data, err)
	}

	got, _ := f.albums.Get(album.ID)
	if len(got.GalleryImages) != 1 || got.GalleryImages[0].ID != rec.ID {
		t.Errorf("Expected image linked into album, got %+v", got.GalleryImages)
	}
}

func TestSaveUploadOrphan(t *testing.T) {
	f := newFixture(t, 0)

	rec, err := f.ingester.SaveUpload(context.Background(), strings.NewReader("x"), "a.gif", "", "", "no-such-album")
	if err != nil {
		t.Fatalf("Expected orphan upload to succeed, got %v", err)
	}
	if len(f.files(t)) != 1 {
		t.Errorf("Expected orphan image on disk")
	}
	if n, _ := f.albums.Count(); n != 0 {
		t.Errorf("Expected no albums, got %d", n)
	}
	if rec.Title != "a.gif" {
		t.Errorf("Unexpected title %q", rec.Title)
	}
}

func TestSaveUploadRejectsEmptyAndOversized(t *testing.T) {
	f := newFixture(t, 4)
	ctx := context.Background()

	if _, err := f.ingester.SaveUpload(ctx, strings.NewReader(""), "a.png", "", "", ""); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage, got %v", err)
	}
	if _, err := f.ingester.SaveUpload(ctx, strings.NewReader("12345"), "a.png", "", "", ""); !errors.Is(err, ErrTooLarge) {
		t.Errorf("Expected ErrTooLarge, got %v", err)
	}
	if files := f.files(t); len(files) != 0 {
		t.Errorf("Expected no files written, found %v", files)
	}
}

func TestSaveBase64(t *testing.T) {
	f := newFixture(t, 0)
	album, _ := f.albums.Create("generated")
	raw := []byte("pretend png")
	objects := []any{map[string]any{"label": "cat", "score": 0.9}}

	rec, err := f.ingester.SaveBase64(context.Background(),
		"data:image/png;base64,"+base64.StdEncoding.EncodeToString(raw),
		"Variation 1", "a cat", album.ID, objects)
	if err != nil {
		t.Fatalf("SaveBase64: %v", err)
	}

	if !strings.HasSuffix(rec.Filename, ".png") {
		t.Errorf("Expected png extension, got %s", rec.Filename)
	}
	if rec.Objects == nil {
		t.Error("Expected objects to be carried on the record")
	}

	rc, err := f.ingester.blobs.Open(context.Background(), rec.Filename)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	stored, _ := io.ReadAll(rc)
	if !bytes.Equal(stored, raw) {
		t.Errorf("Expected decoded bytes %q, got %q", raw, stored)
	}

	got, _ := f.albums.Get(album.ID)
	if len(got.GalleryImages) != 1 || got.GalleryImages[0].Title != "Variation 1" {
		t.Errorf("Expected base64 image in gallery, got %+v", got.GalleryImages)
	}
}

func TestSaveBase64DropsEmptyObjects(t *testing.T) {
	f := newFixture(t, 0)
	album, _ := f.albums.Create("plain")
	payload := base64.StdEncoding.EncodeToString([]byte("pretend png"))

	tests := []struct {
		name    string
		objects any
	}{
		{name: "empty list", objects: []any{}},
		{name: "empty object", objects: map[string]any{}},
		{name: "null", objects: nil},
		{name: "false", objects: false},
		{name: "empty string", objects: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := f.ingester.SaveBase64(context.Background(), payload, "", "", album.ID, tt.objects)
			if err != nil {
				t.Fatalf("SaveBase64: %v", err)
			}
			if rec.Objects != nil {
				t.Errorf("Expected objects dropped, got %#v", rec.Objects)
			}
			out, _ := json.Marshal(rec)
			if strings.Contains(string(out), `"objects"`) {
				t.Errorf("Expected no objects key, got %s", out)
			}
		})
	}

	got, _ := f.albums.Get(album.ID)
	for _, img := range got.GalleryImages {
		if img.Objects != nil {
			t.Errorf("Expected stored image without objects, got %#v", img.Objects)
		}
	}
}

func TestSaveBase64Errors(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	if _, err := f.ingester.SaveBase64(ctx, "", "", "", "", nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage, got %v", err)
	}
	if _, err := f.ingester.SaveBase64(ctx, "data:image/png;base64,", "", "", "", nil); !errors.Is(err, ErrEmptyImage) {
		t.Errorf("Expected ErrEmptyImage for empty payload after prefix, got %v", err)
	}
	if _, err := f.ingester.SaveBase64(ctx, "%%%", "", "", "", nil); !errors.Is(err, ErrDecode) {
		t.Errorf("Expected ErrDecode, got %v", err)
	}
	if files := f.files(t); len(files) != 0 {
		t.Errorf("Expected no files written, found %v", files)
	}
}

func TestAbsolutizeUpdate(t *testing.T) {
	f := newFixture(t, 0)
	source := "/api/images/src.png"
	gallery := []models.ImageRecord{
		{ID: "1", ImageURL: "/api/images/1.png"},
		{ID: "2", ImageURL: "https://cdn.example.com/2.png"},
	}
	history := []models.ChatMessage{{
		Role:           "model",
		ImageURLs:      []string{"/api/images/3.png", "data:image/png;base64,AAAA"},
		SourceImageURL: &source,
		Variations:     []map[string]any{{"imageUrl": "/api/images/4.png"}},
	}}
	update := models.AlbumUpdate{GalleryImages: &gallery, ChatHistory: &history}

	f.ingester.AbsolutizeUpdate(&update)

	checks := []struct{ got, want string }{
		{gallery[0].ImageURL, "http://localhost:8001/api/images/1.png"},
		{gallery[1].ImageURL, "https://cdn.example.com/2.png"},
		{history[0].ImageURLs[0], "http://localhost:8001/api/images/3.png"},
		{history[0].ImageURLs[1], "data:image/png;base64,AAAA"},
		{*history[0].SourceImageURL, "http://localhost:8001/api/images/src.png"},
		{history[0].Variations[0]["imageUrl"].(string), "http://localhost:8001/api/images/4.png"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("Expected %s, got %s", c.want, c.got)
		}
	}
}
