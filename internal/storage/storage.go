package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/gallery/internal/models"
)

var ErrNotFound = errors.New("album not found")

// AlbumStore is the persistence contract the handlers depend on.
type AlbumStore interface {
	List() ([]models.Album, error)
	Get(albumID string) (*models.Album, error)
	Create(title string) (*models.Album, error)
	Update(albumID string, update models.AlbumUpdate) (*models.Album, error)
	Delete(albumID string) error
	// AppendImage adds img to the end of the album's gallery. It reports
	// false, without error, when no album has the given ID.
	AppendImage(albumID string, img models.ImageRecord) (bool, error)
	Count() (int, error)
}

// JSONFileStore keeps every album in one JSON array on disk. Each call
// reads the whole file and each mutation rewrites it. A missing or corrupt
// file reads as an empty collection.
type JSONFileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

func NewJSONFileStore(path string) (*JSONFileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte("[]"), 0644); err != nil {
			return nil, fmt.Errorf("failed to seed album store: %w", err)
		}
	}

	return &JSONFileStore{
		path: path,
		now:  time.Now,
	}, nil
}

func (s *JSONFileStore) List() ([]models.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(), nil
}

func (s *JSONFileStore) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.load()), nil
}

func (s *JSONFileStore) Get(albumID string) (*models.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	albums := s.load()
	i := indexOf(albums, albumID)
	if i < 0 {
		return nil, ErrNotFound
	}
	return &albums[i], nil
}

func (s *JSONFileStore) Create(title string) (*models.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	album := models.Album{
		ID:            uuid.NewString(),
		Title:         title,
		ChatHistory:   []models.ChatMessage{},
		GalleryImages: []models.ImageRecord{},
		CreatedAt:     models.NewTimestamp(s.now()),
	}

	albums := append(s.load(), album)
	if err := s.save(albums); err != nil {
		return nil, err
	}
	return &album, nil
}

func (s *JSONFileStore) Update(albumID string, update models.AlbumUpdate) (*models.Album, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	albums := s.load()
	i := indexOf(albums, albumID)
	if i < 0 {
		return nil, ErrNotFound
	}

	update.Apply(&albums[i])
	normalize(&albums[i])
	if err := s.save(albums); err != nil {
		return nil, err
	}

	album := albums[i]
	return &album, nil
}

func (s *JSONFileStore) Delete(albumID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	albums := s.load()
	kept := albums[:0]
	for _, a := range albums {
		if a.ID != albumID {
			kept = append(kept, a)
		}
	}
	return s.save(kept)
}

func (s *JSONFileStore) AppendImage(albumID string, img models.ImageRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	albums := s.load()
	i := indexOf(albums, albumID)
	if i < 0 {
		return false, nil
	}

	albums[i].GalleryImages = append(albums[i].GalleryImages, img)
	if err := s.save(albums); err != nil {
		return false, err
	}
	return true, nil
}

// load must be called with mu held.
func (s *JSONFileStore) load() []models.Album {
	data, err := os.ReadFile(s.path)
	if err != nil {
		slog.Warn("Unable to read album store, treating as empty", "path", s.path, "err", err)
		return []models.Album{}
	}

	var albums []models.Album
	if err := json.Unmarshal(data, &albums); err != nil {
		slog.Warn("Album store is not valid JSON, treating as empty", "path", s.path, "err", err)
		return []models.Album{}
	}
	if albums == nil {
		albums = []models.Album{}
	}
	for i := range albums {
		normalize(&albums[i])
	}
	return albums
}

// save replaces the store file in one rename so readers never see a
// partial write. Must be called with mu held.
func (s *JSONFileStore) save(albums []models.Album) error {
	data, err := json.MarshalIndent(albums, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode albums: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".albums-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp store file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set store file mode: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write albums: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write albums: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace album store: %w", err)
	}
	return nil
}

func indexOf(albums []models.Album, albumID string) int {
	for i := range albums {
		if albums[i].ID == albumID {
			return i
		}
	}
	return -1
}

// normalize keeps both collections serializing as arrays, never null.
func normalize(a *models.Album) {
	if a.ChatHistory == nil {
		a.ChatHistory = []models.ChatMessage{}
	}
	if a.GalleryImages == nil {
		a.GalleryImages = []models.ImageRecord{}
	}
}
