package contentserver

import (
	"errors"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-editors/pkg/model"
)

var (
	// ErrEmptyUpload is returned when an uploaded file has no content.
	ErrEmptyUpload = errors.New("contentserver: empty upload")
	// ErrMissingID is returned when a record is stored without an id.
	ErrMissingID = errors.New("contentserver: record without id")
)

// AssetPrefix is the path segment asset files are served under.
const AssetPrefix = "assets"

// Asset is an uploaded file.
type Asset struct {
	ID          int       `json:"id"`
	Path        string    `json:"path"`
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Key is the storage key of the asset file.
func (a Asset) Key() string {
	return path.Base(a.Path)
}

// Store keeps assets and model records in memory.
type Store struct {
	mu      sync.RWMutex
	nextID  int
	assets  []Asset
	files   map[string][]byte
	records map[string]map[string]model.Record
	now     func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		nextID:  1,
		files:   make(map[string][]byte),
		records: make(map[string]map[string]model.Record),
		now:     time.Now,
	}
}

// AddAsset stores data under a fresh storage key and returns the new asset.
func (s *Store) AddAsset(name, contentType string, data []byte) (Asset, error) {
	if len(data) == 0 {
		return Asset{}, ErrEmptyUpload
	}
	key := uuid.NewString() + strings.ToLower(path.Ext(name))

	s.mu.Lock()
	defer s.mu.Unlock()

	asset := Asset{
		ID:          s.nextID,
		Path:        AssetPrefix + "/" + key,
		Name:        path.Base(name),
		ContentType: contentType,
		Size:        len(data),
		CreatedAt:   s.now().UTC(),
	}
	s.nextID++
	s.assets = append(s.assets, asset)
	s.files[key] = append([]byte(nil), data...)
	return asset, nil
}

// Asset looks up an asset by id.
func (s *Store) Asset(id int) (Asset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, asset := range s.assets {
		if asset.ID == id {
			return asset, true
		}
	}
	return Asset{}, false
}

// File returns the stored bytes and content type for a storage key.
func (s *Store) File(key string) ([]byte, string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.files[key]
	if !ok {
		return nil, "", false
	}
	for _, asset := range s.assets {
		if asset.Key() == key {
			return data, asset.ContentType, true
		}
	}
	return data, "", true
}

// ListAssets returns one page of assets, newest first, whose name contains
// search (case-insensitive), plus the number of matches.
func (s *Store) ListAssets(page, size int, search string) ([]Asset, int) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = 1
	}
	needle := strings.ToLower(strings.TrimSpace(search))

	s.mu.RLock()
	matches := make([]Asset, 0, len(s.assets))
	for i := len(s.assets) - 1; i >= 0; i-- {
		asset := s.assets[i]
		if needle != "" && !strings.Contains(strings.ToLower(asset.Name), needle) {
			continue
		}
		matches = append(matches, asset)
	}
	s.mu.RUnlock()

	start := page * size
	if start >= len(matches) {
		return []Asset{}, len(matches)
	}
	end := start + size
	if end > len(matches) {
		end = len(matches)
	}
	return matches[start:end], len(matches)
}

// PutRecord stores rec under its id for the model slug.
func (s *Store) PutRecord(slug string, rec model.Record) error {
	id := rec.ID()
	if id == "" {
		return ErrMissingID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	byID, ok := s.records[slug]
	if !ok {
		byID = make(map[string]model.Record)
		s.records[slug] = byID
	}
	byID[id] = rec.Clone()
	return nil
}

// Record looks up a stored record.
func (s *Store) Record(slug, id string) (model.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[slug][id]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}
