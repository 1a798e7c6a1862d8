// Package library holds the asset library that placements are created from.
// Removing an asset never touches existing placements; they copy what they need.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"storyboard-backend/internal/model"
	"storyboard-backend/internal/storage"
)

// Library 에셋 라이브러리 (삽입 순서 유지)
type Library struct {
	mu     sync.RWMutex
	assets []model.Asset
	newID  func() string
}

// Option configures a Library.
type Option func(*Library)

// WithIDGenerator replaces the uuid based asset id source.
func WithIDGenerator(fn func() string) Option {
	return func(l *Library) { l.newID = fn }
}

// New creates a library holding seed.
func New(seed []model.Asset, opts ...Option) *Library {
	l := &Library{
		newID: func() string { return "asset-" + uuid.New().String() },
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, a := range seed {
		l.Add(a)
	}
	return l
}

// seedFile is the YAML layout of a library seed file.
type seedFile struct {
	Assets []model.Asset `yaml:"assets"`
}

// LoadSeedFile reads assets from a YAML file:
//
//	assets:
//	  - name: Dog
//	    url: https://...
//	    filename: dog.jpg
//	    thumbnail: https://...
func LoadSeedFile(path string) ([]model.Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, a := range f.Assets {
		if a.SourceURL == "" {
			return nil, fmt.Errorf("seed asset %d has no url", i)
		}
	}
	return f.Assets, nil
}

// Samples 기본 샘플 에셋
func Samples() []model.Asset {
	const base = "https://images.unsplash.com/"
	sample := func(id, photo, name, filename string) model.Asset {
		return model.Asset{
			ID:           id,
			SourceURL:    base + photo + "?w=400&h=400&fit=crop",
			DisplayName:  name,
			Filename:     filename,
			ThumbnailURL: base + photo + "?w=100&h=100&fit=crop",
		}
	}
	return []model.Asset{
		sample("asset-1", "photo-1518717758536-85ae29035b6d", "Dog", "dog.jpg"),
		sample("asset-2", "photo-1514888286974-6c03e2ca1dba", "Cat", "cat.jpg"),
		sample("asset-3", "photo-1560807707-8cc77767d783", "Puppy", "puppy.jpg"),
		sample("asset-4", "photo-1543466835-00a7907e9de1", "Golden Retriever", "golden-retriever.jpg"),
		sample("asset-5", "photo-1574158622682-e40e69881006", "Kitten", "kitten.jpg"),
		sample("asset-6", "photo-1587300003388-59208cc962cb", "Fluffy Dog", "fluffy-dog.jpg"),
	}
}

// DisplayName derives a display name from a filename by dropping its extension.
func DisplayName(filename string) string {
	base := filepath.Base(filename)
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}

// Add appends a to the library, filling in a missing id, name and thumbnail.
func (l *Library) Add(a model.Asset) model.Asset {
	l.mu.Lock()
	defer l.mu.Unlock()

	if a.ID == "" || l.indexLocked(a.ID) >= 0 {
		a.ID = l.newID()
	}
	if a.DisplayName == "" {
		a.DisplayName = DisplayName(a.Filename)
	}
	if a.ThumbnailURL == "" {
		a.ThumbnailURL = a.SourceURL
	}
	l.assets = append(l.assets, a)
	return a
}

// AddUpload registers a stored upload. originalName is the name the client sent.
func (l *Library) AddUpload(originalName string, f *storage.StoredFile) model.Asset {
	return l.Add(model.Asset{
		SourceURL:    f.URL,
		DisplayName:  DisplayName(originalName),
		Filename:     f.Filename,
		ThumbnailURL: f.ThumbnailURL,
	})
}

// Remove deletes the asset with id. It reports whether one was removed.
func (l *Library) Remove(id string) (model.Asset, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexLocked(id)
	if i < 0 {
		return model.Asset{}, false
	}
	a := l.assets[i]
	l.assets = append(l.assets[:i], l.assets[i+1:]...)
	return a, true
}

// Get looks up an asset by id.
func (l *Library) Get(id string) (model.Asset, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if i := l.indexLocked(id); i >= 0 {
		return l.assets[i], true
	}
	return model.Asset{}, false
}

// List returns a copy of the library in insertion order.
func (l *Library) List() []model.Asset {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.Asset, len(l.assets))
	copy(out, l.assets)
	return out
}

// Len 에셋 개수
func (l *Library) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.assets)
}

func (l *Library) indexLocked(id string) int {
	for i := range l.assets {
		if l.assets[i].ID == id {
			return i
		}
	}
	return -1
}
