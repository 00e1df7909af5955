// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"sort"
	"sync"

	"bulletin/internal/config"
	"bulletin/internal/database"
	"bulletin/internal/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TB is the subset of testing.TB the helpers need.
type TB interface {
	Helper()
	Fatalf(string, ...any)
	Cleanup(func())
}

// NewSQLiteDB opens a private in-memory sqlite database with the full schema applied.
func NewSQLiteDB(t TB) *gorm.DB {
	t.Helper()
	cfg := &config.Config{
		Env:        "test",
		DBDriver:   "sqlite",
		SQLitePath: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	}
	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.ApplySchema(context.Background(), db, cfg); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// MemoryStore is an in-memory storage.Store. FailPut makes Put fail for the
// named objects.
type MemoryStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	FailPut map[string]error
}

var _ storage.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte), FailPut: make(map[string]error)}
}

// Backend reports "memory".
func (s *MemoryStore) Backend() string { return "memory" }

// Put stores the bytes of r under name.
func (s *MemoryStore) Put(_ context.Context, name string, r io.Reader, _ int64, _ string) error {
	s.mu.Lock()
	failure := s.FailPut[name]
	s.mu.Unlock()
	if failure != nil {
		return failure
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.objects[name] = data
	s.mu.Unlock()
	return nil
}

// Open returns the bytes stored under name.
func (s *MemoryStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[name]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Remove deletes name.
func (s *MemoryStore) Remove(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[name]; !ok {
		return storage.ErrNotFound
	}
	delete(s.objects, name)
	return nil
}

// Names lists the stored object names in sorted order.
func (s *MemoryStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.objects))
	for n := range s.objects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is stored.
func (s *MemoryStore) Has(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[name]
	return ok
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
