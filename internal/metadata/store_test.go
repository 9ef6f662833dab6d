package metadata

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixelshelf/backend/internal/domain"
	"github.com/pixelshelf/backend/internal/storage"
)

// mockObjectStore is a map-backed ObjectStorage for tests.
type mockObjectStore struct {
	objects      map[string][]byte
	contentTypes map[string]string
}

func newMockObjectStore() *mockObjectStore {
	return &mockObjectStore{
		objects:      make(map[string][]byte),
		contentTypes: make(map[string]string),
	}
}

func (m *mockObjectStore) List(_ context.Context) ([]string, error) {
	names := make([]string, 0, len(m.objects))
	for name := range m.objects {
		names = append(names, name)
	}
	return names, nil
}

func (m *mockObjectStore) Upload(_ context.Context, localPath, contentType string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", err
	}
	name := filepath.Base(localPath)
	m.objects[name] = data
	m.contentTypes[name] = contentType
	return name, nil
}

func (m *mockObjectStore) UploadBytes(_ context.Context, name string, data []byte, contentType string) error {
	m.objects[name] = data
	m.contentTypes[name] = contentType
	return nil
}

func (m *mockObjectStore) Download(_ context.Context, name string) ([]byte, error) {
	data, ok := m.objects[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, storage.ErrNotFound)
	}
	return data, nil
}

func (m *mockObjectStore) Exists(_ context.Context, name string) (bool, error) {
	_, ok := m.objects[name]
	return ok, nil
}

func TestDocumentName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cat.jpg", "cat.json"},
		{"cat.jpeg", "cat.json"},
		{"CAT.JPG", "CAT.json"},
		{"my.holiday.photo.jpg", "my.holiday.photo.json"},
		{"noextension", "noextension.json"},
	}

	for _, tt := range tests {
		if got := DocumentName(tt.in); got != tt.want {
			t.Errorf("DocumentName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newMockObjectStore()
	docs := NewStore(store)
	ctx := context.Background()

	before := time.Now().Unix()
	ann := domain.Annotation{Title: "Cat", Description: "A cat."}

	docName, err := docs.Save(ctx, ann, "cat.jpg")
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if docName != "cat.json" {
		t.Errorf("document name = %q, want cat.json", docName)
	}
	if ct := store.contentTypes["cat.json"]; ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}

	doc, err := docs.Load(ctx, docName)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Title != "Cat" || doc.Description != "A cat." {
		t.Errorf("round-trip = %q/%q, want Cat/A cat.", doc.Title, doc.Description)
	}
	if doc.UploadTimestamp < before {
		t.Errorf("timestamp %d is before save time %d", doc.UploadTimestamp, before)
	}
}

func TestLoadMissingReturnsPlaceholder(t *testing.T) {
	docs := NewStore(newMockObjectStore())

	doc, err := docs.Load(context.Background(), "ghost.json")
	if err != nil {
		t.Fatalf("Load of a missing document must not fail, got: %v", err)
	}
	if doc.Title != PlaceholderTitle {
		t.Errorf("Title = %q, want %q", doc.Title, PlaceholderTitle)
	}
	if doc.Description != PlaceholderDescription {
		t.Errorf("Description = %q, want %q", doc.Description, PlaceholderDescription)
	}
	if doc.UploadTimestamp != 0 {
		t.Errorf("UploadTimestamp = %d, want 0", doc.UploadTimestamp)
	}
}

func TestLoadFillsMissingFields(t *testing.T) {
	store := newMockObjectStore()
	store.objects["partial.json"] = []byte(`{"title": "Only a title", "upload_timestamp": 42}`)
	docs := NewStore(store)

	doc, err := docs.Load(context.Background(), "partial.json")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if doc.Title != "Only a title" {
		t.Errorf("Title = %q", doc.Title)
	}
	if doc.Description != PlaceholderDescription {
		t.Errorf("Description = %q, want placeholder", doc.Description)
	}
	if doc.UploadTimestamp != 42 {
		t.Errorf("UploadTimestamp = %d, want 42", doc.UploadTimestamp)
	}
}

func TestLoadCorruptDocument(t *testing.T) {
	store := newMockObjectStore()
	store.objects["bad.json"] = []byte("{not json")
	docs := NewStore(store)

	if _, err := docs.Load(context.Background(), "bad.json"); err == nil {
		t.Fatal("expected an error for a corrupt document")
	}
}
