package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pixelshelf/backend/internal/domain"
	"github.com/pixelshelf/backend/internal/storage"
)

const (
	// Extension holds the fixed extension of metadata documents.
	Extension = ".json"

	PlaceholderTitle       = "No metadata available"
	PlaceholderDescription = "No description available"
)

// Store persists one JSON metadata document per image in the same bucket
// as the images themselves, keyed by the image's base name.
type Store struct {
	objects storage.ObjectStorage
}

func NewStore(objects storage.ObjectStorage) *Store {
	return &Store{objects: objects}
}

// DocumentName derives the metadata document name for an image filename by
// swapping the extension.
func DocumentName(imageFilename string) string {
	if idx := strings.LastIndex(imageFilename, "."); idx >= 0 {
		return imageFilename[:idx] + Extension
	}
	return imageFilename + Extension
}

// Save stamps the annotation with the current epoch seconds, serializes it
// and uploads it next to the paired image. It returns the document name.
// The timestamp is assigned here, server-side, never by the client.
func (s *Store) Save(ctx context.Context, ann domain.Annotation, imageFilename string) (string, error) {
	doc := domain.Metadata{
		Title:           ann.Title,
		Description:     ann.Description,
		UploadTimestamp: time.Now().Unix(),
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode metadata for %s: %w", imageFilename, err)
	}

	name := DocumentName(imageFilename)
	if err := s.objects.UploadBytes(ctx, name, payload, "application/json"); err != nil {
		return "", fmt.Errorf("failed to store metadata %s: %w", name, err)
	}

	return name, nil
}

// Load fetches and parses a metadata document. A missing document is not
// an error: callers get the fixed placeholder with timestamp 0, which
// sorts after every real entry.
func (s *Store) Load(ctx context.Context, documentName string) (domain.Metadata, error) {
	payload, err := s.objects.Download(ctx, documentName)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Placeholder(), nil
		}
		return domain.Metadata{}, fmt.Errorf("failed to fetch metadata %s: %w", documentName, err)
	}

	var doc domain.Metadata
	if err := json.Unmarshal(payload, &doc); err != nil {
		return domain.Metadata{}, fmt.Errorf("failed to decode metadata %s: %w", documentName, err)
	}

	if doc.Title == "" {
		doc.Title = PlaceholderTitle
	}
	if doc.Description == "" {
		doc.Description = PlaceholderDescription
	}

	return doc, nil
}

// Placeholder is the document substituted for images with no stored
// metadata.
func Placeholder() domain.Metadata {
	return domain.Metadata{
		Title:           PlaceholderTitle,
		Description:     PlaceholderDescription,
		UploadTimestamp: 0,
	}
}
