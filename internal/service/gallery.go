package service

import (
	"context"
	"net/url"
	"sort"
	"strings"

	"github.com/pixelshelf/backend/internal/cache"
	"github.com/pixelshelf/backend/internal/domain"
	"github.com/pixelshelf/backend/internal/metadata"
	"github.com/pixelshelf/backend/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// metadataFetchLimit bounds the per-request fan-out of metadata downloads.
const metadataFetchLimit = 8

type GalleryService struct {
	objects storage.ObjectStorage
	docs    *metadata.Store
	cache   cache.GalleryCache
}

func NewGalleryService(objects storage.ObjectStorage, docs *metadata.Store, cacheImpl cache.GalleryCache) *GalleryService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopGalleryCache()
	}
	return &GalleryService{objects: objects, docs: docs, cache: cacheImpl}
}

// BuildView lists the bucket, joins every image with its metadata document
// and returns the entries newest-first. Images without a document get the
// placeholder text and timestamp 0, which sorts them last. Ties keep
// listing order.
func (s *GalleryService) BuildView(ctx context.Context) ([]domain.GalleryEntry, error) {
	if entries, ok, err := s.cache.GetView(ctx); err == nil && ok {
		return entries, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("gallery: cache get failed")
	}

	names, err := s.objects.List(ctx)
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(names))
	for _, name := range names {
		if IsJPEGFilename(name) {
			images = append(images, name)
		}
	}

	entries := make([]domain.GalleryEntry, len(images))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(metadataFetchLimit)

	for i, name := range images {
		g.Go(func() error {
			docName := metadata.DocumentName(name)
			doc, err := s.docs.Load(gctx, docName)
			if err != nil {
				return err
			}

			entries[i] = domain.GalleryEntry{
				Filename:    name,
				ImageURL:    "/file/" + url.PathEscape(name),
				MetadataURL: "/json/" + url.PathEscape(docName),
				Title:       doc.Title,
				Description: doc.Description,
				Timestamp:   doc.UploadTimestamp,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	// Newest first; stable so equal timestamps keep listing order.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})

	if err := s.cache.SetView(ctx, entries); err != nil {
		log.Warn().Err(err).Msg("gallery: cache set failed")
	}

	return entries, nil
}

// ListImages returns the filtered list of stored image filenames.
func (s *GalleryService) ListImages(ctx context.Context) ([]string, error) {
	names, err := s.objects.List(ctx)
	if err != nil {
		return nil, err
	}

	images := make([]string, 0, len(names))
	for _, name := range names {
		if IsJPEGFilename(name) {
			images = append(images, name)
		}
	}
	return images, nil
}

// FetchObject streams a named object's bytes out of the bucket.
func (s *GalleryService) FetchObject(ctx context.Context, name string) ([]byte, error) {
	return s.objects.Download(ctx, name)
}

// IsJPEGFilename reports whether a filename carries a JPEG extension.
// Only such files enter the upload pipeline or the gallery view.
func IsJPEGFilename(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg")
}
