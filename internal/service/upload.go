package service

import (
	"context"
	"os"

	"github.com/pixelshelf/backend/internal/annotation"
	"github.com/pixelshelf/backend/internal/cache"
	"github.com/pixelshelf/backend/internal/domain"
	"github.com/pixelshelf/backend/internal/metadata"
	"github.com/pixelshelf/backend/internal/storage"
	"github.com/rs/zerolog/log"
)

type UploadService struct {
	annotator annotation.Annotator
	objects   storage.ObjectStorage
	docs      *metadata.Store
	cache     cache.GalleryCache
}

func NewUploadService(annotator annotation.Annotator, objects storage.ObjectStorage, docs *metadata.Store, cacheImpl cache.GalleryCache) *UploadService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopGalleryCache()
	}
	return &UploadService{
		annotator: annotator,
		objects:   objects,
		docs:      docs,
		cache:     cacheImpl,
	}
}

// Process runs the upload pipeline for a file already persisted to the
// scratch dir: annotate, store the image, store the metadata document,
// clean up. Non-JPEG filenames are silently ignored. Annotation is
// best-effort and never blocks the pipeline; storage failures propagate
// with no rollback of earlier steps.
func (s *UploadService) Process(ctx context.Context, file *domain.UploadedFile) error {
	if !IsJPEGFilename(file.Filename) {
		log.Debug().Str("filename", file.Filename).Msg("ignoring non-jpeg upload")
		return nil
	}

	ann, err := s.annotator.Analyze(ctx, file.Path)
	if err != nil {
		log.Error().Err(err).Str("filename", file.Filename).Msg("annotation failed, using fallback")
		ann = domain.Annotation{
			Title:       annotation.FallbackTitle,
			Description: annotation.FallbackDescription,
			Fallback:    true,
		}
	}

	storedName, err := s.objects.Upload(ctx, file.Path, "image/jpeg")
	if err != nil {
		return err
	}

	docName, err := s.docs.Save(ctx, ann, storedName)
	if err != nil {
		return err
	}

	if err := os.Remove(file.Path); err != nil {
		log.Warn().Err(err).Str("path", file.Path).Msg("failed to remove scratch file")
	}

	if err := s.cache.Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("gallery: cache invalidate failed")
	}

	log.Info().
		Str("image", storedName).
		Str("metadata", docName).
		Bool("fallback_annotation", ann.Fallback).
		Msg("upload stored")

	return nil
}
