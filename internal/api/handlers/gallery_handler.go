package handlers

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/pixelshelf/backend/internal/domain"
	"github.com/pixelshelf/backend/internal/service"
	"github.com/pixelshelf/backend/internal/storage"
	"github.com/rs/zerolog/log"
)

type GalleryHandler struct {
	gallery   *service.GalleryService
	uploads   *service.UploadService
	uploadDir string
}

func NewGalleryHandler(gallery *service.GalleryService, uploads *service.UploadService, uploadDir string) *GalleryHandler {
	return &GalleryHandler{
		gallery:   gallery,
		uploads:   uploads,
		uploadDir: uploadDir,
	}
}

// Index renders the gallery page with every stored image, newest first.
func (h *GalleryHandler) Index(c *gin.Context) {
	entries, err := h.gallery.BuildView(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to build gallery view")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load gallery"})
		return
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Entries": entries,
	})
}

// Upload accepts a single form_file field and runs the upload pipeline.
// Non-JPEG filenames (and requests without a file) fall through to the
// redirect without touching the store.
func (h *GalleryHandler) Upload(c *gin.Context) {
	file, err := c.FormFile("form_file")
	if err != nil || file == nil || !service.IsJPEGFilename(file.Filename) {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	// Save the uploaded file to the scratch dir before the pipeline runs.
	scratchPath := filepath.Join(h.uploadDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, scratchPath); err != nil {
		log.Error().Err(err).Str("filename", file.Filename).Msg("failed to save uploaded file")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save uploaded file"})
		return
	}

	uploaded := &domain.UploadedFile{
		Filename: file.Filename,
		Path:     scratchPath,
		Size:     file.Size,
	}

	if err := h.uploads.Process(c.Request.Context(), uploaded); err != nil {
		log.Error().Err(err).Str("filename", file.Filename).Msg("upload pipeline failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}

	c.Redirect(http.StatusSeeOther, "/")
}

// Files returns the filtered list of stored image filenames.
func (h *GalleryHandler) Files(c *gin.Context) {
	images, err := h.gallery.ListImages(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("failed to list images")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list files"})
		return
	}

	c.JSON(http.StatusOK, images)
}

// File streams the raw bytes of a stored image.
func (h *GalleryHandler) File(c *gin.Context) {
	name := c.Param("filename")

	data, err := h.gallery.FetchObject(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found: " + name})
			return
		}
		log.Error().Err(err).Str("filename", name).Msg("failed to fetch image")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch file"})
		return
	}

	c.Data(http.StatusOK, "image/jpeg", data)
}

// Metadata streams the JSON metadata document for a named file, with a
// structured 404 body when the document does not exist.
func (h *GalleryHandler) Metadata(c *gin.Context) {
	name := c.Param("filename")

	data, err := h.gallery.FetchObject(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "metadata not found: " + name})
			return
		}
		log.Error().Err(err).Str("filename", name).Msg("failed to fetch metadata")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch metadata"})
		return
	}

	c.Data(http.StatusOK, "application/json", data)
}
