package domain

// Annotation is the title/description pair produced by the AI service for
// an uploaded image. Fallback is true when the service's output could not
// be parsed and the fixed error payload was substituted instead.
type Annotation struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Fallback    bool   `json:"-"`
}

// Metadata is the JSON document stored alongside each image in the bucket.
type Metadata struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	UploadTimestamp int64  `json:"upload_timestamp"`
}

// UploadedFile represents an uploaded file persisted to the scratch dir.
type UploadedFile struct {
	Filename string
	Path     string
	Size     int64
}

// GalleryEntry is the per-image view model for the gallery page. It is
// assembled at request time by joining the image object with its metadata
// document and is never persisted.
type GalleryEntry struct {
	Filename    string `json:"filename"`
	ImageURL    string `json:"image_url"`
	MetadataURL string `json:"json_url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"`
}
