package utils

import (
	"path/filepath"
	"strings"
)

const (
	// MimeTypeJPEG is regular jpgs.
	MimeTypeJPEG = "image/jpeg"

	// MimeTypePNG is regular pngs.
	MimeTypePNG = "image/png"

	// MimeTypePPM is binary portable pixmaps.
	MimeTypePPM = "image/x-portable-pixmap"

	// MimeTypeQOI is for .qoi "Quite OK Image" for lossless, fast encoding/decoding.
	MimeTypeQOI = "image/qoi"
)

var extensionMimeTypes = map[string]string{
	".jpg":  MimeTypeJPEG,
	".jpeg": MimeTypeJPEG,
	".png":  MimeTypePNG,
	".ppm":  MimeTypePPM,
	".qoi":  MimeTypeQOI,
}

// MimeTypeFromPath returns the image mime type for the path's extension, or false if the extension
// is not an image format we can write.
func MimeTypeFromPath(path string) (string, bool) {
	mimeType, ok := extensionMimeTypes[strings.ToLower(filepath.Ext(path))]
	return mimeType, ok
}
