package util

import (
	"errors"
	"path/filepath"
	"strings"
)

// imageContentTypes maps allowed upload MIME types to canonical extensions
var imageContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// IsValidImageType reports whether a Content-Type is an accepted image format
func IsValidImageType(contentType string) bool {
	_, ok := imageContentTypes[strings.ToLower(contentType)]
	return ok
}

// ExtensionForImageType returns the canonical file extension for an
// accepted image Content-Type, or empty string if not accepted.
func ExtensionForImageType(contentType string) string {
	return imageContentTypes[strings.ToLower(contentType)]
}

// IsValidImageFile checks if a filename has a valid image extension
func IsValidImageFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return true
	}
	return false
}

// ValidateFilename checks if a display filename is valid.
// Filename is required, cannot contain directory separators, and
// must be <= 255 chars.
func ValidateFilename(filename string) error {
	if filename == "" {
		return errors.New("filename is required")
	}
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		return errors.New("filename cannot contain directory paths")
	}
	if len(filename) > 255 {
		return errors.New("filename too long (max 255 characters)")
	}
	return nil
}
