package utils

import (
	"path/filepath"
	"strings"
)

// Contains reports whether the value is present in the slice.
func Contains[T comparable](items []T, v T) bool {
	for _, item := range items {
		if item == v {
			return true
		}
	}
	return false
}

// HasExtension checks if the file name ends with one of the supported extensions.
// The comparison is case insensitive.
func HasExtension(name string, exts []string) bool {
	return Contains(exts, strings.ToLower(filepath.Ext(name)))
}

// CleanPath normalizes a user supplied path. The pipe name and URLs are returned untouched.
func CleanPath(path, pipeName string) string {
	if path == "" || path == pipeName || IsValidUrl(path) {
		return path
	}
	return filepath.Clean(path)
}
