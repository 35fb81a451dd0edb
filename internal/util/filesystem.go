package util

import (
	"path/filepath"
	"strings"
)

// videoExtensions is the allow-list of video container formats the watcher
// considers eligible. Everything else under the watched root is ignored.
var videoExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
	".mov":  true,
	".flv":  true,
	".m4v":  true,
}

// IsVideoFile reports whether path has a recognized video container
// extension (case-insensitive).
func IsVideoFile(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// VideoID derives the external video identifier from a file path: the base
// name without its extension. This is the entire derivation; TubeArchivist
// names archived files after the upstream video id.
func VideoID(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
