package fetch

import (
	"regexp"
	"strings"
)

const (
	// maxNameLength caps sanitized names well below the common 255-byte
	// filesystem limit, leaving room for the audio extension.
	maxNameLength = 200

	// fallbackName is used when sanitization leaves nothing usable
	fallbackName = "untitled"
)

// invalidChars matches characters that are illegal in filenames on at least
// one of Windows, macOS or Linux, plus control characters.
var invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)

// SanitizeFilename rewrites a video title into a name that is safe to use
// as a filename on every supported platform. The result never has leading
// or trailing whitespace or dots, is at most maxNameLength runes long, and
// is never empty.
func SanitizeFilename(title string) string {
	sanitized := invalidChars.ReplaceAllString(title, "_")
	sanitized = strings.Trim(sanitized, " .")

	if runes := []rune(sanitized); len(runes) > maxNameLength {
		sanitized = string(runes[:maxNameLength])
		// Truncation can expose trailing whitespace or dots again
		sanitized = strings.Trim(sanitized, " .")
	}

	if sanitized == "" {
		return fallbackName
	}
	return sanitized
}
